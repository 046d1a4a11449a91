package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Registration flow errors. Each maps to one client-side branch: fix the input,
// retry the step, or restart registration.
var (
	ErrValidation      = errors.New("validation failed")
	ErrSessionExpired  = errors.New("registration session expired, please register again")
	ErrCodeMismatch    = errors.New("invalid or expired verification code")
	ErrDispatch        = errors.New("failed to send verification email")
	ErrAccountExists   = errors.New("account already registered, please log in")
	ErrDownstream      = errors.New("account service failed")
	ErrPendingNotFound = errors.New("pending registration data not found")
)

// BackendError carries the status and message returned by the account backend.
// It unwraps to ErrDownstream.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string { return e.Message }

func (e *BackendError) Unwrap() error { return ErrDownstream }
