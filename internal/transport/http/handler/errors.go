package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alumni-registry/internal/domain"
)

// Stable machine-readable error codes returned alongside the message.
const (
	codeValidation      = "validation_failed"
	codeSessionExpired  = "session_expired"
	codeCodeMismatch    = "code_mismatch"
	codeAlreadyExists   = "already_registered"
	codeDispatch        = "dispatch_failed"
	codeDownstream      = "downstream_failed"
	codePendingNotFound = "pending_not_found"
	codeUnauthorized    = "unauthorized"
	codeForbidden       = "forbidden"
	codeNotFound        = "not_found"
	codeConflict        = "conflict"
	codeTooLarge        = "payload_too_large"
	codeInternal        = "internal"
)

type errorMapping struct {
	target error
	status int
	code   string
	// detail exposes the wrapping context instead of the fixed sentinel text.
	detail bool
}

var errorMappings = []errorMapping{
	{domain.ErrValidation, http.StatusBadRequest, codeValidation, true},
	{domain.ErrBadRequest, http.StatusBadRequest, codeValidation, true},
	{domain.ErrSessionExpired, http.StatusBadRequest, codeSessionExpired, false},
	{domain.ErrCodeMismatch, http.StatusBadRequest, codeCodeMismatch, false},
	{domain.ErrAccountExists, http.StatusBadRequest, codeAlreadyExists, false},
	{domain.ErrUnauthorized, http.StatusUnauthorized, codeUnauthorized, true},
	{domain.ErrForbidden, http.StatusForbidden, codeForbidden, true},
	{domain.ErrNotFound, http.StatusNotFound, codeNotFound, true},
	{domain.ErrConflict, http.StatusConflict, codeConflict, true},
	{domain.ErrDispatch, http.StatusInternalServerError, codeDispatch, false},
	{domain.ErrPendingNotFound, http.StatusInternalServerError, codePendingNotFound, false},
}

// httpError maps a service error to a status and {message, code} body.
// Unrecognised errors are logged and reported as a bare 500.
func httpError(w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.target.Error()
		if m.detail {
			msg = detailMessage(err, m.target)
		}
		if m.status >= http.StatusInternalServerError {
			slog.Error("request failed", "error", err)
		}
		writeError(w, m.status, m.code, msg)
		return
	}

	var be *domain.BackendError
	if errors.As(err, &be) {
		slog.Error("account backend failed", "status", be.Status, "error", err)
		writeError(w, http.StatusInternalServerError, codeDownstream, be.Message)
		return
	}
	if errors.Is(err, domain.ErrDownstream) {
		slog.Error("account backend failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeDownstream, domain.ErrDownstream.Error())
		return
	}

	slog.Error("unhandled error", "error", err)
	writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
}

// detailMessage strips the trailing ": <sentinel>" that %w wrapping appends.
func detailMessage(err, target error) string {
	full := err.Error()
	msg := strings.TrimSuffix(full, ": "+target.Error())
	if msg == "" || msg == full {
		return target.Error()
	}
	return msg
}
