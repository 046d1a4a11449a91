package domain

import "encoding/json"

// VerificationAttempt is one of CodeAttempt or OAuthAttempt. The two variants
// share a request shape but run different flows: only CodeAttempt touches
// pending registrations and codes.
type VerificationAttempt interface {
	attemptEmail() string
}

// CodeAttempt verifies an emailed code against a pending registration.
type CodeAttempt struct {
	Email      string `json:"email" validate:"required,email"`
	Code       string `json:"otp" validate:"required"`
	TempUserID string `json:"tempUserId" validate:"required"`
}

// OAuthAttempt forwards identity-provider data to the account backend.
type OAuthAttempt struct {
	Email     string          `json:"email" validate:"required,email"`
	OAuthData json.RawMessage `json:"oauthData"`
}

func (a CodeAttempt) attemptEmail() string  { return a.Email }
func (a OAuthAttempt) attemptEmail() string { return a.Email }

// Verification is the outcome of a successful attempt. Exactly one field is set:
// Finalized for CodeAttempt, Relayed for OAuthAttempt.
type Verification struct {
	Finalized *FinalizedAccount
	Relayed   *RelayedResponse
}
