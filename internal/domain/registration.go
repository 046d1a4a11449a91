package domain

import (
	"strings"
	"time"
)

// PendingRegistration is a registration awaiting email verification.
// PK: email, so a new intake for the same email overwrites the previous one.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL and re-checked by every reader.
type PendingRegistration struct {
	TempUserID     string    `json:"tempUserId" dynamodbav:"temp_user_id"`
	Name           string    `json:"name" dynamodbav:"name"`
	Email          string    `json:"email" dynamodbav:"email"`
	SealedPassword string    `json:"-" dynamodbav:"sealed_password"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt      int64     `json:"expires_at" dynamodbav:"expires_at"`
}

// Expired reports whether the registration is past its expiry at now.
func (p *PendingRegistration) Expired(now time.Time) bool {
	return p.ExpiresAt <= now.Unix()
}

// OTPRecord is one issued verification code.
// PK: email, SK: otp_id.
type OTPRecord struct {
	Email      string     `json:"email" dynamodbav:"email"`
	OTPID      string     `json:"id" dynamodbav:"otp_id"`
	Code       string     `json:"-" dynamodbav:"code"`
	TempUserID string     `json:"tempUserId" dynamodbav:"temp_user_id"`
	CreatedAt  time.Time  `json:"created" dynamodbav:"created_at"`
	ExpiresAt  int64      `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	Verified   bool       `json:"verified" dynamodbav:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty" dynamodbav:"verified_at"`
}

// Expired reports whether the code is past its expiry at now.
func (r *OTPRecord) Expired(now time.Time) bool {
	return r.ExpiresAt <= now.Unix()
}

// Matches reports whether r is a live, unverified code for the given triple.
func (r *OTPRecord) Matches(email, code, tempUserID string, now time.Time) bool {
	return r.Email == email && r.Code == code && r.TempUserID == tempUserID && !r.Verified && !r.Expired(now)
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SweepResult counts the rows removed by one expiry sweep.
type SweepResult struct {
	PendingRemoved int `json:"tempUsersRemoved"`
	OTPsRemoved    int `json:"otpsRemoved"`
}
