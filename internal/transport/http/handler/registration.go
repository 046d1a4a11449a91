package handler

import (
	"net/http"

	"github.com/alumni-registry/internal/application/registration"
	"github.com/alumni-registry/internal/domain"
)

// RegistrationHandler serves the sign-up and verification endpoints.
type RegistrationHandler struct {
	svc registration.Service
}

func NewRegistrationHandler(svc registration.Service) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registration.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tempUserID, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterEnvelope{
		Message:    "Registration started. Check your email for the verification code.",
		TempUserID: tempUserID,
	})
}

func (h *RegistrationHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req registration.ResendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ResendCode(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "A new verification code has been sent."})
}

// VerifyOTP finalizes the account for a matching code. Replaying a code that
// already succeeded answers 400 session_expired.
func (h *RegistrationHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var attempt domain.CodeAttempt
	if !decodeJSON(w, r, &attempt) {
		return
	}
	v, err := h.svc.Verify(r.Context(), attempt)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{
		Message: "Email verified successfully.",
		User:    v.Finalized.Account,
		Token:   v.Finalized.Token,
	})
}

// VerifyOAuth relays the account backend's answer, status and body unchanged.
func (h *RegistrationHandler) VerifyOAuth(w http.ResponseWriter, r *http.Request) {
	var attempt domain.OAuthAttempt
	if !decodeJSON(w, r, &attempt) {
		return
	}
	v, err := h.svc.Verify(r.Context(), attempt)
	if err != nil {
		httpError(w, err)
		return
	}
	contentType := v.Relayed.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(v.Relayed.Status)
	_, _ = w.Write(v.Relayed.Body)
}

func (h *RegistrationHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Sweep(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CleanupEnvelope{Message: "Cleanup completed", SweepResult: *res})
}
