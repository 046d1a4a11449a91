package handler

import (
	"encoding/json"
	"net/http"

	"github.com/alumni-registry/internal/application/document"
	"github.com/alumni-registry/internal/domain"
)

// MessageEnvelope is the generic response wrapper. Code is set on errors only.
type MessageEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RegisterEnvelope wraps the registration intake response.
type RegisterEnvelope struct {
	Message    string `json:"message"`
	TempUserID string `json:"tempUserId"`
}

// VerifyEnvelope wraps a finalized account.
type VerifyEnvelope struct {
	Message string         `json:"message"`
	User    domain.Account `json:"user"`
	Token   string         `json:"token"`
}

// CleanupEnvelope wraps sweep counts.
type CleanupEnvelope struct {
	Message string `json:"message"`
	domain.SweepResult
}

// DocumentsEnvelope wraps document listings.
type DocumentsEnvelope struct {
	Data []domain.Document `json:"data"`
}

// DocumentEnvelope wraps a single document with its download link.
type DocumentEnvelope struct {
	Data *document.DocumentWithURL `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg, Code: code})
}

// decodeJSON reads a bounded JSON body into v, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return false
	}
	return true
}

const maxJSONBody = 64 << 10
