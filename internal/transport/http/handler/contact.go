package handler

import (
	"net/http"

	"github.com/alumni-registry/internal/application/contact"
	"github.com/alumni-registry/internal/domain"
)

type ContactHandler struct {
	svc contact.Service
}

func NewContactHandler(svc contact.Service) *ContactHandler { return &ContactHandler{svc: svc} }

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var msg domain.ContactMessage
	if !decodeJSON(w, r, &msg) {
		return
	}
	if err := h.svc.Submit(r.Context(), msg); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "Thank you, your message has been received."})
}
