package handler

import (
	"errors"
	"net/http"

	"github.com/alumni-registry/internal/application/document"
	"github.com/alumni-registry/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead leaves room for form boundaries around the file part.
const multipartOverhead = 1 << 20

// DocumentHandler serves supporting-document endpoints. All routes require auth.
type DocumentHandler struct {
	svc document.Service
}

func NewDocumentHandler(svc document.Service) *DocumentHandler { return &DocumentHandler{svc: svc} }

func requester(r *http.Request) (document.Requester, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return document.Requester{}, false
	}
	return document.Requester{UserID: claims.UserID, Role: claims.Role}, true
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, document.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge, "file must be at most 10 MiB")
			return
		}
		writeError(w, http.StatusBadRequest, codeValidation, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "file is required")
		return
	}
	defer file.Close()

	d, err := h.svc.Upload(r.Context(), document.UploadInput{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		OwnerID:     req.UserID,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	docs, err := h.svc.List(r.Context(), req, r.URL.Query().Get("owner"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentsEnvelope{Data: docs})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	d, err := h.svc.Get(r.Context(), req, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentEnvelope{Data: d})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), req, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "document deleted"})
}
