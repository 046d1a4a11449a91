package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alumni-registry/internal/application/document"
	"github.com/alumni-registry/internal/domain"
	jwtinfra "github.com/alumni-registry/internal/infrastructure/jwt"
	"github.com/alumni-registry/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockDocumentSvc struct{ mock.Mock }

func (m *mockDocumentSvc) Upload(ctx context.Context, input document.UploadInput) (*domain.Document, error) {
	data, _ := io.ReadAll(input.Reader)
	args := m.Called(ctx, input.OwnerID, input.Filename, string(data))
	if d, _ := args.Get(0).(*domain.Document); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDocumentSvc) List(ctx context.Context, requester document.Requester, ownerID string) ([]domain.Document, error) {
	args := m.Called(ctx, requester, ownerID)
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *mockDocumentSvc) Get(ctx context.Context, requester document.Requester, documentID string) (*document.DocumentWithURL, error) {
	args := m.Called(ctx, requester, documentID)
	if d, _ := args.Get(0).(*document.DocumentWithURL); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDocumentSvc) Delete(ctx context.Context, requester document.Requester, documentID string) error {
	return m.Called(ctx, requester, documentID).Error(0)
}

// --- helpers ---

func withClaims(r *http.Request, userID, role string) *http.Request {
	return r.WithContext(middleware.WithClaims(r.Context(), &jwtinfra.Claims{UserID: userID, Role: role}))
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func multipartReq(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	r := httptest.NewRequest(http.MethodPost, "/v1/documents", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

var alumnus = document.Requester{UserID: "u1", Role: domain.RoleAlumni}

// --- tests ---

func TestUploadDocument_MissingClaims(t *testing.T) {
	h := NewDocumentHandler(&mockDocumentSvc{})
	rr := httptest.NewRecorder()
	h.Upload(rr, multipartReq(t, "file", "cv.pdf", "x"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUploadDocument_MissingFile(t *testing.T) {
	h := NewDocumentHandler(&mockDocumentSvc{})
	rr := httptest.NewRecorder()
	h.Upload(rr, withClaims(multipartReq(t, "", "", ""), "u1", domain.RoleAlumni))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "file is required", decodeBody(t, rr)["message"])
}

func TestUploadDocument_HappyPath(t *testing.T) {
	svc := &mockDocumentSvc{}
	svc.On("Upload", mock.Anything, "u1", "cv.pdf", "%PDF").Return(&domain.Document{DocumentID: "d1", OwnerID: "u1", Name: "cv.pdf"}, nil)

	h := NewDocumentHandler(svc)
	rr := httptest.NewRecorder()
	h.Upload(rr, withClaims(multipartReq(t, "file", "cv.pdf", "%PDF"), "u1", domain.RoleAlumni))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "d1", decodeBody(t, rr)["id"])
	svc.AssertExpectations(t)
}

func TestListDocuments(t *testing.T) {
	svc := &mockDocumentSvc{}
	svc.On("List", mock.Anything, alumnus, "").Return([]domain.Document{{DocumentID: "d1"}}, nil)

	h := NewDocumentHandler(svc)
	rr := httptest.NewRecorder()
	h.List(rr, withClaims(httptest.NewRequest(http.MethodGet, "/v1/documents", nil), "u1", domain.RoleAlumni))

	assert.Equal(t, http.StatusOK, rr.Code)
	data := decodeBody(t, rr)["data"].([]interface{})
	assert.Len(t, data, 1)
}

func TestGetDocument_Forbidden(t *testing.T) {
	svc := &mockDocumentSvc{}
	svc.On("Get", mock.Anything, alumnus, "d9").Return(nil, fmt.Errorf("access denied: %w", domain.ErrForbidden))

	h := NewDocumentHandler(svc)
	rr := httptest.NewRecorder()
	r := withChiID(withClaims(httptest.NewRequest(http.MethodGet, "/v1/documents/d9", nil), "u1", domain.RoleAlumni), "d9")
	h.Get(rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "access denied", decodeBody(t, rr)["message"])
}

func TestGetDocument_HappyPath(t *testing.T) {
	svc := &mockDocumentSvc{}
	svc.On("Get", mock.Anything, alumnus, "d1").Return(&document.DocumentWithURL{
		Document: domain.Document{DocumentID: "d1"}, URL: "https://signed",
	}, nil)

	h := NewDocumentHandler(svc)
	rr := httptest.NewRecorder()
	r := withChiID(withClaims(httptest.NewRequest(http.MethodGet, "/v1/documents/d1", nil), "u1", domain.RoleAlumni), "d1")
	h.Get(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	data := decodeBody(t, rr)["data"].(map[string]interface{})
	assert.Equal(t, "https://signed", data["url"])
}

func TestDeleteDocument_NotFound(t *testing.T) {
	svc := &mockDocumentSvc{}
	svc.On("Delete", mock.Anything, alumnus, "d1").Return(fmt.Errorf("document not found: %w", domain.ErrNotFound))

	h := NewDocumentHandler(svc)
	rr := httptest.NewRecorder()
	r := withChiID(withClaims(httptest.NewRequest(http.MethodDelete, "/v1/documents/d1", nil), "u1", domain.RoleAlumni), "d1")
	h.Delete(rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decodeBody(t, rr)["code"])
}

func withChiAction(r *http.Request, action string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("action", action)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
