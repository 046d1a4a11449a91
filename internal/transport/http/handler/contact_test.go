package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alumni-registry/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockContactSvc struct{ mock.Mock }

func (m *mockContactSvc) Submit(ctx context.Context, msg domain.ContactMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func TestContactSubmit_Accepted(t *testing.T) {
	svc := &mockContactSvc{}
	msg := domain.ContactMessage{Name: "Jane", Email: "jane@x.com", Message: "hello"}
	svc.On("Submit", mock.Anything, msg).Return(nil)

	h := NewContactHandler(svc)
	rr := httptest.NewRecorder()
	h.Submit(rr, jsonReq(t, http.MethodPost, "/v1/contact", msg))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	svc.AssertExpectations(t)
}

func TestContactSubmit_Validation(t *testing.T) {
	svc := &mockContactSvc{}
	svc.On("Submit", mock.Anything, mock.Anything).Return(fmt.Errorf("message is required: %w", domain.ErrValidation))

	h := NewContactHandler(svc)
	rr := httptest.NewRecorder()
	h.Submit(rr, jsonReq(t, http.MethodPost, "/v1/contact", domain.ContactMessage{Name: "Jane"}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "message is required", decodeBody(t, rr)["message"])
}

func TestHealthPing(t *testing.T) {
	h := NewHealthHandler()
	rr := httptest.NewRecorder()
	h.Ping(rr, withChiAction(httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil), "ping"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rr.Body.String())
}
