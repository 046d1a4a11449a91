package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alumni-registry/internal/config"
	"github.com/alumni-registry/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(&config.Config{BackendURL: srv.URL, BackendTimeout: time.Second})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var newAcc = domain.NewAccount{Name: "Jane", Email: "jane@x.com", Password: "secret1"}

func TestRegister_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, registerPath, r.URL.Path)
		var got domain.NewAccount
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, newAcc, got)
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "created",
			"user":    map[string]interface{}{"_id": "a1", "name": "Jane", "email": "jane@x.com", "role": "alumni", "settings": map[string]bool{"public": true}},
			"token":   "tok",
		})
	})

	acc, err := c.Register(context.Background(), newAcc)
	require.NoError(t, err)
	assert.Equal(t, "a1", acc.Account.ID)
	assert.Equal(t, "tok", acc.Token)
	assert.JSONEq(t, `{"public":true}`, string(acc.Account.Settings))
}

func TestRegister_AlreadyExists(t *testing.T) {
	cases := map[string]struct {
		status int
		msg    string
	}{
		"conflict":         {http.StatusConflict, "duplicate"},
		"400 with message": {http.StatusBadRequest, "User already exists"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tc.status, map[string]string{"message": tc.msg})
			})
			_, err := c.Register(context.Background(), newAcc)
			assert.True(t, errors.Is(err, domain.ErrAccountExists))
		})
	}
}

func TestRegister_OtherFailureCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "academic unit missing"})
	})
	_, err := c.Register(context.Background(), newAcc)
	require.Error(t, err)
	var be *domain.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusBadRequest, be.Status)
	assert.Equal(t, "academic unit missing", be.Message)
	assert.True(t, errors.Is(err, domain.ErrDownstream))
	assert.False(t, errors.Is(err, domain.ErrAccountExists))
}

func TestRegister_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	c := NewClient(&config.Config{BackendURL: srv.URL, BackendTimeout: 50 * time.Millisecond})

	_, err := c.Register(context.Background(), newAcc)
	assert.True(t, errors.Is(err, domain.ErrDownstream))
}

func TestRegister_NotConfigured(t *testing.T) {
	c := NewClient(&config.Config{BackendTimeout: time.Second})
	_, err := c.Register(context.Background(), newAcc)
	assert.True(t, errors.Is(err, domain.ErrDownstream))
}

func TestVerifyOAuth_RelaysStatusAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, oauthVerifyPath, r.URL.Path)
		var got oauthRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "jane@x.com", got.Email)
		assert.JSONEq(t, `{"provider":"github"}`, string(got.OAuthData))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "unlinked provider"})
	})

	resp, err := c.VerifyOAuth(context.Background(), "jane@x.com", json.RawMessage(`{"provider":"github"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.JSONEq(t, `{"message":"unlinked provider"}`, string(resp.Body))
}
