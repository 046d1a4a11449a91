package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alumni-registry/internal/config"
	"github.com/alumni-registry/internal/infrastructure/backend"
	jwtinfra "github.com/alumni-registry/internal/infrastructure/jwt"
	"github.com/alumni-registry/internal/infrastructure/memory"
	"github.com/alumni-registry/internal/pkg/seal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	mu     sync.Mutex
	bodies []string
}

func (m *captureMailer) SendEmail(_ context.Context, _, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, body)
	return nil
}

var sixDigits = regexp.MustCompile(`\b\d{6}\b`)

func (m *captureMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.bodies) == 0 {
		return ""
	}
	return sixDigits.FindString(m.bodies[len(m.bodies)-1])
}

type memObjects struct {
	mu   sync.Mutex
	objs map[string][]byte
}

func (m *memObjects) Upload(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objs[key] = data
	return "mem://" + key, nil
}

func (m *memObjects) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.test/" + key, nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objs, key)
	return nil
}

func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))
	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes}), 0600))

	p, err := jwtinfra.NewProvider(&config.Config{JWTPrivateKeyPath: privPath, JWTPublicKeyPath: pubPath, JWTExpiry: time.Hour})
	require.NoError(t, err)
	return p
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...func(*Deps)) (*httptest.Server, *captureMailer, *backend.Mock) {
	t.Helper()
	sealer, err := seal.NewRandom()
	require.NoError(t, err)
	mailer := &captureMailer{}
	accounts := backend.NewMock(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	deps := &Deps{
		PendingRepo:  memory.NewPendingRepo(),
		OTPRepo:      memory.NewOTPRepo(),
		DocumentRepo: memory.NewDocumentRepo(),
		ObjectStore:  &memObjects{objs: map[string][]byte{}},
		Mailer:       mailer,
		Sealer:       sealer,
		Backend:      accounts,
	}
	for _, opt := range opts {
		opt(deps)
	}
	srv := httptest.NewServer(NewRouter(ctx, cfg, deps))
	t.Cleanup(srv.Close)
	return srv, mailer, accounts
}

func testConfig() *config.Config {
	return &config.Config{
		AllowedOrigins: []string{"*"},
		PendingTTL:     30 * time.Minute,
		OTPTTL:         10 * time.Minute,
		CleanupToken:   "sweep-secret",
	}
}

func post(t *testing.T, url string, body interface{}, header map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestRouter_RegisterVerifyFlow(t *testing.T) {
	srv, mailer, accounts := newTestServer(t, testConfig())

	resp, body := post(t, srv.URL+"/v1/auth/register", map[string]string{
		"name": "Jane", "email": "Jane@X.com", "password": "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tempUserID, _ := body["tempUserId"].(string)
	require.NotEmpty(t, tempUserID)

	resp, body = post(t, srv.URL+"/v1/auth/verify-otp", map[string]string{
		"email": "jane@x.com", "otp": "000000", "tempUserId": tempUserID,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "code_mismatch", body["code"])

	resp, body = post(t, srv.URL+"/v1/auth/verify-otp", map[string]string{
		"email": "jane@x.com", "otp": mailer.lastCode(), "tempUserId": tempUserID,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "jane@x.com", user["email"])
	assert.NotEmpty(t, body["token"])
	assert.True(t, accounts.CheckPassword("jane@x.com", "secret1"))

	// A second sign-up for the same address gets a code but cannot finalize.
	resp, body = post(t, srv.URL+"/v1/auth/register", map[string]string{
		"name": "Jane", "email": "jane@x.com", "password": "secret2",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, body = post(t, srv.URL+"/v1/auth/verify-otp", map[string]string{
		"email": "jane@x.com", "otp": mailer.lastCode(), "tempUserId": body["tempUserId"].(string),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "already_registered", body["code"])
}

func TestRouter_CleanupRequiresToken(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())

	resp, _ := post(t, srv.URL+"/v1/auth/cleanup", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := post(t, srv.URL+"/v1/auth/cleanup", nil, map[string]string{"X-Cleanup-Token": "sweep-secret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["tempUsersRemoved"])
	assert.Equal(t, float64(0), body["otpsRemoved"])
}

func verifyStatuses(t *testing.T, srv *httptest.Server, n int) []int {
	t.Helper()
	codes := make([]int, 0, n)
	for i := 0; i < n; i++ {
		resp, _ := post(t, srv.URL+"/v1/auth/verify-otp", map[string]string{"email": "jane@x.com"},
			map[string]string{"X-Forwarded-For": fmt.Sprintf("203.0.113.%d", i+1)})
		codes = append(codes, resp.StatusCode)
	}
	return codes
}

func TestRouter_VerifyLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())

	codes := verifyStatuses(t, srv, 12)
	assert.NotContains(t, codes[:10], http.StatusTooManyRequests)
	assert.Contains(t, codes[10:], http.StatusTooManyRequests)
}

func TestRouter_TrustProxyKeysOnForwardedFor(t *testing.T) {
	cfg := testConfig()
	cfg.TrustProxy = true
	srv, _, _ := newTestServer(t, cfg)

	assert.NotContains(t, verifyStatuses(t, srv, 12), http.StatusTooManyRequests)
}

func TestRouter_DocumentsClosedWithoutTokenVerifier(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())

	resp, err := http.Get(srv.URL + "/v1/documents")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_HealthCheck(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())

	resp, err := http.Get(srv.URL + "/v1/health-check/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func withBearer(t *testing.T, req *http.Request, p *jwtinfra.Provider, userID, role string) {
	t.Helper()
	tok, err := p.Sign(userID, role)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
}

func TestRouter_AdminCleanupRequiresAdminRole(t *testing.T) {
	p := newTestJWTProvider(t)
	srv, _, _ := newTestServer(t, testConfig(), func(d *Deps) { d.TokenVerifier = p })

	for role, want := range map[string]int{"alumni": http.StatusForbidden, "admin": http.StatusOK} {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/admin/cleanup", nil)
		require.NoError(t, err)
		withBearer(t, req, p, "u-"+role, role)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, role)
	}
}

func TestRouter_DocumentUploadAndFetch(t *testing.T) {
	p := newTestJWTProvider(t)
	srv, _, _ := newTestServer(t, testConfig(), func(d *Deps) { d.TokenVerifier = p })

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "diploma.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.7"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/documents", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	withBearer(t, req, p, "u1", "alumni")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var created map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	docID := created["id"].(string)

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/v1/documents/"+docID, nil)
	require.NoError(t, err)
	withBearer(t, req, p, "u2", "alumni")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/v1/documents/"+docID, nil)
	require.NoError(t, err)
	withBearer(t, req, p, "u1", "alumni")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var got struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, got.Data.URL, "documents/u1/"+docID+"-diploma.pdf")
}
