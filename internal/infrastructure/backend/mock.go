package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/alumni-registry/internal/domain"
	"github.com/alumni-registry/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

type tokenSigner interface {
	Sign(userID, role string) (string, error)
}

type mockAccount struct {
	domain.Account
	passwordHash []byte
}

// Mock is an in-memory account backend for running without BACKEND_URL.
// With a nil signer it issues opaque ULID tokens.
type Mock struct {
	mu      sync.Mutex
	byEmail map[string]mockAccount
	signer  tokenSigner
}

func NewMock(signer tokenSigner) *Mock {
	return &Mock{byEmail: make(map[string]mockAccount), signer: signer}
}

func (m *Mock) Register(_ context.Context, acc domain.NewAccount) (*domain.FinalizedAccount, error) {
	email := domain.NormalizeEmail(acc.Email)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return nil, fmt.Errorf("account already exists: %w", domain.ErrAccountExists)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &domain.BackendError{Status: http.StatusInternalServerError, Message: "could not hash password"}
	}
	a := mockAccount{
		Account:      domain.Account{ID: id.New(), Name: acc.Name, Email: email, Role: domain.RoleAlumni},
		passwordHash: hash,
	}
	token, err := m.token(a.Account)
	if err != nil {
		return nil, err
	}
	m.byEmail[email] = a
	slog.Info("mock backend: account created", "email", email, "id", a.ID)
	return &domain.FinalizedAccount{Account: a.Account, Token: token}, nil
}

func (m *Mock) VerifyOAuth(_ context.Context, email string, oauthData json.RawMessage) (*domain.RelayedResponse, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return relay(http.StatusBadRequest, map[string]string{"message": "email is required"})
	}
	var data struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(oauthData, &data)

	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byEmail[email]
	status := http.StatusOK
	if !ok {
		name := data.Name
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		a = mockAccount{Account: domain.Account{ID: id.New(), Name: name, Email: email, Role: domain.RoleAlumni}}
		m.byEmail[email] = a
		status = http.StatusCreated
	}
	token, err := m.token(a.Account)
	if err != nil {
		return nil, err
	}
	return relay(status, map[string]interface{}{
		"message": "oauth verification successful",
		"user":    a.Account,
		"token":   token,
	})
}

// CheckPassword reports whether password matches the stored hash for email.
func (m *Mock) CheckPassword(email, password string) bool {
	m.mu.Lock()
	a, ok := m.byEmail[domain.NormalizeEmail(email)]
	m.mu.Unlock()
	if !ok || a.passwordHash == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
}

func (m *Mock) token(a domain.Account) (string, error) {
	if m.signer == nil {
		return id.New(), nil
	}
	t, err := m.signer.Sign(a.ID, a.Role)
	if err != nil {
		return "", &domain.BackendError{Status: http.StatusInternalServerError, Message: "could not issue token"}
	}
	return t, nil
}

func relay(status int, v interface{}) (*domain.RelayedResponse, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &domain.RelayedResponse{Status: status, ContentType: "application/json", Body: body}, nil
}
