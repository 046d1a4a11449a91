package http

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/alumni-registry/internal/domain"
	"github.com/alumni-registry/internal/infrastructure/google"
	jwtinfra "github.com/alumni-registry/internal/infrastructure/jwt"
)

// PendingRepository is the minimal interface the router requires from a pending-registration store.
type PendingRepository interface {
	Put(ctx context.Context, p *domain.PendingRegistration) (*domain.PendingRegistration, error)
	Get(ctx context.Context, email string) (*domain.PendingRegistration, error)
	Delete(ctx context.Context, email, tempUserID string) error
	DeleteByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// OTPRepository is the minimal interface the router requires from a verification-code store.
// Consume must mark at most one matching, unverified, unexpired code as verified.
type OTPRepository interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Consume(ctx context.Context, email, code, tempUserID string, now time.Time) (*domain.OTPRecord, error)
	DeleteUnverified(ctx context.Context, email, tempUserID string) error
	DeleteForRegistration(ctx context.Context, email, tempUserID string) error
	DeleteByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// DocumentRepository is the minimal interface the router requires from a document metadata store.
type DocumentRepository interface {
	Put(ctx context.Context, d *domain.Document) error
	Get(ctx context.Context, documentID string) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error)
	Delete(ctx context.Context, documentID string) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type Publisher interface {
	Publish(ctx context.Context, topicARN, subject, message string) error
}

type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// AccountBackend creates accounts and verifies OAuth identities.
type AccountBackend interface {
	Register(ctx context.Context, acc domain.NewAccount) (*domain.FinalizedAccount, error)
	VerifyOAuth(ctx context.Context, email string, oauthData json.RawMessage) (*domain.RelayedResponse, error)
}

type IDTokenVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type TokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}
