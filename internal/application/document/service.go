package document

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/alumni-registry/internal/domain"
	s3infra "github.com/alumni-registry/internal/infrastructure/s3"
	"github.com/alumni-registry/internal/pkg/id"
)

const (
	// MaxUploadBytes caps a single document.
	MaxUploadBytes = 10 << 20

	presignTTL = 15 * time.Minute
)

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	OwnerID     string
}

// Requester identifies who is acting on a document.
type Requester struct {
	UserID string
	Role   string
}

func (r Requester) canAccess(d *domain.Document) bool {
	return d.OwnerID == r.UserID || r.Role == domain.RoleAdmin
}

// DocumentWithURL is document metadata plus a short-lived download link.
type DocumentWithURL struct {
	domain.Document
	URL       string    `json:"url"`
	URLExpiry time.Time `json:"url_expires"`
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.Document, error)
	List(ctx context.Context, requester Requester, ownerID string) ([]domain.Document, error)
	Get(ctx context.Context, requester Requester, documentID string) (*DocumentWithURL, error)
	Delete(ctx context.Context, requester Requester, documentID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type documentStore interface {
	Put(ctx context.Context, d *domain.Document) error
	Get(ctx context.Context, documentID string) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error)
	Delete(ctx context.Context, documentID string) error
}

type service struct {
	objects objectStore
	repo    documentStore
	now     func() time.Time
}

func NewService(objects objectStore, repo documentStore) Service {
	return &service{objects: objects, repo: repo, now: time.Now}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.Document, error) {
	if input.OwnerID == "" {
		return nil, fmt.Errorf("missing owner: %w", domain.ErrUnauthorized)
	}
	data, err := io.ReadAll(io.LimitReader(input.Reader, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty: %w", domain.ErrValidation)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("file must be at most %d MiB: %w", MaxUploadBytes>>20, domain.ErrValidation)
	}

	docID := id.New()
	safeName := sanitizeFilename(input.Filename)
	key := fmt.Sprintf("documents/%s/%s-%s", input.OwnerID, docID, safeName)
	contentType := input.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = s3infra.DetectContentType(safeName)
	}
	if _, err := s.objects.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	d := &domain.Document{
		DocumentID: docID,
		OwnerID:    input.OwnerID,
		Object:     key,
		Name:       safeName,
		Type:       contentType,
		Size:       int64(len(data)),
		Hash:       hex.EncodeToString(sum[:]),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Put(ctx, d); err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			slog.Warn("document: remove orphaned object", "key", key, "error", delErr)
		}
		return nil, err
	}
	return d, nil
}

// List returns ownerID's documents. An empty ownerID lists the requester's own.
func (s *service) List(ctx context.Context, requester Requester, ownerID string) ([]domain.Document, error) {
	if ownerID == "" {
		ownerID = requester.UserID
	}
	if ownerID != requester.UserID && requester.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *service) Get(ctx context.Context, requester Requester, documentID string) (*DocumentWithURL, error) {
	d, err := s.authorized(ctx, requester, documentID)
	if err != nil {
		return nil, err
	}
	url, err := s.objects.PresignedURL(ctx, d.Object, presignTTL)
	if err != nil {
		return nil, err
	}
	return &DocumentWithURL{Document: *d, URL: url, URLExpiry: s.now().UTC().Add(presignTTL)}, nil
}

func (s *service) Delete(ctx context.Context, requester Requester, documentID string) error {
	d, err := s.authorized(ctx, requester, documentID)
	if err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, d.Object); err != nil {
		return err
	}
	return s.repo.Delete(ctx, documentID)
}

func (s *service) authorized(ctx context.Context, requester Requester, documentID string) (*domain.Document, error) {
	d, err := s.repo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !requester.canAccess(d) {
		return nil, fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	return d, nil
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) so names cannot escape the owner's prefix.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "_"
}
