package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/alumni-registry/internal/domain"
)

// DocumentRepo keeps document metadata keyed by document_id.
type DocumentRepo struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

func NewDocumentRepo() *DocumentRepo {
	return &DocumentRepo{docs: make(map[string]domain.Document)}
}

func (r *DocumentRepo) Put(_ context.Context, d *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[d.DocumentID] = *d
	return nil
}

func (r *DocumentRepo) Get(_ context.Context, documentID string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docs[documentID]
	if !ok {
		return nil, fmt.Errorf("document not found: %w", domain.ErrNotFound)
	}
	return &d, nil
}

// ListByOwner returns the owner's documents, newest first.
func (r *DocumentRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := []domain.Document{}
	for _, d := range r.docs {
		if d.OwnerID == ownerID {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

func (r *DocumentRepo) Delete(_ context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, documentID)
	return nil
}
