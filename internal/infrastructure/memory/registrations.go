// Package memory holds in-process stores used for offline development and tests.
// They mirror the DynamoDB repos' semantics, including the conditional writes.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alumni-registry/internal/domain"
)

// PendingRepo keeps pending registrations keyed by email.
type PendingRepo struct {
	mu      sync.RWMutex
	byEmail map[string]domain.PendingRegistration
}

func NewPendingRepo() *PendingRepo {
	return &PendingRepo{byEmail: make(map[string]domain.PendingRegistration)}
}

// Put stores p and returns the registration it replaced, if any.
func (r *PendingRepo) Put(_ context.Context, p *domain.PendingRegistration) (*domain.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byEmail[p.Email]
	r.byEmail[p.Email] = *p
	if !ok {
		return nil, nil
	}
	return &old, nil
}

func (r *PendingRepo) Get(_ context.Context, email string) (*domain.PendingRegistration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("pending registration not found: %w", domain.ErrNotFound)
	}
	return &p, nil
}

// Delete removes the registration for email only while it belongs to tempUserID.
func (r *PendingRepo) Delete(_ context.Context, email, tempUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byEmail[email]; ok && p.TempUserID == tempUserID {
		delete(r.byEmail, email)
	}
	return nil
}

func (r *PendingRepo) DeleteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byEmail, email)
	return nil
}

func (r *PendingRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for email, p := range r.byEmail {
		if p.ExpiresAt < now.Unix() {
			delete(r.byEmail, email)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many registrations are stored.
func (r *PendingRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}

// OTPRepo keeps issued codes keyed by otp_id.
type OTPRepo struct {
	mu   sync.Mutex
	recs map[string]domain.OTPRecord
}

func NewOTPRepo() *OTPRepo {
	return &OTPRepo{recs: make(map[string]domain.OTPRecord)}
}

func (r *OTPRepo) Put(_ context.Context, rec *domain.OTPRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs[rec.OTPID] = *rec
	return nil
}

// Consume marks the matching code verified under the lock, so only one caller
// can consume a given code.
func (r *OTPRepo) Consume(_ context.Context, email, code, tempUserID string, now time.Time) (*domain.OTPRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, rec := range r.recs {
		if !rec.Matches(email, code, tempUserID, now) {
			continue
		}
		at := now.UTC()
		rec.Verified = true
		rec.VerifiedAt = &at
		r.recs[k] = rec
		return &rec, nil
	}
	return nil, domain.ErrCodeMismatch
}

func (r *OTPRepo) DeleteUnverified(_ context.Context, email, tempUserID string) error {
	r.deleteWhere(func(rec domain.OTPRecord) bool {
		return rec.Email == email && rec.TempUserID == tempUserID && !rec.Verified
	})
	return nil
}

func (r *OTPRepo) DeleteForRegistration(_ context.Context, email, tempUserID string) error {
	r.deleteWhere(func(rec domain.OTPRecord) bool {
		return rec.Email == email && rec.TempUserID == tempUserID
	})
	return nil
}

func (r *OTPRepo) DeleteByEmail(_ context.Context, email string) error {
	r.deleteWhere(func(rec domain.OTPRecord) bool { return rec.Email == email })
	return nil
}

func (r *OTPRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	return r.deleteWhere(func(rec domain.OTPRecord) bool { return rec.ExpiresAt < now.Unix() }), nil
}

// ForEmail returns copies of every code stored for email.
func (r *OTPRepo) ForEmail(email string) []domain.OTPRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.OTPRecord
	for _, rec := range r.recs {
		if rec.Email == email {
			out = append(out, rec)
		}
	}
	return out
}

func (r *OTPRepo) deleteWhere(match func(domain.OTPRecord) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, rec := range r.recs {
		if match(rec) {
			delete(r.recs, k)
			n++
		}
	}
	return n
}
