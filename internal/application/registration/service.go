// Package registration runs the email-verified sign-up flow: intake, code
// issue and resend, verification with account finalize, and expiry sweeps.
package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alumni-registry/internal/domain"
	"github.com/alumni-registry/internal/infrastructure/google"
	"github.com/alumni-registry/internal/pkg/id"
	"github.com/alumni-registry/internal/pkg/otp"
	"github.com/alumni-registry/internal/pkg/validate"
)

const (
	defaultPendingTTL = 30 * time.Minute
	defaultOTPTTL     = 10 * time.Minute

	emailSubject = "Your verification code"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type ResendRequest struct {
	Email      string `json:"email" validate:"required,email"`
	TempUserID string `json:"tempUserId" validate:"required"`
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (tempUserID string, err error)
	ResendCode(ctx context.Context, req ResendRequest) error
	Verify(ctx context.Context, attempt domain.VerificationAttempt) (*domain.Verification, error)
	Sweep(ctx context.Context) (*domain.SweepResult, error)
}

type pendingStore interface {
	Put(ctx context.Context, p *domain.PendingRegistration) (*domain.PendingRegistration, error)
	Get(ctx context.Context, email string) (*domain.PendingRegistration, error)
	Delete(ctx context.Context, email, tempUserID string) error
	DeleteByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type otpStore interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Consume(ctx context.Context, email, code, tempUserID string, now time.Time) (*domain.OTPRecord, error)
	DeleteUnverified(ctx context.Context, email, tempUserID string) error
	DeleteForRegistration(ctx context.Context, email, tempUserID string) error
	DeleteByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

type accountBackend interface {
	Register(ctx context.Context, acc domain.NewAccount) (*domain.FinalizedAccount, error)
	VerifyOAuth(ctx context.Context, email string, oauthData json.RawMessage) (*domain.RelayedResponse, error)
}

type idTokenVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type service struct {
	pending    pendingStore
	otps       otpStore
	mailer     mailer
	sealer     sealer
	backend    accountBackend
	idTokens   idTokenVerifier
	pendingTTL time.Duration
	otpTTL     time.Duration
	now        func() time.Time
}

// ServiceDeps wires the registration service. IDTokenVerifier may be nil, which
// disables the Google ID-token pre-check. Zero TTLs fall back to 30 and 10 minutes.
type ServiceDeps struct {
	PendingRepo     pendingStore
	OTPRepo         otpStore
	Mailer          mailer
	Sealer          sealer
	Backend         accountBackend
	IDTokenVerifier idTokenVerifier
	PendingTTL      time.Duration
	OTPTTL          time.Duration
	Clock           func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		pending:    deps.PendingRepo,
		otps:       deps.OTPRepo,
		mailer:     deps.Mailer,
		sealer:     deps.Sealer,
		backend:    deps.Backend,
		idTokens:   deps.IDTokenVerifier,
		pendingTTL: deps.PendingTTL,
		otpTTL:     deps.OTPTTL,
		now:        deps.Clock,
	}
	if s.pendingTTL <= 0 {
		s.pendingTTL = defaultPendingTTL
	}
	if s.otpTTL <= 0 {
		s.otpTTL = defaultOTPTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return "", err
	}
	email := domain.NormalizeEmail(req.Email)

	sealed, err := s.sealer.Seal(req.Password)
	if err != nil {
		return "", fmt.Errorf("seal password: %w", err)
	}
	now := s.now().UTC()
	p := &domain.PendingRegistration{
		TempUserID:     id.New(),
		Name:           req.Name,
		Email:          email,
		SealedPassword: sealed,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.pendingTTL).Unix(),
	}
	replaced, err := s.pending.Put(ctx, p)
	if err != nil {
		return "", fmt.Errorf("store pending registration: %w", err)
	}
	if replaced != nil && replaced.TempUserID != p.TempUserID {
		if err := s.otps.DeleteForRegistration(ctx, email, replaced.TempUserID); err != nil {
			slog.Warn("registration: clear superseded codes", "email", email, "error", err)
		}
	}

	code, err := s.issueCode(ctx, email, p.TempUserID)
	if err != nil {
		s.rollback(ctx, email, p.TempUserID)
		return "", err
	}

	// A concurrent intake for the same email may have replaced p after our Put.
	current, err := s.pending.Get(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.rollback(ctx, email, p.TempUserID)
		return "", fmt.Errorf("reload pending registration: %w", err)
	}
	if err != nil || current.TempUserID != p.TempUserID {
		if delErr := s.otps.DeleteForRegistration(ctx, email, p.TempUserID); delErr != nil {
			slog.Warn("registration: clear superseded codes", "email", email, "error", delErr)
		}
		return "", fmt.Errorf("registration superseded: %w", domain.ErrSessionExpired)
	}

	if err := s.mailer.SendEmail(ctx, email, emailSubject, codeEmailBody(p.Name, code, s.otpTTL)); err != nil {
		slog.Error("registration: send verification email", "email", email, "error", err)
		s.rollback(ctx, email, p.TempUserID)
		return "", fmt.Errorf("send verification email: %w", domain.ErrDispatch)
	}
	return p.TempUserID, nil
}

func (s *service) ResendCode(ctx context.Context, req ResendRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return err
	}
	email := domain.NormalizeEmail(req.Email)

	p, err := s.currentPending(ctx, email, req.TempUserID)
	if err != nil {
		return err
	}
	if err := s.otps.DeleteUnverified(ctx, email, p.TempUserID); err != nil {
		return fmt.Errorf("invalidate previous codes: %w", err)
	}
	code, err := s.issueCode(ctx, email, p.TempUserID)
	if err != nil {
		return err
	}
	if err := s.mailer.SendEmail(ctx, email, emailSubject, codeEmailBody(p.Name, code, s.otpTTL)); err != nil {
		slog.Error("registration: resend verification email", "email", email, "error", err)
		return fmt.Errorf("send verification email: %w", domain.ErrDispatch)
	}
	return nil
}

// currentPending returns the live registration for email owned by tempUserID.
// Expired residue is removed on the way out.
func (s *service) currentPending(ctx context.Context, email, tempUserID string) (*domain.PendingRegistration, error) {
	p, err := s.pending.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no pending registration for %s: %w", email, domain.ErrSessionExpired)
	}
	if err != nil {
		return nil, fmt.Errorf("load pending registration: %w", err)
	}
	if p.TempUserID != tempUserID {
		return nil, fmt.Errorf("registration id mismatch: %w", domain.ErrSessionExpired)
	}
	if p.Expired(s.now()) {
		s.rollback(ctx, email, p.TempUserID)
		return nil, fmt.Errorf("pending registration expired: %w", domain.ErrSessionExpired)
	}
	return p, nil
}

func (s *service) issueCode(ctx context.Context, email, tempUserID string) (string, error) {
	code, err := otp.NewCode()
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	rec := &domain.OTPRecord{
		Email:      email,
		OTPID:      id.New(),
		Code:       code,
		TempUserID: tempUserID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.otpTTL).Unix(),
	}
	if err := s.otps.Put(ctx, rec); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}
	return code, nil
}

// rollback removes the registration (only while it is still tempUserID's) and its codes.
func (s *service) rollback(ctx context.Context, email, tempUserID string) {
	if err := s.pending.Delete(ctx, email, tempUserID); err != nil {
		slog.Warn("registration: delete pending registration", "email", email, "error", err)
	}
	if err := s.otps.DeleteForRegistration(ctx, email, tempUserID); err != nil {
		slog.Warn("registration: delete codes", "email", email, "error", err)
	}
}

// purge removes every pending registration and code for email.
func (s *service) purge(ctx context.Context, email string) {
	if err := s.pending.DeleteByEmail(ctx, email); err != nil {
		slog.Warn("registration: purge pending registration", "email", email, "error", err)
	}
	if err := s.otps.DeleteByEmail(ctx, email); err != nil {
		slog.Warn("registration: purge codes", "email", email, "error", err)
	}
}

func codeEmailBody(name, code string, ttl time.Duration) string {
	greeting := "Hello,"
	if name != "" {
		greeting = fmt.Sprintf("Hello %s,", name)
	}
	return fmt.Sprintf("%s\n\nYour verification code is: %s\n\nThis code is valid for %d minutes. "+
		"If you did not request it, you can ignore this email.\n", greeting, code, int(ttl.Minutes()))
}
