package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alumni-registry/internal/domain"
	"github.com/alumni-registry/internal/pkg/validate"
)

const providerGoogle = "google"

// Verify dispatches on the attempt variant. Code attempts consume a code and
// finalize the account; OAuth attempts are relayed to the backend untouched.
func (s *service) Verify(ctx context.Context, attempt domain.VerificationAttempt) (*domain.Verification, error) {
	switch a := attempt.(type) {
	case domain.CodeAttempt:
		acc, err := s.verifyCode(ctx, a)
		if err != nil {
			return nil, err
		}
		return &domain.Verification{Finalized: acc}, nil
	case domain.OAuthAttempt:
		resp, err := s.verifyOAuth(ctx, a)
		if err != nil {
			return nil, err
		}
		return &domain.Verification{Relayed: resp}, nil
	default:
		return nil, fmt.Errorf("unsupported verification attempt %T: %w", attempt, domain.ErrValidation)
	}
}

// verifyCode checks the pending registration before consuming the code, so a
// code replayed after a successful verify reports ErrSessionExpired rather
// than ErrCodeMismatch: finalize has already removed the registration.
func (s *service) verifyCode(ctx context.Context, a domain.CodeAttempt) (*domain.FinalizedAccount, error) {
	a.Email = strings.TrimSpace(a.Email)
	a.Code = strings.TrimSpace(a.Code)
	if err := validate.Struct(a); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(a.Email)

	if _, err := s.currentPending(ctx, email, a.TempUserID); err != nil {
		return nil, err
	}
	if _, err := s.otps.Consume(ctx, email, a.Code, a.TempUserID, s.now()); err != nil {
		if errors.Is(err, domain.ErrCodeMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("consume verification code: %w", err)
	}

	p, err := s.pending.Get(ctx, email)
	if err != nil || p.TempUserID != a.TempUserID {
		slog.Error("registration: pending data vanished after code consumed", "email", email, "tempUserId", a.TempUserID, "error", err)
		return nil, fmt.Errorf("finalize %s: %w", email, domain.ErrPendingNotFound)
	}
	password, err := s.sealer.Open(p.SealedPassword)
	if err != nil {
		s.purge(ctx, email)
		return nil, fmt.Errorf("open sealed password: %w", err)
	}

	acc, err := s.backend.Register(ctx, domain.NewAccount{Name: p.Name, Email: email, Password: password})
	s.purge(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountExists) {
			slog.Error("registration: backend register", "email", email, "error", err)
		}
		return nil, fmt.Errorf("finalize account: %w", err)
	}
	return acc, nil
}

type oauthEnvelope struct {
	Provider string `json:"provider"`
	IDToken  string `json:"idToken"`
}

func (s *service) verifyOAuth(ctx context.Context, a domain.OAuthAttempt) (*domain.RelayedResponse, error) {
	a.Email = strings.TrimSpace(a.Email)
	if err := validate.Struct(a); err != nil {
		return nil, err
	}
	data := bytes.TrimSpace(a.OAuthData)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("oauthData is required: %w", domain.ErrValidation)
	}
	email := domain.NormalizeEmail(a.Email)

	var env oauthEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("oauthData must be a JSON object: %w", domain.ErrValidation)
	}
	if strings.EqualFold(env.Provider, providerGoogle) && env.IDToken != "" && s.idTokens != nil {
		payload, err := s.idTokens.Verify(ctx, env.IDToken)
		if err != nil {
			return nil, err
		}
		if domain.NormalizeEmail(payload.Email) != email {
			return nil, fmt.Errorf("id token email does not match: %w", domain.ErrUnauthorized)
		}
	}

	resp, err := s.backend.VerifyOAuth(ctx, email, data)
	if err != nil {
		slog.Error("registration: backend oauth verify", "email", email, "error", err)
		return nil, fmt.Errorf("oauth verification: %w", err)
	}
	return resp, nil
}
