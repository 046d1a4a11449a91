package registration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alumni-registry/internal/domain"
)

// Sweep deletes expired pending registrations and expired codes. The two
// passes are independent and each delete re-checks expiry, so repeated or
// overlapping sweeps are harmless.
func (s *service) Sweep(ctx context.Context) (*domain.SweepResult, error) {
	now := s.now()
	pending, err := s.pending.DeleteExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("sweep pending registrations: %w", err)
	}
	otps, err := s.otps.DeleteExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("sweep verification codes: %w", err)
	}
	slog.Info("registration: sweep complete", "tempUsersRemoved", pending, "otpsRemoved", otps)
	return &domain.SweepResult{PendingRemoved: pending, OTPsRemoved: otps}, nil
}
