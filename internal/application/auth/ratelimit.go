package auth

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/blockprotocol/hub-api/internal/domain"
)

type codeRateLimit struct {
	window time.Duration
	limit  int
	noun   string
}

var codeRateLimits = map[domain.VerificationCodeVariant]codeRateLimit{
	domain.VerificationCodeLogin:         {window: 5 * time.Minute, limit: 5, noun: "login codes"},
	domain.VerificationCodeEmail:         {window: time.Hour, limit: 5, noun: "email verification codes"},
	domain.VerificationCodeLinkWordpress: {window: time.Hour, limit: 5, noun: "WordPress verification codes"},
}

// checkRateLimit rejects a new code when limit codes of the variant were
// created within the window. The message names how long until the oldest
// of them leaves the window.
func (s *service) checkRateLimit(ctx context.Context, userID string, variant domain.VerificationCodeVariant) error {
	rl, ok := codeRateLimits[variant]
	if !ok {
		return fmt.Errorf("unknown verification code variant %q", variant)
	}
	now := s.now()
	recent, err := s.codeRepo.ListSince(ctx, userID, variant, now.Add(-rl.window))
	if err != nil {
		return err
	}
	if len(recent) < rl.limit {
		return nil
	}
	// recent is oldest first; once this one expires the count drops below the limit.
	freesAt := recent[len(recent)-rl.limit].CreatedAt.Add(rl.window)
	minutes := int(math.Ceil(freesAt.Sub(now).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return domain.NewError(domain.ErrRateLimited, domain.CodeRateLimited,
		fmt.Sprintf("You have requested too many %s recently. Please wait %d %s before trying again.", rl.noun, minutes, unit))
}
