package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"quizcoach/referralhub/internal/auth"
	"quizcoach/referralhub/internal/repository"
)

// ConversionService lets the billing side flag a referred user as paying.
// It is the only writer of Signup.ConvertedToPaid.
type ConversionService interface {
	MarkConverted(ctx context.Context, p *auth.Principal, userID string) (int64, error)
}

type conversionService struct {
	signupRepo repository.SignupRepository
	roles      auth.RoleChecker
	cache      *StatsCache
	logger     *zap.Logger
}

func NewConversionService(signupRepo repository.SignupRepository, roles auth.RoleChecker, cache *StatsCache, logger *zap.Logger) ConversionService {
	return &conversionService{
		signupRepo: signupRepo,
		roles:      roles,
		cache:      cache,
		logger:     logger,
	}
}

// MarkConverted flags every unconverted signup of userID and returns how many
// changed. Calling it again is a no-op.
func (s *conversionService) MarkConverted(ctx context.Context, p *auth.Principal, userID string) (int64, error) {
	if err := requireRole(ctx, s.roles, p, auth.RoleAdmin); err != nil {
		return 0, err
	}
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	linkIDs, err := s.signupRepo.MarkConverted(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: mark converted: %w", ErrStorage, err)
	}
	if len(linkIDs) > 0 {
		s.cache.Invalidate(ctx, linkIDs...)
		s.logger.Info("referral conversion recorded",
			zap.String("user_id", userID), zap.Int("signups", len(linkIDs)))
	}
	return int64(len(linkIDs)), nil
}

var _ ConversionService = (*conversionService)(nil)
