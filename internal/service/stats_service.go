package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizcoach/referralhub/internal/auth"
	"quizcoach/referralhub/internal/repository"
)

const topLinksLimit = 10

type DailySignups struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type LinkUsage struct {
	Code        string `json:"code"`
	CurrentUses int    `json:"current_uses"`
}

type Stats struct {
	TotalSignups     int64          `json:"total_signups"`
	TotalConversions int64          `json:"total_conversions"`
	ConversionRate   float64        `json:"conversion_rate"`
	SignupsOverTime  []DailySignups `json:"signups_over_time"`
	// TopLinks is null for per-link stats.
	TopLinks []LinkUsage `json:"top_links"`
}

type StatsService interface {
	GetStats(ctx context.Context, p *auth.Principal, linkID *uuid.UUID) (*Stats, error)
}

type statsService struct {
	linkRepo   repository.ReferralLinkRepository
	signupRepo repository.SignupRepository
	roles      auth.RoleChecker
	cache      *StatsCache
	logger     *zap.Logger
}

func NewStatsService(
	linkRepo repository.ReferralLinkRepository,
	signupRepo repository.SignupRepository,
	roles auth.RoleChecker,
	cache *StatsCache,
	logger *zap.Logger,
) StatsService {
	return &statsService{
		linkRepo:   linkRepo,
		signupRepo: signupRepo,
		roles:      roles,
		cache:      cache,
		logger:     logger,
	}
}

func (s *statsService) GetStats(ctx context.Context, p *auth.Principal, linkID *uuid.UUID) (*Stats, error) {
	if err := requireRole(ctx, s.roles, p, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if cached, ok := s.cache.get(ctx, linkID); ok {
		return cached, nil
	}

	gen := s.cache.generation(linkID)
	stats, err := s.compute(ctx, linkID)
	if err != nil {
		s.logger.Error("compute referral stats", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.cache.put(ctx, linkID, gen, stats)
	return stats, nil
}

func (s *statsService) compute(ctx context.Context, linkID *uuid.UUID) (*Stats, error) {
	rollup, err := s.signupRepo.Rollup(ctx, repository.SignupFilter{ReferralLinkID: linkID})
	if err != nil {
		return nil, fmt.Errorf("roll up signups: %w", err)
	}

	stats := &Stats{
		TotalSignups:     rollup.Total,
		TotalConversions: rollup.Converted,
		ConversionRate:   conversionRate(rollup.Converted, rollup.Total),
		SignupsOverTime:  make([]DailySignups, 0, len(rollup.Daily)),
	}
	for _, d := range rollup.Daily {
		stats.SignupsOverTime = append(stats.SignupsOverTime, DailySignups{Date: d.Day, Count: int(d.Count)})
	}

	if linkID == nil {
		top, err := s.linkRepo.TopByUses(ctx, topLinksLimit)
		if err != nil {
			return nil, fmt.Errorf("top links: %w", err)
		}
		stats.TopLinks = make([]LinkUsage, 0, len(top))
		for _, l := range top {
			stats.TopLinks = append(stats.TopLinks, LinkUsage{Code: l.Code, CurrentUses: l.CurrentUses})
		}
	}
	return stats, nil
}

// conversionRate is a percentage rounded to one decimal; 0 when there are no signups.
func conversionRate(conversions, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(conversions)/float64(total)*1000) / 10
}
