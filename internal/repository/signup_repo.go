package repository

import (
	"context"

	"github.com/google/uuid"

	"quizcoach/referralhub/internal/model"
)

// SignupFilter narrows ledger reads. A nil ReferralLinkID means every link.
type SignupFilter struct {
	ReferralLinkID *uuid.UUID
	ConvertedOnly  bool
}

// DailyCount is the number of signups on one UTC calendar day (YYYY-MM-DD).
type DailyCount struct {
	Day   string
	Count int64
}

// SignupRollup holds ledger aggregates read from a single snapshot.
type SignupRollup struct {
	Total     int64
	Converted int64
	Daily     []DailyCount
}

type SignupRepository interface {
	Create(ctx context.Context, signup *model.Signup) error
	Exists(ctx context.Context, linkID uuid.UUID, userID string) (bool, error)
	Count(ctx context.Context, filter SignupFilter) (int64, error)
	// Rollup aggregates the rows matching filter.ReferralLinkID; ConvertedOnly is ignored.
	Rollup(ctx context.Context, filter SignupFilter) (*SignupRollup, error)
	MarkConverted(ctx context.Context, userID string) ([]uuid.UUID, error)
}
