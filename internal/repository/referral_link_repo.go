package repository

import (
	"context"

	"github.com/google/uuid"

	"quizcoach/referralhub/internal/model"
)

type ReferralLinkRepository interface {
	Create(ctx context.Context, link *model.ReferralLink) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ReferralLink, error)
	GetByCode(ctx context.Context, code string) (*model.ReferralLink, error)
	List(ctx context.Context) ([]model.ReferralLink, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	IncrementUses(ctx context.Context, id uuid.UUID) error
	IncrementUsesBelowMax(ctx context.Context, id uuid.UUID) error
	TopByUses(ctx context.Context, limit int) ([]model.ReferralLink, error)
}
