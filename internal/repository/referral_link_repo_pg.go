package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"quizcoach/referralhub/internal/model"
)

type pgReferralLinkRepository struct {
	db *gorm.DB
}

func NewPGReferralLinkRepository(db *gorm.DB) ReferralLinkRepository {
	return &pgReferralLinkRepository{db: db}
}

// Create inserts the link. A taken code surfaces as ErrDuplicate from the
// unique index.
func (r *pgReferralLinkRepository) Create(ctx context.Context, link *model.ReferralLink) error {
	return translate(r.db.WithContext(ctx).Create(link).Error)
}

func (r *pgReferralLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ReferralLink, error) {
	var link model.ReferralLink
	if err := r.db.WithContext(ctx).First(&link, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (r *pgReferralLinkRepository) GetByCode(ctx context.Context, code string) (*model.ReferralLink, error) {
	var link model.ReferralLink
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&link).Error; err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (r *pgReferralLinkRepository) List(ctx context.Context) ([]model.ReferralLink, error) {
	var links []model.ReferralLink
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// Update applies a column->value map. Map updates (unlike struct updates)
// write zero values, so is_active=false and NULL clears go through.
func (r *pgReferralLinkRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&model.ReferralLink{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementUses bumps current_uses in the store. It never reads the value
// back, so concurrent redemptions cannot lose updates.
func (r *pgReferralLinkRepository) IncrementUses(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&model.ReferralLink{}).
		Where("id = ?", id).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementUsesBelowMax is the guarded variant used by strict mode: the
// increment only applies while current_uses < max_uses.
func (r *pgReferralLinkRepository) IncrementUsesBelowMax(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&model.ReferralLink{}).
		Where("id = ? AND (max_uses IS NULL OR current_uses < max_uses)", id).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *pgReferralLinkRepository) TopByUses(ctx context.Context, limit int) ([]model.ReferralLink, error) {
	var links []model.ReferralLink
	err := r.db.WithContext(ctx).
		Order("current_uses DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&links).Error
	return links, err
}
