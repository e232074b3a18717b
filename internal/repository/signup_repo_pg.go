package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quizcoach/referralhub/internal/model"
)

type pgSignupRepository struct {
	db *gorm.DB
}

func NewPGSignupRepository(db *gorm.DB) SignupRepository {
	return &pgSignupRepository{db: db}
}

// Create inserts a ledger row. A second row for the same (link, user) pair
// is rejected by idx_signup_link_user and reported as ErrDuplicate.
func (r *pgSignupRepository) Create(ctx context.Context, signup *model.Signup) error {
	return translate(r.db.WithContext(ctx).Create(signup).Error)
}

// Exists reports whether userID is already attributed to linkID. Exactly-once
// is still enforced by the unique index on insert.
func (r *pgSignupRepository) Exists(ctx context.Context, linkID uuid.UUID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Signup{}).
		Where("referral_link_id = ? AND user_id = ?", linkID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *pgSignupRepository) scoped(ctx context.Context, filter SignupFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Signup{})
	if filter.ReferralLinkID != nil {
		q = q.Where("referral_link_id = ?", *filter.ReferralLinkID)
	}
	if filter.ConvertedOnly {
		q = q.Where("converted_to_paid = ?", true)
	}
	return q
}

func (r *pgSignupRepository) Count(ctx context.Context, filter SignupFilter) (int64, error) {
	var n int64
	err := r.scoped(ctx, filter).Count(&n).Error
	return n, err
}

// Rollup runs the totals and the per-day histogram in one read-only
// repeatable-read transaction so they describe the same ledger state.
func (r *pgSignupRepository) Rollup(ctx context.Context, filter SignupFilter) (*SignupRollup, error) {
	filter.ConvertedOnly = false
	rollup := &SignupRollup{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snap := &pgSignupRepository{db: tx}
		if err := snap.scoped(ctx, filter).Count(&rollup.Total).Error; err != nil {
			return err
		}
		converted := filter
		converted.ConvertedOnly = true
		if err := snap.scoped(ctx, converted).Count(&rollup.Converted).Error; err != nil {
			return err
		}
		return snap.scoped(ctx, filter).
			Select(utcDayExpr(tx) + " AS day, COUNT(*) AS count").
			Group("day").
			Order("day ASC").
			Scan(&rollup.Daily).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if rollup.Daily == nil {
		rollup.Daily = []DailyCount{}
	}
	return rollup, nil
}

// utcDayExpr renders signup_date as its UTC calendar date, independent of the
// session time zone.
func utcDayExpr(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return "strftime('%Y-%m-%d', signup_date)"
	}
	return "to_char(signup_date AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
}

// MarkConverted flags the user's unconverted signups and returns the link
// ids of exactly the rows the UPDATE changed.
func (r *pgSignupRepository) MarkConverted(ctx context.Context, userID string) ([]uuid.UUID, error) {
	var changed []model.Signup
	err := r.db.WithContext(ctx).
		Model(&changed).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "referral_link_id"}}}).
		Where("user_id = ? AND converted_to_paid = ?", userID, false).
		Update("converted_to_paid", true).Error
	if err != nil {
		return nil, err
	}
	linkIDs := make([]uuid.UUID, 0, len(changed))
	for _, s := range changed {
		linkIDs = append(linkIDs, s.ReferralLinkID)
	}
	return linkIDs, nil
}
