package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor runs fn with repositories bound to a single database
// transaction. Returning an error from fn rolls everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(links ReferralLinkRepository, signups SignupRepository) error) error
}

type pgTransactor struct {
	db *gorm.DB
}

func NewPGTransactor(db *gorm.DB) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) WithinTransaction(ctx context.Context, fn func(links ReferralLinkRepository, signups SignupRepository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewPGReferralLinkRepository(tx), NewPGSignupRepository(tx))
	})
}
