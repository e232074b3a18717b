package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for the referral tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ReferralLink{},
		&Signup{},
	)
}
