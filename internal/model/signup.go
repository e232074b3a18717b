package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Signup is one attribution of a user to a referral link. The composite
// unique index on (referral_link_id, user_id) is what makes attribution
// exactly-once; it must never be replaced by an application-side check.
type Signup struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReferralLinkID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_signup_link_user,priority:1" json:"referral_link_id"`
	UserID          string    `gorm:"type:text;not null;uniqueIndex:idx_signup_link_user,priority:2;index" json:"user_id"`
	IPAddress       *string   `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent       *string   `gorm:"type:text" json:"user_agent,omitempty"`
	SignupDate      time.Time `gorm:"not null;index" json:"signup_date"`
	ConvertedToPaid bool      `gorm:"not null;default:false" json:"converted_to_paid"`
}

func (Signup) TableName() string { return "referral_signups" }

func (s *Signup) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.SignupDate.IsZero() {
		s.SignupDate = time.Now().UTC()
	}
	return nil
}
