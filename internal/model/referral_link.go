package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReferralLink struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string            `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Description string            `gorm:"type:text;not null" json:"description"`
	CreatedBy   string            `gorm:"type:text;not null" json:"created_by"`
	IsActive    bool              `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	MaxUses     *int              `json:"max_uses,omitempty"`
	CurrentUses int               `gorm:"not null;default:0;index" json:"current_uses"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (ReferralLink) TableName() string { return "referral_links" }

func (l *ReferralLink) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the link's expiry lies strictly before now.
func (l *ReferralLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// IsExhausted reports whether the stored counter has reached max_uses.
func (l *ReferralLink) IsExhausted() bool {
	return l.MaxUses != nil && l.CurrentUses >= *l.MaxUses
}
