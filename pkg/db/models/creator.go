package models

import (
	"time"

	"github.com/google/uuid"
)

// Creator is the profile donations are addressed to. StripeAccountID is the
// connected account used for destination charges and balance queries; it stays
// nil until onboarding completes, which is a valid state.
type Creator struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	Slug            string    `gorm:"column:slug;not null;uniqueIndex:idx_creators_slug"`
	StripeAccountID *string   `gorm:"column:stripe_account_id"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
