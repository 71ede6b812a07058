package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Nattanjunior/apoiadev-backend/pkg/enums"
)

// Donation is the authoritative ledger row for a single support attempt. One
// row exists per Stripe checkout session; the unique constraint on
// stripe_session_id is what makes confirmation idempotent under redelivery.
type Donation struct {
	ID              uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID       uuid.UUID            `gorm:"column:creator_id;type:uuid;not null;index"`
	SupporterName   string               `gorm:"column:supporter_name;not null"`
	Message         string               `gorm:"column:message;not null"`
	AmountCents     int64                `gorm:"column:amount_cents;not null"`
	Currency        enums.Currency       `gorm:"column:currency;not null;default:'brl'"`
	StripeSessionID string               `gorm:"column:stripe_session_id;not null;uniqueIndex:idx_donations_stripe_session_id"`
	Status          enums.DonationStatus `gorm:"column:status;not null;default:'pending';index:idx_donations_creator_status,priority:2"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
	ConfirmedAt     *time.Time           `gorm:"column:confirmed_at"`
}
