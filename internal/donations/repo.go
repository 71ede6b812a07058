package donations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nattanjunior/apoiadev-backend/pkg/db/models"
	"github.com/Nattanjunior/apoiadev-backend/pkg/enums"
)

// Repository owns the donations table. Status transitions go through
// TransitionStatus so every mutation is a conditional update guarded by the
// current status; there is no unconditional Save for donation rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to donation operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new donation row. The unique index on stripe_session_id
// rejects concurrent double-submission; callers map that to a conflict error.
func (r *Repository) Create(ctx context.Context, donation *models.Donation) error {
	if donation.ID == uuid.Nil {
		donation.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(donation).Error
}

// FindBySessionID loads the donation bound to a checkout session.
func (r *Repository) FindBySessionID(ctx context.Context, sessionID string) (*models.Donation, error) {
	var donation models.Donation
	if err := r.db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&donation).Error; err != nil {
		return nil, err
	}
	return &donation, nil
}

// TransitionStatus applies "set status to `to` only if currently `from`" and
// reports how many rows changed. Zero rows means the guard did not match; the
// caller decides whether that is idempotent redelivery, a conflict, or an
// unknown session.
func (r *Repository) TransitionStatus(ctx context.Context, sessionID string, from, to enums.DonationStatus, confirmedAt *time.Time) (int64, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if confirmedAt != nil {
		updates["confirmed_at"] = *confirmedAt
	}
	res := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("stripe_session_id = ? AND status = ?", sessionID, from).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// PaidTotals aggregates the paid slice of the ledger for one creator.
type PaidTotals struct {
	Count    int64
	SumCents int64
}

// AggregatePaidTotals sums paid donations in a single query so the count and
// sum come from one point-in-time read.
func (r *Repository) AggregatePaidTotals(ctx context.Context, creatorID uuid.UUID) (PaidTotals, error) {
	var row struct {
		Count    int64
		SumCents int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS sum_cents").
		Where("creator_id = ? AND status = ?", creatorID, enums.DonationStatusPaid).
		Scan(&row).Error
	if err != nil {
		return PaidTotals{}, err
	}
	return PaidTotals{Count: row.Count, SumCents: row.SumCents}, nil
}

// ListRecentPaid returns the newest paid donations for the dashboard table.
func (r *Repository) ListRecentPaid(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.Donation, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.Donation
	err := r.db.WithContext(ctx).
		Where("creator_id = ? AND status = ?", creatorID, enums.DonationStatusPaid).
		Order("confirmed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
