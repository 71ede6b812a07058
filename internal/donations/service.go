package donations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nattanjunior/apoiadev-backend/pkg/amount"
	"github.com/Nattanjunior/apoiadev-backend/pkg/db"
	"github.com/Nattanjunior/apoiadev-backend/pkg/db/models"
	"github.com/Nattanjunior/apoiadev-backend/pkg/enums"
	pkgerrors "github.com/Nattanjunior/apoiadev-backend/pkg/errors"
)

type repository interface {
	Create(ctx context.Context, donation *models.Donation) error
	FindBySessionID(ctx context.Context, sessionID string) (*models.Donation, error)
	TransitionStatus(ctx context.Context, sessionID string, from, to enums.DonationStatus, confirmedAt *time.Time) (int64, error)
	AggregatePaidTotals(ctx context.Context, creatorID uuid.UUID) (PaidTotals, error)
	ListRecentPaid(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.Donation, error)
}

// Service is the donation ledger: append on create, conditional update on
// confirm, aggregate reads for the dashboard.
type Service interface {
	CreatePending(ctx context.Context, input CreatePendingInput) (*models.Donation, error)
	MarkPaid(ctx context.Context, sessionID string) (*models.Donation, error)
	MarkFailed(ctx context.Context, sessionID string) (*models.Donation, error)
	AggregatePaidTotals(ctx context.Context, creatorID uuid.UUID) (PaidTotals, error)
	ListRecent(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.Donation, error)
}

// CreatePendingInput carries a validated donation attempt into the ledger.
type CreatePendingInput struct {
	CreatorID       uuid.UUID
	SupporterName   string
	Message         string
	AmountCents     int64
	StripeSessionID string
}

type service struct {
	repo repository
}

// NewService builds the ledger service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("donations repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreatePending(ctx context.Context, input CreatePendingInput) (*models.Donation, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	donation := &models.Donation{
		CreatorID:       input.CreatorID,
		SupporterName:   strings.TrimSpace(input.SupporterName),
		Message:         strings.TrimSpace(input.Message),
		AmountCents:     input.AmountCents,
		Currency:        enums.DefaultCurrency,
		StripeSessionID: input.StripeSessionID,
		Status:          enums.DonationStatusPending,
	}

	if err := s.repo.Create(ctx, donation); err != nil {
		if db.IsUniqueViolation(err, "idx_donations_stripe_session_id") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "checkout session already recorded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create donation")
	}
	return donation, nil
}

func (s *service) MarkPaid(ctx context.Context, sessionID string) (*models.Donation, error) {
	return s.applyTerminal(ctx, sessionID, enums.DonationStatusPaid)
}

func (s *service) MarkFailed(ctx context.Context, sessionID string) (*models.Donation, error) {
	return s.applyTerminal(ctx, sessionID, enums.DonationStatusFailed)
}

// applyTerminal drives a pending donation into a terminal status. The
// conditional update either wins the race or tells us someone else already
// resolved the session; re-reading the row disambiguates redelivery from a
// genuine conflict.
func (s *service) applyTerminal(ctx context.Context, sessionID string, to enums.DonationStatus) (*models.Donation, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	// Two passes: a zero-row update with a still-pending row afterwards means
	// the row was only created between our update and our read, so the guard
	// is retried once against the fresh row.
	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now().UTC()
		rows, err := s.repo.TransitionStatus(ctx, sessionID, enums.DonationStatusPending, to, &now)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply donation transition")
		}

		donation, err := s.repo.FindBySessionID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown checkout session")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load donation")
		}

		if rows == 1 || donation.Status == to {
			return donation, nil
		}
		if donation.Status == enums.DonationStatusPending {
			continue
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("donation already %s, refusing transition to %s", donation.Status, to))
	}

	return nil, pkgerrors.New(pkgerrors.CodeDependency, "donation transition did not settle")
}

func (s *service) AggregatePaidTotals(ctx context.Context, creatorID uuid.UUID) (PaidTotals, error) {
	totals, err := s.repo.AggregatePaidTotals(ctx, creatorID)
	if err != nil {
		return PaidTotals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate donations")
	}
	return totals, nil
}

func (s *service) ListRecent(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.Donation, error) {
	rows, err := s.repo.ListRecentPaid(ctx, creatorID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list donations")
	}
	return rows, nil
}

func validateCreate(input CreatePendingInput) error {
	details := map[string]string{}
	if input.CreatorID == uuid.Nil {
		details["creator_id"] = "is required"
	}
	if strings.TrimSpace(input.SupporterName) == "" {
		details["supporter_name"] = "is required"
	}
	if strings.TrimSpace(input.Message) == "" {
		details["message"] = "is required"
	}
	if !amount.IsAllowedMinorUnits(input.AmountCents) {
		details["amount"] = "is not an allowed donation tier"
	}
	if strings.TrimSpace(input.StripeSessionID) == "" {
		details["session_id"] = "is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}
