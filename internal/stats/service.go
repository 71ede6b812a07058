package stats

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/Nattanjunior/apoiadev-backend/internal/donations"
	"github.com/Nattanjunior/apoiadev-backend/pkg/config"
	"github.com/Nattanjunior/apoiadev-backend/pkg/db/models"
	"github.com/Nattanjunior/apoiadev-backend/pkg/enums"
	pkgerrors "github.com/Nattanjunior/apoiadev-backend/pkg/errors"
	"github.com/Nattanjunior/apoiadev-backend/pkg/logger"
)

type creatorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Creator, error)
}

type ledger interface {
	AggregatePaidTotals(ctx context.Context, creatorID uuid.UUID) (donations.PaidTotals, error)
}

// Stats is the dashboard snapshot for one creator. The ledger totals always
// come from our own database; the pending balance comes from Stripe and may
// be temporarily unknown, which BalanceAvailable makes explicit.
type Stats struct {
	DonationCount       int64
	TotalPaidCents      int64
	PendingBalanceCents int64
	BalanceAvailable    bool
}

type ServiceParams struct {
	CreatorRepo  creatorRepository
	Ledger       ledger
	StripeClient StripeBalanceClient
	StripeCfg    config.StripeConfig
	Logger       *logger.Logger
}

type Service struct {
	creators       creatorRepository
	ledger         ledger
	stripeClient   StripeBalanceClient
	balanceTimeout time.Duration
	logg           *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.CreatorRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "creator repository required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "donation ledger required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	timeout := params.StripeCfg.BalanceTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		creators:       params.CreatorRepo,
		ledger:         params.Ledger,
		stripeClient:   params.StripeClient,
		balanceTimeout: timeout,
		logg:           params.Logger,
	}, nil
}

func (s *Service) ComputeStats(ctx context.Context, creatorID uuid.UUID) (*Stats, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if s.logg != nil {
		ctx = s.logg.WithCreatorID(ctx, creatorID.String())
	}

	creator, err := s.creators.FindByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "creator not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load creator")
	}

	totals, err := s.ledger.AggregatePaidTotals(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	result := &Stats{
		DonationCount:  totals.Count,
		TotalPaidCents: totals.SumCents,
	}

	// A creator without a connected account has no balance anywhere; that is
	// a defined zero, not an unknown.
	if creator.StripeAccountID == nil || *creator.StripeAccountID == "" {
		result.BalanceAvailable = true
		return result, nil
	}

	pending, err := s.pendingBalance(ctx, *creator.StripeAccountID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "pending balance lookup failed, returning local totals only")
		}
		result.BalanceAvailable = false
		return result, nil
	}

	result.PendingBalanceCents = pending
	result.BalanceAvailable = true
	return result, nil
}

func (s *Service) pendingBalance(ctx context.Context, accountID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.balanceTimeout)
	defer cancel()

	params := &stripe.BalanceParams{}
	params.SetStripeAccount(accountID)

	bal, err := s.stripeClient.GetBalance(ctx, params)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve stripe balance")
	}

	var pending int64
	for _, amount := range bal.Pending {
		if amount == nil {
			continue
		}
		if string(amount.Currency) != string(enums.DefaultCurrency) {
			continue
		}
		pending += amount.Amount
	}
	return pending, nil
}
