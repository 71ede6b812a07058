package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/Nattanjunior/apoiadev-backend/pkg/config"
	"github.com/Nattanjunior/apoiadev-backend/pkg/db/models"
	pkgerrors "github.com/Nattanjunior/apoiadev-backend/pkg/errors"
	"github.com/Nattanjunior/apoiadev-backend/pkg/logger"
)

type creatorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Creator, error)
}

type ServiceParams struct {
	CreatorRepo  creatorRepository
	StripeClient StripeLoginLinkClient
	StripeCfg    config.StripeConfig
	Logger       *logger.Logger
}

// Service bridges creators to their connected Stripe Express dashboards.
type Service struct {
	creators       creatorRepository
	stripeClient   StripeLoginLinkClient
	requestTimeout time.Duration
	logg           *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.CreatorRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "creator repository required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	timeout := params.StripeCfg.SessionTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		creators:       params.CreatorRepo,
		stripeClient:   params.StripeClient,
		requestTimeout: timeout,
		logg:           params.Logger,
	}, nil
}

// DashboardLink resolves the Express dashboard URL for a creator. A creator
// who has not connected an account gets nil, not an error; the dashboard
// renders the onboarding prompt instead of a link.
func (s *Service) DashboardLink(ctx context.Context, creatorID uuid.UUID) (*string, error) {
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
	if creator.StripeAccountID == nil {
		return nil, nil
	}
	return s.ResolveManagementLink(ctx, *creator.StripeAccountID), nil
}

// ResolveManagementLink mints a one-time login link for a connected account.
// Failures here degrade to nil rather than erroring; the link is a
// convenience, never a gate.
func (s *Service) ResolveManagementLink(ctx context.Context, stripeAccountID string) *string {
	stripeAccountID = strings.TrimSpace(stripeAccountID)
	if stripeAccountID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	link, err := s.stripeClient.CreateLoginLink(ctx, &stripe.LoginLinkParams{
		Account: stripe.String(stripeAccountID),
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "stripe login link creation failed")
		}
		return nil
	}
	if link == nil || link.URL == "" {
		return nil
	}
	return &link.URL
}
