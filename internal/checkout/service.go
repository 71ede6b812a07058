package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/Nattanjunior/apoiadev-backend/internal/donations"
	"github.com/Nattanjunior/apoiadev-backend/pkg/amount"
	"github.com/Nattanjunior/apoiadev-backend/pkg/config"
	"github.com/Nattanjunior/apoiadev-backend/pkg/db/models"
	"github.com/Nattanjunior/apoiadev-backend/pkg/enums"
	pkgerrors "github.com/Nattanjunior/apoiadev-backend/pkg/errors"
	"github.com/Nattanjunior/apoiadev-backend/pkg/logger"
)

// Metadata keys stamped on every checkout session. The confirmation handler
// rebuilds the ledger row from these if the local write lost the race.
const (
	MetadataCreatorID     = "creator_id"
	MetadataSupporterName = "supporter_name"
	MetadataMessage       = "message"
	MetadataAmountCents   = "amount_cents"
)

type creatorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Creator, error)
}

type ledger interface {
	CreatePending(ctx context.Context, input donations.CreatePendingInput) (*models.Donation, error)
}

// Service turns a donation intent into a priced, redirectable checkout session
// plus a pending ledger row.
type Service interface {
	CreateDonation(ctx context.Context, input CreateDonationInput) (*SessionHandle, error)
	ListSessionsSince(ctx context.Context, since time.Time) ([]*stripe.CheckoutSession, error)
}

// CreateDonationInput is the validated boundary type for a donation intent.
type CreateDonationInput struct {
	CreatorID     uuid.UUID
	SupporterName string
	Message       string
	AmountDisplay int64
}

// SessionHandle is what the presentation layer needs to redirect the supporter.
type SessionHandle struct {
	SessionID string
}

// ServiceParams wires the gateway dependencies.
type ServiceParams struct {
	CreatorRepo  creatorRepository
	Ledger       ledger
	StripeClient StripeSessionClient
	CheckoutCfg  config.CheckoutConfig
	StripeCfg    config.StripeConfig
	Logger       *logger.Logger
}

type service struct {
	creators creatorRepository
	ledger   ledger
	stripe   StripeSessionClient
	cfg      config.CheckoutConfig
	timeout  time.Duration
	logg     *logger.Logger
}

// NewService builds the payment session gateway.
func NewService(params ServiceParams) (Service, error) {
	if params.CreatorRepo == nil {
		return nil, fmt.Errorf("creator repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("donation ledger required")
	}
	if params.StripeClient == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	timeout := params.StripeCfg.SessionTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &service{
		creators: params.CreatorRepo,
		ledger:   params.Ledger,
		stripe:   params.StripeClient,
		cfg:      params.CheckoutCfg,
		timeout:  timeout,
		logg:     params.Logger,
	}, nil
}

func (s *service) CreateDonation(ctx context.Context, input CreateDonationInput) (*SessionHandle, error) {
	supporterName := strings.TrimSpace(input.SupporterName)
	message := strings.TrimSpace(input.Message)

	details := map[string]string{}
	if supporterName == "" {
		details["supporter_name"] = "is required"
	}
	if message == "" {
		details["message"] = "is required"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	amountCents, err := amount.ToMinorUnits(input.AmountDisplay)
	if err != nil {
		return nil, err
	}

	creator, err := s.creators.FindByID(ctx, input.CreatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "creator not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load creator")
	}
	if creator.StripeAccountID == nil || strings.TrimSpace(*creator.StripeAccountID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "creator is not ready to receive donations")
	}

	params := s.sessionParams(creator, supporterName, message, amountCents)

	// Bounded call: on timeout no ledger row was committed, so the caller can
	// retry and a fresh session will be minted.
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sess, err := s.stripe.CreateSession(callCtx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	_, err = s.ledger.CreatePending(ctx, donations.CreatePendingInput{
		CreatorID:       creator.ID,
		SupporterName:   supporterName,
		Message:         message,
		AmountCents:     amountCents,
		StripeSessionID: sess.ID,
	})
	if err != nil {
		// The external session exists and may still be paid. It carries full
		// metadata, so the confirmation handler or the recovery sweep can
		// rebuild the row; surface the session id for operators either way.
		if s.logg != nil {
			logCtx := s.logg.WithSessionID(ctx, sess.ID)
			s.logg.Error(logCtx, "checkout session created without ledger row", err)
		}
		return nil, err
	}

	return &SessionHandle{SessionID: sess.ID}, nil
}

func (s *service) ListSessionsSince(ctx context.Context, since time.Time) ([]*stripe.CheckoutSession, error) {
	sessions, err := s.stripe.ListSessionsSince(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list checkout sessions")
	}
	return sessions, nil
}

func (s *service) sessionParams(creator *models.Creator, supporterName, message string, amountCents int64) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(enums.DefaultCurrency)),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Apoiar %s", creator.Name)),
					},
				},
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(applicationFee(amountCents, s.cfg.ApplicationFeePercent)),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: creator.StripeAccountID,
			},
		},
	}
	params.AddMetadata(MetadataCreatorID, creator.ID.String())
	params.AddMetadata(MetadataSupporterName, supporterName)
	params.AddMetadata(MetadataMessage, message)
	params.AddMetadata(MetadataAmountCents, strconv.FormatInt(amountCents, 10))
	return params
}

// applicationFee computes the platform cut in minor units, integer-only.
func applicationFee(amountCents, percent int64) int64 {
	if percent <= 0 {
		return 0
	}
	return amountCents * percent / 100
}
