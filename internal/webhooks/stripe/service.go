package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/stripe/stripe-go/v84"

	"github.com/Nattanjunior/apoiadev-backend/internal/checkout"
	"github.com/Nattanjunior/apoiadev-backend/internal/donations"
	"github.com/Nattanjunior/apoiadev-backend/pkg/config"
	"github.com/Nattanjunior/apoiadev-backend/pkg/db/models"
	pkgerrors "github.com/Nattanjunior/apoiadev-backend/pkg/errors"
	"github.com/Nattanjunior/apoiadev-backend/pkg/logger"
	"github.com/Nattanjunior/apoiadev-backend/pkg/metrics"
)

// Outcome is the terminal state a confirmation event resolves to.
type Outcome string

const (
	OutcomePaid   Outcome = "paid"
	OutcomeFailed Outcome = "failed"
)

type ledger interface {
	CreatePending(ctx context.Context, input donations.CreatePendingInput) (*models.Donation, error)
	MarkPaid(ctx context.Context, sessionID string) (*models.Donation, error)
	MarkFailed(ctx context.Context, sessionID string) (*models.Donation, error)
}

type ServiceParams struct {
	Ledger  ledger
	Metrics *metrics.WebhookMetrics
	Logger  *logger.Logger
	Webhook config.WebhookConfig
}

// Service consumes verified Stripe checkout events and drives ledger rows to
// their terminal state exactly once. Signature verification happens in the
// controller; by the time HandleEvent runs, the event is trusted.
type Service struct {
	ledger  ledger
	metrics *metrics.WebhookMetrics
	logg    *logger.Logger
	cfg     config.WebhookConfig
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "donation ledger required")
	}
	cfg := params.Webhook
	if cfg.LookupRetryBase <= 0 {
		cfg.LookupRetryBase = 100 * time.Millisecond
	}
	if cfg.LookupRetryMaxDelay <= 0 {
		cfg.LookupRetryMaxDelay = 2 * time.Second
	}
	return &Service{
		ledger:  params.Ledger,
		metrics: params.Metrics,
		logg:    params.Logger,
		cfg:     cfg,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	var outcome Outcome
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		outcome = OutcomePaid
	case stripe.EventTypeCheckoutSessionExpired,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		outcome = OutcomeFailed
	default:
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
	}
	if sess.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}

	// A completed event with an unpaid session means an async payment method
	// is still settling; the async_payment_* event carries the real outcome.
	if event.Type == stripe.EventTypeCheckoutSessionCompleted &&
		sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		return nil
	}

	if s.logg != nil {
		ctx = s.logg.WithSessionID(ctx, sess.ID)
	}

	return s.apply(ctx, &sess, outcome)
}

// apply drives the session's ledger row to the outcome. Unknown sessions are a
// legitimate race with the gateway's ledger write, so the transition is
// retried with backoff; if the row never shows up, it is rebuilt from session
// metadata before giving up.
func (s *Service) apply(ctx context.Context, sess *stripe.CheckoutSession, outcome Outcome) error {
	backoff := retry.WithCappedDuration(s.cfg.LookupRetryMaxDelay,
		retry.WithMaxRetries(s.cfg.LookupRetryAttempts,
			retry.NewExponential(s.cfg.LookupRetryBase)))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.transition(ctx, sess.ID, outcome); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err == nil {
		if s.metrics != nil {
			s.metrics.IncProcessed(string(outcome))
		}
		return nil
	}

	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		if recErr := s.recoverFromMetadata(ctx, sess); recErr != nil {
			// Not recoverable here; fail the delivery so Stripe retries and
			// the event is never silently lost.
			if s.logg != nil {
				s.logg.Error(ctx, "confirmation for unknown session could not be applied", recErr)
			}
			return err
		}
		if err := s.transition(ctx, sess.ID, outcome); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.IncRecovered()
			s.metrics.IncProcessed(string(outcome))
		}
		if s.logg != nil {
			s.logg.Warn(ctx, "donation rebuilt from session metadata after unknown-session race")
		}
		return nil

	case pkgerrors.IsCode(err, pkgerrors.CodeStateConflict):
		// Conflicting terminal outcomes for one session. The first writer
		// won; this delivery is acknowledged but flagged for manual
		// reconciliation instead of being silently dropped.
		if s.metrics != nil {
			s.metrics.IncConflict()
		}
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "requested_outcome", string(outcome))
			s.logg.Error(logCtx, "conflicting terminal outcome, manual reconciliation required", err)
		}
		return nil

	default:
		return err
	}
}

func (s *Service) transition(ctx context.Context, sessionID string, outcome Outcome) error {
	var err error
	switch outcome {
	case OutcomePaid:
		_, err = s.ledger.MarkPaid(ctx, sessionID)
	case OutcomeFailed:
		_, err = s.ledger.MarkFailed(ctx, sessionID)
	default:
		err = pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unsupported outcome %q", outcome))
	}
	return err
}

// recoverFromMetadata rebuilds the pending ledger row from the metadata the
// gateway stamped on the session. A concurrent create racing us is fine; the
// follow-up transition resolves either row.
func (s *Service) recoverFromMetadata(ctx context.Context, sess *stripe.CheckoutSession) error {
	input, err := pendingInputFromSession(sess)
	if err != nil {
		return err
	}
	if _, err := s.ledger.CreatePending(ctx, *input); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return nil
		}
		return err
	}
	return nil
}

func pendingInputFromSession(sess *stripe.CheckoutSession) (*donations.CreatePendingInput, error) {
	meta := sess.Metadata
	if meta == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session metadata missing")
	}

	creatorID, err := uuid.Parse(meta[checkout.MetadataCreatorID])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "session metadata creator id invalid")
	}
	amountCents, err := strconv.ParseInt(meta[checkout.MetadataAmountCents], 10, 64)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "session metadata amount invalid")
	}
	supporterName := strings.TrimSpace(meta[checkout.MetadataSupporterName])
	message := strings.TrimSpace(meta[checkout.MetadataMessage])
	if supporterName == "" || message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session metadata incomplete")
	}

	return &donations.CreatePendingInput{
		CreatorID:       creatorID,
		SupporterName:   supporterName,
		Message:         message,
		AmountCents:     amountCents,
		StripeSessionID: sess.ID,
	}, nil
}
