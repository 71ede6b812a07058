package stats

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/balance"

	pkgstripe "github.com/Nattanjunior/apoiadev-backend/pkg/stripe"
)

// StripeBalanceClient exposes the subset of Stripe operations required by the stats service.
type StripeBalanceClient interface {
	GetBalance(ctx context.Context, params *stripe.BalanceParams) (*stripe.Balance, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the stats service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeBalanceClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) GetBalance(ctx context.Context, params *stripe.BalanceParams) (*stripe.Balance, error) {
	if params != nil {
		params.Context = ctx
	}
	return balance.Get(params)
}
