package accounts

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/loginlink"

	pkgstripe "github.com/Nattanjunior/apoiadev-backend/pkg/stripe"
)

// StripeLoginLinkClient exposes the subset of Stripe operations required by the account service.
type StripeLoginLinkClient interface {
	CreateLoginLink(ctx context.Context, params *stripe.LoginLinkParams) (*stripe.LoginLink, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the account service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeLoginLinkClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreateLoginLink(ctx context.Context, params *stripe.LoginLinkParams) (*stripe.LoginLink, error) {
	if params != nil {
		params.Context = ctx
	}
	return loginlink.New(params)
}
