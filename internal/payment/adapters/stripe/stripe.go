// Package stripe implements the payment adapter on Stripe Checkout
// Sessions.
package stripe

import (
	"context"
	"strings"

	"github.com/alprail/membership/internal/config"
	paymentdomain "github.com/alprail/membership/internal/payment/domain"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

const provider = "stripe"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return provider
}

func (f *Factory) NewAdapter(cfg config.Config) (paymentdomain.PaymentAdapter, error) {
	secretKey := strings.TrimSpace(cfg.Stripe.SecretKey)
	if secretKey == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}

	api := &client.API{}
	api.Init(secretKey, nil)

	return &Adapter{
		api:        api,
		successURL: cfg.Stripe.SuccessURL,
		cancelURL:  cfg.Stripe.CancelURL,
	}, nil
}

type Adapter struct {
	api        *client.API
	successURL string
	cancelURL  string
}

func (a *Adapter) Provider() string {
	return provider
}

func (a *Adapter) CreateCheckout(ctx context.Context, req paymentdomain.CheckoutRequest) (*paymentdomain.Checkout, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.Reference),
		SuccessURL:        stripe.String(a.successURL),
		CancelURL:         stripe.String(a.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
			},
		},
	}
	params.Context = ctx

	session, err := a.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}

	return &paymentdomain.Checkout{
		Provider:    provider,
		ProviderRef: session.ID,
		RedirectURL: session.URL,
	}, nil
}

func (a *Adapter) ConfirmPayment(ctx context.Context, providerRef string) (*paymentdomain.Confirmation, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := a.api.CheckoutSessions.Get(providerRef, params)
	if err != nil {
		return nil, err
	}

	return &paymentdomain.Confirmation{
		Provider:    provider,
		ProviderRef: session.ID,
		Paid:        session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Amount:      session.AmountTotal,
		Currency:    strings.ToUpper(string(session.Currency)),
	}, nil
}
