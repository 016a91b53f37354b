package domain

import (
	"context"
	"errors"

	"github.com/alprail/membership/internal/config"
)

// CheckoutRequest describes the hosted checkout an adapter should create.
// Reference is the payment id and is echoed back by the provider so the
// confirm leg can correlate.
type CheckoutRequest struct {
	Reference   string
	Description string
	Amount      int64
	Currency    string
}

// Checkout is the provider-side session the caller redirects to.
type Checkout struct {
	Provider    string
	ProviderRef string
	RedirectURL string
}

// Confirmation is the settled state of a provider transaction.
type Confirmation struct {
	Provider    string
	ProviderRef string
	Paid        bool
	Amount      int64
	Currency    string
}

// PaymentAdapter is implemented once per provider.
type PaymentAdapter interface {
	Provider() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	ConfirmPayment(ctx context.Context, providerRef string) (*Confirmation, error)
}

// AdapterFactory builds an adapter from application config. Factories
// return ErrInvalidConfig when credentials are missing.
type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg config.Config) (PaymentAdapter, error)
}

var (
	ErrProviderNotFound = errors.New("payment_provider_not_found")
	ErrInvalidConfig    = errors.New("payment_provider_not_configured")
	ErrProviderDeclined = errors.New("payment_provider_declined")
)
