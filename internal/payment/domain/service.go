package domain

import (
	"context"
	"errors"

	"github.com/alprail/membership/pkg/db/pagination"
)

type InitiatePaymentRequest struct {
	Provider       string `json:"provider"`
	OrganizationID string `json:"organization_id"`
	PlanID         string `json:"plan_id"`
	Currency       string `json:"currency"`
	ActorID        string `json:"-"`
}

type InitiatePaymentResponse struct {
	PaymentID   string `json:"payment_id"`
	Provider    string `json:"provider"`
	ProviderRef string `json:"provider_ref"`
	RedirectURL string `json:"redirect_url"`
}

type ConfirmPaymentRequest struct {
	Provider    string `json:"provider"`
	ProviderRef string `json:"provider_ref"`
	ActorID     string `json:"-"`
}

type ConfirmPaymentResponse struct {
	Payment        *Payment `json:"payment"`
	SubscriptionID string   `json:"subscription_id"`
	InvoiceID      string   `json:"invoice_id"`
	InvoiceNumber  string   `json:"invoice_number"`
}

type ListPaymentRequest struct {
	pagination.Pagination
	OrganizationID string `form:"organization_id"`
	Provider       string `form:"provider"`
	Status         string `form:"status"`
}

type ListPaymentResponse struct {
	pagination.PageInfo
	Payments []*Payment `json:"payments"`
}

type Service interface {
	// Initiate creates a pending payment and the provider checkout the
	// caller redirects to.
	Initiate(ctx context.Context, req InitiatePaymentRequest) (*InitiatePaymentResponse, error)
	// Confirm verifies the provider transaction settled, marks the payment
	// succeeded and provisions the subscription plus its paid invoice.
	Confirm(ctx context.Context, req ConfirmPaymentRequest) (*ConfirmPaymentResponse, error)
	Get(ctx context.Context, id string) (*Payment, error)
	List(ctx context.Context, req ListPaymentRequest) (ListPaymentResponse, error)
}

var (
	ErrPaymentNotFound     = errors.New("payment_not_found")
	ErrInvalidPayment      = errors.New("invalid_payment")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPlan         = errors.New("invalid_plan")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrPaymentNotCompleted = errors.New("payment_not_completed")
	ErrAlreadyConfirmed    = errors.New("payment_already_confirmed")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
)
