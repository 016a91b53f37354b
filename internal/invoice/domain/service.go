package domain

import (
	"context"
	"errors"

	"github.com/alprail/membership/pkg/db/pagination"
)

type ListInvoiceRequest struct {
	pagination.Pagination
	OrganizationID string `form:"organization_id"`
	SubscriptionID string `form:"subscription_id"`
	Status         string `form:"status"`
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []*Invoice `json:"invoices"`
}

type MarkPaidRequest struct {
	ID      string `json:"-"`
	ActorID string `json:"-"`
}

type Service interface {
	Get(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	// MarkPaid settles a pending or overdue invoice, records the activity
	// and sends the invoice-paid email best-effort.
	MarkPaid(ctx context.Context, req MarkPaidRequest) (*Invoice, error)
	// RenderPDF produces the invoice document.
	RenderPDF(ctx context.Context, id string) ([]byte, error)
}

var (
	ErrInvoiceNotFound      = errors.New("invoice_not_found")
	ErrInvalidInvoice       = errors.New("invalid_invoice")
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidSubscription  = errors.New("invalid_subscription")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrAlreadyPaid          = errors.New("invoice_already_paid")
	ErrTransitionNotAllowed = errors.New("transition_not_allowed")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
)
