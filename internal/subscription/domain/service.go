package domain

import (
	"context"
	"errors"

	"github.com/alprail/membership/pkg/db/pagination"
)

type ListSubscriptionRequest struct {
	pagination.Pagination
	OrganizationID string `form:"organization_id"`
	Status         string `form:"status"`
}

type SubscriptionView struct {
	Subscription
	DaysRemaining int `json:"days_remaining"`
}

type ListSubscriptionResponse struct {
	pagination.PageInfo
	Subscriptions []SubscriptionView `json:"subscriptions"`
}

type CancelSubscriptionRequest struct {
	ID      string `json:"-"`
	ActorID string `json:"-"`
}

type RenewSubscriptionRequest struct {
	ID       string `json:"-"`
	ActorID  string `json:"-"`
	Currency string `json:"currency"`
}

type RenewSubscriptionResponse struct {
	Subscription  *Subscription `json:"subscription"`
	InvoiceID     string        `json:"invoice_id"`
	InvoiceNumber string        `json:"invoice_number"`
}

type Service interface {
	Get(ctx context.Context, id string) (*SubscriptionView, error)
	GetCurrentByOrganization(ctx context.Context, orgID string) (*SubscriptionView, error)
	List(ctx context.Context, req ListSubscriptionRequest) (ListSubscriptionResponse, error)
	Cancel(ctx context.Context, req CancelSubscriptionRequest) (*Subscription, error)
	// Renew extends the subscription by one plan duration and issues a
	// renewal invoice. Expired subscriptions are reinstated to active.
	Renew(ctx context.Context, req RenewSubscriptionRequest) (*RenewSubscriptionResponse, error)
}

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrInvalidSubscription  = errors.New("invalid_subscription")
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrTransitionNotAllowed = errors.New("transition_not_allowed")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
	ErrPlanNotFound         = errors.New("plan_not_found")
)
