// Package domain describes the member registration flow.
package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Signup creates the organization, its first member, a pending
	// subscription on the chosen plan and the opening invoice in one
	// transaction. The welcome mail is sent best-effort after commit.
	Signup(ctx context.Context, req Request) (*Result, error)
}

type Request struct {
	OrganizationName string `json:"organization_name"`
	OrganizationType string `json:"organization_type"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	ZipCode          string `json:"zip_code"`
	City             string `json:"city"`
	Country          string `json:"country"`
	PlanID           string `json:"plan_id"`
	Currency         string `json:"currency"`
	AutoRenew        bool   `json:"auto_renew"`
	IPAddress        string `json:"-"`
	UserAgent        string `json:"-"`
}

type Result struct {
	OrganizationID string `json:"organization_id"`
	MemberID       string `json:"member_id"`
	SubscriptionID string `json:"subscription_id"`
	InvoiceID      string `json:"invoice_id"`
	InvoiceNumber  string `json:"invoice_number"`
}

var (
	ErrInvalidRequest = errors.New("invalid_signup_request")
	ErrEmailTaken     = errors.New("email_taken")
	ErrPlanNotFound   = errors.New("plan_not_found")
)
