package domain

import (
	"context"
	"errors"
)

type CreatePlanRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	PriceCHF       int64  `json:"price_chf" binding:"gte=0"`
	PriceEUR       int64  `json:"price_eur" binding:"gte=0"`
	DurationMonths int    `json:"duration_months" binding:"required,gt=0"`
	Active         *bool  `json:"active"`
}

type UpdatePlanRequest struct {
	ID             string  `json:"-"`
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	PriceCHF       *int64  `json:"price_chf"`
	PriceEUR       *int64  `json:"price_eur"`
	DurationMonths *int    `json:"duration_months"`
	Active         *bool   `json:"active"`
}

type ListPlanRequest struct {
	ActiveOnly bool `form:"active_only"`
}

type Service interface {
	Create(ctx context.Context, req CreatePlanRequest) (*Plan, error)
	Get(ctx context.Context, id string) (*Plan, error)
	Update(ctx context.Context, req UpdatePlanRequest) (*Plan, error)
	List(ctx context.Context, req ListPlanRequest) ([]*Plan, error)
}

var (
	ErrPlanNotFound    = errors.New("plan_not_found")
	ErrInvalidPlan     = errors.New("invalid_plan")
	ErrInvalidDuration = errors.New("invalid_duration")
	ErrPlanNameTaken   = errors.New("plan_name_taken")
)
