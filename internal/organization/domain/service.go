package domain

import (
	"context"
	"errors"

	"github.com/alprail/membership/pkg/db/pagination"
)

type CreateOrganizationRequest struct {
	Name              string `json:"name" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	Type              string `json:"type"`
	Address           string `json:"address"`
	AddressComplement string `json:"address_complement"`
	ZipCode           string `json:"zip_code"`
	City              string `json:"city"`
	Country           string `json:"country"`
	Phone             string `json:"phone"`
}

type UpdateOrganizationRequest struct {
	ID                string  `json:"-"`
	Name              *string `json:"name"`
	Email             *string `json:"email"`
	Address           *string `json:"address"`
	AddressComplement *string `json:"address_complement"`
	ZipCode           *string `json:"zip_code"`
	City              *string `json:"city"`
	Country           *string `json:"country"`
	Phone             *string `json:"phone"`
}

type ListOrganizationRequest struct {
	pagination.Pagination
	Type string `form:"type"`
}

type ListOrganizationResponse struct {
	pagination.PageInfo
	Organizations []*Organization `json:"organizations"`
}

type Service interface {
	Create(ctx context.Context, req CreateOrganizationRequest) (*Organization, error)
	Get(ctx context.Context, id string) (*Organization, error)
	Update(ctx context.Context, req UpdateOrganizationRequest) (*Organization, error)
	List(ctx context.Context, req ListOrganizationRequest) (ListOrganizationResponse, error)
}

var (
	ErrOrganizationNotFound = errors.New("organization_not_found")
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
)
