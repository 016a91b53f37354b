package domain

import (
	"context"
	"errors"

	"github.com/alprail/membership/pkg/db/pagination"
)

type CreateMemberRequest struct {
	OrganizationID      string `json:"organization_id" binding:"required"`
	FirstName           string `json:"first_name" binding:"required"`
	LastName            string `json:"last_name" binding:"required"`
	Email               string `json:"email" binding:"required,email"`
	Phone               string `json:"phone"`
	Password            string `json:"password"`
	Role                string `json:"role"`
	NewsletterFrequency string `json:"newsletter_frequency"`
}

type UpdateMemberRequest struct {
	ID                  string  `json:"-"`
	FirstName           *string `json:"first_name"`
	LastName            *string `json:"last_name"`
	Email               *string `json:"email"`
	Phone               *string `json:"phone"`
	Role                *string `json:"role"`
	NewsletterFrequency *string `json:"newsletter_frequency"`
}

type ListMemberRequest struct {
	pagination.Pagination
	OrganizationID string `form:"organization_id"`
	Role           string `form:"role"`
}

type ListMemberResponse struct {
	pagination.PageInfo
	Members []*Member `json:"members"`
}

type Service interface {
	Create(ctx context.Context, req CreateMemberRequest) (*Member, error)
	Get(ctx context.Context, id string) (*Member, error)
	Update(ctx context.Context, req UpdateMemberRequest) (*Member, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, req ListMemberRequest) (ListMemberResponse, error)
}

var (
	ErrMemberNotFound      = errors.New("member_not_found")
	ErrInvalidMember       = errors.New("invalid_member")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrEmailTaken          = errors.New("email_taken")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
)
