package service

import (
	"context"
	"strings"

	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/organization/domain"
	"github.com/alprail/membership/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("organization.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrganizationRequest) (*domain.Organization, error) {
	orgType := domain.OrganizationType(strings.TrimSpace(req.Type))
	if orgType != domain.OrganizationTypeOrganization {
		orgType = domain.OrganizationTypeIndividual
	}

	now := s.clock.Now()
	org := domain.Organization{
		ID:                s.genID.Generate(),
		Name:              strings.TrimSpace(req.Name),
		Email:             strings.TrimSpace(req.Email),
		Type:              orgType,
		Address:           strings.TrimSpace(req.Address),
		AddressComplement: strings.TrimSpace(req.AddressComplement),
		ZipCode:           strings.TrimSpace(req.ZipCode),
		City:              strings.TrimSpace(req.City),
		Country:           strings.TrimSpace(req.Country),
		Phone:             strings.TrimSpace(req.Phone),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, s.db, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Organization, error) {
	orgID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.repo.FindByID(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrOrganizationNotFound
	}
	return org, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateOrganizationRequest) (*domain.Organization, error) {
	orgID, err := parseID(req.ID)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.repo.FindByID(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrOrganizationNotFound
	}

	applyString(&org.Name, req.Name)
	applyString(&org.Email, req.Email)
	applyString(&org.Address, req.Address)
	applyString(&org.AddressComplement, req.AddressComplement)
	applyString(&org.ZipCode, req.ZipCode)
	applyString(&org.City, req.City)
	applyString(&org.Country, req.Country)
	applyString(&org.Phone, req.Phone)
	org.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Service) List(ctx context.Context, req domain.ListOrganizationRequest) (domain.ListOrganizationResponse, error) {
	var cursor *domain.Cursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		id, createdAt, err := pagination.DecodeIDTimeCursor(token)
		if err != nil {
			return domain.ListOrganizationResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.Cursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Type:   req.Type,
		Cursor: cursor,
		Limit:  pageSize,
	})
	if err != nil {
		return domain.ListOrganizationResponse{}, err
	}

	pageInfo, items := pagination.BuildCursorPageInfo(items, pageSize, func(item *domain.Organization) string {
		return pagination.EncodeIDTimeCursor(item.ID, item.CreatedAt)
	})

	return domain.ListOrganizationResponse{
		PageInfo:      *pageInfo,
		Organizations: items,
	}, nil
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}

func applyString(dst *string, src *string) {
	if src == nil {
		return
	}
	*dst = strings.TrimSpace(*src)
}
