package service

import (
	"context"
	"strings"

	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/plan/domain"
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
		log:   p.Log.Named("plan.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePlanRequest) (*domain.Plan, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidPlan
	}
	if req.DurationMonths <= 0 {
		return nil, domain.ErrInvalidDuration
	}

	existing, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrPlanNameTaken
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	plan := domain.Plan{
		ID:             s.genID.Generate(),
		Name:           name,
		Description:    strings.TrimSpace(req.Description),
		PriceCHF:       req.PriceCHF,
		PriceEUR:       req.PriceEUR,
		DurationMonths: req.DurationMonths,
		Active:         active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Plan, error) {
	planID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidPlan
	}

	plan, err := s.repo.FindByID(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdatePlanRequest) (*domain.Plan, error) {
	planID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidPlan
	}

	plan, err := s.repo.FindByID(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidPlan
		}
		plan.Name = name
	}
	if req.Description != nil {
		plan.Description = strings.TrimSpace(*req.Description)
	}
	if req.PriceCHF != nil {
		plan.PriceCHF = *req.PriceCHF
	}
	if req.PriceEUR != nil {
		plan.PriceEUR = *req.PriceEUR
	}
	if req.DurationMonths != nil {
		if *req.DurationMonths <= 0 {
			return nil, domain.ErrInvalidDuration
		}
		plan.DurationMonths = *req.DurationMonths
	}
	if req.Active != nil {
		plan.Active = *req.Active
	}
	plan.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPlanRequest) ([]*domain.Plan, error) {
	return s.repo.List(ctx, s.db, domain.ListFilter{ActiveOnly: req.ActiveOnly})
}
