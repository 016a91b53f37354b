package service

import (
	"context"
	"strings"

	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/member/domain"
	organizationdomain "github.com/alprail/membership/internal/organization/domain"
	"github.com/alprail/membership/pkg/db"
	"github.com/alprail/membership/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	OrgRepo organizationdomain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	orgRepo organizationdomain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("member.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		orgRepo: p.OrgRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateMemberRequest) (*domain.Member, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(req.OrganizationID))
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.orgRepo.FindByID(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrInvalidOrganization
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	role := domain.MemberRole(strings.TrimSpace(req.Role))
	if role != domain.MemberRoleAdmin {
		role = domain.MemberRoleMember
	}

	var passwordHash string
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		passwordHash = string(hashed)
	}

	now := s.clock.Now()
	member := domain.Member{
		ID:                  s.genID.Generate(),
		OrganizationID:      orgID,
		FirstName:           strings.TrimSpace(req.FirstName),
		LastName:            strings.TrimSpace(req.LastName),
		Email:               email,
		Phone:               strings.TrimSpace(req.Phone),
		PasswordHash:        passwordHash,
		Role:                role,
		NewsletterFrequency: strings.TrimSpace(req.NewsletterFrequency),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Insert(ctx, s.db, &member); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return &member, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Member, error) {
	memberID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidMember
	}

	member, err := s.repo.FindByID(ctx, s.db, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrMemberNotFound
	}
	return member, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateMemberRequest) (*domain.Member, error) {
	memberID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidMember
	}

	member, err := s.repo.FindByID(ctx, s.db, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrMemberNotFound
	}

	if req.FirstName != nil {
		member.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		member.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		member.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		member.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Role != nil {
		role := domain.MemberRole(strings.TrimSpace(*req.Role))
		if role == domain.MemberRoleAdmin || role == domain.MemberRoleMember {
			member.Role = role
		}
	}
	if req.NewsletterFrequency != nil {
		member.NewsletterFrequency = strings.TrimSpace(*req.NewsletterFrequency)
	}
	member.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, member); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return member, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	memberID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidMember
	}

	member, err := s.repo.FindByID(ctx, s.db, memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return domain.ErrMemberNotFound
	}
	return s.repo.Delete(ctx, s.db, memberID)
}

func (s *Service) List(ctx context.Context, req domain.ListMemberRequest) (domain.ListMemberResponse, error) {
	var orgID snowflake.ID
	if raw := strings.TrimSpace(req.OrganizationID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListMemberResponse{}, domain.ErrInvalidOrganization
		}
		orgID = parsed
	}

	var cursor *domain.Cursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		id, createdAt, err := pagination.DecodeIDTimeCursor(token)
		if err != nil {
			return domain.ListMemberResponse{}, domain.ErrInvalidPageToken
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
		OrganizationID: orgID,
		Role:           req.Role,
		Cursor:         cursor,
		Limit:          pageSize,
	})
	if err != nil {
		return domain.ListMemberResponse{}, err
	}

	pageInfo, items := pagination.BuildCursorPageInfo(items, pageSize, func(item *domain.Member) string {
		return pagination.EncodeIDTimeCursor(item.ID, item.CreatedAt)
	})

	return domain.ListMemberResponse{
		PageInfo: *pageInfo,
		Members:  items,
	}, nil
}
