package signup

import (
	"context"
	"strings"

	activitylogdomain "github.com/alprail/membership/internal/activitylog/domain"
	"github.com/alprail/membership/internal/clock"
	invoicedomain "github.com/alprail/membership/internal/invoice/domain"
	memberdomain "github.com/alprail/membership/internal/member/domain"
	notificationdomain "github.com/alprail/membership/internal/notification/domain"
	orgdomain "github.com/alprail/membership/internal/organization/domain"
	plandomain "github.com/alprail/membership/internal/plan/domain"
	"github.com/alprail/membership/internal/signup/domain"
	subscriptiondomain "github.com/alprail/membership/internal/subscription/domain"
	"github.com/alprail/membership/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	OrgRepo      orgdomain.Repository
	MemberRepo   memberdomain.Repository
	PlanRepo     plandomain.Repository
	SubRepo      subscriptiondomain.Repository
	InvoiceRepo  invoicedomain.Repository
	ActivityLog  activitylogdomain.Service
	Notification notificationdomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	orgRepo      orgdomain.Repository
	memberRepo   memberdomain.Repository
	planRepo     plandomain.Repository
	subRepo      subscriptiondomain.Repository
	invoiceRepo  invoicedomain.Repository
	activityLog  activitylogdomain.Service
	notification notificationdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("signup.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		orgRepo:      p.OrgRepo,
		memberRepo:   p.MemberRepo,
		planRepo:     p.PlanRepo,
		subRepo:      p.SubRepo,
		invoiceRepo:  p.InvoiceRepo,
		activityLog:  p.ActivityLog,
		notification: p.Notification,
	}
}

func (s *Service) Signup(ctx context.Context, req domain.Request) (*domain.Result, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, domain.ErrInvalidRequest
	}

	orgName := strings.TrimSpace(req.OrganizationName)
	if orgName == "" {
		orgName = strings.TrimSpace(req.FirstName + " " + req.LastName)
	}

	orgType := orgdomain.OrganizationType(strings.TrimSpace(req.OrganizationType))
	if orgType != orgdomain.OrganizationTypeOrganization {
		orgType = orgdomain.OrganizationTypeIndividual
	}

	planID, err := snowflake.ParseString(strings.TrimSpace(req.PlanID))
	if err != nil {
		return nil, domain.ErrPlanNotFound
	}

	existing, err := s.memberRepo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	var passwordHash string
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		passwordHash = string(hashed)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = plandomain.CurrencyCHF
	}

	var (
		org     orgdomain.Organization
		member  memberdomain.Member
		sub     subscriptiondomain.Subscription
		invoice invoicedomain.Invoice
		plan    *plandomain.Plan
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		plan, err = s.planRepo.FindByID(ctx, tx, planID)
		if err != nil {
			return err
		}
		if plan == nil || !plan.Active {
			return domain.ErrPlanNotFound
		}

		now := s.clock.Now()

		org = orgdomain.Organization{
			ID:        s.genID.Generate(),
			Name:      orgName,
			Email:     email,
			Type:      orgType,
			Address:   strings.TrimSpace(req.Address),
			ZipCode:   strings.TrimSpace(req.ZipCode),
			City:      strings.TrimSpace(req.City),
			Country:   strings.TrimSpace(req.Country),
			Phone:     strings.TrimSpace(req.Phone),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.orgRepo.Insert(ctx, tx, &org); err != nil {
			return err
		}

		member = memberdomain.Member{
			ID:             s.genID.Generate(),
			OrganizationID: org.ID,
			FirstName:      strings.TrimSpace(req.FirstName),
			LastName:       strings.TrimSpace(req.LastName),
			Email:          email,
			Phone:          strings.TrimSpace(req.Phone),
			PasswordHash:   passwordHash,
			Role:           memberdomain.MemberRoleAdmin,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.memberRepo.Insert(ctx, tx, &member); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrEmailTaken
			}
			return err
		}

		sub = subscriptiondomain.Subscription{
			ID:             s.genID.Generate(),
			OrganizationID: org.ID,
			PlanID:         plan.ID,
			StartDate:      now,
			EndDate:        now.AddDate(0, plan.DurationMonths, 0),
			Status:         subscriptiondomain.SubscriptionStatusPending,
			AutoRenew:      req.AutoRenew,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.subRepo.Insert(ctx, tx, &sub); err != nil {
			return err
		}

		invoice = invoicedomain.NewInvoice(
			s.genID.Generate(),
			org.ID,
			sub.ID,
			plan.Price(currency),
			currency,
			now,
		)
		return s.invoiceRepo.Insert(ctx, tx, &invoice)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, &org, &member, req)
	s.sendWelcome(ctx, &member, &org, plan)

	return &domain.Result{
		OrganizationID: org.ID.String(),
		MemberID:       member.ID.String(),
		SubscriptionID: sub.ID.String(),
		InvoiceID:      invoice.ID.String(),
		InvoiceNumber:  invoice.InvoiceNumber,
	}, nil
}

func (s *Service) record(ctx context.Context, org *orgdomain.Organization, member *memberdomain.Member, req domain.Request) {
	actorID := member.ID
	subjectID := org.ID
	entry := activitylogdomain.RecordRequest{
		ActorID:     &actorID,
		Action:      "member.registered",
		SubjectType: "organization",
		SubjectID:   &subjectID,
		Description: "organization registered with first member",
		Properties: map[string]any{
			"organization_name": org.Name,
			"member_email":      member.Email,
		},
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	}
	if err := s.activityLog.Record(ctx, entry); err != nil {
		s.log.Warn("failed to record signup activity",
			zap.String("organization_id", org.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) sendWelcome(ctx context.Context, member *memberdomain.Member, org *orgdomain.Organization, plan *plandomain.Plan) {
	if err := s.notification.Welcome(ctx, member.Email, notificationdomain.WelcomeData{
		Name:             member.FullName(),
		OrganizationName: org.Name,
		PlanName:         plan.Name,
	}); err != nil {
		s.log.Warn("failed to send welcome mail",
			zap.String("member_id", member.ID.String()),
			zap.Error(err),
		)
	}
}
