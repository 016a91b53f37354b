package service

import (
	"context"
	"fmt"
	"strings"

	activitylogdomain "github.com/alprail/membership/internal/activitylog/domain"
	"github.com/alprail/membership/internal/clock"
	invoicedomain "github.com/alprail/membership/internal/invoice/domain"
	memberdomain "github.com/alprail/membership/internal/member/domain"
	notificationdomain "github.com/alprail/membership/internal/notification/domain"
	plandomain "github.com/alprail/membership/internal/plan/domain"
	"github.com/alprail/membership/internal/subscription/domain"
	"github.com/alprail/membership/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	PlanRepo     plandomain.Repository
	InvoiceRepo  invoicedomain.Repository
	MemberRepo   memberdomain.Repository
	ActivityLog  activitylogdomain.Service
	Notification notificationdomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	planRepo     plandomain.Repository
	invoiceRepo  invoicedomain.Repository
	memberRepo   memberdomain.Repository
	activityLog  activitylogdomain.Service
	notification notificationdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("subscription.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		planRepo:     p.PlanRepo,
		invoiceRepo:  p.InvoiceRepo,
		memberRepo:   p.MemberRepo,
		activityLog:  p.ActivityLog,
		notification: p.Notification,
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.SubscriptionView, error) {
	subID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidSubscription
	}

	sub, err := s.repo.FindByID(ctx, s.db, subID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	return s.view(sub), nil
}

func (s *Service) GetCurrentByOrganization(ctx context.Context, orgID string) (*domain.SubscriptionView, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(orgID))
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	sub, err := s.repo.FindCurrentByOrganizationID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	return s.view(sub), nil
}

func (s *Service) List(ctx context.Context, req domain.ListSubscriptionRequest) (domain.ListSubscriptionResponse, error) {
	filter := domain.ListFilter{Limit: normalizeLimit(req.PageSize)}

	if v := strings.TrimSpace(req.OrganizationID); v != "" {
		orgID, err := snowflake.ParseString(v)
		if err != nil {
			return domain.ListSubscriptionResponse{}, domain.ErrInvalidOrganization
		}
		filter.OrganizationID = orgID
	}
	if v := strings.TrimSpace(req.Status); v != "" {
		status := domain.SubscriptionStatus(v)
		switch status {
		case domain.SubscriptionStatusPending, domain.SubscriptionStatusActive,
			domain.SubscriptionStatusExpired, domain.SubscriptionStatusCanceled:
		default:
			return domain.ListSubscriptionResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if req.PageToken != "" {
		id, createdAt, err := pagination.DecodeIDTimeCursor(req.PageToken)
		if err != nil {
			return domain.ListSubscriptionResponse{}, domain.ErrInvalidPageToken
		}
		filter.Cursor = &domain.Cursor{ID: id, CreatedAt: createdAt}
	}

	subs, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListSubscriptionResponse{}, err
	}

	pageInfo, subs := pagination.BuildCursorPageInfo(subs, filter.Limit, func(sub *domain.Subscription) string {
		return pagination.EncodeIDTimeCursor(sub.ID, sub.CreatedAt)
	})

	views := make([]domain.SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, *s.view(sub))
	}

	return domain.ListSubscriptionResponse{
		PageInfo:      *pageInfo,
		Subscriptions: views,
	}, nil
}

func (s *Service) Cancel(ctx context.Context, req domain.CancelSubscriptionRequest) (*domain.Subscription, error) {
	subID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidSubscription
	}

	var sub *domain.Subscription
	err = s.db.Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByIDForUpdate(ctx, tx, subID)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrSubscriptionNotFound
		}
		if !domain.IsTransitionAllowed(found.Status, domain.SubscriptionStatusCanceled) {
			return domain.ErrTransitionNotAllowed
		}

		found.Status = domain.SubscriptionStatusCanceled
		found.AutoRenew = false
		found.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, found); err != nil {
			return err
		}

		sub = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, req.ActorID, "subscription.canceled", sub,
		fmt.Sprintf("subscription for organization %s canceled", sub.OrganizationID))

	return sub, nil
}

func (s *Service) Renew(ctx context.Context, req domain.RenewSubscriptionRequest) (*domain.RenewSubscriptionResponse, error) {
	subID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidSubscription
	}

	var (
		sub     *domain.Subscription
		plan    *plandomain.Plan
		invoice invoicedomain.Invoice
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByIDForUpdate(ctx, tx, subID)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrSubscriptionNotFound
		}

		switch found.Status {
		case domain.SubscriptionStatusActive:
		case domain.SubscriptionStatusExpired:
			if !domain.IsTransitionAllowed(found.Status, domain.SubscriptionStatusActive) {
				return domain.ErrTransitionNotAllowed
			}
		default:
			return domain.ErrTransitionNotAllowed
		}

		plan, err = s.planRepo.FindByID(ctx, tx, found.PlanID)
		if err != nil {
			return err
		}
		if plan == nil {
			return domain.ErrPlanNotFound
		}

		now := s.clock.Now()

		// An expired subscription restarts from today; an active one
		// extends its current end date.
		base := found.EndDate
		if found.Status == domain.SubscriptionStatusExpired || base.Before(now) {
			base = now
		}
		found.EndDate = base.AddDate(0, plan.DurationMonths, 0)
		found.Status = domain.SubscriptionStatusActive
		found.LastWarnedDays = nil
		found.LastWarnedAt = nil
		found.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, found); err != nil {
			return err
		}

		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		if currency == "" {
			currency = plandomain.CurrencyCHF
		}
		invoice = invoicedomain.NewInvoice(
			s.genID.Generate(),
			found.OrganizationID,
			found.ID,
			plan.Price(currency),
			currency,
			now,
		)
		if err := s.invoiceRepo.Insert(ctx, tx, &invoice); err != nil {
			return err
		}

		sub = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, req.ActorID, "subscription.renewed", sub,
		fmt.Sprintf("subscription renewed until %s", sub.EndDate.UTC().Format("2006-01-02")))
	s.sendRenewed(ctx, sub, plan, &invoice)

	return &domain.RenewSubscriptionResponse{
		Subscription:  sub,
		InvoiceID:     invoice.ID.String(),
		InvoiceNumber: invoice.InvoiceNumber,
	}, nil
}

func (s *Service) view(sub *domain.Subscription) *domain.SubscriptionView {
	return &domain.SubscriptionView{
		Subscription:  *sub,
		DaysRemaining: domain.DaysRemaining(sub.EndDate, s.clock.Now()),
	}
}

func (s *Service) record(ctx context.Context, actorID, action string, sub *domain.Subscription, description string) {
	var actor *snowflake.ID
	if id, err := snowflake.ParseString(strings.TrimSpace(actorID)); err == nil {
		actor = &id
	}
	subjectID := sub.ID
	if err := s.activityLog.Record(ctx, activitylogdomain.RecordRequest{
		ActorID:     actor,
		Action:      action,
		SubjectType: "subscription",
		SubjectID:   &subjectID,
		Description: description,
		Properties: map[string]any{
			"organization_id": sub.OrganizationID.String(),
			"end_date":        sub.EndDate.UTC().Format("2006-01-02"),
			"status":          string(sub.Status),
		},
	}); err != nil {
		s.log.Warn("failed to record subscription activity",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) sendRenewed(ctx context.Context, sub *domain.Subscription, plan *plandomain.Plan, invoice *invoicedomain.Invoice) {
	member, err := s.memberRepo.FindPrimaryByOrganizationID(ctx, s.db, sub.OrganizationID)
	if err != nil || member == nil {
		s.log.Warn("no recipient for renewal mail",
			zap.String("organization_id", sub.OrganizationID.String()),
			zap.Error(err),
		)
		return
	}

	if err := s.notification.SubscriptionRenewed(ctx, member.Email, notificationdomain.SubscriptionRenewedData{
		Name:          member.FullName(),
		PlanName:      plan.Name,
		NewEndAt:      sub.EndDate,
		InvoiceNumber: invoice.InvoiceNumber,
		TotalAmount:   invoice.TotalAmount,
		Currency:      invoice.Currency,
	}); err != nil {
		s.log.Warn("failed to send renewal mail",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
	}
}

func normalizeLimit(pageSize int) int {
	if pageSize <= 0 {
		return 50
	}
	if pageSize > 250 {
		return 250
	}
	return pageSize
}
