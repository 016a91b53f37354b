package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	activitylogdomain "github.com/alprail/membership/internal/activitylog/domain"
	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/config"
	invoicedomain "github.com/alprail/membership/internal/invoice/domain"
	memberdomain "github.com/alprail/membership/internal/member/domain"
	notificationdomain "github.com/alprail/membership/internal/notification/domain"
	organizationdomain "github.com/alprail/membership/internal/organization/domain"
	"github.com/alprail/membership/internal/payment/adapters"
	"github.com/alprail/membership/internal/payment/domain"
	plandomain "github.com/alprail/membership/internal/plan/domain"
	subscriptiondomain "github.com/alprail/membership/internal/subscription/domain"
	"github.com/alprail/membership/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config       config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Registry     *adapters.Registry
	Repo         domain.Repository
	OrgRepo      organizationdomain.Repository
	PlanRepo     plandomain.Repository
	SubRepo      subscriptiondomain.Repository
	InvoiceRepo  invoicedomain.Repository
	MemberRepo   memberdomain.Repository
	ActivityLog  activitylogdomain.Service
	Notification notificationdomain.Service
}

type Service struct {
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	registry     *adapters.Registry
	repo         domain.Repository
	orgRepo      organizationdomain.Repository
	planRepo     plandomain.Repository
	subRepo      subscriptiondomain.Repository
	invoiceRepo  invoicedomain.Repository
	memberRepo   memberdomain.Repository
	activityLog  activitylogdomain.Service
	notification notificationdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		cfg:          p.Config,
		db:           p.DB,
		log:          p.Log.Named("payment.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		registry:     p.Registry,
		repo:         p.Repo,
		orgRepo:      p.OrgRepo,
		planRepo:     p.PlanRepo,
		subRepo:      p.SubRepo,
		invoiceRepo:  p.InvoiceRepo,
		memberRepo:   p.MemberRepo,
		activityLog:  p.ActivityLog,
		notification: p.Notification,
	}
}

func (s *Service) Initiate(ctx context.Context, req domain.InitiatePaymentRequest) (*domain.InitiatePaymentResponse, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(req.OrganizationID))
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}
	planID, err := snowflake.ParseString(strings.TrimSpace(req.PlanID))
	if err != nil {
		return nil, domain.ErrInvalidPlan
	}

	adapter, err := s.registry.NewAdapter(req.Provider, s.cfg)
	if err != nil {
		return nil, err
	}

	org, err := s.orgRepo.FindByID(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrInvalidOrganization
	}

	plan, err := s.planRepo.FindByID(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.Active {
		return nil, domain.ErrInvalidPlan
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = plandomain.CurrencyCHF
	}

	now := s.clock.Now()
	payment := domain.Payment{
		ID:             s.genID.Generate(),
		OrganizationID: orgID,
		PlanID:         planID,
		Provider:       adapter.Provider(),
		Amount:         plan.Price(currency),
		Currency:       currency,
		Status:         domain.PaymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	checkout, err := adapter.CreateCheckout(ctx, domain.CheckoutRequest{
		Reference:   payment.ID.String(),
		Description: fmt.Sprintf("%s membership", plan.Name),
		Amount:      payment.Amount,
		Currency:    currency,
	})
	if err != nil {
		return nil, err
	}
	payment.ProviderRef = checkout.ProviderRef

	if err := s.repo.Insert(ctx, s.db, &payment); err != nil {
		return nil, err
	}

	s.record(ctx, req.ActorID, "payment.initiated", &payment,
		fmt.Sprintf("checkout created with %s for plan %s", payment.Provider, plan.Name))

	return &domain.InitiatePaymentResponse{
		PaymentID:   payment.ID.String(),
		Provider:    payment.Provider,
		ProviderRef: checkout.ProviderRef,
		RedirectURL: checkout.RedirectURL,
	}, nil
}

func (s *Service) Confirm(ctx context.Context, req domain.ConfirmPaymentRequest) (*domain.ConfirmPaymentResponse, error) {
	adapter, err := s.registry.NewAdapter(req.Provider, s.cfg)
	if err != nil {
		return nil, err
	}

	providerRef := strings.TrimSpace(req.ProviderRef)
	if providerRef == "" {
		return nil, domain.ErrInvalidPayment
	}

	confirmation, err := adapter.ConfirmPayment(ctx, providerRef)
	if err != nil {
		return nil, err
	}

	var (
		payment *domain.Payment
		sub     *subscriptiondomain.Subscription
		plan    *plandomain.Plan
		invoice invoicedomain.Invoice
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByProviderRef(ctx, tx, adapter.Provider(), confirmation.ProviderRef)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrPaymentNotFound
		}
		if found.Status == domain.PaymentStatusSucceeded {
			return domain.ErrAlreadyConfirmed
		}

		now := s.clock.Now()
		if !confirmation.Paid {
			// Commit the failed status; the sentinel is returned after
			// the transaction so the write survives.
			found.Status = domain.PaymentStatusFailed
			found.UpdatedAt = now
			return s.repo.Update(ctx, tx, found)
		}

		plan, err = s.planRepo.FindByID(ctx, tx, found.PlanID)
		if err != nil {
			return err
		}
		if plan == nil {
			return domain.ErrInvalidPlan
		}

		sub, err = s.provisionSubscription(ctx, tx, found, plan, now)
		if err != nil {
			return err
		}

		invoice = invoicedomain.NewInvoice(
			s.genID.Generate(),
			found.OrganizationID,
			sub.ID,
			found.Amount,
			found.Currency,
			now,
		)
		invoice.Status = invoicedomain.InvoiceStatusPaid
		invoice.PaidAt = &now
		if err := s.invoiceRepo.Insert(ctx, tx, &invoice); err != nil {
			return err
		}

		subID := sub.ID
		invoiceID := invoice.ID
		found.Status = domain.PaymentStatusSucceeded
		found.SubscriptionID = &subID
		found.InvoiceID = &invoiceID
		found.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, found); err != nil {
			return err
		}

		payment = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !confirmation.Paid {
		return nil, domain.ErrPaymentNotCompleted
	}

	s.record(ctx, req.ActorID, "payment.confirmed", payment,
		fmt.Sprintf("payment settled via %s, subscription active until %s",
			payment.Provider, sub.EndDate.UTC().Format("2006-01-02")))
	s.sendConfirmed(ctx, payment, sub, plan)

	return &domain.ConfirmPaymentResponse{
		Payment:        payment,
		SubscriptionID: sub.ID.String(),
		InvoiceID:      invoice.ID.String(),
		InvoiceNumber:  invoice.InvoiceNumber,
	}, nil
}

// provisionSubscription activates the organization's pending subscription,
// extends an already active one, or starts a fresh period when nothing
// usable exists.
func (s *Service) provisionSubscription(ctx context.Context, tx *gorm.DB, payment *domain.Payment, plan *plandomain.Plan, now time.Time) (*subscriptiondomain.Subscription, error) {
	current, err := s.subRepo.FindCurrentByOrganizationID(ctx, tx, payment.OrganizationID)
	if err != nil {
		return nil, err
	}

	if current != nil && current.PlanID == payment.PlanID {
		switch current.Status {
		case subscriptiondomain.SubscriptionStatusPending:
			current.Status = subscriptiondomain.SubscriptionStatusActive
			current.StartDate = now
			current.EndDate = now.AddDate(0, plan.DurationMonths, 0)
			current.UpdatedAt = now
			if err := s.subRepo.Update(ctx, tx, current); err != nil {
				return nil, err
			}
			return current, nil
		case subscriptiondomain.SubscriptionStatusActive:
			current.EndDate = current.EndDate.AddDate(0, plan.DurationMonths, 0)
			current.LastWarnedDays = nil
			current.LastWarnedAt = nil
			current.UpdatedAt = now
			if err := s.subRepo.Update(ctx, tx, current); err != nil {
				return nil, err
			}
			return current, nil
		}
	}

	sub := subscriptiondomain.Subscription{
		ID:             s.genID.Generate(),
		OrganizationID: payment.OrganizationID,
		PlanID:         payment.PlanID,
		StartDate:      now,
		EndDate:        now.AddDate(0, plan.DurationMonths, 0),
		Status:         subscriptiondomain.SubscriptionStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.subRepo.Insert(ctx, tx, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Payment, error) {
	paymentID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidPayment
	}

	payment, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return payment, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPaymentRequest) (domain.ListPaymentResponse, error) {
	filter := domain.ListFilter{
		Provider: strings.ToLower(strings.TrimSpace(req.Provider)),
		Limit:    normalizeLimit(req.PageSize),
	}

	if v := strings.TrimSpace(req.OrganizationID); v != "" {
		orgID, err := snowflake.ParseString(v)
		if err != nil {
			return domain.ListPaymentResponse{}, domain.ErrInvalidOrganization
		}
		filter.OrganizationID = orgID
	}
	if v := strings.TrimSpace(req.Status); v != "" {
		status := domain.PaymentStatus(v)
		switch status {
		case domain.PaymentStatusPending, domain.PaymentStatusSucceeded, domain.PaymentStatusFailed:
		default:
			return domain.ListPaymentResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if req.PageToken != "" {
		id, createdAt, err := pagination.DecodeIDTimeCursor(req.PageToken)
		if err != nil {
			return domain.ListPaymentResponse{}, domain.ErrInvalidPageToken
		}
		filter.Cursor = &domain.Cursor{ID: id, CreatedAt: createdAt}
	}

	payments, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListPaymentResponse{}, err
	}

	pageInfo, payments := pagination.BuildCursorPageInfo(payments, filter.Limit, func(p *domain.Payment) string {
		return pagination.EncodeIDTimeCursor(p.ID, p.CreatedAt)
	})

	return domain.ListPaymentResponse{
		PageInfo: *pageInfo,
		Payments: payments,
	}, nil
}

func (s *Service) record(ctx context.Context, actorID, action string, payment *domain.Payment, description string) {
	var actor *snowflake.ID
	if id, err := snowflake.ParseString(strings.TrimSpace(actorID)); err == nil {
		actor = &id
	}
	subjectID := payment.ID
	if err := s.activityLog.Record(ctx, activitylogdomain.RecordRequest{
		ActorID:     actor,
		Action:      action,
		SubjectType: "payment",
		SubjectID:   &subjectID,
		Description: description,
		Properties: map[string]any{
			"organization_id": payment.OrganizationID.String(),
			"provider":        payment.Provider,
			"amount":          payment.Amount,
			"currency":        payment.Currency,
		},
	}); err != nil {
		s.log.Warn("failed to record payment activity",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) sendConfirmed(ctx context.Context, payment *domain.Payment, sub *subscriptiondomain.Subscription, plan *plandomain.Plan) {
	member, err := s.memberRepo.FindPrimaryByOrganizationID(ctx, s.db, payment.OrganizationID)
	if err != nil || member == nil {
		s.log.Warn("no recipient for confirmation mail",
			zap.String("organization_id", payment.OrganizationID.String()),
			zap.Error(err),
		)
		return
	}

	if err := s.notification.SubscriptionConfirmed(ctx, member.Email, notificationdomain.SubscriptionConfirmedData{
		Name:     member.FullName(),
		PlanName: plan.Name,
		StartAt:  sub.StartDate,
		EndAt:    sub.EndDate,
		Amount:   payment.Amount,
		Currency: payment.Currency,
	}); err != nil {
		s.log.Warn("failed to send confirmation mail",
			zap.String("payment_id", payment.ID.String()),
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
