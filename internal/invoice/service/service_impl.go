package service

import (
	"context"
	"fmt"
	"strings"

	activitylogdomain "github.com/alprail/membership/internal/activitylog/domain"
	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/invoice/domain"
	memberdomain "github.com/alprail/membership/internal/member/domain"
	notificationdomain "github.com/alprail/membership/internal/notification/domain"
	organizationdomain "github.com/alprail/membership/internal/organization/domain"
	"github.com/alprail/membership/internal/providers/pdf"
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
	Clock        clock.Clock
	Repo         domain.Repository
	OrgRepo      organizationdomain.Repository
	MemberRepo   memberdomain.Repository
	ActivityLog  activitylogdomain.Service
	Notification notificationdomain.Service
	Renderer     pdf.Renderer
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	repo         domain.Repository
	orgRepo      organizationdomain.Repository
	memberRepo   memberdomain.Repository
	activityLog  activitylogdomain.Service
	notification notificationdomain.Service
	renderer     pdf.Renderer
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("invoice.service"),
		clock:        p.Clock,
		repo:         p.Repo,
		orgRepo:      p.OrgRepo,
		memberRepo:   p.MemberRepo,
		activityLog:  p.ActivityLog,
		notification: p.Notification,
		renderer:     p.Renderer,
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidInvoice
	}

	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	filter := domain.ListFilter{Limit: normalizeLimit(req.PageSize)}

	if v := strings.TrimSpace(req.OrganizationID); v != "" {
		orgID, err := snowflake.ParseString(v)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidOrganization
		}
		filter.OrganizationID = orgID
	}
	if v := strings.TrimSpace(req.SubscriptionID); v != "" {
		subID, err := snowflake.ParseString(v)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidSubscription
		}
		filter.SubscriptionID = subID
	}
	if v := strings.TrimSpace(req.Status); v != "" {
		status := domain.InvoiceStatus(v)
		switch status {
		case domain.InvoiceStatusPending, domain.InvoiceStatusPaid,
			domain.InvoiceStatusOverdue, domain.InvoiceStatusCanceled:
		default:
			return domain.ListInvoiceResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if req.PageToken != "" {
		id, createdAt, err := pagination.DecodeIDTimeCursor(req.PageToken)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidPageToken
		}
		filter.Cursor = &domain.Cursor{ID: id, CreatedAt: createdAt}
	}

	invoices, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	pageInfo, invoices := pagination.BuildCursorPageInfo(invoices, filter.Limit, func(inv *domain.Invoice) string {
		return pagination.EncodeIDTimeCursor(inv.ID, inv.CreatedAt)
	})

	return domain.ListInvoiceResponse{
		PageInfo: *pageInfo,
		Invoices: invoices,
	}, nil
}

func (s *Service) MarkPaid(ctx context.Context, req domain.MarkPaidRequest) (*domain.Invoice, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidInvoice
	}

	var invoice *domain.Invoice
	err = s.db.Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByIDForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrInvoiceNotFound
		}

		switch found.Status {
		case domain.InvoiceStatusPaid:
			return domain.ErrAlreadyPaid
		case domain.InvoiceStatusCanceled:
			return domain.ErrTransitionNotAllowed
		}

		now := s.clock.Now()
		found.Status = domain.InvoiceStatusPaid
		found.PaidAt = &now
		found.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, found); err != nil {
			return err
		}

		invoice = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordPaid(ctx, invoice, req.ActorID)
	s.sendInvoicePaid(ctx, invoice)

	return invoice, nil
}

func (s *Service) RenderPDF(ctx context.Context, id string) ([]byte, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	org, err := s.orgRepo.FindByID(ctx, s.db, invoice.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrInvalidOrganization
	}

	doc := pdf.InvoiceDocument{
		OrganizationName:    org.Name,
		OrganizationAddress: formatAddress(org),
		OrganizationEmail:   org.Email,
		InvoiceNumber:       invoice.InvoiceNumber,
		IssueDate:           invoice.IssueDate.UTC().Format("02.01.2006"),
		DueDate:             invoice.DueDate.UTC().Format("02.01.2006"),
		Status:              string(invoice.Status),
		Lines: []pdf.InvoiceLine{
			{
				Description: fmt.Sprintf("Membership %s", invoice.IssueDate.UTC().Format("January 2006")),
				Amount:      formatMoney(invoice.Amount, invoice.Currency),
			},
		},
		Subtotal: formatMoney(invoice.Amount, invoice.Currency),
		Tax:      formatMoney(invoice.TaxAmount, invoice.Currency),
		Total:    formatMoney(invoice.TotalAmount, invoice.Currency),
	}

	return s.renderer.RenderInvoice(ctx, doc)
}

func (s *Service) recordPaid(ctx context.Context, invoice *domain.Invoice, actorID string) {
	var actor *snowflake.ID
	if id, err := snowflake.ParseString(strings.TrimSpace(actorID)); err == nil {
		actor = &id
	}
	subjectID := invoice.ID
	if err := s.activityLog.Record(ctx, activitylogdomain.RecordRequest{
		ActorID:     actor,
		Action:      "invoice.paid",
		SubjectType: "invoice",
		SubjectID:   &subjectID,
		Description: fmt.Sprintf("invoice %s marked paid", invoice.InvoiceNumber),
		Properties: map[string]any{
			"organization_id": invoice.OrganizationID.String(),
			"total_amount":    invoice.TotalAmount,
			"currency":        invoice.Currency,
		},
	}); err != nil {
		s.log.Warn("failed to record invoice activity",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) sendInvoicePaid(ctx context.Context, invoice *domain.Invoice) {
	member, err := s.memberRepo.FindPrimaryByOrganizationID(ctx, s.db, invoice.OrganizationID)
	if err != nil || member == nil {
		s.log.Warn("no recipient for invoice paid mail",
			zap.String("organization_id", invoice.OrganizationID.String()),
			zap.Error(err),
		)
		return
	}

	paidAt := s.clock.Now()
	if invoice.PaidAt != nil {
		paidAt = *invoice.PaidAt
	}
	if err := s.notification.InvoicePaid(ctx, member.Email, notificationdomain.InvoicePaidData{
		Name:          member.FullName(),
		InvoiceNumber: invoice.InvoiceNumber,
		TotalAmount:   invoice.TotalAmount,
		Currency:      invoice.Currency,
		PaidAt:        paidAt,
	}); err != nil {
		s.log.Warn("failed to send invoice paid mail",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
	}
}

func formatMoney(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, cents/100, cents%100)
}

func formatAddress(org *organizationdomain.Organization) string {
	parts := make([]string, 0, 3)
	if org.Address != "" {
		parts = append(parts, org.Address)
	}
	if org.AddressComplement != "" {
		parts = append(parts, org.AddressComplement)
	}
	if line := strings.TrimSpace(org.ZipCode + " " + org.City); line != "" {
		parts = append(parts, line)
	}
	return strings.Join(parts, ", ")
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
