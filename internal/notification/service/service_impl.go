package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	notificationdomain "github.com/alprail/membership/internal/notification/domain"
	"github.com/alprail/membership/internal/observability/metrics"
	"github.com/alprail/membership/internal/providers/email"
	settingsdomain "github.com/alprail/membership/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money": func(cents int64) string {
		return fmt.Sprintf("%d.%02d", cents/100, cents%100)
	},
	"date": func(t time.Time) string {
		return t.UTC().Format("02.01.2006")
	},
	"datetime": func(t time.Time) string {
		return t.UTC().Format("02.01.2006 15:04 MST")
	},
}).ParseFS(templateFS, "templates/*.html"))

type Params struct {
	fx.In

	Log      *zap.Logger
	Provider email.Provider
	Settings settingsdomain.Service
}

type Service struct {
	log      *zap.Logger
	provider email.Provider
	settings settingsdomain.Service
}

func NewService(p Params) notificationdomain.Service {
	return &Service{
		log:      p.Log.Named("notification.service"),
		provider: p.Provider,
		settings: p.Settings,
	}
}

func (s *Service) Welcome(ctx context.Context, to string, data notificationdomain.WelcomeData) error {
	if !s.settings.GetBool(ctx, settingsdomain.KeyWelcomeEnabled) {
		return nil
	}
	return s.send(ctx, notificationdomain.KindWelcome, to, "welcome.html", "Welcome to your membership", data)
}

func (s *Service) SubscriptionConfirmed(ctx context.Context, to string, data notificationdomain.SubscriptionConfirmedData) error {
	if !s.settings.GetBool(ctx, settingsdomain.KeySubscriptionEnabled) {
		return nil
	}
	return s.send(ctx, notificationdomain.KindSubscriptionConfirmed, to, "subscription_confirmed.html", "Your subscription is confirmed", data)
}

func (s *Service) ExpiryWarning(ctx context.Context, to string, data notificationdomain.ExpiryWarningData) error {
	if !s.settings.GetBool(ctx, settingsdomain.KeyReminderEnabled) {
		return nil
	}
	subject := fmt.Sprintf("Your membership expires in %d days", data.Days)
	return s.send(ctx, notificationdomain.KindExpiryWarning, to, "expiry_warning.html", subject, data)
}

func (s *Service) PaymentReminder(ctx context.Context, to string, data notificationdomain.PaymentReminderData) error {
	if !s.settings.GetBool(ctx, settingsdomain.KeyReminderEnabled) {
		return nil
	}
	subject := fmt.Sprintf("Payment reminder for invoice %s", data.InvoiceNumber)
	return s.send(ctx, notificationdomain.KindPaymentReminder, to, "payment_reminder.html", subject, data)
}

func (s *Service) InvoicePaid(ctx context.Context, to string, data notificationdomain.InvoicePaidData) error {
	if !s.settings.GetBool(ctx, settingsdomain.KeyPaymentEnabled) {
		return nil
	}
	subject := fmt.Sprintf("Payment received for invoice %s", data.InvoiceNumber)
	return s.send(ctx, notificationdomain.KindInvoicePaid, to, "invoice_paid.html", subject, data)
}

func (s *Service) SubscriptionRenewed(ctx context.Context, to string, data notificationdomain.SubscriptionRenewedData) error {
	if !s.settings.GetBool(ctx, settingsdomain.KeySubscriptionEnabled) {
		return nil
	}
	return s.send(ctx, notificationdomain.KindSubscriptionRenewed, to, "subscription_renewed.html", "Your subscription has been renewed", data)
}

// Security mail is never gated by settings.
func (s *Service) TwoFactorCode(ctx context.Context, to string, data notificationdomain.TwoFactorCodeData) error {
	return s.send(ctx, notificationdomain.KindTwoFactorCode, to, "two_factor_code.html", "Your verification code", data)
}

func (s *Service) PasswordReset(ctx context.Context, to string, data notificationdomain.PasswordResetData) error {
	return s.send(ctx, notificationdomain.KindPasswordReset, to, "password_reset.html", "Reset your password", data)
}

func (s *Service) send(ctx context.Context, kind notificationdomain.Kind, to, templateName, subject string, data any) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return notificationdomain.ErrNoRecipient
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, templateName, data); err != nil {
		metrics.Scheduler().IncEmailError(string(kind))
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	if err := s.provider.Send(ctx, []string{to}, subject, body.String()); err != nil {
		metrics.Scheduler().IncEmailError(string(kind))
		s.log.Warn("failed to send notification",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return err
	}

	metrics.Scheduler().IncEmailSent(string(kind))
	s.log.Debug("notification sent", zap.String("kind", string(kind)))
	return nil
}
