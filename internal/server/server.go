package server

import (
	"context"
	"net/http"
	"time"

	"github.com/alprail/membership/internal/activitylog"
	activitylogdomain "github.com/alprail/membership/internal/activitylog/domain"
	"github.com/alprail/membership/internal/config"
	"github.com/alprail/membership/internal/invoice"
	invoicedomain "github.com/alprail/membership/internal/invoice/domain"
	"github.com/alprail/membership/internal/member"
	memberdomain "github.com/alprail/membership/internal/member/domain"
	"github.com/alprail/membership/internal/notification"
	"github.com/alprail/membership/internal/observability"
	obsmiddleware "github.com/alprail/membership/internal/observability/logger"
	"github.com/alprail/membership/internal/organization"
	organizationdomain "github.com/alprail/membership/internal/organization/domain"
	"github.com/alprail/membership/internal/payment"
	paymentdomain "github.com/alprail/membership/internal/payment/domain"
	"github.com/alprail/membership/internal/plan"
	plandomain "github.com/alprail/membership/internal/plan/domain"
	"github.com/alprail/membership/internal/providers"
	"github.com/alprail/membership/internal/settings"
	settingsdomain "github.com/alprail/membership/internal/settings/domain"
	"github.com/alprail/membership/internal/signup"
	signupdomain "github.com/alprail/membership/internal/signup/domain"
	"github.com/alprail/membership/internal/subscription"
	subscriptiondomain "github.com/alprail/membership/internal/subscription/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	notification.Module,
	providers.Module,
	organization.Module,
	member.Module,
	plan.Module,
	subscription.Module,
	invoice.Module,
	payment.Module,
	activitylog.Module,
	settings.Module,
	signup.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	organizationSvc organizationdomain.Service
	memberSvc       memberdomain.Service
	planSvc         plandomain.Service
	subscriptionSvc subscriptiondomain.Service
	invoiceSvc      invoicedomain.Service
	paymentSvc      paymentdomain.Service
	activityLogSvc  activitylogdomain.Service
	settingsSvc     settingsdomain.Service
	signupSvc       signupdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	OrganizationSvc organizationdomain.Service
	MemberSvc       memberdomain.Service
	PlanSvc         plandomain.Service
	SubscriptionSvc subscriptiondomain.Service
	InvoiceSvc      invoicedomain.Service
	PaymentSvc      paymentdomain.Service
	ActivityLogSvc  activitylogdomain.Service
	SettingsSvc     settingsdomain.Service
	SignupSvc       signupdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		organizationSvc: p.OrganizationSvc,
		memberSvc:       p.MemberSvc,
		planSvc:         p.PlanSvc,
		subscriptionSvc: p.SubscriptionSvc,
		invoiceSvc:      p.InvoiceSvc,
		paymentSvc:      p.PaymentSvc,
		activityLogSvc:  p.ActivityLogSvc,
		settingsSvc:     p.SettingsSvc,
		signupSvc:       p.SignupSvc,
	}

	svc.registerPublicRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api")
	api.POST("/register", s.Register)
	api.GET("/plans", s.ListActivePlans)
	api.POST("/payments/initiate", s.InitiatePayment)
	api.POST("/payments/confirm", s.ConfirmPayment)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/organizations", s.CreateOrganization)
	api.GET("/organizations", s.ListOrganizations)
	api.GET("/organizations/:id", s.GetOrganization)
	api.PATCH("/organizations/:id", s.UpdateOrganization)
	api.GET("/organizations/:id/subscription", s.GetCurrentSubscription)

	api.POST("/members", s.CreateMember)
	api.GET("/members", s.ListMembers)
	api.GET("/members/:id", s.GetMember)
	api.PATCH("/members/:id", s.UpdateMember)
	api.DELETE("/members/:id", s.DeleteMember)

	api.GET("/subscriptions", s.ListSubscriptions)
	api.GET("/subscriptions/:id", s.GetSubscription)
	api.POST("/subscriptions/:id/cancel", s.CancelSubscription)
	api.POST("/subscriptions/:id/renew", s.RenewSubscription)

	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoice)
	api.POST("/invoices/:id/pay", s.MarkInvoicePaid)
	api.GET("/invoices/:id/pdf", s.DownloadInvoicePDF)

	api.GET("/payments", s.ListPayments)
	api.GET("/payments/:id", s.GetPayment)

	api.GET("/activity-logs", s.ListActivityLogs)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin")

	admin.POST("/plans", s.CreatePlan)
	admin.GET("/plans", s.ListPlans)
	admin.GET("/plans/:id", s.GetPlan)
	admin.PATCH("/plans/:id", s.UpdatePlan)

	admin.GET("/settings", s.ListSettings)
	admin.PUT("/settings/:key", s.UpdateSetting)
}

// actorID identifies the acting member for activity records. Empty when
// the caller did not send one.
func actorID(c *gin.Context) string {
	return c.GetHeader("X-Actor-ID")
}

func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, _ := mapError(err)
	if status >= http.StatusInternalServerError {
		return "internal", "internal_error"
	}
	return "domain", err.Error()
}
