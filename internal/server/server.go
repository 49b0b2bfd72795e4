package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skolahq/skola/internal/audit"
	auditdomain "github.com/skolahq/skola/internal/audit/domain"
	"github.com/skolahq/skola/internal/config"
	"github.com/skolahq/skola/internal/course"
	coursedomain "github.com/skolahq/skola/internal/course/domain"
	"github.com/skolahq/skola/internal/enrollment"
	enrollmentdomain "github.com/skolahq/skola/internal/enrollment/domain"
	obslogger "github.com/skolahq/skola/internal/observability/logger"
	obsmetrics "github.com/skolahq/skola/internal/observability/metrics"
	obstracing "github.com/skolahq/skola/internal/observability/tracing"
	"github.com/skolahq/skola/internal/order"
	orderdomain "github.com/skolahq/skola/internal/order/domain"
	"github.com/skolahq/skola/internal/payment"
	paymentdomain "github.com/skolahq/skola/internal/payment/domain"
	"github.com/skolahq/skola/internal/ratelimit"
	"github.com/skolahq/skola/internal/school"
	schooldomain "github.com/skolahq/skola/internal/school/domain"
	"github.com/skolahq/skola/internal/tenantdir"
	tenantdomain "github.com/skolahq/skola/internal/tenantdir/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	school.Module,
	tenantdir.Module,
	course.Module,
	order.Module,
	enrollment.Module,
	payment.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           !cfg.IsProduction(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
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
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	schoolSvc     schooldomain.Service
	tenantSvc     tenantdomain.Service
	courseSvc     coursedomain.Service
	orderSvc      orderdomain.Service
	checkoutSvc   paymentdomain.CheckoutService
	webhookSvc    paymentdomain.WebhookService
	enrollmentSvc enrollmentdomain.Service
	auditSvc      auditdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	SchoolSvc     schooldomain.Service
	TenantSvc     tenantdomain.Service
	CourseSvc     coursedomain.Service
	OrderSvc      orderdomain.Service
	CheckoutSvc   paymentdomain.CheckoutService
	WebhookSvc    paymentdomain.WebhookService
	EnrollmentSvc enrollmentdomain.Service
	AuditSvc      auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		schoolSvc:     p.SchoolSvc,
		tenantSvc:     p.TenantSvc,
		courseSvc:     p.CourseSvc,
		orderSvc:      p.OrderSvc,
		checkoutSvc:   p.CheckoutSvc,
		webhookSvc:    p.WebhookSvc,
		enrollmentSvc: p.EnrollmentSvc,
		auditSvc:      p.AuditSvc,
	}

	svc.registerAdminRoutes()
	svc.registerPublicRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerAdminRoutes exposes the seller-side surface. Seller authentication
// is out of scope; callers address schools by id.
func (s *Server) registerAdminRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/schools", s.CreateSchool)
	v1.GET("/schools/:id", s.GetSchool)
	v1.PATCH("/schools/:id/status", s.SetSchoolStatus)
	v1.POST("/schools/:id/webhook-secret/rotate", s.RotateWebhookSecret)

	v1.POST("/schools/:id/domains", s.RequestCustomDomain)
	v1.POST("/schools/:id/domains/verify", s.VerifyCustomDomain)

	v1.GET("/schools/:id/courses", s.ListCourses)
	v1.POST("/schools/:id/courses", s.CreateCourse)
	v1.GET("/schools/:id/courses/:courseId", s.GetCourse)
	v1.POST("/schools/:id/courses/:courseId/generate-structure", s.GenerateStructure)
	v1.PUT("/schools/:id/courses/:courseId/structure", s.EditStructure)
	v1.POST("/schools/:id/courses/:courseId/approve", s.ApproveStructure)
	v1.POST("/schools/:id/courses/:courseId/generate-full", s.GenerateFull)
	v1.PUT("/schools/:id/courses/:courseId/import-structure", s.SetImportStructure)
	v1.POST("/schools/:id/courses/:courseId/publish", s.PublishCourse)

	v1.GET("/schools/:id/orders/:orderId", s.GetOrder)
	v1.POST("/schools/:id/orders/:orderId/cancel", s.CancelOrder)

	v1.GET("/schools/:id/audit-logs", s.ListAuditLogs)
}

// registerPublicRoutes exposes the buyer-side storefront. Every route runs
// behind host resolution: the Host header picks the school.
func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public", s.HostResolutionMiddleware())

	public.GET("/courses", s.ListPublicCourses)
	public.GET("/courses/:courseId", s.GetPublicCourse)

	public.POST("/orders", s.CreatePublicOrder)
	public.GET("/orders", s.ListPublicOrders)
	public.POST("/orders/:orderId/checkout", s.StartCheckout)

	public.GET("/access", s.CheckAccess)
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/v1/webhooks/:provider", s.ReceiveWebhook)
}
