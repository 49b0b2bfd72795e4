package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	auditdomain "github.com/skolahq/skola/internal/audit/domain"
	"github.com/skolahq/skola/internal/config"
	orderdomain "github.com/skolahq/skola/internal/order/domain"
	"github.com/skolahq/skola/internal/payment/domain"
	"github.com/skolahq/skola/internal/payment/signature"
	"github.com/skolahq/skola/internal/ratelimit"
	schooldomain "github.com/skolahq/skola/internal/school/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Cfg       config.Config
	Repo      domain.Repository
	OrderSvc  orderdomain.Service
	SchoolSvc schooldomain.Service
	AuditSvc  auditdomain.Service
	Limiter   *ratelimit.CheckoutLimiter `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	cfg       config.Config
	repo      domain.Repository
	orderSvc  orderdomain.Service
	schoolSvc schooldomain.Service
	auditSvc  auditdomain.Service
	limiter   *ratelimit.CheckoutLimiter
}

func NewService(p Params) domain.CheckoutService {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("payment.checkout"),
		genID:     p.GenID,
		cfg:       p.Cfg,
		repo:      p.Repo,
		orderSvc:  p.OrderSvc,
		schoolSvc: p.SchoolSvc,
		auditSvc:  p.AuditSvc,
		limiter:   p.Limiter,
	}
}

func (s *Service) StartCheckout(ctx context.Context, schoolID, orderID snowflake.ID, outcome string) (*domain.CheckoutSession, error) {
	if !s.cfg.DemoGatewayEnabled {
		return nil, domain.ErrGatewayDisabled
	}

	outcome = strings.ToUpper(strings.TrimSpace(outcome))
	if outcome != domain.ResultApproved && outcome != domain.ResultDeclined {
		return nil, domain.ErrOutcomeInvalid
	}

	if s.limiter.Enabled() {
		allowed, err := s.limiter.AllowCheckout(ctx, schoolID.String())
		if err != nil {
			s.log.Warn("checkout rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			return nil, domain.ErrCheckoutRateLimited
		}
	}

	school, err := s.schoolSvc.Get(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderSvc.Get(ctx, schoolID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != orderdomain.StatusPending {
		return nil, orderdomain.ErrNotPending
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:        s.genID.Generate(),
		SchoolID:  schoolID,
		OrderID:   orderID,
		Provider:  domain.ProviderDemo,
		Status:    domain.StatusInitiated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertPayment(ctx, s.db, payment); err != nil {
		return nil, err
	}

	payload := domain.CheckoutPayload{
		Provider:  domain.ProviderDemo,
		EventID:   "evt_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		SchoolID:  schoolID.String(),
		OrderID:   orderID.String(),
		PaymentID: payment.ID.String(),
		Result:    outcome,
		TS:        now.Format(time.RFC3339),
	}
	sig, err := signature.Sign(school.WebhookSecret, payload)
	if err != nil {
		return nil, err
	}

	orderIDStr := orderID.String()
	_ = s.auditSvc.Record(ctx, &schoolID, "checkout.started", "order", &orderIDStr, map[string]any{
		"payment_id": payment.ID.String(),
		"event_id":   payload.EventID,
	})

	s.log.Info("checkout session created",
		zap.String("school_id", schoolID.String()),
		zap.String("order_id", orderIDStr),
		zap.String("payment_id", payment.ID.String()),
	)

	return &domain.CheckoutSession{
		CheckoutURL: fmt.Sprintf("%s/demo/%s", s.cfg.CheckoutBaseURL, payment.ID.String()),
		Payment:     payment,
		Payload:     payload,
		Signature:   sig,
	}, nil
}
