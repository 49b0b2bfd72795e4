package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/skolahq/skola/internal/audit/domain"
	enrollmentdomain "github.com/skolahq/skola/internal/enrollment/domain"
	enrollmentservice "github.com/skolahq/skola/internal/enrollment/service"
	"github.com/skolahq/skola/internal/observability/metrics"
	orderdomain "github.com/skolahq/skola/internal/order/domain"
	"github.com/skolahq/skola/internal/payment/domain"
	"github.com/skolahq/skola/internal/payment/signature"
	"github.com/skolahq/skola/internal/ratelimit"
	schooldomain "github.com/skolahq/skola/internal/school/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// errEventConflict signals that a concurrent delivery recorded the event
// first; the losing transaction rolls back and returns the winner's receipt.
var errEventConflict = errors.New("webhook_event_conflict")

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	OrderRepo  orderdomain.Repository
	EnrollRepo enrollmentdomain.Repository
	SchoolSvc  schooldomain.Service
	AuditSvc   auditdomain.Service
	Metrics    *metrics.HTTPMetrics       `optional:"true"`
	Limiter    *ratelimit.CheckoutLimiter `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	orderRepo  orderdomain.Repository
	enrollRepo enrollmentdomain.Repository
	schoolSvc  schooldomain.Service
	auditSvc   auditdomain.Service
	metrics    *metrics.HTTPMetrics
	limiter    *ratelimit.CheckoutLimiter
}

func NewService(p Params) domain.WebhookService {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.webhook"),
		genID:      p.GenID,
		repo:       p.Repo,
		orderRepo:  p.OrderRepo,
		enrollRepo: p.EnrollRepo,
		schoolSvc:  p.SchoolSvc,
		auditSvc:   p.AuditSvc,
		metrics:    p.Metrics,
		limiter:    p.Limiter,
	}
}

func (s *Service) Process(ctx context.Context, provider string, payload json.RawMessage, sig string) (*domain.Receipt, error) {
	if provider != domain.ProviderDemo {
		s.recordMetric(provider, "unsupported")
		return nil, domain.ErrProviderUnsupported
	}

	var fields domain.CheckoutPayload
	if err := json.Unmarshal(payload, &fields); err != nil {
		s.recordMetric(provider, "invalid")
		return nil, domain.ErrPayloadInvalid
	}
	if strings.TrimSpace(fields.EventID) == "" {
		s.recordMetric(provider, "invalid")
		return nil, domain.ErrPayloadInvalid
	}

	// Replay short-circuit. A recorded event id always answers with the
	// frozen receipt, even when the incoming payload or signature differs
	// from the first delivery.
	stored, err := s.repo.FindEvent(ctx, s.db, provider, fields.EventID)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		s.recordMetric(provider, "replayed")
		return decodeReceipt(stored)
	}

	// Best-effort serialization of concurrent deliveries for the same
	// event. The unique (provider, event_id) key remains the actual guard.
	if s.limiter.Enabled() {
		token, ok, lockErr := s.limiter.TryLockEvent(ctx, provider, fields.EventID)
		if lockErr != nil {
			s.log.Warn("webhook event lock unavailable", zap.Error(lockErr))
		} else if ok {
			defer func() {
				_ = s.limiter.ReleaseEvent(ctx, provider, fields.EventID, token)
			}()
		}
	}

	receipt, err := s.processFirstDelivery(ctx, provider, payload, sig, fields)
	if err != nil {
		if errors.Is(err, errEventConflict) {
			winner, findErr := s.repo.FindEvent(ctx, s.db, provider, fields.EventID)
			if findErr != nil {
				return nil, findErr
			}
			if winner != nil {
				s.recordMetric(provider, "replayed")
				return decodeReceipt(winner)
			}
			return nil, errEventConflict
		}
		return nil, err
	}
	return receipt, nil
}

func (s *Service) processFirstDelivery(ctx context.Context, provider string, payload json.RawMessage, sig string, fields domain.CheckoutPayload) (*domain.Receipt, error) {
	schoolID, err := parseID(fields.SchoolID)
	if err != nil {
		s.recordMetric(provider, "invalid")
		return nil, domain.ErrPayloadInvalid
	}
	orderID, err := parseID(fields.OrderID)
	if err != nil {
		s.recordMetric(provider, "invalid")
		return nil, domain.ErrPayloadInvalid
	}
	paymentID, err := parseID(fields.PaymentID)
	if err != nil {
		s.recordMetric(provider, "invalid")
		return nil, domain.ErrPayloadInvalid
	}
	if fields.Result != domain.ResultApproved && fields.Result != domain.ResultDeclined {
		s.recordMetric(provider, "invalid")
		return nil, domain.ErrResultInvalid
	}

	school, err := s.schoolSvc.Get(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	// The signature covers the canonical form of the payload exactly as
	// delivered, keyed by the school's current secret.
	ok, err := signature.Verify(school.WebhookSecret, payload, sig)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.recordMetric(provider, "signature_invalid")
		return nil, domain.ErrSignatureInvalid
	}

	var receipt *domain.Receipt
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindByID(ctx, tx, schoolID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrNotFound
		}
		if order.Status != orderdomain.StatusPending {
			return orderdomain.ErrNotPending
		}

		payment, err := s.repo.FindPaymentByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrNotFound
		}
		if payment.SchoolID != schoolID {
			return domain.ErrSchoolMismatch
		}
		if payment.OrderID != orderID {
			return domain.ErrOrderMismatch
		}

		orderStatus := orderdomain.StatusFailed
		paymentStatus := domain.StatusFailed
		if fields.Result == domain.ResultApproved {
			orderStatus = orderdomain.StatusPaid
			paymentStatus = domain.StatusSucceeded
		}
		if err := s.orderRepo.UpdateStatus(ctx, tx, orderID, orderStatus); err != nil {
			return err
		}
		if err := s.repo.UpdatePaymentStatus(ctx, tx, paymentID, paymentStatus); err != nil {
			return err
		}

		receipt = &domain.Receipt{
			EventID:       fields.EventID,
			OrderID:       orderID.String(),
			PaymentID:     paymentID.String(),
			Result:        fields.Result,
			OrderStatus:   orderStatus,
			PaymentStatus: paymentStatus,
		}
		if fields.Result == domain.ResultApproved {
			enrollment, err := enrollmentservice.Ensure(ctx, tx, s.enrollRepo, s.genID, schoolID, order.BuyerEmail, order.CourseID, orderID)
			if err != nil {
				return err
			}
			receipt.EnrollmentID = enrollment.ID.String()
		}

		rawReceipt, err := json.Marshal(receipt)
		if err != nil {
			return err
		}
		inserted, err := s.repo.InsertEventIgnoreConflict(ctx, tx, &domain.WebhookEvent{
			ID:         s.genID.Generate(),
			Provider:   provider,
			EventID:    fields.EventID,
			SchoolID:   schoolID,
			Payload:    datatypes.JSON(payload),
			Signature:  sig,
			Result:     datatypes.JSON(rawReceipt),
			ReceivedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return errEventConflict
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	action := "payment.failed"
	result := "failed"
	if fields.Result == domain.ResultApproved {
		action = "payment.succeeded"
		result = "succeeded"
	}
	s.recordMetric(provider, result)

	orderIDStr := orderID.String()
	_ = s.auditSvc.Record(ctx, &schoolID, action, "order", &orderIDStr, map[string]any{
		"event_id":   fields.EventID,
		"payment_id": paymentID.String(),
	})

	s.log.Info("webhook applied",
		zap.String("event_id", fields.EventID),
		zap.String("school_id", schoolID.String()),
		zap.String("order_id", orderIDStr),
		zap.String("result", fields.Result),
	)
	return receipt, nil
}

func (s *Service) recordMetric(provider, result string) {
	if s.metrics != nil {
		s.metrics.RecordWebhookEvent(provider, result)
	}
}

func decodeReceipt(event *domain.WebhookEvent) (*domain.Receipt, error) {
	var receipt domain.Receipt
	if err := json.Unmarshal(event.Result, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
