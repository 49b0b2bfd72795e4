package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/skolahq/skola/internal/audit/domain"
	coursedomain "github.com/skolahq/skola/internal/course/domain"
	"github.com/skolahq/skola/internal/order/domain"
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
	Repo      domain.Repository
	SchoolSvc schooldomain.Service
	CourseSvc coursedomain.Service
	AuditSvc  auditdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	schoolSvc schooldomain.Service
	courseSvc coursedomain.Service
	auditSvc  auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("order.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		schoolSvc: p.SchoolSvc,
		courseSvc: p.CourseSvc,
		auditSvc:  p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, schoolID, courseID snowflake.ID, buyerEmail string) (*domain.Order, error) {
	school, err := s.schoolSvc.Get(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if school.Status != schooldomain.StatusActive {
		return nil, schooldomain.ErrSuspended
	}

	course, err := s.courseSvc.Get(ctx, schoolID, courseID)
	if err != nil {
		return nil, err
	}
	if course.State != coursedomain.StatePublished {
		return nil, domain.ErrCourseNotForSale
	}

	email, err := normalizeBuyerEmail(buyerEmail)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:         s.genID.Generate(),
		SchoolID:   schoolID,
		CourseID:   courseID,
		BuyerEmail: email,
		// Freeze the effective price at creation time. Later promo changes
		// never touch existing orders.
		Amount:    course.EffectivePrice(now),
		Currency:  course.Currency,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, order); err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("school_id", schoolID.String()),
		zap.String("course_id", courseID.String()),
		zap.Int64("amount", order.Amount),
	)
	return order, nil
}

func (s *Service) Get(ctx context.Context, schoolID, orderID snowflake.ID) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, s.db, schoolID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) Cancel(ctx context.Context, schoolID, orderID snowflake.ID) (*domain.Order, error) {
	order, err := s.Get(ctx, schoolID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.StatusPending {
		return nil, domain.ErrNotPending
	}

	if err := s.repo.UpdateStatus(ctx, s.db, order.ID, domain.StatusCanceled); err != nil {
		return nil, err
	}
	order.Status = domain.StatusCanceled

	orderIDStr := order.ID.String()
	_ = s.auditSvc.Record(ctx, &schoolID, "order.canceled", "order", &orderIDStr, map[string]any{
		"course_id": order.CourseID.String(),
	})
	return order, nil
}

func (s *Service) ListByBuyer(ctx context.Context, schoolID snowflake.ID, buyerEmail string) ([]domain.Order, error) {
	email, err := normalizeBuyerEmail(buyerEmail)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByBuyer(ctx, s.db, schoolID, email)
}

// normalizeBuyerEmail lower-cases and trims the address. Validation is
// intentionally shallow: a single "@" with text on both sides.
func normalizeBuyerEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") || at == len(email)-1 {
		return "", domain.ErrBuyerEmailInvalid
	}
	return email, nil
}
