package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/skolahq/skola/internal/enrollment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("enrollment.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Ensure(ctx context.Context, schoolID snowflake.ID, buyerEmail string, courseID, orderID snowflake.ID) (*domain.Enrollment, error) {
	return Ensure(ctx, s.db, s.repo, s.genID, schoolID, buyerEmail, courseID, orderID)
}

func (s *Service) CanAccess(ctx context.Context, schoolID snowflake.ID, buyerEmail string, courseID snowflake.ID) (bool, error) {
	existing, err := s.repo.FindByKey(ctx, s.db, schoolID, normalizeEmail(buyerEmail), courseID)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (s *Service) ListByBuyer(ctx context.Context, schoolID snowflake.ID, buyerEmail string) ([]domain.Enrollment, error) {
	return s.repo.ListByBuyer(ctx, s.db, schoolID, normalizeEmail(buyerEmail))
}

// Ensure is the transactional form of Service.Ensure: callers holding an open
// transaction pass it as db so the grant commits or rolls back with the rest
// of their mutations.
func Ensure(ctx context.Context, db *gorm.DB, repo domain.Repository, genID *snowflake.Node, schoolID snowflake.ID, buyerEmail string, courseID, orderID snowflake.ID) (*domain.Enrollment, error) {
	email := normalizeEmail(buyerEmail)

	existing, err := repo.FindByKey(ctx, db, schoolID, email, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	enrollment := &domain.Enrollment{
		ID:         genID.Generate(),
		SchoolID:   schoolID,
		BuyerEmail: email,
		CourseID:   courseID,
		OrderID:    orderID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := repo.InsertIgnoreConflict(ctx, db, enrollment); err != nil {
		return nil, err
	}

	// Reload in case a concurrent insert won the unique key.
	granted, err := repo.FindByKey(ctx, db, schoolID, email, courseID)
	if err != nil {
		return nil, err
	}
	if granted == nil {
		return nil, domain.ErrNotFound
	}
	return granted, nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
