package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	auditdomain "github.com/skolahq/skola/internal/audit/domain"
	"github.com/skolahq/skola/internal/school/domain"
	tenantdirdomain "github.com/skolahq/skola/internal/tenantdir/domain"
	pkgdb "github.com/skolahq/skola/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Slugs become subdomain labels, so they follow DNS label rules.
var slugRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Domains  tenantdirdomain.Service
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	domains  tenantdirdomain.Service
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("school.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		domains:  p.Domains,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSchoolRequest) (*domain.School, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}

	schoolSlug := strings.TrimSpace(req.Slug)
	if schoolSlug == "" {
		schoolSlug = slug.Make(name)
	}
	if !slugRe.MatchString(schoolSlug) {
		return nil, domain.ErrSlugInvalid
	}

	now := time.Now().UTC()
	school := &domain.School{
		ID:            s.genID.Generate(),
		Name:          name,
		Slug:          schoolSlug,
		Status:        domain.StatusActive,
		WebhookSecret: newWebhookSecret(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, school); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	if _, err := s.domains.RegisterSubdomain(ctx, school); err != nil {
		return nil, err
	}

	schoolID := school.ID.String()
	_ = s.auditSvc.Record(ctx, &school.ID, "school.created", "school", &schoolID, map[string]any{
		"name": school.Name,
		"slug": school.Slug,
	})

	s.log.Info("school created",
		zap.String("school_id", schoolID),
		zap.String("slug", school.Slug),
	)
	return school, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.School, error) {
	school, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if school == nil {
		return nil, domain.ErrNotFound
	}
	return school, nil
}

func (s *Service) GetBySlug(ctx context.Context, schoolSlug string) (*domain.School, error) {
	school, err := s.repo.FindBySlug(ctx, s.db, strings.TrimSpace(schoolSlug))
	if err != nil {
		return nil, err
	}
	if school == nil {
		return nil, domain.ErrNotFound
	}
	return school, nil
}

func (s *Service) SetStatus(ctx context.Context, id snowflake.ID, status string) (*domain.School, error) {
	if status != domain.StatusActive && status != domain.StatusSuspended {
		return nil, domain.ErrStatusInvalid
	}

	school, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if school.Status == status {
		return school, nil
	}

	if err := s.repo.UpdateStatus(ctx, s.db, id, status); err != nil {
		return nil, err
	}
	school.Status = status

	schoolID := id.String()
	_ = s.auditSvc.Record(ctx, &id, "school.status_changed", "school", &schoolID, map[string]any{
		"status": status,
	})
	return school, nil
}

func (s *Service) RotateWebhookSecret(ctx context.Context, id snowflake.ID) (*domain.School, error) {
	school, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	secret := newWebhookSecret()
	if err := s.repo.UpdateWebhookSecret(ctx, s.db, id, secret); err != nil {
		return nil, err
	}
	school.WebhookSecret = secret

	schoolID := id.String()
	_ = s.auditSvc.Record(ctx, &id, "school.webhook_secret_rotated", "school", &schoolID, nil)
	return school, nil
}

func newWebhookSecret() string {
	return "whsec_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
