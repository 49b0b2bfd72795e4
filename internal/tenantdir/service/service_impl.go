package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/skolahq/skola/internal/config"
	schooldomain "github.com/skolahq/skola/internal/school/domain"
	"github.com/skolahq/skola/internal/tenantdir/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var hostnameRe = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Cfg        config.Config
	Repo       domain.Repository
	SchoolRepo schooldomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	cfg        config.Config
	repo       domain.Repository
	schoolRepo schooldomain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("tenantdir.service"),
		genID:      p.GenID,
		cfg:        p.Cfg,
		repo:       p.Repo,
		schoolRepo: p.SchoolRepo,
	}
}

func (s *Service) RegisterSubdomain(ctx context.Context, school *schooldomain.School) (*domain.DomainConfig, error) {
	if school == nil || school.ID == 0 {
		return nil, schooldomain.ErrNotFound
	}

	hostname := school.Slug + "." + s.cfg.BaseDomain
	existing, err := s.repo.FindByHostname(ctx, s.db, hostname)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.SchoolID != school.ID {
			return nil, domain.ErrSubdomainCollision
		}
		return existing, nil
	}

	now := time.Now().UTC()
	dc := &domain.DomainConfig{
		ID:        s.genID.Generate(),
		SchoolID:  school.ID,
		Hostname:  hostname,
		Kind:      domain.KindSubdomain,
		Verified:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, dc); err != nil {
		return nil, err
	}

	s.log.Info("subdomain registered",
		zap.String("school_id", school.ID.String()),
		zap.String("hostname", hostname),
	)
	return dc, nil
}

func (s *Service) RequestCustomDomain(ctx context.Context, schoolID snowflake.ID, rawDomain string) (*domain.DomainConfig, error) {
	school, err := s.requireSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	hostname, err := NormalizeHostname(rawDomain)
	if err != nil {
		return nil, err
	}
	if hostname == s.cfg.BaseDomain || strings.HasSuffix(hostname, "."+s.cfg.BaseDomain) {
		return nil, domain.ErrCustomDomainNotAllowed
	}

	token := uuid.NewString()

	existing, err := s.repo.FindByHostname(ctx, s.db, hostname)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// A hostname binds at most one school. The same school re-requesting
		// rotates the token and drops any prior verification.
		if existing.SchoolID != school.ID {
			return nil, domain.ErrCustomDomainInUse
		}
		if err := s.repo.ResetVerification(ctx, s.db, existing.ID, token); err != nil {
			return nil, err
		}
		existing.Verified = false
		existing.VerificationToken = token
		return existing, nil
	}

	now := time.Now().UTC()
	dc := &domain.DomainConfig{
		ID:                s.genID.Generate(),
		SchoolID:          school.ID,
		Hostname:          hostname,
		Kind:              domain.KindCustom,
		Verified:          false,
		VerificationToken: token,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Insert(ctx, s.db, dc); err != nil {
		return nil, err
	}
	return dc, nil
}

func (s *Service) VerifyCustomDomain(ctx context.Context, schoolID snowflake.ID, rawDomain string, token string) (*domain.DomainConfig, error) {
	school, err := s.requireSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	hostname, err := NormalizeHostname(rawDomain)
	if err != nil {
		return nil, err
	}

	dc, err := s.repo.FindByHostname(ctx, s.db, hostname)
	if err != nil {
		return nil, err
	}
	if dc == nil || dc.Kind != domain.KindCustom {
		return nil, domain.ErrCustomDomainNotFound
	}
	if dc.SchoolID != school.ID {
		return nil, domain.ErrCustomDomainWrongOwner
	}
	if dc.Verified {
		return dc, nil
	}
	if token == "" {
		return nil, domain.ErrTokenRequired
	}
	// Exact, case-sensitive match only.
	if token != dc.VerificationToken {
		return nil, domain.ErrTokenMismatch
	}

	if err := s.repo.MarkVerified(ctx, s.db, dc.ID); err != nil {
		return nil, err
	}
	dc.Verified = true
	dc.VerificationToken = ""

	s.log.Info("custom domain verified",
		zap.String("school_id", school.ID.String()),
		zap.String("hostname", hostname),
	)
	return dc, nil
}

func (s *Service) ResolveHost(ctx context.Context, host string) (*schooldomain.School, error) {
	hostname, err := NormalizeHostname(host)
	if err != nil {
		return nil, nil
	}

	dc, err := s.repo.FindByHostname(ctx, s.db, hostname)
	if err != nil {
		return nil, err
	}
	if dc == nil || !dc.Verified {
		return nil, nil
	}

	return s.schoolRepo.FindByID(ctx, s.db, dc.SchoolID)
}

func (s *Service) requireSchool(ctx context.Context, schoolID snowflake.ID) (*schooldomain.School, error) {
	school, err := s.schoolRepo.FindByID(ctx, s.db, schoolID)
	if err != nil {
		return nil, err
	}
	if school == nil {
		return nil, schooldomain.ErrNotFound
	}
	return school, nil
}

// NormalizeHostname lowers the input and strips scheme, path, port and a
// trailing dot before validating it as a bare hostname.
func NormalizeHostname(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", domain.ErrCustomDomainInvalid
	}
	if idx := strings.Index(value, "://"); idx >= 0 {
		value = value[idx+3:]
	}
	if idx := strings.IndexAny(value, "/?#"); idx >= 0 {
		value = value[:idx]
	}
	if idx := strings.Index(value, ":"); idx >= 0 {
		value = value[:idx]
	}
	value = strings.TrimSuffix(value, ".")
	if len(value) > 253 || !hostnameRe.MatchString(value) {
		return "", domain.ErrCustomDomainInvalid
	}
	return value, nil
}
