package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditrepo "github.com/skolahq/skola/internal/audit/repository"
	auditservice "github.com/skolahq/skola/internal/audit/service"
	"github.com/skolahq/skola/internal/config"
	"github.com/skolahq/skola/internal/school/domain"
	"github.com/skolahq/skola/internal/school/repository"
	"github.com/skolahq/skola/internal/school/service"
	tenantdirdomain "github.com/skolahq/skola/internal/tenantdir/domain"
	tenantrepo "github.com/skolahq/skola/internal/tenantdir/repository"
	tenantservice "github.com/skolahq/skola/internal/tenantdir/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newSchoolService(t *testing.T) (domain.Service, tenantdirdomain.Service, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	log := zap.NewNop()
	cfg := config.Config{BaseDomain: "platform.local"}

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Repo: auditrepo.Provide(),
	})
	tenantSvc := tenantservice.NewService(tenantservice.Params{
		DB: db, Log: log, GenID: node, Cfg: cfg,
		Repo: tenantrepo.Provide(), SchoolRepo: repository.Provide(),
	})
	svc := service.NewService(service.Params{
		DB: db, Log: log, GenID: node,
		Repo: repository.Provide(), Domains: tenantSvc, AuditSvc: auditSvc,
	})
	return svc, tenantSvc, db
}

func TestCreateSchoolDerivesSlugFromName(t *testing.T) {
	ctx := context.Background()
	svc, tenantSvc, _ := newSchoolService(t)

	school, err := svc.Create(ctx, domain.CreateSchoolRequest{Name: "Escola do João"})
	require.NoError(t, err)
	require.Equal(t, "escola-do-joao", school.Slug)
	require.Equal(t, domain.StatusActive, school.Status)
	require.True(t, strings.HasPrefix(school.WebhookSecret, "whsec_"))

	// Creation registers the subdomain as a side effect.
	resolved, err := tenantSvc.ResolveHost(ctx, "escola-do-joao.platform.local")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.Equal(t, school.ID, resolved.ID)
}

func TestCreateSchoolWithExplicitSlug(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSchoolService(t)

	school, err := svc.Create(ctx, domain.CreateSchoolRequest{Name: "Alpha", Slug: "alpha-courses"})
	require.NoError(t, err)
	require.Equal(t, "alpha-courses", school.Slug)
}

func TestCreateSchoolValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSchoolService(t)

	_, err := svc.Create(ctx, domain.CreateSchoolRequest{Name: "   "})
	require.ErrorIs(t, err, domain.ErrNameRequired)

	_, err = svc.Create(ctx, domain.CreateSchoolRequest{Name: "Alpha", Slug: "Not A Slug"})
	require.ErrorIs(t, err, domain.ErrSlugInvalid)

	_, err = svc.Create(ctx, domain.CreateSchoolRequest{Name: "Alpha", Slug: "-leading"})
	require.ErrorIs(t, err, domain.ErrSlugInvalid)
}

func TestCreateSchoolRejectsTakenSlug(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSchoolService(t)

	_, err := svc.Create(ctx, domain.CreateSchoolRequest{Name: "Alpha"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateSchoolRequest{Name: "Another", Slug: "alpha"})
	require.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSchoolService(t)

	school, err := svc.Create(ctx, domain.CreateSchoolRequest{Name: "Alpha"})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, school.ID, "DELETED")
	require.ErrorIs(t, err, domain.ErrStatusInvalid)

	suspended, err := svc.SetStatus(ctx, school.ID, domain.StatusSuspended)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuspended, suspended.Status)

	reloaded, err := svc.Get(ctx, school.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuspended, reloaded.Status)

	_, err = svc.SetStatus(ctx, snowflake.ID(12345), domain.StatusActive)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRotateWebhookSecret(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSchoolService(t)

	school, err := svc.Create(ctx, domain.CreateSchoolRequest{Name: "Alpha"})
	require.NoError(t, err)
	before := school.WebhookSecret

	rotated, err := svc.RotateWebhookSecret(ctx, school.ID)
	require.NoError(t, err)
	require.NotEqual(t, before, rotated.WebhookSecret)
	require.True(t, strings.HasPrefix(rotated.WebhookSecret, "whsec_"))
}

func TestGetBySlug(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSchoolService(t)

	school, err := svc.Create(ctx, domain.CreateSchoolRequest{Name: "Alpha"})
	require.NoError(t, err)

	found, err := svc.GetBySlug(ctx, "alpha")
	require.NoError(t, err)
	require.Equal(t, school.ID, found.ID)

	_, err = svc.GetBySlug(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_school_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE schools (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			webhook_secret TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX idx_schools_slug ON schools (slug)`,
		`CREATE TABLE domain_configs (
			id BIGINT PRIMARY KEY,
			school_id BIGINT NOT NULL,
			hostname TEXT NOT NULL,
			kind TEXT NOT NULL,
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			verification_token TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX idx_domain_configs_hostname ON domain_configs (hostname)`,
		`CREATE TABLE audit_logs (
			id BIGINT PRIMARY KEY,
			school_id BIGINT,
			action TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id TEXT,
			metadata TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
