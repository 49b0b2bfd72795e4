package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/skolahq/skola/internal/config"
	schooldomain "github.com/skolahq/skola/internal/school/domain"
	schoolrepo "github.com/skolahq/skola/internal/school/repository"
	"github.com/skolahq/skola/internal/tenantdir/domain"
	"github.com/skolahq/skola/internal/tenantdir/repository"
	"github.com/skolahq/skola/internal/tenantdir/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTenantService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	svc := service.NewService(service.Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Cfg:        config.Config{BaseDomain: "platform.local"},
		Repo:       repository.Provide(),
		SchoolRepo: schoolrepo.Provide(),
	})
	return svc, db, node
}

func insertSchool(t *testing.T, db *gorm.DB, node *snowflake.Node, slug string) *schooldomain.School {
	t.Helper()

	now := time.Now().UTC()
	school := &schooldomain.School{
		ID:            node.Generate(),
		Name:          slug,
		Slug:          slug,
		Status:        schooldomain.StatusActive,
		WebhookSecret: "whsec_test",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, schoolrepo.Provide().Insert(context.Background(), db, school))
	return school
}

func TestRegisterSubdomainIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, db, node := newTenantService(t)
	school := insertSchool(t, db, node, "alpha")

	first, err := svc.RegisterSubdomain(ctx, school)
	require.NoError(t, err)
	require.Equal(t, "alpha.platform.local", first.Hostname)
	require.Equal(t, domain.KindSubdomain, first.Kind)
	require.True(t, first.Verified)

	second, err := svc.RegisterSubdomain(ctx, school)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestRegisterSubdomainCollision(t *testing.T) {
	ctx := context.Background()
	svc, db, node := newTenantService(t)

	alpha := insertSchool(t, db, node, "alpha")
	_, err := svc.RegisterSubdomain(ctx, alpha)
	require.NoError(t, err)

	// A second school claiming the same slug hostname is a collision.
	impostor := insertSchool(t, db, node, "beta")
	impostor.Slug = "alpha"
	_, err = svc.RegisterSubdomain(ctx, impostor)
	require.ErrorIs(t, err, domain.ErrSubdomainCollision)
}

func TestRequestCustomDomainValidation(t *testing.T) {
	ctx := context.Background()
	svc, db, node := newTenantService(t)
	school := insertSchool(t, db, node, "alpha")

	_, err := svc.RequestCustomDomain(ctx, school.ID, "not a domain")
	require.ErrorIs(t, err, domain.ErrCustomDomainInvalid)

	// Hostnames under the platform base domain are reserved.
	_, err = svc.RequestCustomDomain(ctx, school.ID, "alpha.platform.local")
	require.ErrorIs(t, err, domain.ErrCustomDomainNotAllowed)
	_, err = svc.RequestCustomDomain(ctx, school.ID, "platform.local")
	require.ErrorIs(t, err, domain.ErrCustomDomainNotAllowed)

	_, err = svc.RequestCustomDomain(ctx, snowflake.ID(404), "cursos.example.com")
	require.ErrorIs(t, err, schooldomain.ErrNotFound)
}

func TestRequestCustomDomainOwnershipAndReset(t *testing.T) {
	ctx := context.Background()
	svc, db, node := newTenantService(t)
	alpha := insertSchool(t, db, node, "alpha")
	beta := insertSchool(t, db, node, "beta")

	first, err := svc.RequestCustomDomain(ctx, alpha.ID, "Cursos.Example.com")
	require.NoError(t, err)
	require.Equal(t, "cursos.example.com", first.Hostname)
	require.False(t, first.Verified)
	require.NotEmpty(t, first.VerificationToken)

	_, err = svc.RequestCustomDomain(ctx, beta.ID, "cursos.example.com")
	require.ErrorIs(t, err, domain.ErrCustomDomainInUse)

	// Re-requesting rotates the token and drops verification.
	_, err = svc.VerifyCustomDomain(ctx, alpha.ID, "cursos.example.com", first.VerificationToken)
	require.NoError(t, err)

	again, err := svc.RequestCustomDomain(ctx, alpha.ID, "cursos.example.com")
	require.NoError(t, err)
	require.False(t, again.Verified)
	require.NotEqual(t, first.VerificationToken, again.VerificationToken)
}

func TestVerifyCustomDomain(t *testing.T) {
	ctx := context.Background()
	svc, db, node := newTenantService(t)
	alpha := insertSchool(t, db, node, "alpha")
	beta := insertSchool(t, db, node, "beta")

	dc, err := svc.RequestCustomDomain(ctx, alpha.ID, "cursos.example.com")
	require.NoError(t, err)

	_, err = svc.VerifyCustomDomain(ctx, alpha.ID, "other.example.com", dc.VerificationToken)
	require.ErrorIs(t, err, domain.ErrCustomDomainNotFound)

	_, err = svc.VerifyCustomDomain(ctx, beta.ID, "cursos.example.com", dc.VerificationToken)
	require.ErrorIs(t, err, domain.ErrCustomDomainWrongOwner)

	_, err = svc.VerifyCustomDomain(ctx, alpha.ID, "cursos.example.com", "")
	require.ErrorIs(t, err, domain.ErrTokenRequired)

	_, err = svc.VerifyCustomDomain(ctx, alpha.ID, "cursos.example.com", "wrong")
	require.ErrorIs(t, err, domain.ErrTokenMismatch)

	verified, err := svc.VerifyCustomDomain(ctx, alpha.ID, "cursos.example.com", dc.VerificationToken)
	require.NoError(t, err)
	require.True(t, verified.Verified)
	require.Empty(t, verified.VerificationToken)

	// Verifying again is a no-op even without a token.
	again, err := svc.VerifyCustomDomain(ctx, alpha.ID, "cursos.example.com", "")
	require.NoError(t, err)
	require.True(t, again.Verified)
}

func TestResolveHost(t *testing.T) {
	ctx := context.Background()
	svc, db, node := newTenantService(t)
	alpha := insertSchool(t, db, node, "alpha")

	_, err := svc.RegisterSubdomain(ctx, alpha)
	require.NoError(t, err)
	dc, err := svc.RequestCustomDomain(ctx, alpha.ID, "cursos.example.com")
	require.NoError(t, err)

	resolved, err := svc.ResolveHost(ctx, "alpha.platform.local")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.Equal(t, alpha.ID, resolved.ID)

	// Normalization: port, case and trailing dot are stripped.
	resolved, err = svc.ResolveHost(ctx, "Alpha.Platform.Local:8080")
	require.NoError(t, err)
	require.NotNil(t, resolved)

	resolved, err = svc.ResolveHost(ctx, "alpha.platform.local.")
	require.NoError(t, err)
	require.NotNil(t, resolved)

	// Unverified custom domains do not resolve.
	resolved, err = svc.ResolveHost(ctx, "cursos.example.com")
	require.NoError(t, err)
	require.Nil(t, resolved)

	_, err = svc.VerifyCustomDomain(ctx, alpha.ID, "cursos.example.com", dc.VerificationToken)
	require.NoError(t, err)

	resolved, err = svc.ResolveHost(ctx, "cursos.example.com")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.Equal(t, alpha.ID, resolved.ID)

	// Unknown hosts resolve to nothing, not an error.
	resolved, err = svc.ResolveHost(ctx, "nobody.platform.local")
	require.NoError(t, err)
	require.Nil(t, resolved)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_tenantdir_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
