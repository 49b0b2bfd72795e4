package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditrepo "github.com/skolahq/skola/internal/audit/repository"
	auditservice "github.com/skolahq/skola/internal/audit/service"
	"github.com/skolahq/skola/internal/config"
	coursedomain "github.com/skolahq/skola/internal/course/domain"
	courserepo "github.com/skolahq/skola/internal/course/repository"
	courseservice "github.com/skolahq/skola/internal/course/service"
	"github.com/skolahq/skola/internal/order/domain"
	"github.com/skolahq/skola/internal/order/repository"
	"github.com/skolahq/skola/internal/order/service"
	"github.com/skolahq/skola/internal/pricing"
	schooldomain "github.com/skolahq/skola/internal/school/domain"
	schoolrepo "github.com/skolahq/skola/internal/school/repository"
	schoolservice "github.com/skolahq/skola/internal/school/service"
	tenantrepo "github.com/skolahq/skola/internal/tenantdir/repository"
	tenantservice "github.com/skolahq/skola/internal/tenantdir/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	schoolSvc schooldomain.Service
	courseSvc coursedomain.Service
	orderSvc  domain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(6)
	require.NoError(t, err)
	log := zap.NewNop()
	cfg := config.Config{BaseDomain: "platform.local"}

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Repo: auditrepo.Provide(),
	})
	tenantSvc := tenantservice.NewService(tenantservice.Params{
		DB: db, Log: log, GenID: node, Cfg: cfg,
		Repo: tenantrepo.Provide(), SchoolRepo: schoolrepo.Provide(),
	})
	schoolSvc := schoolservice.NewService(schoolservice.Params{
		DB: db, Log: log, GenID: node,
		Repo: schoolrepo.Provide(), Domains: tenantSvc, AuditSvc: auditSvc,
	})
	courseSvc := courseservice.NewService(courseservice.Params{
		DB: db, Log: log, GenID: node,
		Repo: courserepo.Provide(), AuditSvc: auditSvc,
	})
	orderSvc := service.NewService(service.Params{
		DB: db, Log: log, GenID: node,
		Repo: repository.Provide(), SchoolSvc: schoolSvc, CourseSvc: courseSvc, AuditSvc: auditSvc,
	})

	return &fixture{db: db, schoolSvc: schoolSvc, courseSvc: courseSvc, orderSvc: orderSvc}
}

func (f *fixture) newSchool(t *testing.T, name string) *schooldomain.School {
	t.Helper()
	school, err := f.schoolSvc.Create(context.Background(), schooldomain.CreateSchoolRequest{Name: name})
	require.NoError(t, err)
	return school
}

func (f *fixture) publishedCourse(t *testing.T, schoolID snowflake.ID, baseAmount int64, promo *pricing.Promo) *coursedomain.Course {
	t.Helper()
	ctx := context.Background()

	course, err := f.courseSvc.CreateAI(ctx, coursedomain.CreateCourseRequest{
		SchoolID:   schoolID,
		Title:      "Modern Backend Engineering",
		BaseAmount: baseAmount,
		Currency:   "BRL",
		Promo:      promo,
	})
	require.NoError(t, err)

	_, err = f.courseSvc.GenerateStructure(ctx, schoolID, course.ID, coursedomain.GenerationInputs{
		Theme: "backend", Audience: "developers", Level: "intermediate", Language: "en", Hours: 16,
	})
	require.NoError(t, err)
	_, err = f.courseSvc.Approve(ctx, schoolID, course.ID)
	require.NoError(t, err)
	_, err = f.courseSvc.GenerateFull(ctx, schoolID, course.ID)
	require.NoError(t, err)
	published, err := f.courseSvc.Publish(ctx, schoolID, course.ID)
	require.NoError(t, err)
	return published
}

func TestCreateOrderFreezesEffectivePrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	school := f.newSchool(t, "Alpha")

	promo := &pricing.Promo{
		Type:  pricing.PromoPercent,
		Value: 20,
		Until: time.Now().Add(24 * time.Hour),
	}
	course := f.publishedCourse(t, school.ID, 19990, promo)

	// 20% off 19990, rounded half up on the cent.
	discounted, err := f.orderSvc.Create(ctx, school.ID, course.ID, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, int64(15992), discounted.Amount)
	require.Equal(t, "BRL", discounted.Currency)
	require.Equal(t, domain.StatusPending, discounted.Status)

	// Expire the promo; the old order keeps its frozen amount, a new
	// order pays the base price.
	require.NoError(t, f.db.Exec(
		`UPDATE courses SET promo_until = ? WHERE id = ?`,
		time.Now().Add(-time.Hour), course.ID,
	).Error)

	unchanged, err := f.orderSvc.Get(ctx, school.ID, discounted.ID)
	require.NoError(t, err)
	require.Equal(t, int64(15992), unchanged.Amount)

	fullPrice, err := f.orderSvc.Create(ctx, school.ID, course.ID, "c@d.com")
	require.NoError(t, err)
	require.Equal(t, int64(19990), fullPrice.Amount)
}

func TestCreateOrderRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	school := f.newSchool(t, "Alpha")
	course := f.publishedCourse(t, school.ID, 19990, nil)

	_, err := f.orderSvc.Create(ctx, school.ID, course.ID, "not-an-email")
	require.ErrorIs(t, err, domain.ErrBuyerEmailInvalid)
	_, err = f.orderSvc.Create(ctx, school.ID, course.ID, "@b.com")
	require.ErrorIs(t, err, domain.ErrBuyerEmailInvalid)

	// Unpublished courses are not for sale.
	draft, err := f.courseSvc.CreateAI(ctx, coursedomain.CreateCourseRequest{
		SchoolID: school.ID, Title: "Draft", BaseAmount: 100, Currency: "BRL",
	})
	require.NoError(t, err)
	_, err = f.orderSvc.Create(ctx, school.ID, draft.ID, "a@b.com")
	require.ErrorIs(t, err, domain.ErrCourseNotForSale)

	// A suspended school cannot sell.
	_, err = f.schoolSvc.SetStatus(ctx, school.ID, schooldomain.StatusSuspended)
	require.NoError(t, err)
	_, err = f.orderSvc.Create(ctx, school.ID, course.ID, "a@b.com")
	require.ErrorIs(t, err, schooldomain.ErrSuspended)
}

func TestCreateOrderNormalizesBuyerEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	school := f.newSchool(t, "Alpha")
	course := f.publishedCourse(t, school.ID, 19990, nil)

	order, err := f.orderSvc.Create(ctx, school.ID, course.ID, "  Buyer@Example.COM ")
	require.NoError(t, err)
	require.Equal(t, "buyer@example.com", order.BuyerEmail)

	listed, err := f.orderSvc.ListByBuyer(ctx, school.ID, "buyer@example.com")
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	school := f.newSchool(t, "Alpha")
	course := f.publishedCourse(t, school.ID, 19990, nil)

	order, err := f.orderSvc.Create(ctx, school.ID, course.ID, "a@b.com")
	require.NoError(t, err)

	canceled, err := f.orderSvc.Cancel(ctx, school.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCanceled, canceled.Status)

	_, err = f.orderSvc.Cancel(ctx, school.ID, order.ID)
	require.ErrorIs(t, err, domain.ErrNotPending)
}

func TestGetOrderIsSchoolScoped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alpha := f.newSchool(t, "Alpha")
	beta := f.newSchool(t, "Beta")
	course := f.publishedCourse(t, alpha.ID, 19990, nil)

	order, err := f.orderSvc.Create(ctx, alpha.ID, course.ID, "a@b.com")
	require.NoError(t, err)

	_, err = f.orderSvc.Get(ctx, beta.ID, order.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_order_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
		`CREATE TABLE courses (
			id BIGINT PRIMARY KEY,
			school_id BIGINT NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			tags TEXT,
			base_amount BIGINT NOT NULL,
			currency TEXT NOT NULL,
			promo_type TEXT,
			promo_value BIGINT,
			promo_until TIMESTAMP,
			state TEXT NOT NULL,
			structure TEXT,
			full_content TEXT,
			gen_inputs TEXT,
			published_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			school_id BIGINT NOT NULL,
			course_id BIGINT NOT NULL,
			buyer_email TEXT NOT NULL,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE audit_logs (
			id BIGINT PRIMARY KEY,
			school_id BIGINT,
			action TEXT NOT NULL,
			target_type TEXT,
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
