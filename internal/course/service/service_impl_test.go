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
	"github.com/skolahq/skola/internal/course/domain"
	"github.com/skolahq/skola/internal/course/generate"
	"github.com/skolahq/skola/internal/course/repository"
	"github.com/skolahq/skola/internal/course/service"
	"github.com/skolahq/skola/internal/pricing"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testInputs = domain.GenerationInputs{
	Theme:    "backend engineering",
	Audience: "developers",
	Level:    "intermediate",
	Language: "en",
	Hours:    16,
}

func newCourseService(t *testing.T) (domain.Service, snowflake.ID) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(5)
	require.NoError(t, err)
	log := zap.NewNop()

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Repo: auditrepo.Provide(),
	})
	svc := service.NewService(service.Params{
		DB: db, Log: log, GenID: node,
		Repo: repository.Provide(), AuditSvc: auditSvc,
	})
	return svc, node.Generate()
}

func createAI(t *testing.T, svc domain.Service, schoolID snowflake.ID) *domain.Course {
	t.Helper()
	course, err := svc.CreateAI(context.Background(), domain.CreateCourseRequest{
		SchoolID:   schoolID,
		Title:      "Modern Backend Engineering",
		BaseAmount: 19990,
		Currency:   "BRL",
	})
	require.NoError(t, err)
	return course
}

func TestAICourseLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, schoolID := newCourseService(t)

	course := createAI(t, svc, schoolID)
	require.Equal(t, domain.StateDraft, course.State)
	require.Equal(t, domain.TypeAI, course.Type)

	drafting, err := svc.GenerateStructure(ctx, schoolID, course.ID, testInputs)
	require.NoError(t, err)
	require.Equal(t, domain.StateDraftingStructure, drafting.State)

	structure, err := drafting.DecodeStructure()
	require.NoError(t, err)
	require.Len(t, structure.Modules, 3)
	for _, module := range structure.Modules {
		require.Len(t, module.Lessons, 3)
	}

	approved, err := svc.Approve(ctx, schoolID, course.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateStructureApproved, approved.State)

	ready, err := svc.GenerateFull(ctx, schoolID, course.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateDraftReady, ready.State)
	require.NotEmpty(t, ready.FullContent)

	published, err := svc.Publish(ctx, schoolID, course.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatePublished, published.State)
	require.NotNil(t, published.PublishedAt)
}

func TestGenerationIsDeterministic(t *testing.T) {
	first := generate.Structure(testInputs)
	second := generate.Structure(testInputs)
	require.Equal(t, first, second)

	content := generate.FullContent(first, testInputs)
	require.Equal(t, content, generate.FullContent(second, testInputs))

	different := testInputs
	different.Theme = "frontend engineering"
	require.NotEqual(t, first, generate.Structure(different))
}

func TestGenerateStructureValidation(t *testing.T) {
	ctx := context.Background()
	svc, schoolID := newCourseService(t)
	course := createAI(t, svc, schoolID)

	bad := testInputs
	bad.Theme = ""
	_, err := svc.GenerateStructure(ctx, schoolID, course.ID, bad)
	require.ErrorIs(t, err, domain.ErrGenerationInputInvalid)

	bad = testInputs
	bad.Hours = 4
	_, err = svc.GenerateStructure(ctx, schoolID, course.ID, bad)
	require.ErrorIs(t, err, domain.ErrGenerationInputInvalid)

	bad.Hours = 41
	_, err = svc.GenerateStructure(ctx, schoolID, course.ID, bad)
	require.ErrorIs(t, err, domain.ErrGenerationInputInvalid)
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	svc, schoolID := newCourseService(t)
	course := createAI(t, svc, schoolID)

	// Skipping straight past DRAFT.
	_, err := svc.Approve(ctx, schoolID, course.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = svc.GenerateFull(ctx, schoolID, course.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = svc.Publish(ctx, schoolID, course.ID)
	require.ErrorIs(t, err, domain.ErrNotReadyToPublish)

	// AI-only operations on an import course, and vice versa.
	imported, err := svc.CreateImport(ctx, domain.CreateCourseRequest{
		SchoolID:   schoolID,
		Title:      "Imported Course",
		BaseAmount: 5000,
		Currency:   "BRL",
	})
	require.NoError(t, err)

	_, err = svc.GenerateStructure(ctx, schoolID, imported.ID, testInputs)
	require.ErrorIs(t, err, domain.ErrNotAI)
	_, err = svc.SetImportStructure(ctx, schoolID, course.ID, importStructure())
	require.ErrorIs(t, err, domain.ErrNotImport)

	// Regenerating after the structure exists is not allowed.
	_, err = svc.GenerateStructure(ctx, schoolID, course.ID, testInputs)
	require.NoError(t, err)
	_, err = svc.GenerateStructure(ctx, schoolID, course.ID, testInputs)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestImportCoursePath(t *testing.T) {
	ctx := context.Background()
	svc, schoolID := newCourseService(t)

	course, err := svc.CreateImport(ctx, domain.CreateCourseRequest{
		SchoolID:   schoolID,
		Title:      "Imported Course",
		BaseAmount: 5000,
		Currency:   "BRL",
	})
	require.NoError(t, err)

	// Import lessons must carry an external URL.
	missing := importStructure()
	missing.Modules[0].Lessons[0].ExternalURL = ""
	_, err = svc.SetImportStructure(ctx, schoolID, course.ID, missing)
	require.ErrorIs(t, err, domain.ErrStructureInvalid)

	ready, err := svc.SetImportStructure(ctx, schoolID, course.ID, importStructure())
	require.NoError(t, err)
	require.Equal(t, domain.StateDraftReady, ready.State)

	published, err := svc.Publish(ctx, schoolID, course.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatePublished, published.State)
}

func TestEditStructure(t *testing.T) {
	ctx := context.Background()
	svc, schoolID := newCourseService(t)
	course := createAI(t, svc, schoolID)

	_, err := svc.GenerateStructure(ctx, schoolID, course.ID, testInputs)
	require.NoError(t, err)

	edited := domain.Structure{Modules: []domain.Module{{
		Title:   "Hand-Tuned Module",
		Lessons: []domain.Lesson{{Title: "Hand-Tuned Lesson"}},
	}}}
	updated, err := svc.EditStructure(ctx, schoolID, course.ID, edited)
	require.NoError(t, err)
	require.Equal(t, domain.StateDraftingStructure, updated.State)

	structure, err := updated.DecodeStructure()
	require.NoError(t, err)
	require.Equal(t, "Hand-Tuned Module", structure.Modules[0].Title)
}

func TestListPublishedFilters(t *testing.T) {
	ctx := context.Background()
	svc, schoolID := newCourseService(t)

	publish := func(title, category string, tags []string) {
		course, err := svc.CreateAI(ctx, domain.CreateCourseRequest{
			SchoolID:   schoolID,
			Title:      title,
			Category:   category,
			Tags:       tags,
			BaseAmount: 9900,
			Currency:   "BRL",
		})
		require.NoError(t, err)
		_, err = svc.GenerateStructure(ctx, schoolID, course.ID, testInputs)
		require.NoError(t, err)
		_, err = svc.Approve(ctx, schoolID, course.ID)
		require.NoError(t, err)
		_, err = svc.GenerateFull(ctx, schoolID, course.ID)
		require.NoError(t, err)
		_, err = svc.Publish(ctx, schoolID, course.ID)
		require.NoError(t, err)
	}

	publish("Go for Backends", "engineering", []string{"go", "backend"})
	publish("Watercolor Basics", "art", []string{"painting"})

	// An unpublished draft never shows up.
	_ = createAI(t, svc, schoolID)

	all, err := svc.ListPublished(ctx, schoolID, domain.PublicFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	byQuery, err := svc.ListPublished(ctx, schoolID, domain.PublicFilter{Query: "watercolor"})
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	require.Equal(t, "Watercolor Basics", byQuery[0].Title)

	byTag, err := svc.ListPublished(ctx, schoolID, domain.PublicFilter{Tag: "GO"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	require.Equal(t, "Go for Backends", byTag[0].Title)

	byCategory, err := svc.ListPublished(ctx, schoolID, domain.PublicFilter{Category: "art"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
}

func TestCreateValidatesPricing(t *testing.T) {
	ctx := context.Background()
	svc, schoolID := newCourseService(t)

	_, err := svc.CreateAI(ctx, domain.CreateCourseRequest{
		SchoolID: schoolID, Title: "Free?", BaseAmount: 0, Currency: "BRL",
	})
	require.ErrorIs(t, err, pricing.ErrBaseAmountInvalid)

	_, err = svc.CreateAI(ctx, domain.CreateCourseRequest{
		SchoolID: schoolID, Title: "Bad Currency", BaseAmount: 100, Currency: "reais",
	})
	require.ErrorIs(t, err, pricing.ErrCurrencyInvalid)

	_, err = svc.CreateAI(ctx, domain.CreateCourseRequest{
		SchoolID: schoolID, Title: "   ", BaseAmount: 100, Currency: "BRL",
	})
	require.ErrorIs(t, err, domain.ErrTitleRequired)
}

func importStructure() domain.Structure {
	return domain.Structure{Modules: []domain.Module{{
		Title: "External Module",
		Lessons: []domain.Lesson{
			{Title: "Lesson One", ExternalURL: "https://videos.example.com/1"},
			{Title: "Lesson Two", ExternalURL: "https://videos.example.com/2"},
		},
	}}}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_course_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
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
