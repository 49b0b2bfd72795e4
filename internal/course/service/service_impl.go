package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/skolahq/skola/internal/audit/domain"
	"github.com/skolahq/skola/internal/course/domain"
	"github.com/skolahq/skola/internal/course/generate"
	"github.com/skolahq/skola/internal/pricing"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("course.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) CreateAI(ctx context.Context, req domain.CreateCourseRequest) (*domain.Course, error) {
	return s.create(ctx, domain.TypeAI, req)
}

func (s *Service) CreateImport(ctx context.Context, req domain.CreateCourseRequest) (*domain.Course, error) {
	return s.create(ctx, domain.TypeImport, req)
}

func (s *Service) create(ctx context.Context, courseType string, req domain.CreateCourseRequest) (*domain.Course, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrTitleRequired
	}
	if err := pricing.Validate(req.BaseAmount, req.Currency, req.Promo); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	course := &domain.Course{
		ID:          s.genID.Generate(),
		SchoolID:    req.SchoolID,
		Type:        courseType,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		BaseAmount:  req.BaseAmount,
		Currency:    req.Currency,
		State:       domain.StateDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(req.Tags) > 0 {
		raw, err := json.Marshal(req.Tags)
		if err != nil {
			return nil, err
		}
		course.Tags = datatypes.JSON(raw)
	}
	if req.Promo != nil {
		promoType := string(req.Promo.Type)
		promoUntil := req.Promo.Until.UTC()
		course.PromoType = &promoType
		course.PromoValue = &req.Promo.Value
		course.PromoUntil = &promoUntil
	}

	if err := s.repo.Insert(ctx, s.db, course); err != nil {
		return nil, err
	}

	s.log.Info("course created",
		zap.String("course_id", course.ID.String()),
		zap.String("school_id", course.SchoolID.String()),
		zap.String("type", courseType),
	)
	return course, nil
}

func (s *Service) Get(ctx context.Context, schoolID, courseID snowflake.ID) (*domain.Course, error) {
	course, err := s.repo.FindByID(ctx, s.db, schoolID, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, domain.ErrNotFound
	}
	return course, nil
}

func (s *Service) GenerateStructure(ctx context.Context, schoolID, courseID snowflake.ID, inputs domain.GenerationInputs) (*domain.Course, error) {
	course, err := s.Get(ctx, schoolID, courseID)
	if err != nil {
		return nil, err
	}
	if course.Type != domain.TypeAI {
		return nil, domain.ErrNotAI
	}
	if course.State != domain.StateDraft {
		return nil, domain.ErrInvalidState
	}
	if err := validateGenerationInputs(inputs); err != nil {
		return nil, err
	}

	structure := generate.Structure(inputs)
	if err := setStructure(course, structure); err != nil {
		return nil, err
	}
	rawInputs, err := json.Marshal(inputs)
	if err != nil {
		return nil, err
	}
	course.GenInputs = datatypes.JSON(rawInputs)

	return s.advance(ctx, course, domain.StateDraftingStructure)
}

func (s *Service) EditStructure(ctx context.Context, schoolID, courseID snowflake.ID, structure domain.Structure) (*domain.Course, error) {
	course, err := s.Get(ctx, schoolID, courseID)
	if err != nil {
		return nil, err
	}
	if course.State != domain.StateDraftingStructure {
		return nil, domain.ErrInvalidState
	}
	if err := validateStructure(structure, false); err != nil {
		return nil, err
	}

	if err := setStructure(course, structure); err != nil {
		return nil, err
	}
	// Editing replaces the tree without moving the state machine.
	return s.advance(ctx, course, course.State)
}

func (s *Service) Approve(ctx context.Context, schoolID, courseID snowflake.ID) (*domain.Course, error) {
	course, err := s.Get(ctx, schoolID, courseID)
	if err != nil {
		return nil, err
	}
	if course.State != domain.StateDraftingStructure {
		return nil, domain.ErrInvalidState
	}
	structure, err := course.DecodeStructure()
	if err != nil {
		return nil, err
	}
	if structure.Empty() {
		return nil, domain.ErrStructureMissing
	}

	return s.advance(ctx, course, domain.StateStructureApproved)
}

func (s *Service) GenerateFull(ctx context.Context, schoolID, courseID snowflake.ID) (*domain.Course, error) {
	course, err := s.Get(ctx, schoolID, courseID)
	if err != nil {
		return nil, err
	}
	if course.Type != domain.TypeAI {
		return nil, domain.ErrNotAI
	}
	if course.State != domain.StateStructureApproved {
		return nil, domain.ErrInvalidState
	}

	structure, err := course.DecodeStructure()
	if err != nil {
		return nil, err
	}
	var inputs domain.GenerationInputs
	if len(course.GenInputs) > 0 {
		if err := json.Unmarshal(course.GenInputs, &inputs); err != nil {
			return nil, err
		}
	}

	// The generation pipeline is synchronous, so GENERATING_FULL is passed
	// through within this single operation.
	course.State = domain.StateGeneratingFull
	content := generate.FullContent(structure, inputs)
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	course.FullContent = datatypes.JSON(raw)

	return s.advance(ctx, course, domain.StateDraftReady)
}

func (s *Service) SetImportStructure(ctx context.Context, schoolID, courseID snowflake.ID, structure domain.Structure) (*domain.Course, error) {
	course, err := s.Get(ctx, schoolID, courseID)
	if err != nil {
		return nil, err
	}
	if course.Type != domain.TypeImport {
		return nil, domain.ErrNotImport
	}
	if course.State != domain.StateDraft {
		return nil, domain.ErrInvalidState
	}
	if err := validateStructure(structure, true); err != nil {
		return nil, err
	}

	if err := setStructure(course, structure); err != nil {
		return nil, err
	}
	return s.advance(ctx, course, domain.StateDraftReady)
}

func (s *Service) Publish(ctx context.Context, schoolID, courseID snowflake.ID) (*domain.Course, error) {
	course, err := s.Get(ctx, schoolID, courseID)
	if err != nil {
		return nil, err
	}
	if course.State != domain.StateDraftReady {
		return nil, domain.ErrNotReadyToPublish
	}

	now := time.Now().UTC()
	course.PublishedAt = &now
	updated, err := s.advance(ctx, course, domain.StatePublished)
	if err != nil {
		return nil, err
	}

	courseIDStr := course.ID.String()
	_ = s.auditSvc.Record(ctx, &course.SchoolID, "course.published", "course", &courseIDStr, map[string]any{
		"title": course.Title,
		"type":  course.Type,
	})
	return updated, nil
}

func (s *Service) ListBySchool(ctx context.Context, schoolID snowflake.ID) ([]domain.Course, error) {
	return s.repo.ListBySchool(ctx, s.db, schoolID)
}

func (s *Service) ListPublished(ctx context.Context, schoolID snowflake.ID, filter domain.PublicFilter) ([]domain.Course, error) {
	items, err := s.repo.ListPublished(ctx, s.db, schoolID)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	tag := strings.TrimSpace(filter.Tag)
	category := strings.TrimSpace(filter.Category)

	out := make([]domain.Course, 0, len(items))
	for _, course := range items {
		if query != "" &&
			!strings.Contains(strings.ToLower(course.Title), query) &&
			!strings.Contains(strings.ToLower(course.Description), query) {
			continue
		}
		if category != "" && course.Category != category {
			continue
		}
		if tag != "" && !containsTag(course.TagList(), tag) {
			continue
		}
		out = append(out, course)
	}
	return out, nil
}

func (s *Service) advance(ctx context.Context, course *domain.Course, state string) (*domain.Course, error) {
	course.State = state
	course.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, course); err != nil {
		return nil, err
	}
	return course, nil
}

func setStructure(course *domain.Course, structure domain.Structure) error {
	raw, err := json.Marshal(structure)
	if err != nil {
		return err
	}
	course.Structure = datatypes.JSON(raw)
	return nil
}

func validateGenerationInputs(inputs domain.GenerationInputs) error {
	if strings.TrimSpace(inputs.Theme) == "" ||
		strings.TrimSpace(inputs.Audience) == "" ||
		strings.TrimSpace(inputs.Level) == "" ||
		strings.TrimSpace(inputs.Language) == "" {
		return domain.ErrGenerationInputInvalid
	}
	if inputs.Hours < 8 || inputs.Hours > 40 {
		return domain.ErrGenerationInputInvalid
	}
	return nil
}

// validateStructure checks the tree shape. Import structures additionally
// require an external URL on every lesson.
func validateStructure(structure domain.Structure, requireURL bool) error {
	if structure.Empty() {
		return domain.ErrStructureInvalid
	}
	for _, module := range structure.Modules {
		if strings.TrimSpace(module.Title) == "" || len(module.Lessons) == 0 {
			return domain.ErrStructureInvalid
		}
		for _, lesson := range module.Lessons {
			if strings.TrimSpace(lesson.Title) == "" {
				return domain.ErrStructureInvalid
			}
			if requireURL && strings.TrimSpace(lesson.ExternalURL) == "" {
				return domain.ErrStructureInvalid
			}
		}
	}
	return nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
