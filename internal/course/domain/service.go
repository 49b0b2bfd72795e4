package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/skolahq/skola/internal/pricing"
	"gorm.io/gorm"
)

// CreateCourseRequest carries the seller-provided fields of a new course.
type CreateCourseRequest struct {
	SchoolID    snowflake.ID
	Title       string
	Description string
	Category    string
	Tags        []string
	BaseAmount  int64
	Currency    string
	Promo       *pricing.Promo
}

// GenerationInputs parameterize the structure generation step of an AI
// course. Hours is the target workload and must stay within [8, 40].
type GenerationInputs struct {
	Theme    string `json:"theme"`
	Audience string `json:"audience"`
	Level    string `json:"level"`
	Language string `json:"language"`
	Hours    int    `json:"hours"`
}

// PublicFilter narrows the public storefront listing.
type PublicFilter struct {
	Query    string
	Tag      string
	Category string
}

type Service interface {
	CreateAI(ctx context.Context, req CreateCourseRequest) (*Course, error)
	CreateImport(ctx context.Context, req CreateCourseRequest) (*Course, error)
	Get(ctx context.Context, schoolID, courseID snowflake.ID) (*Course, error)

	GenerateStructure(ctx context.Context, schoolID, courseID snowflake.ID, inputs GenerationInputs) (*Course, error)
	EditStructure(ctx context.Context, schoolID, courseID snowflake.ID, structure Structure) (*Course, error)
	Approve(ctx context.Context, schoolID, courseID snowflake.ID) (*Course, error)
	GenerateFull(ctx context.Context, schoolID, courseID snowflake.ID) (*Course, error)
	SetImportStructure(ctx context.Context, schoolID, courseID snowflake.ID, structure Structure) (*Course, error)
	Publish(ctx context.Context, schoolID, courseID snowflake.ID) (*Course, error)

	ListBySchool(ctx context.Context, schoolID snowflake.ID) ([]Course, error)
	ListPublished(ctx context.Context, schoolID snowflake.ID, filter PublicFilter) ([]Course, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, course *Course) error
	FindByID(ctx context.Context, db *gorm.DB, schoolID, courseID snowflake.ID) (*Course, error)
	Update(ctx context.Context, db *gorm.DB, course *Course) error
	ListBySchool(ctx context.Context, db *gorm.DB, schoolID snowflake.ID) ([]Course, error)
	ListPublished(ctx context.Context, db *gorm.DB, schoolID snowflake.ID) ([]Course, error)
}

var (
	ErrNotFound               = errors.New("course_not_found")
	ErrTitleRequired          = errors.New("course_title_required")
	ErrInvalidState           = errors.New("course_invalid_state")
	ErrNotAI                  = errors.New("course_not_ai")
	ErrNotImport              = errors.New("course_not_import")
	ErrStructureInvalid       = errors.New("course_structure_invalid")
	ErrStructureMissing       = errors.New("course_structure_missing")
	ErrGenerationInputInvalid = errors.New("course_generation_input_invalid")
	ErrNotReadyToPublish      = errors.New("course_not_ready_to_publish")
)
