package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateSchoolRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Service interface {
	Create(ctx context.Context, req CreateSchoolRequest) (*School, error)
	Get(ctx context.Context, id snowflake.ID) (*School, error)
	GetBySlug(ctx context.Context, slug string) (*School, error)
	SetStatus(ctx context.Context, id snowflake.ID, status string) (*School, error)
	RotateWebhookSecret(ctx context.Context, id snowflake.ID) (*School, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, school *School) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*School, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*School, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error
	UpdateWebhookSecret(ctx context.Context, db *gorm.DB, id snowflake.ID, secret string) error
}

var (
	ErrNotFound      = errors.New("school_not_found")
	ErrNameRequired  = errors.New("school_name_required")
	ErrSlugInvalid   = errors.New("school_slug_invalid")
	ErrSlugTaken     = errors.New("school_slug_taken")
	ErrStatusInvalid = errors.New("school_status_invalid")
	ErrSuspended     = errors.New("school_suspended")
)
