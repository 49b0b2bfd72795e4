package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/skolahq/skola/internal/school/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, school *domain.School) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO schools (id, name, slug, status, webhook_secret, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		school.ID,
		school.Name,
		school.Slug,
		school.Status,
		school.WebhookSecret,
		school.CreatedAt,
		school.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.School, error) {
	var item domain.School
	err := db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.School, error) {
	var item domain.School
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE schools SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	).Error
}

func (r *repo) UpdateWebhookSecret(ctx context.Context, db *gorm.DB, id snowflake.ID, secret string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE schools SET webhook_secret = ?, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), id,
	).Error
}
