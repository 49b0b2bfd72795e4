package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/skolahq/skola/internal/course/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, course *domain.Course) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO courses (
			id, school_id, type, title, description, category, tags,
			base_amount, currency, promo_type, promo_value, promo_until,
			state, structure, full_content, gen_inputs, published_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		course.ID,
		course.SchoolID,
		course.Type,
		course.Title,
		course.Description,
		course.Category,
		course.Tags,
		course.BaseAmount,
		course.Currency,
		course.PromoType,
		course.PromoValue,
		course.PromoUntil,
		course.State,
		course.Structure,
		course.FullContent,
		course.GenInputs,
		course.PublishedAt,
		course.CreatedAt,
		course.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, schoolID, courseID snowflake.ID) (*domain.Course, error) {
	var item domain.Course
	err := db.WithContext(ctx).
		Where("id = ? AND school_id = ?", courseID, schoolID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, course *domain.Course) error {
	return db.WithContext(ctx).Exec(
		`UPDATE courses
		 SET state = ?, structure = ?, full_content = ?, gen_inputs = ?, published_at = ?, updated_at = ?
		 WHERE id = ? AND school_id = ?`,
		course.State,
		course.Structure,
		course.FullContent,
		course.GenInputs,
		course.PublishedAt,
		course.UpdatedAt,
		course.ID,
		course.SchoolID,
	).Error
}

func (r *repo) ListBySchool(ctx context.Context, db *gorm.DB, schoolID snowflake.ID) ([]domain.Course, error) {
	var items []domain.Course
	err := db.WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("created_at desc, id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListPublished(ctx context.Context, db *gorm.DB, schoolID snowflake.ID) ([]domain.Course, error) {
	var items []domain.Course
	err := db.WithContext(ctx).
		Where("school_id = ? AND state = ?", schoolID, domain.StatePublished).
		Order("published_at desc, id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
