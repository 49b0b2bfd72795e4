package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/skolahq/skola/internal/enrollment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertIgnoreConflict(ctx context.Context, db *gorm.DB, enrollment *domain.Enrollment) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(enrollment).Error
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, buyerEmail string, courseID snowflake.ID) (*domain.Enrollment, error) {
	var item domain.Enrollment
	err := db.WithContext(ctx).
		Where("school_id = ? AND buyer_email = ? AND course_id = ?", schoolID, buyerEmail, courseID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) ListByBuyer(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, buyerEmail string) ([]domain.Enrollment, error) {
	var items []domain.Enrollment
	err := db.WithContext(ctx).
		Where("school_id = ? AND buyer_email = ?", schoolID, buyerEmail).
		Order("created_at desc, id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
