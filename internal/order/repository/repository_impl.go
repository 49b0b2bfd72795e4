package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/skolahq/skola/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, school_id, course_id, buyer_email, amount, currency, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.SchoolID,
		order.CourseID,
		order.BuyerEmail,
		order.Amount,
		order.Currency,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, schoolID, orderID snowflake.ID) (*domain.Order, error) {
	var item domain.Order
	err := db.WithContext(ctx).
		Where("id = ? AND school_id = ?", orderID, schoolID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, orderID snowflake.ID, status string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), orderID,
	).Error
}

func (r *repo) ListByBuyer(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, buyerEmail string) ([]domain.Order, error) {
	var items []domain.Order
	err := db.WithContext(ctx).
		Where("school_id = ? AND buyer_email = ?", schoolID, buyerEmail).
		Order("created_at desc, id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
