package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/skolahq/skola/internal/payment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, school_id, order_id, provider, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.SchoolID,
		payment.OrderID,
		payment.Provider,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindPaymentByID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) (*domain.Payment, error) {
	var item domain.Payment
	err := db.WithContext(ctx).
		Where("id = ?", paymentID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) UpdatePaymentStatus(ctx context.Context, db *gorm.DB, paymentID snowflake.ID, status string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), paymentID,
	).Error
}

func (r *repo) FindEvent(ctx context.Context, db *gorm.DB, provider, eventID string) (*domain.WebhookEvent, error) {
	var item domain.WebhookEvent
	err := db.WithContext(ctx).
		Where("provider = ? AND event_id = ?", provider, eventID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) InsertEventIgnoreConflict(ctx context.Context, db *gorm.DB, event *domain.WebhookEvent) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
