package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, schoolID, courseID snowflake.ID, buyerEmail string) (*Order, error)
	Get(ctx context.Context, schoolID, orderID snowflake.ID) (*Order, error)
	Cancel(ctx context.Context, schoolID, orderID snowflake.ID) (*Order, error)
	ListByBuyer(ctx context.Context, schoolID snowflake.ID, buyerEmail string) ([]Order, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, schoolID, orderID snowflake.ID) (*Order, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, orderID snowflake.ID, status string) error
	ListByBuyer(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, buyerEmail string) ([]Order, error)
}

var (
	ErrNotFound          = errors.New("order_not_found")
	ErrNotPending        = errors.New("order_not_pending")
	ErrBuyerEmailInvalid = errors.New("buyer_email_invalid")
	ErrCourseNotForSale  = errors.New("course_not_for_sale")
)
