package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// Ensure grants access idempotently: an existing grant for the same
	// (school, buyer, course) tuple is returned unchanged.
	Ensure(ctx context.Context, schoolID snowflake.ID, buyerEmail string, courseID, orderID snowflake.ID) (*Enrollment, error)
	CanAccess(ctx context.Context, schoolID snowflake.ID, buyerEmail string, courseID snowflake.ID) (bool, error)
	ListByBuyer(ctx context.Context, schoolID snowflake.ID, buyerEmail string) ([]Enrollment, error)
}

type Repository interface {
	InsertIgnoreConflict(ctx context.Context, db *gorm.DB, enrollment *Enrollment) error
	FindByKey(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, buyerEmail string, courseID snowflake.ID) (*Enrollment, error)
	ListByBuyer(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, buyerEmail string) ([]Enrollment, error)
}

var ErrNotFound = errors.New("enrollment_not_found")
