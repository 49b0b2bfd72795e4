// Package domain contains the purchase order models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending  = "PENDING"
	StatusPaid     = "PAID"
	StatusFailed   = "FAILED"
	StatusCanceled = "CANCELED"
)

// Order is a purchase intent. Amount is the effective price frozen at
// creation time; it is never re-derived afterwards.
type Order struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	SchoolID   snowflake.ID `gorm:"not null;index" json:"school_id"`
	CourseID   snowflake.ID `gorm:"not null;index" json:"course_id"`
	BuyerEmail string       `gorm:"type:text;not null;index" json:"buyer_email"`
	Amount     int64        `gorm:"not null" json:"amount"`
	Currency   string       `gorm:"type:text;not null" json:"currency"`
	Status     string       `gorm:"type:text;not null" json:"status"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }
