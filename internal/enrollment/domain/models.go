// Package domain contains the enrollment index models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Enrollment grants a buyer access to a course. The (school_id, buyer_email,
// course_id) tuple is unique; a buyer purchasing the same course twice keeps
// the original grant.
type Enrollment struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	SchoolID   snowflake.ID `gorm:"not null;uniqueIndex:idx_enrollments_key" json:"school_id"`
	BuyerEmail string       `gorm:"type:text;not null;uniqueIndex:idx_enrollments_key" json:"buyer_email"`
	CourseID   snowflake.ID `gorm:"not null;uniqueIndex:idx_enrollments_key" json:"course_id"`
	OrderID    snowflake.ID `gorm:"not null" json:"order_id"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Enrollment) TableName() string { return "enrollments" }
