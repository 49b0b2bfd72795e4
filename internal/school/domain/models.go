// Package domain contains the tenant (school) models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// School is a tenant of the platform. Schools are never deleted; a
// suspended school keeps its data but cannot sell.
type School struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"type:text;not null" json:"name"`
	Slug          string       `gorm:"type:text;not null;uniqueIndex:ux_schools_slug" json:"slug"`
	Status        string       `gorm:"type:text;not null" json:"status"`
	WebhookSecret string       `gorm:"type:text;not null" json:"-"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (School) TableName() string { return "schools" }
