// Package domain contains the hostname-to-school directory models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	KindSubdomain = "SUBDOMAIN"
	KindCustom    = "CUSTOM"
)

// DomainConfig binds one hostname to one school. Subdomain rows are
// auto-created and always verified; custom rows start unverified and only
// resolve after token verification.
type DomainConfig struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	SchoolID          snowflake.ID `gorm:"not null;index" json:"school_id"`
	Hostname          string       `gorm:"type:text;not null;uniqueIndex:ux_domain_configs_hostname" json:"hostname"`
	Kind              string       `gorm:"type:text;not null" json:"kind"`
	Verified          bool         `gorm:"not null" json:"verified"`
	VerificationToken string       `gorm:"type:text" json:"-"`
	CreatedAt         time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (DomainConfig) TableName() string { return "domain_configs" }
