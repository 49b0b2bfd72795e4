// Package domain contains the course catalog and lifecycle models.
package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/skolahq/skola/internal/pricing"
	"gorm.io/datatypes"
)

const (
	TypeAI     = "AI"
	TypeImport = "IMPORT"
)

// Course states. A course only ever moves forward; PUBLISHED is terminal.
const (
	StateDraft             = "DRAFT"
	StateDraftingStructure = "DRAFTING_STRUCTURE"
	StateStructureApproved = "STRUCTURE_APPROVED"
	StateGeneratingFull    = "GENERATING_FULL"
	StateDraftReady        = "DRAFT_READY"
	StatePublished         = "PUBLISHED"
)

// Lesson is one unit inside a module. ExternalURL is required for lessons
// of IMPORT courses and unused for AI courses.
type Lesson struct {
	Title       string `json:"title"`
	ExternalURL string `json:"external_url,omitempty"`
}

type Module struct {
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Structure is the modules-and-lessons tree of a course.
type Structure struct {
	Modules []Module `json:"modules"`
}

func (s Structure) Empty() bool { return len(s.Modules) == 0 }

// LessonContent is the generated body for one lesson of an AI course.
type LessonContent struct {
	LessonTitle string   `json:"lesson_title"`
	Body        string   `json:"body"`
	VideoScript string   `json:"video_script"`
	Slides      []string `json:"slides"`
}

type QuizQuestion struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

type ModuleContent struct {
	ModuleTitle string          `json:"module_title"`
	Lessons     []LessonContent `json:"lessons"`
	Quiz        []QuizQuestion  `json:"quiz"`
}

// FullContent is the complete generated course body, one entry per module.
type FullContent struct {
	Modules []ModuleContent `json:"modules"`
}

// Course is a sellable unit owned by one school.
type Course struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	SchoolID    snowflake.ID   `gorm:"not null;index" json:"school_id"`
	Type        string         `gorm:"type:text;not null" json:"type"`
	Title       string         `gorm:"type:text;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"type:text" json:"category"`
	Tags        datatypes.JSON `gorm:"type:jsonb" json:"tags"`
	BaseAmount  int64          `gorm:"not null" json:"base_amount"`
	Currency    string         `gorm:"type:text;not null" json:"currency"`
	PromoType   *string        `gorm:"type:text" json:"promo_type,omitempty"`
	PromoValue  *int64         `json:"promo_value,omitempty"`
	PromoUntil  *time.Time     `json:"promo_until,omitempty"`
	State       string         `gorm:"type:text;not null" json:"state"`
	Structure   datatypes.JSON `gorm:"type:jsonb" json:"structure"`
	FullContent datatypes.JSON `gorm:"type:jsonb" json:"full_content,omitempty"`
	// GenInputs keeps the inputs of the structure generation step so that
	// the full-content step can reuse them.
	GenInputs   datatypes.JSON `gorm:"column:gen_inputs;type:jsonb" json:"-"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Course) TableName() string { return "courses" }

// Promo reconstructs the promo value object from the flattened columns.
func (c *Course) Promo() *pricing.Promo {
	if c.PromoType == nil || c.PromoValue == nil || c.PromoUntil == nil {
		return nil
	}
	return &pricing.Promo{
		Type:  pricing.PromoType(*c.PromoType),
		Value: *c.PromoValue,
		Until: *c.PromoUntil,
	}
}

// EffectivePrice is the price a buyer pays at the given instant.
func (c *Course) EffectivePrice(now time.Time) int64 {
	return pricing.EffectivePrice(c.BaseAmount, c.Promo(), now)
}

// DecodeStructure unmarshals the stored structure tree.
func (c *Course) DecodeStructure() (Structure, error) {
	var s Structure
	if len(c.Structure) == 0 {
		return s, nil
	}
	err := json.Unmarshal(c.Structure, &s)
	return s, err
}

// TagList unmarshals the stored tag array.
func (c *Course) TagList() []string {
	if len(c.Tags) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(c.Tags, &tags); err != nil {
		return nil
	}
	return tags
}
