// Package seed bootstraps a demo school so a fresh install has something to
// browse and sell.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	coursedomain "github.com/skolahq/skola/internal/course/domain"
	"github.com/skolahq/skola/internal/course/generate"
	schooldomain "github.com/skolahq/skola/internal/school/domain"
	tenantdomain "github.com/skolahq/skola/internal/tenantdir/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	demoSchoolName  = "Alpha"
	demoSchoolSlug  = "alpha"
	demoCourseTitle = "Modern Backend Engineering"
)

// EnsureDemoSchool seeds the "alpha" school with its subdomain and one
// published course. Safe to call on every startup.
func EnsureDemoSchool(db *gorm.DB, baseDomain string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		school, err := ensureSchoolTx(ctx, tx, node)
		if err != nil {
			return err
		}
		if err := ensureSubdomainTx(ctx, tx, node, school, baseDomain); err != nil {
			return err
		}
		return ensureCourseTx(ctx, tx, node, school)
	})
}

func ensureSchoolTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (*schooldomain.School, error) {
	var existing schooldomain.School
	err := tx.WithContext(ctx).Where("slug = ?", demoSchoolSlug).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	school := &schooldomain.School{
		ID:            node.Generate(),
		Name:          demoSchoolName,
		Slug:          demoSchoolSlug,
		Status:        schooldomain.StatusActive,
		WebhookSecret: "whsec_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.WithContext(ctx).Create(school).Error; err != nil {
		return nil, err
	}
	return school, nil
}

func ensureSubdomainTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, school *schooldomain.School, baseDomain string) error {
	hostname := demoSchoolSlug + "." + strings.ToLower(strings.TrimSpace(baseDomain))

	var existing tenantdomain.DomainConfig
	err := tx.WithContext(ctx).Where("hostname = ?", hostname).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	return tx.WithContext(ctx).Create(&tenantdomain.DomainConfig{
		ID:        node.Generate(),
		SchoolID:  school.ID,
		Hostname:  hostname,
		Kind:      tenantdomain.KindSubdomain,
		Verified:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error
}

func ensureCourseTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, school *schooldomain.School) error {
	var count int64
	err := tx.WithContext(ctx).
		Model(&coursedomain.Course{}).
		Where("school_id = ?", school.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	inputs := coursedomain.GenerationInputs{
		Theme:    "backend engineering",
		Audience: "working developers",
		Level:    "intermediate",
		Language: "en",
		Hours:    16,
	}
	structure := generate.Structure(inputs)
	content := generate.FullContent(structure, inputs)

	rawStructure, err := json.Marshal(structure)
	if err != nil {
		return err
	}
	rawContent, err := json.Marshal(content)
	if err != nil {
		return err
	}
	rawInputs, err := json.Marshal(inputs)
	if err != nil {
		return err
	}
	rawTags, err := json.Marshal([]string{"backend", "engineering"})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return tx.WithContext(ctx).Create(&coursedomain.Course{
		ID:          node.Generate(),
		SchoolID:    school.ID,
		Type:        coursedomain.TypeAI,
		Title:       demoCourseTitle,
		Description: "A practical tour of services, storage and delivery.",
		Category:    "engineering",
		Tags:        datatypes.JSON(rawTags),
		BaseAmount:  19990,
		Currency:    "BRL",
		State:       coursedomain.StatePublished,
		Structure:   datatypes.JSON(rawStructure),
		FullContent: datatypes.JSON(rawContent),
		GenInputs:   datatypes.JSON(rawInputs),
		PublishedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error
}
