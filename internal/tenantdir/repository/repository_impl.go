package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/skolahq/skola/internal/tenantdir/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, dc *domain.DomainConfig) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO domain_configs (
			id, school_id, hostname, kind, verified, verification_token, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		dc.ID,
		dc.SchoolID,
		dc.Hostname,
		dc.Kind,
		dc.Verified,
		dc.VerificationToken,
		dc.CreatedAt,
		dc.UpdatedAt,
	).Error
}

func (r *repo) FindByHostname(ctx context.Context, db *gorm.DB, hostname string) (*domain.DomainConfig, error) {
	var item domain.DomainConfig
	err := db.WithContext(ctx).Where("hostname = ?", hostname).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) FindSubdomainBySchool(ctx context.Context, db *gorm.DB, schoolID snowflake.ID) (*domain.DomainConfig, error) {
	var item domain.DomainConfig
	err := db.WithContext(ctx).
		Where("school_id = ? AND kind = ?", schoolID, domain.KindSubdomain).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) ResetVerification(ctx context.Context, db *gorm.DB, id snowflake.ID, token string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE domain_configs
		 SET verified = ?, verification_token = ?, updated_at = ?
		 WHERE id = ?`,
		false, token, time.Now().UTC(), id,
	).Error
}

func (r *repo) MarkVerified(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE domain_configs
		 SET verified = ?, verification_token = ?, updated_at = ?
		 WHERE id = ?`,
		true, "", time.Now().UTC(), id,
	).Error
}
