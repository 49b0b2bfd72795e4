package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	schooldomain "github.com/skolahq/skola/internal/school/domain"
	"gorm.io/gorm"
)

type Service interface {
	// RegisterSubdomain binds {slug}.{baseDomain} to the school. Calling it
	// again for the same school is a no-op.
	RegisterSubdomain(ctx context.Context, school *schooldomain.School) (*DomainConfig, error)
	RequestCustomDomain(ctx context.Context, schoolID snowflake.ID, domain string) (*DomainConfig, error)
	VerifyCustomDomain(ctx context.Context, schoolID snowflake.ID, domain string, token string) (*DomainConfig, error)
	// ResolveHost maps a hostname to its school. It returns (nil, nil) when
	// the host is unknown or bound to an unverified custom domain.
	ResolveHost(ctx context.Context, host string) (*schooldomain.School, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, dc *DomainConfig) error
	FindByHostname(ctx context.Context, db *gorm.DB, hostname string) (*DomainConfig, error)
	FindSubdomainBySchool(ctx context.Context, db *gorm.DB, schoolID snowflake.ID) (*DomainConfig, error)
	ResetVerification(ctx context.Context, db *gorm.DB, id snowflake.ID, token string) error
	MarkVerified(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}

var (
	ErrSubdomainCollision     = errors.New("subdomain_collision")
	ErrCustomDomainInvalid    = errors.New("custom_domain_invalid")
	ErrCustomDomainNotAllowed = errors.New("custom_domain_not_allowed")
	ErrCustomDomainInUse      = errors.New("custom_domain_already_in_use")
	ErrCustomDomainNotFound   = errors.New("custom_domain_not_found")
	ErrCustomDomainWrongOwner = errors.New("custom_domain_wrong_owner")
	ErrTokenRequired          = errors.New("verification_token_required")
	ErrTokenMismatch          = errors.New("verification_token_mismatch")
)
