package migration

import (
	auditdomain "github.com/skolahq/skola/internal/audit/domain"
	"github.com/skolahq/skola/internal/config"
	coursedomain "github.com/skolahq/skola/internal/course/domain"
	enrollmentdomain "github.com/skolahq/skola/internal/enrollment/domain"
	orderdomain "github.com/skolahq/skola/internal/order/domain"
	paymentdomain "github.com/skolahq/skola/internal/payment/domain"
	schooldomain "github.com/skolahq/skola/internal/school/domain"
	"github.com/skolahq/skola/internal/seed"
	tenantdomain "github.com/skolahq/skola/internal/tenantdir/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql deployments are for local development; the
			// model definitions carry the same schema.
			if err := conn.AutoMigrate(
				&schooldomain.School{},
				&tenantdomain.DomainConfig{},
				&coursedomain.Course{},
				&orderdomain.Order{},
				&paymentdomain.Payment{},
				&paymentdomain.WebhookEvent{},
				&enrollmentdomain.Enrollment{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoSchool(conn, cfg.BaseDomain)
		}
		return nil
	}),
)
