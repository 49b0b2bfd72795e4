package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/skolahq/skola/internal/enrollment/domain"
	"github.com/skolahq/skola/internal/enrollment/repository"
	"github.com/skolahq/skola/internal/enrollment/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newEnrollmentService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(8)
	require.NoError(t, err)

	svc := service.NewService(service.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, node
}

func TestEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, node := newEnrollmentService(t)

	schoolID := node.Generate()
	courseID := node.Generate()
	orderID := node.Generate()

	first, err := svc.Ensure(ctx, schoolID, "a@b.com", courseID, orderID)
	require.NoError(t, err)
	require.Equal(t, schoolID, first.SchoolID)
	require.Equal(t, "a@b.com", first.BuyerEmail)

	// A second grant for the same tuple returns the original row, even
	// when it arrives through a different order.
	second, err := svc.Ensure(ctx, schoolID, "a@b.com", courseID, node.Generate())
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, orderID, second.OrderID)
}

func TestEnsureNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	svc, node := newEnrollmentService(t)

	schoolID := node.Generate()
	courseID := node.Generate()

	first, err := svc.Ensure(ctx, schoolID, "Buyer@Example.COM", courseID, node.Generate())
	require.NoError(t, err)
	require.Equal(t, "buyer@example.com", first.BuyerEmail)

	second, err := svc.Ensure(ctx, schoolID, "  buyer@example.com ", courseID, node.Generate())
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestCanAccess(t *testing.T) {
	ctx := context.Background()
	svc, node := newEnrollmentService(t)

	schoolID := node.Generate()
	courseID := node.Generate()

	ok, err := svc.CanAccess(ctx, schoolID, "a@b.com", courseID)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.Ensure(ctx, schoolID, "a@b.com", courseID, node.Generate())
	require.NoError(t, err)

	ok, err = svc.CanAccess(ctx, schoolID, "A@B.com", courseID)
	require.NoError(t, err)
	require.True(t, ok)

	// Access never leaks across schools or courses.
	ok, err = svc.CanAccess(ctx, node.Generate(), "a@b.com", courseID)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = svc.CanAccess(ctx, schoolID, "a@b.com", node.Generate())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListByBuyer(t *testing.T) {
	ctx := context.Background()
	svc, node := newEnrollmentService(t)

	schoolID := node.Generate()

	_, err := svc.Ensure(ctx, schoolID, "a@b.com", node.Generate(), node.Generate())
	require.NoError(t, err)
	_, err = svc.Ensure(ctx, schoolID, "a@b.com", node.Generate(), node.Generate())
	require.NoError(t, err)
	_, err = svc.Ensure(ctx, schoolID, "other@b.com", node.Generate(), node.Generate())
	require.NoError(t, err)

	items, err := svc.ListByBuyer(ctx, schoolID, "a@b.com")
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_enrollment_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE enrollments (
		id BIGINT PRIMARY KEY,
		school_id BIGINT NOT NULL,
		buyer_email TEXT NOT NULL,
		course_id BIGINT NOT NULL,
		order_id BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`).Error)
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX idx_enrollments_key ON enrollments (school_id, buyer_email, course_id)`,
	).Error)
	return db
}
