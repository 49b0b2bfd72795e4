package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/skolahq/skola/internal/audit/domain"
	"github.com/skolahq/skola/internal/audit/repository"
	"github.com/skolahq/skola/internal/audit/service"
	"github.com/skolahq/skola/pkg/db/pagination"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuditService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(9)
	require.NoError(t, err)

	svc := service.NewService(service.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, node
}

func TestRecordRequiresAction(t *testing.T) {
	ctx := context.Background()
	svc, node := newAuditService(t)
	schoolID := node.Generate()

	err := svc.Record(ctx, &schoolID, "  ", "school", nil, nil)
	require.ErrorIs(t, err, domain.ErrInvalidAction)

	err = svc.Record(ctx, &schoolID, "school.created", "school", nil, map[string]any{"slug": "alpha"})
	require.NoError(t, err)
}

func TestListFiltersByAction(t *testing.T) {
	ctx := context.Background()
	svc, node := newAuditService(t)
	schoolID := node.Generate()

	require.NoError(t, svc.Record(ctx, &schoolID, "school.created", "school", nil, nil))
	require.NoError(t, svc.Record(ctx, &schoolID, "course.published", "course", nil, nil))
	require.NoError(t, svc.Record(ctx, &schoolID, "course.published", "course", nil, nil))

	resp, err := svc.List(ctx, domain.ListAuditLogRequest{SchoolID: schoolID})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 3)

	resp, err = svc.List(ctx, domain.ListAuditLogRequest{SchoolID: schoolID, Action: "course.published"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 2)

	resp, err = svc.List(ctx, domain.ListAuditLogRequest{SchoolID: schoolID, TargetType: "school"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	svc, node := newAuditService(t)
	schoolID := node.Generate()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(ctx, &schoolID, "order.canceled", "order", nil, nil))
	}

	first, err := svc.List(ctx, domain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2},
		SchoolID:   schoolID,
	})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := svc.List(ctx, domain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
		SchoolID:   schoolID,
	})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	require.False(t, second.HasMore)
}

func TestListValidation(t *testing.T) {
	ctx := context.Background()
	svc, node := newAuditService(t)
	schoolID := node.Generate()

	_, err := svc.List(ctx, domain.ListAuditLogRequest{})
	require.ErrorIs(t, err, domain.ErrInvalidSchool)

	_, err = svc.List(ctx, domain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageToken: "garbage"},
		SchoolID:   schoolID,
	})
	require.ErrorIs(t, err, domain.ErrInvalidPageToken)

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err = svc.List(ctx, domain.ListAuditLogRequest{
		SchoolID: schoolID,
		StartAt:  &start,
		EndAt:    &end,
	})
	require.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_audit_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE audit_logs (
		id BIGINT PRIMARY KEY,
		school_id BIGINT,
		action TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT,
		metadata TEXT,
		created_at TIMESTAMP NOT NULL
	)`).Error)
	return db
}
