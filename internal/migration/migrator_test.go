package migration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMigrator(t *testing.T) *DefaultMigrator {
	t.Helper()
	path := filepath.Join(t.TempDir(), "migrate-test.db")
	m, err := NewMigrator(&Config{DatabaseURL: BuildDatabaseURL(path)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestNewMigrator_Validation(t *testing.T) {
	_, err := NewMigrator(nil)
	assert.Error(t, err)

	_, err = NewMigrator(&Config{})
	assert.Error(t, err)
}

func TestMigrator_UpAndVersion(t *testing.T) {
	m := newTestMigrator(t)
	ctx := context.Background()

	version, dirty, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, m.Up(ctx))

	version, dirty, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Up is idempotent.
	require.NoError(t, m.Up(ctx))
}

func TestMigrator_CreatesWorkflowsTable(t *testing.T) {
	m := newTestMigrator(t)
	ctx := context.Background()
	require.NoError(t, m.Up(ctx))

	var name string
	err := m.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='workflows'",
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "workflows", name)
}

func TestMigrator_DownAll(t *testing.T) {
	m := newTestMigrator(t)
	ctx := context.Background()

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.DownAll(ctx))

	version, dirty, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	var count int
	err = m.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='workflows'",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMigrator_StatusAndInfo(t *testing.T) {
	m := newTestMigrator(t)
	ctx := context.Background()

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	assert.Equal(t, "create_workflows", statuses[0].Name)
	assert.False(t, statuses[0].Applied)

	info, err := m.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, info.TotalMigrations, info.PendingMigrations)

	require.NoError(t, m.Up(ctx))

	statuses, err = m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, statuses[0].Applied)

	info, err = m.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, info.PendingMigrations)
	assert.Equal(t, info.TotalMigrations, info.AppliedMigrations)
}

func TestBuildDatabaseURL(t *testing.T) {
	assert.Equal(t, "file:/tmp/x.db?mode=rwc", BuildDatabaseURL("/tmp/x.db"))
}
