package governance

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campaignops/media-sufficiency/pkg/db"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	database, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestSQLRepository_PriorStatuses(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	rangeID := uuid.New().String()
	_, err := database.ExecContext(ctx,
		`INSERT INTO ranges (id, name, status) VALUES (?, 'Dry Comfort', 'active'), (?, 'Old Range', 'archived')`,
		rangeID, uuid.New().String())
	require.NoError(t, err)
	_, err = database.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, range_id, status) VALUES (?, 'Summer Push', ?, 'pending_review')`,
		uuid.New().String(), rangeID)
	require.NoError(t, err)

	repo := NewSQLRepository(database.DB)
	statuses, err := repo.PriorStatuses(ctx)
	require.NoError(t, err)

	assert.Equal(t, StatusActive, statuses["dry comfort"])
	assert.Equal(t, StatusArchived, statuses["old range"])
	assert.Equal(t, StatusPendingReview, statuses["summer push"])
	assert.NotContains(t, statuses, "unknown")
}

func TestSQLRepository_EnsureRange(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	repo := NewSQLRepository(database.DB)

	existing := uuid.New()
	_, err := database.ExecContext(ctx,
		`INSERT INTO ranges (id, name, status) VALUES (?, 'Dry Comfort', 'active')`, existing.String())
	require.NoError(t, err)

	t.Run("returns existing id case-insensitively", func(t *testing.T) {
		id, err := repo.EnsureRange(ctx, "dry comfort", "planner")
		require.NoError(t, err)
		assert.Equal(t, existing, id)
	})

	t.Run("creates unknown names as pending review", func(t *testing.T) {
		id, err := repo.EnsureRange(ctx, "Brand New Range", "planner@example.com")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		statuses, err := repo.PriorStatuses(ctx)
		require.NoError(t, err)
		assert.Equal(t, StatusPendingReview, statuses["brand new range"])

		var createdBy string
		err = database.QueryRowContext(ctx,
			`SELECT created_by FROM ranges WHERE id = ?`, id.String()).Scan(&createdBy)
		require.NoError(t, err)
		assert.Equal(t, "planner@example.com", createdBy, "review workflow needs the creator")
	})

	t.Run("second ensure reuses the created row", func(t *testing.T) {
		first, err := repo.EnsureRange(ctx, "Another Range", "planner")
		require.NoError(t, err)
		second, err := repo.EnsureRange(ctx, "ANOTHER RANGE", "planner")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestSQLRepository_EnsureCampaign(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	repo := NewSQLRepository(database.DB)

	rangeID, err := repo.EnsureRange(ctx, "Dry Comfort", "planner")
	require.NoError(t, err)

	id, err := repo.EnsureCampaign(ctx, "Winter Push", rangeID, "planner@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	var status, createdBy string
	err = database.QueryRowContext(ctx,
		`SELECT status, created_by FROM campaigns WHERE id = ?`, id.String()).Scan(&status, &createdBy)
	require.NoError(t, err)
	assert.Equal(t, "pending_review", status)
	assert.Equal(t, "planner@example.com", createdBy)

	again, err := repo.EnsureCampaign(ctx, "winter push", rangeID, "someone else")
	require.NoError(t, err)
	assert.Equal(t, id, again)
}
