package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oldphonedeals/internal/domain/preference"
	"oldphonedeals/internal/listview"
	"oldphonedeals/internal/store/repositories"
)

var _ repositories.PreferenceRepository = (*Repo)(nil)

// Runs only against a real database: TEST_DB_DSN=postgres://... go test ./internal/store/postgres
func TestPreferences_RoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := Open(ctx, dsn, 2)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewRepo(pool)
	require.NoError(t, repo.Migrate(ctx))
	_, err = pool.Exec(ctx, `DELETE FROM view_preferences WHERE user_id = 'test-user'`)
	require.NoError(t, err)

	_, err = repo.FindPreference(ctx, "test-user", "admin-logs")
	assert.ErrorIs(t, err, preference.ErrNotFound)

	p, err := preference.FromRequest("test-user", "admin-logs", listview.PageRequest{
		PageSize: 25, SortBy: "createdAt", SortOrder: listview.SortDesc,
		Filters: listview.Filters{"action": "DISABLE_USER"},
	})
	require.NoError(t, err)
	require.NoError(t, repo.SavePreference(ctx, p))

	p.SortOrder = listview.SortAsc
	require.NoError(t, repo.SavePreference(ctx, p))

	got, err := repo.FindPreference(ctx, "test-user", "admin-logs")
	require.NoError(t, err)
	assert.Equal(t, "createdAt", got.SortBy)
	assert.Equal(t, listview.SortAsc, got.SortOrder)
	assert.Equal(t, 25, got.PageSize)
	assert.Equal(t, "DISABLE_USER", got.Filters["action"])
}
