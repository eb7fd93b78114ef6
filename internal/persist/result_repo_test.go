package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/arenashooter/arena/internal/config"
	"github.com/arenashooter/arena/internal/core/event"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// openTestDB connects to ARENA_TEST_DSN. Tests using it are skipped when
// the variable is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("ARENA_TEST_DSN")
	if dsn == "" {
		t.Skip("ARENA_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = RunMigrations(ctx, db)
	require.NoError(t, err)
	return db
}

func TestSaveAndLoadResult(t *testing.T) {
	db := openTestDB(t)
	repo := NewResultRepo(db)
	ctx := context.Background()
	mapName := "test-" + uuid.NewString()

	won := event.MatchEnded{
		Match:    uuid.New(),
		Map:      mapName,
		Result:   event.ResultWin,
		Ticks:    600,
		Duration: 10 * time.Second,
		Kills:    3,
		Victims:  map[string]int{"grunt": 2, "turret": 1},
	}
	lost := event.MatchEnded{
		Match:    uuid.New(),
		Map:      mapName,
		Result:   event.ResultFail,
		Ticks:    120,
		Duration: 2 * time.Second,
		Kills:    0,
	}
	require.NoError(t, repo.Save(ctx, won))
	require.NoError(t, repo.Save(ctx, lost))

	recent, err := repo.Recent(ctx, mapName, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	ids := []uuid.UUID{recent[0].ID, recent[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{won.Match, lost.Match}, ids)

	kills, err := repo.Kills(ctx, won.Match)
	require.NoError(t, err)
	assert.Equal(t, won.Victims, kills)

	stats, err := repo.Stats(ctx, mapName)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Played)
	assert.Equal(t, int64(1), stats.Wins)
	assert.Equal(t, int64(3), stats.Kills)
	assert.Equal(t, 10*time.Second, stats.Fastest)
}

func TestSaveIsAtomic(t *testing.T) {
	db := openTestDB(t)
	repo := NewResultRepo(db)
	ctx := context.Background()

	ev := event.MatchEnded{
		Match:  uuid.New(),
		Map:    "test-" + uuid.NewString(),
		Result: event.ResultWin,
		Kills:  1,
	}
	require.NoError(t, repo.Save(ctx, ev))
	assert.Error(t, repo.Save(ctx, ev), "duplicate match id")

	stats, err := repo.Stats(ctx, ev.Map)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Played)
}
