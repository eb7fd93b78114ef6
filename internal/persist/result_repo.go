package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arenashooter/arena/internal/core/event"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type MatchResultRow struct {
	ID         uuid.UUID
	Map        string
	Result     string
	Ticks      int64
	DurationMs int64
	Kills      int32
	FinishedAt time.Time
}

// MapStats aggregates finished matches on one map.
type MapStats struct {
	Map    string
	Played int64
	Wins   int64
	Kills  int64
	// Fastest is the shortest winning match, zero if none was won.
	Fastest time.Duration
}

type ResultRepo struct {
	db *DB
}

func NewResultRepo(db *DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// Save writes a finished match and its per-config kill counts in a
// single transaction.
func (r *ResultRepo) Save(ctx context.Context, ev event.MatchEnded) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO match_results (id, map, result, ticks, duration_ms, kills)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.Match, ev.Map, string(ev.Result), int64(ev.Ticks), ev.Duration.Milliseconds(), ev.Kills)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", ev.Match, err)
	}

	for name, n := range ev.Victims {
		if n <= 0 {
			continue
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO match_kills (match_id, config, count)
			 VALUES ($1, $2, $3)`,
			ev.Match, name, n)
		if err != nil {
			return fmt.Errorf("insert kills %s/%s: %w", ev.Match, name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.db.log.Debug("match saved",
		zap.String("match", ev.Match.String()),
		zap.String("result", string(ev.Result)),
	)
	return nil
}

// Recent returns the latest matches played on mapName, newest first.
func (r *ResultRepo) Recent(ctx context.Context, mapName string, limit int) ([]MatchResultRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, map, result, ticks, duration_ms, kills, finished_at
		 FROM match_results
		 WHERE map = $1
		 ORDER BY finished_at DESC
		 LIMIT $2`, mapName, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchResultRow
	for rows.Next() {
		var m MatchResultRow
		if err := rows.Scan(&m.ID, &m.Map, &m.Result, &m.Ticks, &m.DurationMs, &m.Kills, &m.FinishedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// Kills returns the per-config kill counts of one match.
func (r *ResultRepo) Kills(ctx context.Context, match uuid.UUID) (map[string]int, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT config, count FROM match_kills WHERE match_id = $1`, match)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	kills := make(map[string]int)
	for rows.Next() {
		var name string
		var n int32
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		kills[name] = int(n)
	}
	return kills, rows.Err()
}

func (r *ResultRepo) Stats(ctx context.Context, mapName string) (MapStats, error) {
	s := MapStats{Map: mapName}
	var fastest *int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE result = 'win'),
		        coalesce(sum(kills), 0),
		        min(duration_ms) FILTER (WHERE result = 'win')
		 FROM match_results
		 WHERE map = $1`, mapName,
	).Scan(&s.Played, &s.Wins, &s.Kills, &fastest)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if fastest != nil {
		s.Fastest = time.Duration(*fastest) * time.Millisecond
	}
	return s, nil
}
