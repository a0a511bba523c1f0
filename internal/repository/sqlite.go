package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS match_results (
	id TEXT PRIMARY KEY,
	player_one TEXT NOT NULL,
	player_two TEXT NOT NULL,
	winner TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL,
	rounds INTEGER NOT NULL,
	spells_cast INTEGER NOT NULL,
	creatures_died INTEGER NOT NULL,
	damage_dealt INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	ended_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS match_results_ended_at ON match_results (ended_at DESC);
`

// SQLiteStore persists results in a SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens the database at path and creates the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveResult inserts or replaces record.
func (s *SQLiteStore) SaveResult(ctx context.Context, record MatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT OR REPLACE INTO match_results (
	id,
	player_one,
	player_two,
	winner,
	reason,
	rounds,
	spells_cast,
	creatures_died,
	damage_dealt,
	started_at,
	ended_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.Players[0],
		record.Players[1],
		record.Winner,
		record.Reason,
		record.Rounds,
		record.SpellsCast,
		record.CreaturesDied,
		record.DamageDealt,
		record.StartedAt.UTC().UnixMilli(),
		record.EndedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// ListResults lists newest-first results.
func (s *SQLiteStore) ListResults(ctx context.Context, limit int) ([]MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, player_one, player_two, winner, reason, rounds,
	spells_cast, creatures_died, damage_dealt, started_at, ended_at
FROM match_results
ORDER BY ended_at DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows, limit)
}

// PlayerRecord totals the stored results for player.
func (s *SQLiteStore) PlayerRecord(ctx context.Context, player string) (PlayerStats, error) {
	if err := ctx.Err(); err != nil {
		return PlayerStats{}, err
	}
	stats := PlayerStats{Player: player}
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COALESCE(SUM(CASE WHEN winner = ?1 THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN winner <> '' AND winner <> ?1 THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN winner = '' THEN 1 ELSE 0 END), 0)
FROM match_results
WHERE player_one = ?1 OR player_two = ?1
`, player).Scan(&stats.Matches, &stats.Wins, &stats.Losses, &stats.Draws)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("player record: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows rowScanner, limit int) ([]MatchRecord, error) {
	records := make([]MatchRecord, 0, limit)
	for rows.Next() {
		var (
			r                  MatchRecord
			startedAt, endedAt int64
		)
		if err := rows.Scan(
			&r.ID,
			&r.Players[0],
			&r.Players[1],
			&r.Winner,
			&r.Reason,
			&r.Rounds,
			&r.SpellsCast,
			&r.CreaturesDied,
			&r.DamageDealt,
			&startedAt,
			&endedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.StartedAt = time.UnixMilli(startedAt).UTC()
		r.EndedAt = time.UnixMilli(endedAt).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return records, nil
}

var _ Store = (*SQLiteStore)(nil)
