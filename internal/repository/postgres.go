package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/magefree/hearth-server-go/internal/config"
)

const postgresSchema = `
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
	started_at BIGINT NOT NULL,
	ended_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS match_results_ended_at ON match_results (ended_at DESC);
`

// PostgresStore persists results in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to cfg.DSN and creates the schema.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// SaveResult upserts record.
func (s *PostgresStore) SaveResult(ctx context.Context, record MatchRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO match_results (
	id, player_one, player_two, winner, reason, rounds,
	spells_cast, creatures_died, damage_dealt, started_at, ended_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	winner = EXCLUDED.winner,
	reason = EXCLUDED.reason,
	rounds = EXCLUDED.rounds,
	spells_cast = EXCLUDED.spells_cast,
	creatures_died = EXCLUDED.creatures_died,
	damage_dealt = EXCLUDED.damage_dealt,
	ended_at = EXCLUDED.ended_at
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
func (s *PostgresStore) ListResults(ctx context.Context, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, player_one, player_two, winner, reason, rounds,
	spells_cast, creatures_died, damage_dealt, started_at, ended_at
FROM match_results
ORDER BY ended_at DESC, id DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows, limit)
}

// PlayerRecord totals the stored results for player.
func (s *PostgresStore) PlayerRecord(ctx context.Context, player string) (PlayerStats, error) {
	stats := PlayerStats{Player: player}
	err := s.pool.QueryRow(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE winner = $1),
	COUNT(*) FILTER (WHERE winner <> '' AND winner <> $1),
	COUNT(*) FILTER (WHERE winner = '')
FROM match_results
WHERE player_one = $1 OR player_two = $1
`, player).Scan(&stats.Matches, &stats.Wins, &stats.Losses, &stats.Draws)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("player record: %w", err)
	}
	return stats, nil
}

// Stats exposes pool statistics for logging.
func (s *PostgresStore) Stats() *pgxpool.Stat {
	return s.pool.Stat()
}

var _ Store = (*PostgresStore)(nil)
