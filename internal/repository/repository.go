// Package repository stores finished match results.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magefree/hearth-server-go/internal/config"
	"go.uber.org/zap"
)

// ErrInvalidRecord is returned when a record is missing required fields.
var ErrInvalidRecord = errors.New("invalid match record")

// MatchRecord is the stored outcome of one match. Winner is empty when the
// match hit the round limit.
type MatchRecord struct {
	ID            string    `json:"id"`
	Players       [2]string `json:"players"`
	Winner        string    `json:"winner,omitempty"`
	Reason        string    `json:"reason"`
	Rounds        int       `json:"rounds"`
	SpellsCast    int       `json:"spells_cast"`
	CreaturesDied int       `json:"creatures_died"`
	DamageDealt   int       `json:"damage_dealt"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
}

// PlayerStats aggregates a player's stored results.
type PlayerStats struct {
	Player  string `json:"player"`
	Matches int    `json:"matches"`
	Wins    int    `json:"wins"`
	Losses  int    `json:"losses"`
	Draws   int    `json:"draws"`
}

// Store persists match results.
type Store interface {
	SaveResult(ctx context.Context, record MatchRecord) error
	// ListResults returns up to limit records, most recently ended first.
	ListResults(ctx context.Context, limit int) ([]MatchRecord, error)
	PlayerRecord(ctx context.Context, player string) (PlayerStats, error)
	Close() error
}

// Validate normalises and checks a record before it is stored.
func (r *MatchRecord) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return fmt.Errorf("id is required: %w", ErrInvalidRecord)
	}
	if r.Players[0] == "" || r.Players[1] == "" {
		return fmt.Errorf("%s: both players are required: %w", r.ID, ErrInvalidRecord)
	}
	if r.Players[0] == r.Players[1] {
		return fmt.Errorf("%s: players share the name %q: %w", r.ID, r.Players[0], ErrInvalidRecord)
	}
	if r.Winner != "" && r.Winner != r.Players[0] && r.Winner != r.Players[1] {
		return fmt.Errorf("%s: winner %q did not play: %w", r.ID, r.Winner, ErrInvalidRecord)
	}
	if r.Reason == "" {
		return fmt.Errorf("%s: reason is required: %w", r.ID, ErrInvalidRecord)
	}
	if r.EndedAt.IsZero() {
		r.EndedAt = time.Now().UTC()
	}
	return nil
}

// statsFor folds records into one player's totals.
func statsFor(player string, records []MatchRecord) PlayerStats {
	stats := PlayerStats{Player: player}
	for _, r := range records {
		if r.Players[0] != player && r.Players[1] != player {
			continue
		}
		stats.Matches++
		switch r.Winner {
		case "":
			stats.Draws++
		case player:
			stats.Wins++
		default:
			stats.Losses++
		}
	}
	return stats
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case "", "memory":
		store = NewMemoryStore()
	case "sqlite":
		store, err = OpenSQLite(ctx, cfg.DSN)
	case "postgres":
		store, err = OpenPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("result store opened", zap.String("driver", cfg.Driver))
	}
	return store, nil
}
