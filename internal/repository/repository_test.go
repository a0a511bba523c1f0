package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/magefree/hearth-server-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func sampleRecords() []MatchRecord {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []MatchRecord{
		{ID: "m1", Players: [2]string{"alice", "bob"}, Winner: "alice", Reason: "life", Rounds: 14, SpellsCast: 3, CreaturesDied: 2, DamageDealt: 25, StartedAt: base, EndedAt: base.Add(time.Minute)},
		{ID: "m2", Players: [2]string{"bob", "carol"}, Winner: "carol", Reason: "forfeit", Rounds: 3, StartedAt: base, EndedAt: base.Add(2 * time.Minute)},
		{ID: "m3", Players: [2]string{"alice", "bob"}, Reason: "round_limit", Rounds: 100, StartedAt: base, EndedAt: base.Add(3 * time.Minute)},
	}
}

// exerciseStore runs the same behaviour checks against any Store.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	for _, r := range sampleRecords() {
		require.NoError(t, store.SaveResult(ctx, r))
	}

	t.Run("list newest first", func(t *testing.T) {
		records, err := store.ListResults(ctx, 10)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "m3", records[0].ID)
		assert.Equal(t, "m2", records[1].ID)
		assert.Equal(t, "m1", records[2].ID)

		m1 := records[2]
		assert.Equal(t, [2]string{"alice", "bob"}, m1.Players)
		assert.Equal(t, "alice", m1.Winner)
		assert.Equal(t, 14, m1.Rounds)
		assert.Equal(t, 25, m1.DamageDealt)
		assert.True(t, m1.EndedAt.Equal(sampleRecords()[0].EndedAt))
	})

	t.Run("list respects limit", func(t *testing.T) {
		records, err := store.ListResults(ctx, 1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "m3", records[0].ID)

		_, err = store.ListResults(ctx, 0)
		assert.Error(t, err)
	})

	t.Run("player record", func(t *testing.T) {
		bob, err := store.PlayerRecord(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, PlayerStats{Player: "bob", Matches: 3, Wins: 0, Losses: 2, Draws: 1}, bob)

		alice, err := store.PlayerRecord(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, PlayerStats{Player: "alice", Matches: 2, Wins: 1, Losses: 0, Draws: 1}, alice)

		nobody, err := store.PlayerRecord(ctx, "dave")
		require.NoError(t, err)
		assert.Equal(t, 0, nobody.Matches)
	})

	t.Run("save replaces by id", func(t *testing.T) {
		r := sampleRecords()[0]
		r.Rounds = 15
		require.NoError(t, store.SaveResult(ctx, r))
		records, err := store.ListResults(ctx, 10)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, 15, records[2].Rounds)
	})

	t.Run("rejects invalid records", func(t *testing.T) {
		err := store.SaveResult(ctx, MatchRecord{ID: "bad", Players: [2]string{"a", "b"}, Winner: "c", Reason: "life"})
		assert.ErrorIs(t, err, ErrInvalidRecord)
		err = store.SaveResult(ctx, MatchRecord{Players: [2]string{"a", "b"}, Reason: "life"})
		assert.ErrorIs(t, err, ErrInvalidRecord)
		err = store.SaveResult(ctx, MatchRecord{ID: "twins", Players: [2]string{"a", "a"}, Winner: "a", Reason: "life"})
		assert.ErrorIs(t, err, ErrInvalidRecord, "a shared name makes the winner ambiguous")
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	exerciseStore(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "  ")
	assert.Error(t, err)
}

func TestOpenSelectsDriver(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	store, err := Open(ctx, config.DatabaseConfig{Driver: "memory"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "r.db")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(ctx, config.DatabaseConfig{Driver: "mongo"}, logger)
	assert.Error(t, err)
}

func TestValidateDefaultsEndedAt(t *testing.T) {
	r := MatchRecord{ID: " m9 ", Players: [2]string{"a", "b"}, Reason: "life"}
	require.NoError(t, r.Validate())
	assert.Equal(t, "m9", r.ID)
	assert.False(t, r.EndedAt.IsZero())
}
