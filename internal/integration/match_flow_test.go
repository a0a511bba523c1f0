package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/magefree/hearth-server-go/internal/config"
	"github.com/magefree/hearth-server-go/internal/game"
	"github.com/magefree/hearth-server-go/internal/game/catalog"
	"github.com/magefree/hearth-server-go/internal/repository"
	"github.com/magefree/hearth-server-go/internal/server"
	"go.uber.org/zap/zaptest"
)

const banditDecks = `
decks:
  - name: bandits
    cards:
      - {name: Bandit, count: 30}
`

type matchEnv struct {
	engine *game.Engine
	store  repository.Store
}

func newMatchEnv(t *testing.T) *matchEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	lists, err := cat.ParseDeckList([]byte(banditDecks))
	if err != nil {
		t.Fatalf("Failed to parse deck lists: %v", err)
	}

	store, err := repository.Open(context.Background(), config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "results.db"),
	}, logger)
	if err != nil {
		t.Fatalf("Failed to open result store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine, err := game.NewEngine(cat, game.DefaultMatchConfig(), logger)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	engine.SetDeckLists(lists)
	engine.SetResultStore(store)
	return &matchEnv{engine: engine, store: store}
}

func banditMatch() game.CreateMatchRequest {
	return game.CreateMatchRequest{
		Players: [2]game.SeatRequest{
			{ID: "alice", Name: "Alice", DeckName: "bandits"},
			{ID: "bob", Name: "Bob", DeckName: "bandits"},
		},
		Seed:          7,
		FirstPlayerID: "alice",
	}
}

// playAggro has every player take each hit, attack with everything ready
// and fill the board with whatever they can afford.
func playAggro(t *testing.T, engine *game.Engine, m *game.Match) {
	t.Helper()
	for i := 0; i < 1000 && !m.IsOver(); i++ {
		choices := m.Choices()
		action := game.PlayerAction{PlayerID: choices.PlayerID}
		switch {
		case choices.Phase == "BLOCK":
			action.Type = game.ActionTakeHit
		case len(choices.Attackers) > 0:
			action.Type = game.ActionDeclareAttack
			action.CardID = choices.Attackers[0].ID
		case len(choices.Units) > 0:
			action.Type = game.ActionPlayCard
			action.CardID = choices.Units[0].ID
		default:
			action.Type = game.ActionEndTurn
		}
		if _, err := engine.ProcessAction(m.ID, action); err != nil {
			t.Fatalf("Action %s by %s failed: %v", action.Type, action.PlayerID, err)
		}
	}
	if !m.IsOver() {
		t.Fatal("Match did not finish")
	}
}

func TestMatchFlow_AggroRaceIsRecorded(t *testing.T) {
	env := newMatchEnv(t)

	m, err := env.engine.CreateMatch(banditMatch())
	if err != nil {
		t.Fatalf("Failed to create match: %v", err)
	}
	playAggro(t, env.engine, m)

	res, _ := m.Result()
	if res.Reason != game.ReasonLife {
		t.Fatalf("Expected the match to end on life, got %s", res.Reason)
	}
	if res.WinnerID != "alice" {
		t.Errorf("Expected the first player to win the race, got %s", res.WinnerID)
	}

	loser, _ := m.Player(res.LoserID)
	if loser.HP > 0 {
		t.Errorf("Expected loser HP <= 0, got %d", loser.HP)
	}

	stats := m.Stats(res.WinnerID)
	if stats.CardsPlayed == 0 || stats.DamageDealt < 20 {
		t.Errorf("Unexpected winner stats: %+v", stats)
	}

	records, err := env.store.ListResults(context.Background(), 10)
	if err != nil {
		t.Fatalf("Failed to list results: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 stored result, got %d", len(records))
	}
	rec := records[0]
	if rec.ID != m.ID || rec.Winner != "Alice" || rec.Reason != string(game.ReasonLife) {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if rec.Rounds != res.Round {
		t.Errorf("Expected %d rounds in record, got %d", res.Round, rec.Rounds)
	}

	bob, err := env.store.PlayerRecord(context.Background(), "Bob")
	if err != nil {
		t.Fatalf("Failed to load player record: %v", err)
	}
	if bob.Matches != 1 || bob.Losses != 1 {
		t.Errorf("Unexpected record for Bob: %+v", bob)
	}
}

func TestMatchFlow_ActionsAfterEndAreRejected(t *testing.T) {
	env := newMatchEnv(t)

	m, err := env.engine.CreateMatch(banditMatch())
	if err != nil {
		t.Fatalf("Failed to create match: %v", err)
	}
	if _, err := env.engine.ProcessAction(m.ID, game.PlayerAction{Type: game.ActionForfeit, PlayerID: "alice"}); err != nil {
		t.Fatalf("Failed to forfeit: %v", err)
	}

	_, err = env.engine.ProcessAction(m.ID, game.PlayerAction{Type: game.ActionEndTurn, PlayerID: "bob"})
	if err == nil {
		t.Fatal("Expected an error for an action after the match ended")
	}

	records, err := env.store.ListResults(context.Background(), 10)
	if err != nil {
		t.Fatalf("Failed to list results: %v", err)
	}
	if len(records) != 1 || records[0].Winner != "Bob" || records[0].Reason != string(game.ReasonForfeit) {
		t.Fatalf("Unexpected records: %+v", records)
	}
}

func TestMatchFlow_WebsocketForfeitIsRecorded(t *testing.T) {
	env := newMatchEnv(t)
	logger := zaptest.NewLogger(t)

	hub := server.NewHub(env.engine, config.Default().Server.WebSocket, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	write := func(msgType, matchID string, data interface{}) {
		raw, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("Failed to encode: %v", err)
		}
		if err := conn.WriteJSON(server.WSMessage{Type: msgType, MatchID: matchID, Data: raw}); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
	}
	read := func(msgType string) server.WSMessage {
		deadline := time.Now().Add(5 * time.Second)
		for {
			if err := conn.SetReadDeadline(deadline); err != nil {
				t.Fatalf("Failed to set deadline: %v", err)
			}
			var msg server.WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("Failed waiting for %s: %v", msgType, err)
			}
			if msg.Type == msgType {
				return msg
			}
		}
	}

	write(server.MsgCreateMatch, "", banditMatch())
	created := read(server.MsgMatchState)

	write(server.MsgAction, created.MatchID, game.PlayerAction{Type: game.ActionForfeit, PlayerID: "bob"})
	read(server.MsgMatchOver)

	alice, err := env.store.PlayerRecord(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("Failed to load player record: %v", err)
	}
	if alice.Wins != 1 {
		t.Errorf("Expected Alice to have 1 win, got %+v", alice)
	}
}
