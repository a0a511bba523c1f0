package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/magefree/hearth-server-go/internal/config"
	"github.com/magefree/hearth-server-go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()

	engine, err := game.NewEngine(nil, game.DefaultMatchConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	cfg := config.Default().Server.WebSocket
	hub := NewHub(engine, cfg, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType, matchID string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(WSMessage{Type: msgType, MatchID: matchID, Data: raw}))
}

// readUntil reads frames until match accepts one. Notifications arrive
// asynchronously, so unrelated frames may come first.
func readUntil(t *testing.T, conn *websocket.Conn, match func(WSMessage) bool) WSMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func ofType(msgType string) func(WSMessage) bool {
	return func(msg WSMessage) bool { return msg.Type == msgType }
}

func createRequest() game.CreateMatchRequest {
	return game.CreateMatchRequest{
		Players: [2]game.SeatRequest{
			{ID: "alice", Name: "Alice"},
			{ID: "bob", Name: "Bob"},
		},
		Seed:          42,
		FirstPlayerID: "alice",
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateMatchSendsState(t *testing.T) {
	srv, hub := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, MsgCreateMatch, "", createRequest())
	msg := readUntil(t, conn, ofType(MsgMatchState))
	require.NotEmpty(t, msg.MatchID)

	var state MatchState
	require.NoError(t, json.Unmarshal(msg.Data, &state))
	assert.Equal(t, msg.MatchID, state.View.MatchID)
	assert.Equal(t, "alice", state.View.ActivePlayerID)
	assert.Equal(t, "MAIN", state.Choices.Phase)
	assert.Equal(t, "alice", state.Choices.PlayerID)
	assert.Len(t, state.View.Players, 2)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestActionBroadcastsState(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, MsgCreateMatch, "", createRequest())
	created := readUntil(t, conn, ofType(MsgMatchState))

	send(t, conn, MsgAction, created.MatchID, game.PlayerAction{Type: game.ActionEndTurn, PlayerID: "alice"})
	msg := readUntil(t, conn, func(msg WSMessage) bool {
		if msg.Type != MsgMatchState {
			return false
		}
		var state MatchState
		require.NoError(t, json.Unmarshal(msg.Data, &state))
		return state.View.ActivePlayerID == "bob"
	})
	assert.Equal(t, created.MatchID, msg.MatchID)
}

func TestForfeitSendsMatchOver(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, MsgCreateMatch, "", createRequest())
	created := readUntil(t, conn, ofType(MsgMatchState))

	send(t, conn, MsgAction, created.MatchID, game.PlayerAction{Type: game.ActionForfeit, PlayerID: "bob"})
	msg := readUntil(t, conn, ofType(MsgMatchOver))

	var over struct {
		Result   game.Result `json:"result"`
		Messages []string    `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &over))
	assert.Equal(t, "alice", over.Result.WinnerID)
	assert.Equal(t, game.ReasonForfeit, over.Result.Reason)
	assert.Contains(t, over.Messages, "Alice wins because Bob forfeited the game!")
}

func TestFinishedMatchReleasedAfterLastClientLeaves(t *testing.T) {
	srv, hub := newTestServer(t)
	conn := dial(t, srv)
	watcher := dial(t, srv)

	send(t, conn, MsgCreateMatch, "", createRequest())
	created := readUntil(t, conn, ofType(MsgMatchState))
	send(t, watcher, MsgView, created.MatchID, ViewRequest{PlayerID: "bob"})
	readUntil(t, watcher, ofType(MsgMatchState))

	send(t, conn, MsgAction, created.MatchID, game.PlayerAction{Type: game.ActionForfeit, PlayerID: "bob"})
	readUntil(t, conn, ofType(MsgMatchOver))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	_, err := hub.engine.GetMatch(created.MatchID)
	require.NoError(t, err, "a client still follows the match")

	require.NoError(t, watcher.Close())
	require.Eventually(t, func() bool {
		_, err := hub.engine.GetMatch(created.MatchID)
		return errors.Is(err, game.ErrMatchNotFound)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUnfinishedMatchSurvivesDisconnect(t *testing.T) {
	srv, hub := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, MsgCreateMatch, "", createRequest())
	created := readUntil(t, conn, ofType(MsgMatchState))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	_, err := hub.engine.GetMatch(created.MatchID)
	assert.NoError(t, err)
}

func TestRejectedActionSendsError(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, MsgCreateMatch, "", createRequest())
	created := readUntil(t, conn, ofType(MsgMatchState))

	send(t, conn, MsgAction, created.MatchID, game.PlayerAction{Type: game.ActionEndTurn, PlayerID: "bob"})
	msg := readUntil(t, conn, ofType(MsgError))

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Contains(t, body["error"], "turn")
}

func TestActionWithUnknownTargetTypeIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, MsgCreateMatch, "", createRequest())
	created := readUntil(t, conn, ofType(MsgMatchState))

	send(t, conn, MsgAction, created.MatchID, map[string]interface{}{
		"type":      game.ActionPlayCard,
		"player_id": "alice",
		"card_id":   "any",
		"target":    map[string]string{"type": "land", "id": "bob"},
	})
	msg := readUntil(t, conn, ofType(MsgError))

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Contains(t, body["error"], "unknown target type")
}

func TestViewHidesOpponentHand(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, MsgCreateMatch, "", createRequest())
	created := readUntil(t, conn, ofType(MsgMatchState))

	send(t, conn, MsgView, created.MatchID, ViewRequest{PlayerID: "bob"})
	msg := readUntil(t, conn, func(msg WSMessage) bool {
		if msg.Type != MsgMatchState {
			return false
		}
		var state MatchState
		require.NoError(t, json.Unmarshal(msg.Data, &state))
		return state.Choices.PlayerID == ""
	})

	var state MatchState
	require.NoError(t, json.Unmarshal(msg.Data, &state))
	for _, pv := range state.View.Players {
		if pv.PlayerID == "alice" {
			for _, c := range pv.Hand {
				assert.True(t, c.FaceDown)
				assert.Empty(t, c.Name)
			}
		}
	}
}

func TestUnknownMessageType(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "shuffle"}))
	msg := readUntil(t, conn, ofType(MsgError))
	assert.Contains(t, string(msg.Data), "unknown message type")
}

func TestReplayMessage(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, MsgCreateMatch, "", createRequest())
	created := readUntil(t, conn, ofType(MsgMatchState))

	send(t, conn, MsgAction, created.MatchID, game.PlayerAction{Type: game.ActionEndTurn, PlayerID: "alice"})
	readUntil(t, conn, func(msg WSMessage) bool {
		if msg.Type != MsgMatchState {
			return false
		}
		var state MatchState
		require.NoError(t, json.Unmarshal(msg.Data, &state))
		return state.View.ActivePlayerID == "bob"
	})

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MsgReplay, MatchID: created.MatchID}))
	msg := readUntil(t, conn, ofType(MsgReplay))

	var snaps []game.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snaps))
	require.Len(t, snaps, 2)
	assert.Nil(t, snaps[0].Action)
	require.NotNil(t, snaps[1].Action)
	assert.Equal(t, game.ActionEndTurn, snaps[1].Action.Type)
	assert.NotEqual(t, snaps[0].Checksum, snaps[1].Checksum)

	index := 1
	send(t, conn, MsgReplay, created.MatchID, ReplayRequest{Index: &index})
	msg = readUntil(t, conn, ofType(MsgReplay))
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, snaps[1].Checksum, snap.Checksum)

	index = 7
	send(t, conn, MsgReplay, created.MatchID, ReplayRequest{Index: &index})
	msg = readUntil(t, conn, ofType(MsgError))
	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Contains(t, body["error"], "no state 7")
}
