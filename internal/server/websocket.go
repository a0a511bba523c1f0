package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/magefree/hearth-server-go/internal/config"
	"github.com/magefree/hearth-server-go/internal/game"
	"go.uber.org/zap"
)

// Message types exchanged with clients.
const (
	MsgCreateMatch = "create_match"
	MsgAction      = "action"
	MsgView        = "view"
	MsgReplay      = "replay"

	MsgMatchState = "match_state"
	MsgMatchOver  = "match_over"
	MsgError      = "error"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSMessage is the JSON envelope for every websocket frame.
type WSMessage struct {
	Type    string          `json:"type"`
	MatchID string          `json:"match_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ViewRequest asks for a match as one player sees it.
type ViewRequest struct {
	PlayerID string `json:"player_id"`
}

// ReplayRequest asks for one recorded state. Without an index the whole
// replay is sent.
type ReplayRequest struct {
	Index *int `json:"index,omitempty"`
}

// MatchState is sent after every change to a match. The view is drawn for
// the active player, since one client drives both seats.
type MatchState struct {
	View    game.MatchView `json:"view"`
	Choices game.Choices   `json:"choices"`
}

// Client is one websocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	matchID string
}

// Hub routes client messages to the engine and pushes match updates back.
type Hub struct {
	engine     *game.Engine
	cfg        config.WebSocketConfig
	logger     *zap.Logger
	mu         sync.RWMutex
	clients    map[*Client]bool
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a hub and subscribes it to engine notifications.
func NewHub(engine *game.Engine, cfg config.WebSocketConfig, logger *zap.Logger) *Hub {
	h := &Hub{
		engine:     engine,
		cfg:        cfg,
		logger:     logger,
		clients:    make(map[*Client]bool),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	engine.SetNotificationHandler(h.handleNotification)
	return h
}

// Run drops disconnected clients until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			matchID := client.matchID
			orphaned := matchID != "" && !h.watchedLocked(matchID)
			h.mu.Unlock()
			if orphaned {
				h.releaseFinished(matchID)
			}

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// watchedLocked reports whether any client follows matchID. The caller
// must hold h.mu.
func (h *Hub) watchedLocked(matchID string) bool {
	for c := range h.clients {
		if c.matchID == matchID {
			return true
		}
	}
	return false
}

// releaseFinished drops a finished match nobody is connected to. Its
// result has already been stored.
func (h *Hub) releaseFinished(matchID string) {
	m, err := h.engine.GetMatch(matchID)
	if err != nil || !m.IsOver() {
		return
	}
	h.engine.RemoveMatch(matchID)
	if h.logger != nil {
		h.logger.Debug("finished match released", zap.String("match_id", matchID))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and starts the client pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	if h.logger != nil {
		h.logger.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()))
	}

	go client.writePump()
	go client.readPump()
}

// Handler returns the HTTP routes served by the hub.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// NewHTTPServer wraps the hub in an http.Server configured from cfg.
func NewHTTPServer(cfg config.WebSocketConfig, hub *Hub) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (h *Hub) handleMessage(client *Client, msg WSMessage) {
	switch msg.Type {
	case MsgCreateMatch:
		var req game.CreateMatchRequest
		if err := decodeData(msg.Data, &req); err != nil {
			client.sendError("", err)
			return
		}
		m, err := h.engine.CreateMatch(req)
		if err != nil {
			client.sendError("", err)
			return
		}
		h.mu.Lock()
		client.matchID = m.ID
		h.mu.Unlock()
		h.sendState(client, m)

	case MsgAction:
		var action game.PlayerAction
		if err := decodeData(msg.Data, &action); err != nil {
			client.sendError(msg.MatchID, err)
			return
		}
		matchID := h.resolveMatch(client, msg.MatchID)
		if _, err := h.engine.ProcessAction(matchID, action); err != nil {
			client.sendError(matchID, err)
			return
		}
		// Notifications push the new state to every client on the match.

	case MsgView:
		var req ViewRequest
		if err := decodeData(msg.Data, &req); err != nil {
			client.sendError(msg.MatchID, err)
			return
		}
		matchID := h.resolveMatch(client, msg.MatchID)
		view, err := h.engine.GetMatchView(matchID, req.PlayerID)
		if err != nil {
			client.sendError(matchID, err)
			return
		}
		client.sendJSON(MsgMatchState, matchID, MatchState{View: view})

	case MsgReplay:
		matchID := h.resolveMatch(client, msg.MatchID)
		replay, err := h.engine.GetReplay(matchID)
		if err != nil {
			client.sendError(matchID, err)
			return
		}
		var req ReplayRequest
		if len(msg.Data) > 0 {
			if err := decodeData(msg.Data, &req); err != nil {
				client.sendError(matchID, err)
				return
			}
		}
		if req.Index == nil {
			client.sendJSON(MsgReplay, matchID, replay.Snapshots())
			return
		}
		snap, ok := replay.StateAt(*req.Index)
		if !ok {
			client.sendError(matchID, fmt.Errorf("replay of %s has no state %d (size %d)", matchID, *req.Index, replay.Size()))
			return
		}
		client.sendJSON(MsgReplay, matchID, snap)

	default:
		client.sendError(msg.MatchID, fmt.Errorf("unknown message type %q", msg.Type))
	}
}

// resolveMatch uses the explicit match ID or falls back to the client's
// current match, and attaches the client to it.
func (h *Hub) resolveMatch(client *Client, matchID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if matchID == "" {
		return client.matchID
	}
	client.matchID = matchID
	return matchID
}

func (h *Hub) handleNotification(n game.GameNotification) {
	m, err := h.engine.GetMatch(n.MatchID)
	if err != nil {
		return
	}

	switch n.Type {
	case game.NotifyStateChanged:
		h.broadcastState(m)
	case game.NotifyMatchOver:
		h.broadcastState(m)
		res, _ := m.Result()
		h.broadcast(m.ID, MsgMatchOver, map[string]interface{}{
			"result":   res,
			"messages": m.Messages(),
		})
		if h.logger != nil {
			h.logger.Info("match over",
				zap.String("match_id", m.ID),
				zap.String("winner", res.WinnerID),
				zap.String("reason", string(res.Reason)),
			)
		}
	}
}

func (h *Hub) stateOf(m *game.Match) MatchState {
	return MatchState{
		View:    m.View(m.ActivePlayerID()),
		Choices: m.Choices(),
	}
}

func (h *Hub) sendState(client *Client, m *game.Match) {
	client.sendJSON(MsgMatchState, m.ID, h.stateOf(m))
}

func (h *Hub) broadcastState(m *game.Match) {
	h.broadcast(m.ID, MsgMatchState, h.stateOf(m))
}

func (h *Hub) broadcast(matchID, msgType string, data interface{}) {
	payload, err := encode(msgType, matchID, data)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		}
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.matchID != matchID {
			continue
		}
		select {
		case client.send <- payload:
		default:
			if h.logger != nil {
				h.logger.Warn("client send buffer full, dropping message", zap.String("match_id", matchID))
			}
		}
	}
}

func decodeData(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return errors.New("message data is required")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode message data: %w", err)
	}
	return nil
}

func encode(msgType, matchID string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: msgType, MatchID: matchID, Data: raw})
}

func (c *Client) sendJSON(msgType, matchID string, data interface{}) {
	payload, err := encode(msgType, matchID, data)
	if err != nil {
		if c.hub.logger != nil {
			c.hub.logger.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		}
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) sendError(matchID string, err error) {
	c.sendJSON(MsgError, matchID, map[string]string{"error": err.Error()})
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	if c.hub.cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && c.hub.logger != nil {
				c.hub.logger.Debug("websocket read error", zap.Error(err))
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("", fmt.Errorf("malformed message: %w", err))
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	writeWait := c.hub.cfg.WriteTimeout
	if writeWait <= 0 {
		writeWait = 10 * time.Second
	}
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
