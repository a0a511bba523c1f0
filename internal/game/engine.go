package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/magefree/hearth-server-go/internal/game/catalog"
	"github.com/magefree/hearth-server-go/internal/game/rules"
	"github.com/magefree/hearth-server-go/internal/repository"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// saveTimeout bounds how long a finished match waits on the result store.
const saveTimeout = 5 * time.Second

// Notification types.
const (
	NotifyMatchCreated = "MATCH_CREATED"
	NotifyStateChanged = "STATE_CHANGED"
	NotifyMatchOver    = "MATCH_OVER"
)

// GameNotification is pushed to UI clients when a match changes.
type GameNotification struct {
	Type      string
	MatchID   string
	PlayerID  string
	Timestamp time.Time
	Data      map[string]interface{}
}

// NotificationHandler receives match notifications.
type NotificationHandler func(notification GameNotification)

// SeatRequest describes one player of a new match. DeckName selects a
// fixed deck list; empty means a random deck.
type SeatRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	DeckName string `json:"deck,omitempty"`
}

// CreateMatchRequest asks the engine for a new match.
type CreateMatchRequest struct {
	Players [2]SeatRequest `json:"players"`
	// Seed makes deck building and the coin toss reproducible. Zero uses
	// the engine's seed, which defaults to a time-based one.
	Seed          uint64 `json:"seed,omitempty"`
	FirstPlayerID string `json:"first_player_id,omitempty"`
}

// Engine owns every running match.
type Engine struct {
	logger *zap.Logger

	mu                  sync.RWMutex
	matches             map[string]*Match
	catalog             *catalog.Catalog
	deckLists           map[string]catalog.DeckList
	cfg                 MatchConfig
	seed                uint64
	store               repository.Store
	recorded            map[string]bool
	replays             *ReplayRecorder
	notificationHandler NotificationHandler
}

// NewEngine creates an engine dealing from cat with the given rules.
// A nil catalog uses the built-in one.
func NewEngine(cat *catalog.Catalog, cfg MatchConfig, logger *zap.Logger) (*Engine, error) {
	if cat == nil {
		var err error
		if cat, err = catalog.Default(); err != nil {
			return nil, err
		}
	}
	if cfg.StartingHP <= 0 {
		cfg = DefaultMatchConfig()
	}
	return &Engine{
		logger:    logger,
		matches:   make(map[string]*Match),
		catalog:   cat,
		deckLists: make(map[string]catalog.DeckList),
		cfg:       cfg,
		recorded:  make(map[string]bool),
		replays:   NewReplayRecorder(logger),
	}, nil
}

// SetSeed fixes the seed used by matches created without their own.
func (e *Engine) SetSeed(seed uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seed = seed
}

// SetDeckLists makes fixed decks available by name.
func (e *Engine) SetDeckLists(lists []catalog.DeckList) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range lists {
		e.deckLists[l.Name] = l
	}
}

// SetResultStore sets where finished matches are recorded.
func (e *Engine) SetResultStore(store repository.Store) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = store
}

// SetNotificationHandler sets the handler for match notifications.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notificationHandler = handler
}

// emitNotification hands notification to the handler on its own goroutine
// so the handler may call back into the engine.
func (e *Engine) emitNotification(notification GameNotification) {
	e.mu.RLock()
	handler := e.notificationHandler
	e.mu.RUnlock()

	if handler != nil {
		go handler(notification)
	}
}

func (e *Engine) notify(kind string, m *Match, playerID string, data map[string]interface{}) {
	e.emitNotification(GameNotification{
		Type:      kind,
		MatchID:   m.ID,
		PlayerID:  playerID,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// CreateMatch builds decks, seats both players and starts the match.
func (e *Engine) CreateMatch(req CreateMatchRequest) (*Match, error) {
	e.mu.RLock()
	seed := req.Seed
	if seed == 0 {
		seed = e.seed
	}
	cfg := e.cfg
	e.mu.RUnlock()

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	} else {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>1))
	}

	opts := MatchOptions{
		ID:            ulid.Make().String(),
		Config:        cfg,
		RNG:           rng,
		FirstPlayerID: req.FirstPlayerID,
	}
	for i, seat := range req.Players {
		deck, err := e.buildDeck(seat.DeckName, rng, cfg.DeckSize)
		if err != nil {
			return nil, err
		}
		opts.Players[i] = PlayerSetup{ID: seat.ID, Name: seat.Name, Deck: deck}
	}

	m, err := NewMatch(opts, e.logger)
	if err != nil {
		return nil, err
	}
	m.Subscribe(func(evt rules.Event) {
		if evt.Type == rules.EventPhaseChanged {
			e.notify(NotifyStateChanged, m, evt.PlayerID, map[string]interface{}{"phase": evt.Data})
		}
	})
	if err := m.Start(); err != nil {
		return nil, err
	}
	e.replays.StartRecording(m.ID)
	e.replays.Record(m, nil)

	e.mu.Lock()
	e.matches[m.ID] = m
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.Info("match created",
			zap.String("match_id", m.ID),
			zap.String("player1", req.Players[0].ID),
			zap.String("player2", req.Players[1].ID),
			zap.Uint64("seed", seed),
		)
	}
	e.notify(NotifyMatchCreated, m, "", nil)
	// Both players may already be out, e.g. with empty fixed decks.
	e.recordIfOver(m)
	return m, nil
}

func (e *Engine) buildDeck(name string, rng *rand.Rand, size int) ([]catalog.Template, error) {
	if name == "" {
		return e.catalog.RandomDeck(rng, size), nil
	}
	e.mu.RLock()
	list, ok := e.deckLists[name]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("deck list %q not found", name)
	}
	deck := make([]catalog.Template, len(list.Templates))
	copy(deck, list.Templates)
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck, nil
}

// GetMatch returns a running or finished match.
func (e *Engine) GetMatch(matchID string) (*Match, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrMatchNotFound)
	}
	return m, nil
}

// GetMatchView returns the match as seen by playerID.
func (e *Engine) GetMatchView(matchID, playerID string) (MatchView, error) {
	m, err := e.GetMatch(matchID)
	if err != nil {
		return MatchView{}, err
	}
	return m.View(playerID), nil
}

// ListMatches returns the IDs of all matches, oldest first.
func (e *Engine) ListMatches() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.matches))
	for id := range e.matches {
		ids = append(ids, id)
	}
	// ULIDs sort by creation time.
	sort.Strings(ids)
	return ids
}

// RemoveMatch forgets a match.
func (e *Engine) RemoveMatch(matchID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.matches, matchID)
	delete(e.recorded, matchID)
	e.replays.ClearReplay(matchID)
}

// GetReplay returns the recorded snapshots of a match.
func (e *Engine) GetReplay(matchID string) (*Replay, error) {
	replay, ok := e.replays.GetReplay(matchID)
	if !ok {
		return nil, fmt.Errorf("replay %s: %w", matchID, ErrMatchNotFound)
	}
	return replay, nil
}

// ProcessAction routes a player command to the match.
func (e *Engine) ProcessAction(matchID string, action PlayerAction) (ActionResult, error) {
	m, err := e.GetMatch(matchID)
	if err != nil {
		return ActionResult{}, err
	}

	round, phase := m.Round(), m.Phase()
	var res ActionResult
	switch action.Type {
	case ActionPlayCard:
		out, playErr := m.PlayCard(action.PlayerID, action.CardID, action.Target)
		if playErr == nil {
			res.Effect = &out
		}
		err = playErr
	case ActionDeclareAttack:
		err = m.DeclareAttack(action.PlayerID, action.CardID)
	case ActionBlock, ActionTakeHit:
		blocker := action.BlockerID
		if action.Type == ActionTakeHit {
			blocker = ""
		}
		out, blockErr := m.ResolveBlock(action.PlayerID, blocker)
		if blockErr == nil {
			res.Attack = &out
		}
		err = blockErr
	case ActionEndTurn:
		res.TurnEnded, err = m.EndTurn(action.PlayerID)
	case ActionForfeit:
		err = m.Forfeit(action.PlayerID)
	default:
		err = fmt.Errorf("%s: %w", action.Type, ErrUnknownAction)
	}

	if err != nil {
		if e.logger != nil {
			fields := []zap.Field{
				zap.String("match_id", matchID),
				zap.String("player_id", action.PlayerID),
				zap.String("action", string(action.Type)),
				zap.Error(err),
			}
			if IsFatal(err) {
				e.logger.Error("action failed", fields...)
			} else {
				e.logger.Debug("action rejected", fields...)
			}
		}
		// A rejected action still counts toward the action limit, which
		// can end the turn and with it the match.
		if m.Round() != round || m.Phase() != phase {
			e.replays.Record(m, &action)
			e.notify(NotifyStateChanged, m, action.PlayerID, map[string]interface{}{"action": string(action.Type)})
		}
		res.MatchOver = e.recordIfOver(m)
		return res, err
	}

	e.replays.Record(m, &action)
	e.notify(NotifyStateChanged, m, action.PlayerID, map[string]interface{}{"action": string(action.Type)})
	res.MatchOver = e.recordIfOver(m)
	return res, nil
}

// recordIfOver stores and announces a finished match once.
func (e *Engine) recordIfOver(m *Match) bool {
	result, over := m.Result()
	if !over {
		return false
	}

	e.mu.Lock()
	done := e.recorded[m.ID]
	e.recorded[m.ID] = true
	store := e.store
	e.mu.Unlock()
	if done {
		return true
	}
	e.replays.StopRecording(m.ID)

	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := store.SaveResult(ctx, m.Record()); err != nil && e.logger != nil {
			e.logger.Error("failed to save match result",
				zap.String("match_id", m.ID),
				zap.Error(err),
			)
		}
	}

	e.notify(NotifyMatchOver, m, result.WinnerID, map[string]interface{}{
		"winner": result.WinnerID,
		"loser":  result.LoserID,
		"reason": string(result.Reason),
		"round":  result.Round,
	})
	return true
}

// Record converts a finished match into a stored result.
func (m *Match) Record() repository.MatchRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p1, p2 := m.players[m.order[0]], m.players[m.order[1]]
	rec := repository.MatchRecord{
		ID:            m.ID,
		Players:       [2]string{p1.Name, p2.Name},
		Rounds:        m.turn.TurnNumber(),
		SpellsCast:    m.spellsCast.GetCount(p1.ID) + m.spellsCast.GetCount(p2.ID),
		CreaturesDied: m.creaturesDied.GetTotalAmount(),
		DamageDealt:   m.damage.GetTaken(p1.ID) + m.damage.GetTaken(p2.ID),
		StartedAt:     m.startedAt,
		EndedAt:       m.endedAt,
	}
	if m.result != nil {
		rec.Reason = string(m.result.Reason)
		rec.Rounds = m.result.Round
		if w, ok := m.players[m.result.WinnerID]; ok {
			rec.Winner = w.Name
		}
	}
	return rec
}
