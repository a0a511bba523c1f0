package game

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Snapshot is the full board after one step of a match, with every hand
// revealed. Action is nil for the opening state.
type Snapshot struct {
	Index     int           `json:"index"`
	Action    *PlayerAction `json:"action,omitempty"`
	View      MatchView     `json:"view"`
	Checksum  string        `json:"checksum"`
	Timestamp time.Time     `json:"timestamp"`
}

// Replay is the ordered list of snapshots taken during a match.
type Replay struct {
	MatchID string
	mu      sync.RWMutex
	states  []Snapshot
}

// NewReplay creates an empty replay for matchID.
func NewReplay(matchID string) *Replay {
	return &Replay{MatchID: matchID}
}

// RecordState appends a snapshot.
func (r *Replay) RecordState(snapshot Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot.Index = len(r.states)
	r.states = append(r.states, snapshot)
}

// Size returns the number of recorded snapshots.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.states)
}

// StateAt returns the snapshot at index.
func (r *Replay) StateAt(index int) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.states) {
		return r.states[index], true
	}
	return Snapshot{}, false
}

// Snapshots returns a copy of every recorded snapshot.
func (r *Replay) Snapshots() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, len(r.states))
	copy(out, r.states)
	return out
}

// ReplayRecorder keeps a replay per match while recording is enabled.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay // matchID -> Replay
	enabled map[string]bool
}

// NewReplayRecorder creates a recorder with nothing recording.
func NewReplayRecorder(logger *zap.Logger) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
	}
}

// StartRecording begins a fresh replay for matchID.
func (rr *ReplayRecorder) StartRecording(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replays[matchID] = NewReplay(matchID)
	rr.enabled[matchID] = true

	if rr.logger != nil {
		rr.logger.Debug("started replay recording", zap.String("match_id", matchID))
	}
}

// StopRecording keeps the replay but records nothing further.
func (rr *ReplayRecorder) StopRecording(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[matchID] = false
}

// Record snapshots m after action. It does nothing unless m is recording.
func (rr *ReplayRecorder) Record(m *Match, action *PlayerAction) {
	rr.mu.RLock()
	enabled := rr.enabled[m.ID]
	replay := rr.replays[m.ID]
	rr.mu.RUnlock()

	if !enabled || replay == nil {
		return
	}

	snap := m.Snapshot()
	if action != nil {
		a := *action
		snap.Action = &a
	}
	replay.RecordState(snap)

	if rr.logger != nil {
		rr.logger.Debug("recorded replay state",
			zap.String("match_id", m.ID),
			zap.Int("state_count", replay.Size()),
		)
	}
}

// GetReplay returns the replay for matchID.
func (rr *ReplayRecorder) GetReplay(matchID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[matchID]
	return replay, exists
}

// ClearReplay drops the replay for matchID.
func (rr *ReplayRecorder) ClearReplay(matchID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, matchID)
	delete(rr.enabled, matchID)
}
