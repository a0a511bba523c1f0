package rules

import "sync"

// Watcher observes match events and accumulates statistics.
type Watcher interface {
	// Watch is called for every event published on the match bus.
	Watch(event Event)

	// GetKey returns a unique key for this watcher instance.
	GetKey() string
}

// BaseWatcher provides the key bookkeeping shared by all watchers.
type BaseWatcher struct {
	key string
}

// NewBaseWatcher creates a base watcher registered under key.
func NewBaseWatcher(key string) *BaseWatcher {
	return &BaseWatcher{key: key}
}

// GetKey returns the unique key for this watcher.
func (bw *BaseWatcher) GetKey() string {
	return bw.key
}

// WatcherRegistry manages the watchers attached to one match.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
	order    []string
}

// NewWatcherRegistry creates a new watcher registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{
		watchers: make(map[string]Watcher),
	}
}

// AddWatcher adds a watcher to the registry, replacing any watcher with the
// same key.
func (wr *WatcherRegistry) AddWatcher(watcher Watcher) {
	if watcher == nil {
		return
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	key := watcher.GetKey()
	if _, exists := wr.watchers[key]; !exists {
		wr.order = append(wr.order, key)
	}
	wr.watchers[key] = watcher
}

// NotifyWatchers forwards an event to every watcher in registration order;
// watchers filter internally.
func (wr *WatcherRegistry) NotifyWatchers(event Event) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, key := range wr.order {
		wr.watchers[key].Watch(event)
	}
}

// Attach subscribes the registry to a bus.
func (wr *WatcherRegistry) Attach(bus *EventBus) {
	bus.Subscribe(wr.NotifyWatchers)
}
