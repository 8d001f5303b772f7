package rules

import (
	"fmt"
	"strings"
	"sync"
)

// WatcherScope defines the scope of a watcher's tracking.
type WatcherScope int

const (
	// WatcherScopeBattle tracks events for the entire battle.
	WatcherScopeBattle WatcherScope = iota
	// WatcherScopeTeam tracks events whose subject belongs to one team.
	WatcherScopeTeam
	// WatcherScopeEntity tracks events about a single entity.
	WatcherScopeEntity
)

// String returns the string representation of the watcher scope.
func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeBattle:
		return "BATTLE"
	case WatcherScopeTeam:
		return "TEAM"
	case WatcherScopeEntity:
		return "ENTITY"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes dispatched events and tracks a condition. Watchers never
// influence gameplay; they exist for statistics and diagnostics.
type Watcher interface {
	Watch(event Event)
	Reset()
	ConditionMet() bool
	GetScope() WatcherScope
	// GetKey returns a unique key for this watcher instance.
	GetKey() string
	Copy() Watcher
}

// BaseWatcher provides a base implementation for watchers.
type BaseWatcher struct {
	scope     WatcherScope
	teamID    int
	entityID  int
	condition bool
	key       string
}

// NewBaseWatcher creates a new base watcher with the specified scope.
func NewBaseWatcher(scope WatcherScope) *BaseWatcher {
	return &BaseWatcher{scope: scope}
}

// GetScope returns the watcher's scope.
func (bw *BaseWatcher) GetScope() WatcherScope {
	return bw.scope
}

// SetTeamID sets the team tracked by a TEAM scope watcher.
func (bw *BaseWatcher) SetTeamID(id int) {
	bw.teamID = id
}

// GetTeamID returns the tracked team.
func (bw *BaseWatcher) GetTeamID() int {
	return bw.teamID
}

// SetEntityID sets the entity tracked by an ENTITY scope watcher.
func (bw *BaseWatcher) SetEntityID(id int) {
	bw.entityID = id
}

// GetEntityID returns the tracked entity.
func (bw *BaseWatcher) GetEntityID() int {
	return bw.entityID
}

// ConditionMet returns whether the condition has been met.
func (bw *BaseWatcher) ConditionMet() bool {
	return bw.condition
}

// SetCondition sets the condition flag.
func (bw *BaseWatcher) SetCondition(condition bool) {
	bw.condition = condition
}

// Reset clears the condition.
func (bw *BaseWatcher) Reset() {
	bw.condition = false
}

// GetKey returns the unique key for this watcher.
func (bw *BaseWatcher) GetKey() string {
	return bw.key
}

// SetKey sets the unique key for this watcher.
func (bw *BaseWatcher) SetKey(key string) {
	bw.key = key
}

// WatcherRegistry manages the watchers of one battle. Watchers are notified
// in registration order.
type WatcherRegistry struct {
	mu       sync.RWMutex
	order    []string
	watchers map[string]Watcher
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
	if key == "" {
		key = generateKey(watcher)
		if setter, ok := watcher.(interface{ SetKey(string) }); ok {
			setter.SetKey(key)
		}
	}

	if _, exists := wr.watchers[key]; !exists {
		wr.order = append(wr.order, key)
	}
	wr.watchers[key] = watcher
}

// RemoveWatcher removes a watcher from the registry.
func (wr *WatcherRegistry) RemoveWatcher(key string) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if _, ok := wr.watchers[key]; !ok {
		return
	}
	delete(wr.watchers, key)
	for i, k := range wr.order {
		if k == key {
			wr.order = append(wr.order[:i], wr.order[i+1:]...)
			break
		}
	}
}

// GetWatcher retrieves a watcher by key.
func (wr *WatcherRegistry) GetWatcher(key string) Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.watchers[key]
}

// GetWatchersByScope returns all watchers for a given scope.
func (wr *WatcherRegistry) GetWatchersByScope(scope WatcherScope) []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	var result []Watcher
	for _, key := range wr.order {
		if w := wr.watchers[key]; w.GetScope() == scope {
			result = append(result, w)
		}
	}
	return result
}

// GetAllWatchers returns all registered watchers in registration order.
func (wr *WatcherRegistry) GetAllWatchers() []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	result := make([]Watcher, 0, len(wr.order))
	for _, key := range wr.order {
		result = append(result, wr.watchers[key])
	}
	return result
}

// ResetWatchers resets all watchers.
func (wr *WatcherRegistry) ResetWatchers() {
	for _, w := range wr.GetAllWatchers() {
		w.Reset()
	}
}

// ResetWatchersByScope resets all watchers for a given scope.
func (wr *WatcherRegistry) ResetWatchersByScope(scope WatcherScope) {
	for _, w := range wr.GetWatchersByScope(scope) {
		w.Reset()
	}
}

// NotifyWatchers notifies all watchers of an event. Watchers filter
// internally.
func (wr *WatcherRegistry) NotifyWatchers(event Event) {
	for _, w := range wr.GetAllWatchers() {
		w.Watch(event)
	}
}

// Attach subscribes the registry to every event published on bus and
// returns the subscription handle.
func (wr *WatcherRegistry) Attach(bus *EventBus) int {
	return bus.Subscribe(wr.NotifyWatchers)
}

// generateKey builds a key from the watcher's concrete type and scope target.
func generateKey(watcher Watcher) string {
	typeName := fmt.Sprintf("%T", watcher)
	if i := strings.LastIndex(typeName, "."); i >= 0 {
		typeName = typeName[i+1:]
	}

	switch watcher.GetScope() {
	case WatcherScopeTeam:
		if getter, ok := watcher.(interface{ GetTeamID() int }); ok {
			return fmt.Sprintf("team%d_%s", getter.GetTeamID(), typeName)
		}
	case WatcherScopeEntity:
		if getter, ok := watcher.(interface{ GetEntityID() int }); ok {
			return fmt.Sprintf("entity%d_%s", getter.GetEntityID(), typeName)
		}
	}
	return typeName
}
