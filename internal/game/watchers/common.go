package watchers

import (
	"github.com/shikigami/battle-server-go/internal/game/rules"
)

// EventCountWatcher counts dispatches per event code.
type EventCountWatcher struct {
	*rules.BaseWatcher
	counts  map[rules.EventCode]int
	matched map[rules.EventCode]int
}

// NewEventCountWatcher creates a new event count watcher.
func NewEventCountWatcher() *EventCountWatcher {
	w := &EventCountWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeBattle),
		counts:      make(map[rules.EventCode]int),
		matched:     make(map[rules.EventCode]int),
	}
	w.SetKey("EventCountWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *EventCountWatcher) Watch(event rules.Event) {
	w.counts[event.Code]++
	w.matched[event.Code] += event.Matched
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *EventCountWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.counts = make(map[rules.EventCode]int)
	w.matched = make(map[rules.EventCode]int)
}

// GetCount returns how many times code was dispatched.
func (w *EventCountWatcher) GetCount(code rules.EventCode) int {
	return w.counts[code]
}

// GetMatched returns how many handlers matched code across all dispatches.
func (w *EventCountWatcher) GetMatched(code rules.EventCode) int {
	return w.matched[code]
}

// Copy creates a copy of this watcher.
func (w *EventCountWatcher) Copy() rules.Watcher {
	c := NewEventCountWatcher()
	c.SetCondition(w.ConditionMet())
	for k, v := range w.counts {
		c.counts[k] = v
	}
	for k, v := range w.matched {
		c.matched[k] = v
	}
	return c
}

// DeathWatcher records entities in the order they died.
type DeathWatcher struct {
	*rules.BaseWatcher
	dead []int
}

// NewDeathWatcher creates a new death watcher.
func NewDeathWatcher() *DeathWatcher {
	w := &DeathWatcher{BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeBattle)}
	w.SetKey("DeathWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *DeathWatcher) Watch(event rules.Event) {
	if event.Code != rules.EventDead || event.SubjectID == 0 {
		return
	}
	w.dead = append(w.dead, event.SubjectID)
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *DeathWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.dead = nil
}

// GetDead returns the dead entity ids in order of death.
func (w *DeathWatcher) GetDead() []int {
	return append([]int(nil), w.dead...)
}

// GetTotalAmount returns the number of deaths.
func (w *DeathWatcher) GetTotalAmount() int {
	return len(w.dead)
}

// Copy creates a copy of this watcher.
func (w *DeathWatcher) Copy() rules.Watcher {
	c := NewDeathWatcher()
	c.SetCondition(w.ConditionMet())
	c.dead = append([]int(nil), w.dead...)
	return c
}

// ResistWatcher counts resisted buffs per resisting entity. With entity
// scope it only counts resists by its entity.
type ResistWatcher struct {
	*rules.BaseWatcher
	resists map[int]int
}

// NewResistWatcher creates a battle-wide resist watcher.
func NewResistWatcher() *ResistWatcher {
	w := &ResistWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeBattle),
		resists:     make(map[int]int),
	}
	w.SetKey("ResistWatcher")
	return w
}

// NewEntityResistWatcher creates a resist watcher for a single entity. Its
// key is generated by the registry.
func NewEntityResistWatcher(entityID int) *ResistWatcher {
	w := &ResistWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeEntity),
		resists:     make(map[int]int),
	}
	w.SetEntityID(entityID)
	return w
}

// Watch implements the Watcher interface.
func (w *ResistWatcher) Watch(event rules.Event) {
	if event.Code != rules.EventBuffResist {
		return
	}
	if w.GetScope() == rules.WatcherScopeEntity && event.SubjectID != w.GetEntityID() {
		return
	}
	w.resists[event.SubjectID]++
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *ResistWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.resists = make(map[int]int)
}

// GetCount returns how many buffs entityID resisted.
func (w *ResistWatcher) GetCount(entityID int) int {
	return w.resists[entityID]
}

// GetTotalAmount returns the total number of resists.
func (w *ResistWatcher) GetTotalAmount() int {
	total := 0
	for _, count := range w.resists {
		total += count
	}
	return total
}

// Copy creates a copy of this watcher.
func (w *ResistWatcher) Copy() rules.Watcher {
	c := &ResistWatcher{
		BaseWatcher: rules.NewBaseWatcher(w.GetScope()),
		resists:     make(map[int]int, len(w.resists)),
	}
	c.SetKey(w.GetKey())
	c.SetEntityID(w.GetEntityID())
	c.SetCondition(w.ConditionMet())
	for k, v := range w.resists {
		c.resists[k] = v
	}
	return c
}

// DamageWatcher sums the damage each entity dealt.
type DamageWatcher struct {
	*rules.BaseWatcher
	dealt map[int]float64
}

// NewDamageWatcher creates a new damage watcher.
func NewDamageWatcher() *DamageWatcher {
	w := &DamageWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeBattle),
		dealt:       make(map[int]float64),
	}
	w.SetKey("DamageWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *DamageWatcher) Watch(event rules.Event) {
	if event.Code != rules.EventDamage {
		return
	}
	amount, ok := event.Payload[rules.KeyDamage].(float64)
	if !ok {
		return
	}
	w.dealt[event.SubjectID] += amount
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *DamageWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.dealt = make(map[int]float64)
}

// GetDealt returns the total damage entityID dealt.
func (w *DamageWatcher) GetDealt(entityID int) float64 {
	return w.dealt[entityID]
}

// Copy creates a copy of this watcher.
func (w *DamageWatcher) Copy() rules.Watcher {
	c := NewDamageWatcher()
	c.SetCondition(w.ConditionMet())
	for k, v := range w.dealt {
		c.dealt[k] = v
	}
	return c
}
