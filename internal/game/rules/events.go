package rules

import (
	"sort"
	"sync"
)

// EventCode identifies a combat event that handlers can react to.
type EventCode int

const (
	EventNone EventCode = iota
	EventGameStart
	EventSenki
	EventTurnStart
	EventActionStart
	EventActionEnd
	EventTurnEnd
	EventDamage
	EventAttack
	EventTakenSelect
	EventTakenDamage
	EventTakenAttack
	EventBuffGet
	EventBuffRemove
	EventBeforeBuffGet
	EventBeforeBuffRemove
	EventKill
	EventNoKill
	EventDead
	EventBuffResist
	EventManaOverflow
	EventManaChange
	EventSkill
	EventUpdateHp
	EventBeforeAttack
	EventCritical
	EventWillDamage
)

var eventNames = map[EventCode]string{
	EventNone:             "NONE",
	EventGameStart:        "GAME_START",
	EventSenki:            "SENKI",
	EventTurnStart:        "TURN_START",
	EventActionStart:      "ACTION_START",
	EventActionEnd:        "ACTION_END",
	EventTurnEnd:          "TURN_END",
	EventDamage:           "DAMAGE",
	EventAttack:           "ATTACK",
	EventTakenSelect:      "TAKEN_SELECT",
	EventTakenDamage:      "TAKEN_DAMAGE",
	EventTakenAttack:      "TAKEN_ATTACK",
	EventBuffGet:          "BUFF_GET",
	EventBuffRemove:       "BUFF_REMOVE",
	EventBeforeBuffGet:    "BEFORE_BUFF_GET",
	EventBeforeBuffRemove: "BEFORE_BUFF_REMOVE",
	EventKill:             "KILL",
	EventNoKill:           "NO_KILL",
	EventDead:             "DEAD",
	EventBuffResist:       "BUFF_RES",
	EventManaOverflow:     "MANA_OVERFLOW",
	EventManaChange:       "MANA_CHANGE",
	EventSkill:            "SKILL",
	EventUpdateHp:         "UPDATE_HP",
	EventBeforeAttack:     "BEFORE_ATTACK",
	EventCritical:         "CRI",
	EventWillDamage:       "WILL_DAMAGE",
}

// String returns the wire name of the event code.
func (c EventCode) String() string {
	if name, ok := eventNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// EventRange restricts which handlers react to an event relative to its
// subject.
type EventRange int

const (
	// RangeNone applies no filter.
	RangeNone EventRange = iota
	// RangeSelf excludes handlers owned by the subject.
	RangeSelf
	// RangeTeam keeps handlers whose owner is on the subject's team.
	RangeTeam
	// RangeEnemy keeps handlers whose owner is on the opposing team.
	RangeEnemy
)

// String returns the name of the range.
func (r EventRange) String() string {
	switch r {
	case RangeNone:
		return "NONE"
	case RangeSelf:
		return "SELF"
	case RangeTeam:
		return "TEAM"
	case RangeEnemy:
		return "ENEMY"
	default:
		return "UNKNOWN"
	}
}

// Event is the observer view of one dispatch. It is published after the
// handlers were matched and before any of them ran.
type Event struct {
	Seq       uint64
	Code      EventCode
	SubjectID int
	Matched   int
	Payload   map[string]any
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type subscription struct {
	handle   int
	code     EventCode
	typed    bool
	callback Listener
}

// EventBus provides a synchronous publish/subscribe implementation with code
// filtering. Listeners are invoked in subscription order.
type EventBus struct {
	mu         sync.RWMutex
	subs       []subscription
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	return bus.add(subscription{callback: listener})
}

// SubscribeTyped registers a listener for a single event code.
func (bus *EventBus) SubscribeTyped(code EventCode, listener Listener) int {
	return bus.add(subscription{code: code, typed: true, callback: listener})
}

func (bus *EventBus) add(sub subscription) int {
	if sub.callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	sub.handle = bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, sub)
	return sub.handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	i := sort.Search(len(bus.subs), func(i int) bool { return bus.subs[i].handle >= handle })
	if i < len(bus.subs) && bus.subs[i].handle == handle {
		bus.subs = append(bus.subs[:i], bus.subs[i+1:]...)
	}
}

// Publish delivers the event to all matching listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	subs := make([]subscription, len(bus.subs))
	copy(subs, bus.subs)
	bus.mu.RUnlock()

	for _, sub := range subs {
		if sub.typed && sub.code != event.Code {
			continue
		}
		sub.callback(event)
	}
}

// Len returns the number of active subscriptions.
func (bus *EventBus) Len() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs)
}
