package rules

import (
	"sort"
)

// Trigger is one handler registration discovered while scanning the roster,
// tagged with everything the dispatcher needs to filter and order it.
type Trigger[H any] struct {
	OwnerID   int
	OwnerTeam int
	SkillNo   int
	Range     EventRange
	Priority  int
	Passive   bool
	Equipment bool
	Handler   H
}

// Subject is the entity an event is about. A zero ID means the event has no
// subject; every handler reacts to those regardless of range.
type Subject struct {
	ID   int
	Team int
}

// InRange reports whether a handler owned by (ownerID, ownerTeam) reacts to
// an event about subject under the given range.
func InRange(r EventRange, ownerID, ownerTeam int, subject Subject) bool {
	if subject.ID == 0 {
		return true
	}
	switch r {
	case RangeNone:
		return true
	case RangeSelf:
		return ownerID != subject.ID
	case RangeTeam:
		return ownerTeam == subject.Team
	case RangeEnemy:
		return subject.Team >= 0 && ownerTeam == 1-subject.Team
	default:
		return false
	}
}

// MatchTriggers keeps the triggers in range of subject and orders them by
// ascending priority. Triggers of equal priority keep discovery order.
func MatchTriggers[H any](triggers []Trigger[H], subject Subject) []Trigger[H] {
	matched := make([]Trigger[H], 0, len(triggers))
	for _, tr := range triggers {
		if InRange(tr.Range, tr.OwnerID, tr.OwnerTeam, subject) {
			matched = append(matched, tr)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority < matched[j].Priority
	})
	return matched
}
