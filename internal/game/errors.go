package game

import (
	"errors"
	"fmt"
)

var (
	// ErrEntityNotFound reports a reference to an entity id the battle never
	// created.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrUnknownProperty reports a property name outside the recognised set.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrUnknownTeam reports a team id other than 0 or 1 where a mana pool is
	// needed.
	ErrUnknownTeam = errors.New("unknown team")
	// ErrBattleStalled is returned by Run when the cursor sits on an aborted
	// task and no step executes for the configured number of calls.
	ErrBattleStalled = errors.New("battle stalled")
	// ErrBattleAborted wraps the programming error that stopped a battle.
	ErrBattleAborted = errors.New("battle aborted")
	// ErrStepLimit is returned by Run when the step budget ran out first.
	ErrStepLimit = errors.New("step limit reached")
)

// ProgrammingError is raised, as a panic, for content or configuration bugs
// such as looking up an entity that does not exist. Battle.Advance recovers it
// and aborts the battle; every other panic propagates.
type ProgrammingError struct {
	Op  string
	Err error
}

func (e *ProgrammingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProgrammingError) Unwrap() error {
	return e.Err
}

// fail panics with a ProgrammingError. format should wrap one of the
// sentinels with %w.
func fail(op, format string, args ...any) {
	panic(&ProgrammingError{Op: op, Err: fmt.Errorf(format, args...)})
}

// RosterError describes a roster entry that NewBattle skipped. When Partial
// is set only a piece of the entry was dropped and its hero still joined
// the battle.
type RosterError struct {
	Index   int
	Entry   RosterEntry
	Reason  string
	Partial bool
}

func (e RosterError) Error() string {
	if e.Partial {
		return fmt.Sprintf("roster entry %d (no=%d, team=%d) joined without %s", e.Index, e.Entry.No, e.Entry.TeamID, e.Reason)
	}
	return fmt.Sprintf("roster entry %d (no=%d, team=%d): %s", e.Index, e.Entry.No, e.Entry.TeamID, e.Reason)
}
