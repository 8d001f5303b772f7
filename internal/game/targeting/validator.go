package targeting

import (
	"errors"
	"fmt"
)

var (
	// ErrTargetNotFound reports an id that names no entity.
	ErrTargetNotFound = errors.New("target not found")
	// ErrTargetDead reports a dead target for a requirement that needs a
	// living one.
	ErrTargetDead = errors.New("target is dead")
	// ErrTargetIllegal reports a target on the wrong side.
	ErrTargetIllegal = errors.New("target not allowed")
)

// TargetValidator validates that selected targets are legal.
type TargetValidator struct {
	state TargetStateAccessor
}

// TargetStateAccessor provides the battle state needed for target
// validation.
type TargetStateAccessor interface {
	FindEntityForTarget(id int) (TargetEntityInfo, bool)
	// IsConfused reports whether id currently picks targets at random
	// across both teams.
	IsConfused(id int) bool
}

// TargetEntityInfo provides information about an entity for target
// validation.
type TargetEntityInfo struct {
	ID     int
	Name   string
	TeamID int
	Dead   bool
}

// NewTargetValidator creates a new target validator.
func NewTargetValidator(state TargetStateAccessor) *TargetValidator {
	return &TargetValidator{state: state}
}

// ValidateTarget checks if targetID is a legal choice for sourceID under
// requirement. Failures wrap one of the package errors.
func (tv *TargetValidator) ValidateTarget(sourceID, targetID int, requirement TargetRequirement) error {
	if tv == nil || tv.state == nil {
		return fmt.Errorf("target validator not initialized")
	}

	source, ok := tv.state.FindEntityForTarget(sourceID)
	if !ok {
		return fmt.Errorf("source %d: %w", sourceID, ErrTargetNotFound)
	}
	target, ok := tv.state.FindEntityForTarget(targetID)
	if !ok {
		return fmt.Errorf("target %d: %w", targetID, ErrTargetNotFound)
	}
	if target.Dead && !requirement.AllowDead {
		return fmt.Errorf("target %s(%d): %w", target.Name, target.ID, ErrTargetDead)
	}

	switch requirement.Kind {
	case TargetKindSelf:
		if target.ID != source.ID {
			return fmt.Errorf("target %s(%d) is not the user: %w", target.Name, target.ID, ErrTargetIllegal)
		}
	case TargetKindAlly:
		if target.TeamID != source.TeamID {
			return fmt.Errorf("target %s(%d) is not an ally: %w", target.Name, target.ID, ErrTargetIllegal)
		}
	case TargetKindEnemy:
		if target.ID == source.ID || target.TeamID < 0 || target.TeamID > 1 {
			return fmt.Errorf("target %s(%d) is not an enemy: %w", target.Name, target.ID, ErrTargetIllegal)
		}
		if target.TeamID == source.TeamID && !tv.state.IsConfused(source.ID) {
			return fmt.Errorf("target %s(%d) is an ally: %w", target.Name, target.ID, ErrTargetIllegal)
		}
	case TargetKindAny:
	default:
		return fmt.Errorf("unknown target kind %q: %w", requirement.Kind, ErrTargetIllegal)
	}
	return nil
}

// ValidateTargetSelection validates an entire target selection.
func (tv *TargetValidator) ValidateTargetSelection(sourceID int, selection *TargetSelection) error {
	if tv == nil {
		return fmt.Errorf("target validator not initialized")
	}
	if selection == nil {
		return fmt.Errorf("target selection is nil")
	}
	if err := selection.Validate(); err != nil {
		return err
	}

	seen := make(map[int]bool, len(selection.Targets))
	for _, id := range selection.Targets {
		if seen[id] {
			return fmt.Errorf("duplicate target: %d", id)
		}
		seen[id] = true
		if err := tv.ValidateTarget(sourceID, id, selection.Requirement); err != nil {
			return fmt.Errorf("invalid target %d: %w", id, err)
		}
	}
	return nil
}
