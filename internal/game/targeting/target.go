package targeting

import "fmt"

// TargetKind is the relation a skill target must have to its user.
type TargetKind string

const (
	// TargetKindEnemy targets an opposing combatant.
	TargetKindEnemy TargetKind = "ENEMY"
	// TargetKindAlly targets a teammate, the user included.
	TargetKindAlly TargetKind = "ALLY"
	// TargetKindSelf targets the user only.
	TargetKindSelf TargetKind = "SELF"
	// TargetKindAny targets any combatant.
	TargetKindAny TargetKind = "ANY"
)

// TargetRequirement defines what targets a skill requires.
type TargetRequirement struct {
	Kind TargetKind
	// MinTargets is the minimum number of targets required (usually 1)
	MinTargets int
	// MaxTargets is the maximum number of targets allowed
	MaxTargets int
	// AllowDead lets the skill select dead entities (revives).
	AllowDead   bool
	Description string
}

// SingleEnemy is the requirement of a plain single-target attack.
var SingleEnemy = TargetRequirement{Kind: TargetKindEnemy, MinTargets: 1, MaxTargets: 1, Description: "one enemy"}

// SingleAlly is the requirement of a single-target support skill.
var SingleAlly = TargetRequirement{Kind: TargetKindAlly, MinTargets: 1, MaxTargets: 1, Description: "one ally"}

// Group is the requirement of a skill hitting every living member of a
// team at once.
var Group = TargetRequirement{Kind: TargetKindAny, MinTargets: 1, MaxTargets: 5, Description: "one team"}

// TargetSelection is a chosen set of targets for a requirement.
type TargetSelection struct {
	Targets     []int
	Requirement TargetRequirement
}

// IsComplete checks if the target selection meets the requirement counts.
func (ts *TargetSelection) IsComplete() bool {
	if ts == nil {
		return false
	}
	count := len(ts.Targets)
	return count >= ts.Requirement.MinTargets && count <= ts.Requirement.MaxTargets
}

// Validate checks the selection counts.
func (ts *TargetSelection) Validate() error {
	if ts == nil {
		return fmt.Errorf("target selection is nil")
	}
	count := len(ts.Targets)
	if count < ts.Requirement.MinTargets {
		return fmt.Errorf("not enough targets: need at least %d, got %d", ts.Requirement.MinTargets, count)
	}
	if count > ts.Requirement.MaxTargets {
		return fmt.Errorf("too many targets: need at most %d, got %d", ts.Requirement.MaxTargets, count)
	}
	return nil
}
