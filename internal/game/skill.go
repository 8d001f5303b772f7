package game

import (
	"github.com/shikigami/battle-server-go/internal/game/rules"
	"github.com/shikigami/battle-server-go/internal/game/targeting"
)

// Reason records why an action was taken. It is carried in task payloads for
// diagnostics only.
type Reason int

const (
	ReasonNothing Reason = iota
	ReasonSkill
	ReasonTimeOut
	ReasonCost
	ReasonManaProgress
	ReasonRule
	ReasonAttack
)

func (r Reason) String() string {
	switch r {
	case ReasonNothing:
		return "NOTHING"
	case ReasonSkill:
		return "SKILL"
	case ReasonTimeOut:
		return "TIME_OUT"
	case ReasonCost:
		return "COST"
	case ReasonManaProgress:
		return "MANA_PROGRESS"
	case ReasonRule:
		return "RULE"
	case ReasonAttack:
		return "ATTACK"
	default:
		return "UNKNOWN"
	}
}

// StepFunc is a task step bound to a battle.
type StepFunc = rules.StepFunc[*Battle]

// Handler is reactive skill logic run when an event with Code is dispatched.
// Handle runs as its own task; its payload holds the event data plus the
// owning entity and skill slot.
type Handler struct {
	Name      string
	Code      rules.EventCode
	Range     rules.EventRange
	Priority  int
	Passive   bool
	Equipment bool
	Handle    StepFunc
}

// CostFunc computes a skill cost from the battle state.
type CostFunc func(b *Battle, sourceID int) int

// CheckFunc is a skill precondition.
type CheckFunc func(b *Battle, sourceID int) bool

// UseFunc performs a skill. It schedules actions and reports whether it did.
type UseFunc func(b *Battle, sourceID, selectedID int) bool

// Skill is one slot of an entity's roster of abilities.
type Skill struct {
	No   int
	Name string
	// Cost is used when CostFunc is nil.
	Cost     int
	CostFunc CostFunc
	Check    CheckFunc
	Use      UseFunc
	Handlers []Handler
	// Passive skills are never chosen by the AI and their handlers are
	// sealed by passive-seal.
	Passive bool
	// Equipment skills come from equipment and are sealed by
	// equipment-seal.
	Equipment bool
	// Reactive skills are only used from handlers, never picked by the AI.
	Reactive bool
	Target   targeting.TargetRequirement
}

// CostFor returns the skill's cost for sourceID.
func (s *Skill) CostFor(b *Battle, sourceID int) int {
	if s.CostFunc != nil {
		return s.CostFunc(b, sourceID)
	}
	return s.Cost
}

// Usable reports whether the AI may pick this skill at all.
func (s *Skill) Usable() bool {
	return s.Use != nil && !s.Passive && !s.Equipment && !s.Reactive
}
