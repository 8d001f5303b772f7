package game

import (
	"testing"

	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/shikigami/battle-server-go/internal/game/rules"
	"github.com/shikigami/battle-server-go/internal/game/targeting"
	"go.uber.org/zap/zaptest"
)

// harnessRoot is the root task of harness battles. It never finishes, so
// actions scheduled by a test run as its children and Settle can tell when
// they drained.
const harnessRoot = "Harness"

// BattleHarness drives a battle whose root task idles, so tests can schedule
// actions directly and inspect the state once they resolved.
type BattleHarness struct {
	t *testing.T
	b *Battle
}

// NewBattleHarness creates an empty battle with no AI.
func NewBattleHarness(t *testing.T, opts Options) *BattleHarness {
	t.Helper()
	b := NewBattle(opts, nil, nil, zaptest.NewLogger(t))
	b.SetAI(nil)
	b.sched = rules.NewScheduler(b, func(_ *Battle, _ rules.Payload, step int) int {
		return step + 1
	}, harnessRoot)
	b.sched.SetTraceHook(b.recordStep)
	return &BattleHarness{t: t, b: b}
}

// EntitySpec defines a test entity.
type EntitySpec struct {
	Name     string
	Team     int
	HP       float64
	Attack   float64
	Defense  float64
	Speed    float64
	Critical float64
	Skills   []*Skill
}

// Add puts a new entity on the battle and returns its id. HP doubles as max
// hp.
func (h *BattleHarness) Add(spec EntitySpec) int {
	e := NewEntity(1, spec.Name)
	hp := spec.HP
	if hp == 0 {
		hp = 1000
	}
	e.SetProperty(effects.MaxHP, hp).
		SetProperty(effects.Attack, spec.Attack).
		SetProperty(effects.Defense, spec.Defense).
		SetProperty(effects.Speed, spec.Speed).
		SetProperty(effects.Critical, spec.Critical).
		SetProperty(effects.CriticalDamage, 1.5)
	e.HP = hp
	for _, s := range spec.Skills {
		e.AddSkill(s)
	}
	return h.b.AddEntity(e, spec.Team)
}

// Settle advances until every pending task ran and the idle root got the
// cursor back.
func (h *BattleHarness) Settle() {
	h.t.Helper()
	for i := 0; i < 100000; i++ {
		seen := len(h.b.journal)
		if _, err := h.b.Advance(); err != nil {
			h.t.Fatalf("advance failed: %v", err)
		}
		for _, rec := range h.b.journal[seen:] {
			if rec.Kind == RecordStep && rec.Type == harnessRoot {
				return
			}
		}
	}
	h.t.Fatalf("battle did not settle")
}

// Count subscribes to code and returns a pointer to its dispatch count.
func (h *BattleHarness) Count(code rules.EventCode) *int {
	n := new(int)
	h.b.Events().SubscribeTyped(code, func(rules.Event) { *n++ })
	return n
}

func strikeSkill() *Skill {
	return &Skill{
		No:     1,
		Name:   "Strike",
		Target: targeting.SingleEnemy,
		Use: func(b *Battle, sourceID, selectedID int) bool {
			return b.ActionAttack(AttackInfo{
				TargetID: selectedID,
				SourceID: sourceID,
				Rate:     1,
				Params:   AttackComputeCritical | AttackSingle | AttackNormal,
			})
		},
	}
}

func mendSkill() *Skill {
	return &Skill{
		No:     2,
		Name:   "Mend",
		Cost:   2,
		Target: targeting.SingleAlly,
		Use: func(b *Battle, sourceID, selectedID int) bool {
			return b.ActionUpdateHp(sourceID, selectedID, 400, ReasonSkill)
		},
	}
}

// testCatalog holds two small heroes for whole-battle tests.
func testCatalog() *Catalog {
	c := NewCatalog()
	c.RegisterHero(1, func() *Entity {
		e := NewEntity(1, "Striker")
		e.SetProperty(effects.MaxHP, 3000).
			SetProperty(effects.Attack, 900).
			SetProperty(effects.Defense, 200).
			SetProperty(effects.Speed, 110).
			SetProperty(effects.Critical, 0.2).
			SetProperty(effects.CriticalDamage, 1.5)
		e.HP = 3000
		return e.AddSkill(strikeSkill())
	})
	c.RegisterHero(2, func() *Entity {
		e := NewEntity(2, "Mender")
		e.SetProperty(effects.MaxHP, 3600).
			SetProperty(effects.Attack, 600).
			SetProperty(effects.Defense, 300).
			SetProperty(effects.Speed, 100).
			SetProperty(effects.CriticalDamage, 1.5)
		e.HP = 3600
		return e.AddSkill(strikeSkill()).AddSkill(mendSkill())
	})
	c.RegisterEquipment(1, func() *Skill {
		return &Skill{No: 100, Name: "Charm", Handlers: []Handler{{
			Name: "Charm",
			Code: rules.EventTurnStart,
			Handle: func(_ *Battle, _ rules.Payload, _ int) int {
				return rules.StepDone
			},
		}}}
	})
	return c
}

func testRoster() []RosterEntry {
	return []RosterEntry{
		{No: 1, TeamID: TeamLeft, Equipments: []int{1}},
		{No: 2, TeamID: TeamLeft},
		{No: 1, TeamID: TeamRight},
		{No: 2, TeamID: TeamRight},
	}
}
