package game

import (
	"testing"

	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/shikigami/battle-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttackDamageFormula(t *testing.T) {
	tests := []struct {
		name    string
		defense float64
		rate    float64
		want    float64
	}{
		{"no defense", 0, 1, 1000},
		{"defense halves", 300, 1, 500},
		{"rate scales", 0, 0.5, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBattleHarness(t, DefaultOptions())
			source := h.Add(EntitySpec{Name: "Source", Team: TeamLeft, Attack: 1000})
			target := h.Add(EntitySpec{Name: "Target", Team: TeamRight, HP: 5000, Defense: tt.defense})

			require.True(t, h.b.ActionAttack(AttackInfo{TargetID: target, SourceID: source, Rate: tt.rate}))
			h.Settle()

			lost := 5000 - h.b.GetEntity(target).HP
			assert.InEpsilon(t, tt.want, lost, 0.011)
		})
	}
}

func TestAttackEventsInOrder(t *testing.T) {
	h := NewBattleHarness(t, DefaultOptions())
	source := h.Add(EntitySpec{Name: "Source", Team: TeamLeft, Attack: 100})
	target := h.Add(EntitySpec{Name: "Target", Team: TeamRight, HP: 5000})

	var codes []rules.EventCode
	h.b.Events().Subscribe(func(e rules.Event) { codes = append(codes, e.Code) })

	var completed rules.Payload
	h.b.ActionAttack(AttackInfo{
		TargetID:  target,
		SourceID:  source,
		Rate:      1,
		Completed: func(_ *Battle, data rules.Payload) { completed = data },
	})
	h.Settle()

	assert.Equal(t, []rules.EventCode{
		rules.EventBeforeAttack,
		rules.EventWillDamage,
		rules.EventUpdateHp,
		rules.EventAttack,
		rules.EventTakenAttack,
		rules.EventDamage,
		rules.EventTakenDamage,
		rules.EventNoKill,
	}, codes)
	require.NotNil(t, completed)
	assert.Equal(t, target, completed[rules.KeyTargetID])
	assert.Positive(t, completed[rules.KeyDamage])
}

func TestLethalAttackKills(t *testing.T) {
	h := NewBattleHarness(t, DefaultOptions())
	source := h.Add(EntitySpec{Name: "Source", Team: TeamLeft, Attack: 1000})
	target := h.Add(EntitySpec{Name: "Target", Team: TeamRight, HP: 100})
	kills := h.Count(rules.EventKill)
	deaths := h.Count(rules.EventDead)

	h.b.ActionAttack(
		AttackInfo{TargetID: target, SourceID: source, Rate: 1},
		AttackInfo{TargetID: target, SourceID: source, Rate: 1},
	)
	h.Settle()

	assert.True(t, h.b.GetEntity(target).Dead)
	assert.Equal(t, 1, *kills, "second hit skips the dead target")
	assert.Equal(t, 1, *deaths)
}

func TestShieldAbsorbsFirst(t *testing.T) {
	h := NewBattleHarness(t, DefaultOptions())
	source := h.Add(EntitySpec{Name: "Source", Team: TeamLeft, Attack: 100})
	target := h.Add(EntitySpec{Name: "Target", Team: TeamRight, HP: 1000})
	h.b.GetEntity(target).Shield = 500

	h.b.ActionAttack(AttackInfo{TargetID: target, SourceID: source, Rate: 1})
	h.Settle()

	e := h.b.GetEntity(target)
	assert.Equal(t, 1000.0, e.HP)
	assert.InDelta(t, 400, e.Shield, 1.5)
}

func TestCriticalHitMultiplies(t *testing.T) {
	h := NewBattleHarness(t, DefaultOptions())
	source := h.Add(EntitySpec{Name: "Source", Team: TeamLeft, Attack: 1000, Critical: 1})
	target := h.Add(EntitySpec{Name: "Target", Team: TeamRight, HP: 5000})
	crits := h.Count(rules.EventCritical)

	h.b.ActionAttack(AttackInfo{TargetID: target, SourceID: source, Rate: 1, Params: AttackComputeCritical})
	h.Settle()

	assert.Equal(t, 1, *crits)
	assert.InEpsilon(t, 1500, 5000-h.b.GetEntity(target).HP, 0.011)
}

func TestWillDamageHandlerChangesDamage(t *testing.T) {
	h := NewBattleHarness(t, DefaultOptions())
	source := h.Add(EntitySpec{Name: "Source", Team: TeamLeft, Attack: 1000, Skills: []*Skill{{
		No: 100,
		Handlers: []Handler{{
			Code: rules.EventWillDamage,
			Handle: func(_ *Battle, data rules.Payload, _ int) int {
				if hit, ok := data[rules.KeyHit].(*Hit); ok {
					hit.Damage = 0
				}
				return rules.StepDone
			},
		}},
	}}})
	target := h.Add(EntitySpec{Name: "Target", Team: TeamRight, HP: 5000})

	h.b.ActionAttack(AttackInfo{TargetID: target, SourceID: source, Rate: 1})
	h.Settle()
	assert.Equal(t, 5000.0, h.b.GetEntity(target).HP)
}

func TestNoTargetPassiveKeepsTargetHandlersOut(t *testing.T) {
	h := NewBattleHarness(t, DefaultOptions())
	var reacted int
	source := h.Add(EntitySpec{Name: "Source", Team: TeamLeft, Attack: 100})
	target := h.Add(EntitySpec{Name: "Target", Team: TeamRight, HP: 5000, Skills: []*Skill{{
		No:      1,
		Passive: true,
		Handlers: []Handler{{
			Code:  rules.EventTakenDamage,
			Range: rules.RangeNone,
			Handle: func(_ *Battle, _ rules.Payload, _ int) int {
				reacted++
				return rules.StepDone
			},
		}},
	}}})

	h.b.ActionAttack(AttackInfo{TargetID: target, SourceID: source, Rate: 1})
	h.Settle()
	require.Equal(t, 1, reacted)

	h.b.ActionAttack(AttackInfo{TargetID: target, SourceID: source, Rate: 1, Params: AttackNoTargetPassive})
	h.Settle()
	assert.Equal(t, 1, reacted)
}

func TestHpStealHealsSource(t *testing.T) {
	h := NewBattleHarness(t, DefaultOptions())
	source := h.Add(EntitySpec{Name: "Source", Team: TeamLeft, Attack: 100, HP: 1000})
	target := h.Add(EntitySpec{Name: "Target", Team: TeamRight, HP: 5000})
	h.b.GetEntity(source).HP = 500
	h.b.GetEntity(source).SetProperty(effects.HpSteal, 0.5)

	h.b.ActionAttack(AttackInfo{TargetID: target, SourceID: source, Rate: 1})
	h.Settle()
	assert.InDelta(t, 550, h.b.GetEntity(source).HP, 1)
}

func TestEmptyAttackIsRejected(t *testing.T) {
	h := NewBattleHarness(t, DefaultOptions())
	assert.False(t, h.b.ActionAttack())
}
