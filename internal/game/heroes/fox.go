package heroes

import (
	"github.com/shikigami/battle-server-go/internal/game"
	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/shikigami/battle-server-go/internal/game/rules"
	"github.com/shikigami/battle-server-go/internal/game/targeting"
)

// Fox Archer buff names.
const (
	FoxWard          = "Fox Ward"
	FoxWardDefense   = "Fox Ward[def]"
	FoxWardDamage    = "Fox Ward[dmg]"
	FoxWardSpeed     = "Fox Ward[spd]"
	FoxMarkSilence   = "Fox Mark[silence]"
	FoxMarkEquipment = "Fox Mark[equipment]"
	FoxMarkPassive   = "Fox Mark[passive]"
	FoxMarkResist    = "Fox Mark[res]"
)

// foxWardBuffs are the global buffs that only hold while the ward stands.
var foxWardBuffs = []string{FoxWardDefense, FoxWardDamage, FoxWardSpeed}

var foxStats = Stats{
	HP:             10026,
	Attack:         3002,
	Defense:        419,
	Speed:          115,
	Critical:       0.12,
	CriticalDamage: 1.6,
}

var selfOnly = targeting.TargetRequirement{
	Kind:        targeting.TargetKindSelf,
	MinTargets:  1,
	MaxTargets:  1,
	Description: "self",
}

// FoxArcher raises a ward at battle start and answers enemy actions with a
// marking shot. Each marking shot under the ward adds a stack of global
// buffs that its burst consumes.
func FoxArcher() *game.Entity {
	e := NewHero(NoFoxArcher, "Fox Archer", foxStats)

	shot := NormalAttack("Quick Shot")
	shot.Handlers = []game.Handler{{
		Name:  "Counter Shot",
		Code:  rules.EventActionEnd,
		Range: rules.RangeEnemy,
		Handle: func(b *game.Battle, data rules.Payload, _ int) int {
			ownerID, _ := data.Int(rules.KeySkillOwnerID)
			actorID, _ := data.Int(rules.KeySourceID)
			owner := b.GetEntity(ownerID)
			actor, ok := b.LookupEntity(actorID)
			if owner.Dead || !ok || actor.Dead {
				return rules.StepDone
			}
			p := 0.05
			if b.Buffs().HasNamed(ownerID, FoxWard) {
				p = 0.4
			}
			if b.TestHit(p) {
				b.ActionCheckAndUseSkill(4, ownerID, actorID, game.ReasonSkill)
			}
			return rules.StepDone
		},
	}}
	e.AddSkill(shot)

	e.AddSkill(&game.Skill{
		No:     2,
		Name:   "Fox Ward",
		Cost:   3,
		Target: selfOnly,
		Use: func(b *game.Battle, sourceID, _ int) bool {
			b.ActionAddBuff(effects.Build(sourceID, sourceID).Named(FoxWard, 1).
				Enchantment().CountDownBySource(1).End(), game.ReasonSkill)
			return true
		},
		Handlers: []game.Handler{{
			Name:  "Opening Ward",
			Code:  rules.EventSenki,
			Range: rules.RangeNone,
			Handle: func(b *game.Battle, data rules.Payload, _ int) int {
				ownerID, _ := data.Int(rules.KeySkillOwnerID)
				b.ActionCheckAndUseSkill(2, ownerID, ownerID, game.ReasonRule)
				return rules.StepDone
			},
		}},
	})

	e.AddSkill(&game.Skill{
		No:     3,
		Name:   "Fox Burst",
		Cost:   3,
		Target: targeting.SingleEnemy,
		Check: func(b *game.Battle, sourceID int) bool {
			return len(wardStacks(b, sourceID)) > 0
		},
		Use: foxBurst,
	})

	e.AddSkill(&game.Skill{
		No:       4,
		Name:     "Marking Shot",
		Reactive: true,
		Target:   targeting.SingleEnemy,
		Use:      markingShot,
	})
	return e
}

// wardStacks returns the global ward buffs placed by sourceID.
func wardStacks(b *game.Battle, sourceID int) []*effects.Buff {
	return b.Buffs().Filter(func(buff *effects.Buff) bool {
		if !buff.IsGlobal() || buff.SourceID != sourceID {
			return false
		}
		for _, name := range foxWardBuffs {
			if buff.Name == name {
				return true
			}
		}
		return false
	})
}

func foxBurst(b *game.Battle, sourceID, selectedID int) bool {
	stacks := wardStacks(b, sourceID)
	ok := b.ActionAttack(game.AttackInfo{
		TargetID: selectedID,
		SourceID: sourceID,
		Rate:     1.95 * 0.25 * float64(len(stacks)),
		Params:   game.AttackComputeCritical | game.AttackSingle,
	})
	for _, buff := range stacks {
		b.ActionRemoveBuff(buff, game.ReasonSkill)
	}
	return ok
}

func markingShot(b *game.Battle, sourceID, selectedID int) bool {
	b.ActionAttack(game.AttackInfo{
		TargetID: selectedID,
		SourceID: sourceID,
		Rate:     1,
		Params:   game.AttackNormal | game.AttackNoTargetEquipment | game.AttackNoTargetPassive,
	})

	mark := func(name string) *effects.BuffBuilder {
		return effects.Build(sourceID, selectedID).Named(name, 1).Probability(1).CountDown(1)
	}
	b.ActionAddBuff(mark(FoxMarkSilence).Control(effects.ControlSilence).End(), game.ReasonSkill)
	b.ActionAddBuff(mark(FoxMarkEquipment).Control(effects.ControlEquipmentSeal).End(), game.ReasonSkill)
	b.ActionAddBuff(mark(FoxMarkPassive).Control(effects.ControlPassiveSeal).End(), game.ReasonSkill)
	b.ActionAddBuff(mark(FoxMarkResist).Debuff(effects.EffectResist, effects.FixedAdd, -0.1).End(), game.ReasonSkill)

	if !b.Buffs().HasNamed(sourceID, FoxWard) {
		return true
	}
	stack := func(name string) *effects.BuffBuilder {
		return effects.Build(sourceID, effects.GlobalOwner).Named(name, 3).DependOn(sourceID, FoxWard)
	}
	b.ActionAddBuff(stack(FoxWardDefense).Buff(effects.Defense, effects.RateOfBase, 0.12).End(), game.ReasonSkill)
	b.ActionAddBuff(stack(FoxWardDamage).Buff(effects.DamageDealtUp, effects.FixedAdd, 0.08).End(), game.ReasonSkill)
	b.ActionAddBuff(stack(FoxWardSpeed).Buff(effects.Speed, effects.FixedAdd, 4).End(), game.ReasonSkill)
	return true
}
