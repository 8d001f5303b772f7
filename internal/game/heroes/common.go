// Package heroes holds the built-in demo catalog: a few heroes and one
// equipment piece, enough to drive whole battles in tests and demos.
package heroes

import (
	"github.com/shikigami/battle-server-go/internal/game"
	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/shikigami/battle-server-go/internal/game/targeting"
)

// Stats is a hero's base stat block.
type Stats struct {
	HP             float64
	Attack         float64
	Defense        float64
	Speed          float64
	Critical       float64
	CriticalDamage float64
}

// NewHero creates an entity with stats applied and full hp.
func NewHero(no int, name string, stats Stats) *game.Entity {
	e := game.NewEntity(no, name)
	e.SetProperty(effects.MaxHP, stats.HP).
		SetProperty(effects.Attack, stats.Attack).
		SetProperty(effects.Defense, stats.Defense).
		SetProperty(effects.Speed, stats.Speed).
		SetProperty(effects.Critical, stats.Critical).
		SetProperty(effects.CriticalDamage, stats.CriticalDamage)
	e.HP = stats.HP
	return e
}

// Simple returns a builder for a hero that only has a normal attack.
func Simple(no int, name string, stats Stats) game.HeroBuilder {
	return func() *game.Entity {
		return NewHero(no, name, stats).AddSkill(NormalAttack(name + " Strike"))
	}
}

// NormalAttack is slot 1 of most heroes: one critical-capable hit at rate 1
// on a single enemy, free of cost.
func NormalAttack(name string) *game.Skill {
	return &game.Skill{
		No:     1,
		Name:   name,
		Target: targeting.SingleEnemy,
		Use: func(b *game.Battle, sourceID, selectedID int) bool {
			return b.ActionAttack(game.AttackInfo{
				TargetID: selectedID,
				SourceID: sourceID,
				Rate:     1,
				Params:   game.AttackComputeCritical | game.AttackSingle | game.AttackNormal,
			})
		},
	}
}

// BuffSkill adds the buffs built by build to the selected entity.
func BuffSkill(no int, name string, cost int, target targeting.TargetRequirement,
	build func(b *game.Battle, sourceID, selectedID int) []*effects.Buff) *game.Skill {
	return &game.Skill{
		No:     no,
		Name:   name,
		Cost:   cost,
		Target: target,
		Use: func(b *game.Battle, sourceID, selectedID int) bool {
			for _, buff := range build(b, sourceID, selectedID) {
				b.ActionAddBuff(buff, game.ReasonSkill)
			}
			return true
		},
	}
}
