package heroes

import (
	"github.com/shikigami/battle-server-go/internal/game"
	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/shikigami/battle-server-go/internal/game/rules"
	"github.com/shikigami/battle-server-go/internal/game/targeting"
)

// Drummer buff names.
const (
	InspireSpeed    = "Inspire[spd]"
	InspireCritical = "Inspire[cri]"
)

var drummerStats = Stats{
	HP:             9115,
	Attack:         2412,
	Defense:        441,
	Speed:          110,
	Critical:       0.1,
	CriticalDamage: 1.5,
}

// Drummer is a support hero: it speeds up an ally and hits a whole team
// twice, sometimes knocking targets back on the runway.
func Drummer() *game.Entity {
	e := NewHero(NoDrummer, "Drummer", drummerStats)
	e.AddSkill(NormalAttack("Pummel"))
	e.AddSkill(BuffSkill(2, "Inspire", 2, targeting.SingleAlly, inspire))
	e.AddSkill(&game.Skill{
		No:     3,
		Name:   "Thunder Drum",
		Cost:   3,
		Target: targeting.SingleEnemy,
		Use:    thunderDrum,
	})
	return e
}

func inspire(_ *game.Battle, sourceID, selectedID int) []*effects.Buff {
	return []*effects.Buff{
		effects.Build(sourceID, selectedID).Named(InspireSpeed, 1).CountDown(2).
			Buff(effects.Speed, effects.FixedAdd, 15).End(),
		effects.Build(sourceID, selectedID).Named(InspireCritical, 1).CountDown(2).
			Buff(effects.Critical, effects.FixedAdd, 0.11).End(),
	}
}

func thunderDrum(b *game.Battle, sourceID, selectedID int) bool {
	team := b.GetEntity(selectedID).TeamID
	selection := &targeting.TargetSelection{Requirement: targeting.Group}
	for _, e := range b.GetTeamEntities(team) {
		selection.Targets = append(selection.Targets, e.ID)
	}
	if targeting.NewTargetValidator(b).ValidateTargetSelection(sourceID, selection) != nil {
		return false
	}
	knockBack := func(b *game.Battle, data rules.Payload) {
		targetID, ok := data.Int(rules.KeyTargetID)
		if ok && b.TestHit(0.3) {
			b.ActionUpdateRunwayPercent(sourceID, targetID, -1, game.ReasonSkill)
		}
	}
	for round := 0; round < 2; round++ {
		var infos []game.AttackInfo
		for _, id := range selection.Targets {
			infos = append(infos, game.AttackInfo{
				TargetID:  id,
				SourceID:  sourceID,
				Rate:      0.72,
				Params:    game.AttackComputeCritical | game.AttackGroup,
				Completed: knockBack,
			})
		}
		if !b.ActionAttack(infos...) {
			return false
		}
	}
	return true
}
