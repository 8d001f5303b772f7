package heroes

import (
	"math"

	"github.com/shikigami/battle-server-go/internal/game"
	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/shikigami/battle-server-go/internal/game/rules"
)

// heartEyeStep is the missing-hp fraction each damage multiple needs.
const heartEyeStep = 0.15

// HeartEye multiplies the wearer's normal hits by one for every full 15% of
// hp the target is missing.
func HeartEye() *game.Skill {
	return &game.Skill{
		No:   100 + EquipHeartEye,
		Name: "Heart Eye",
		Handlers: []game.Handler{{
			Name:     "Heart Eye",
			Code:     rules.EventWillDamage,
			Range:    rules.RangeNone,
			Priority: 1000,
			Handle:   heartEye,
		}},
	}
}

func heartEye(b *game.Battle, data rules.Payload, _ int) int {
	ownerID, _ := data.Int(rules.KeySkillOwnerID)
	hit, ok := data[rules.KeyHit].(*game.Hit)
	if !ok || hit.SourceID != ownerID || !hit.Params.Has(game.AttackNormal) {
		return rules.StepDone
	}
	target := b.GetEntity(hit.TargetID)
	maxHP := b.ComputeProperty(target.ID, effects.MaxHP)
	if maxHP <= 0 {
		return rules.StepDone
	}
	missing := 1 - target.HP/maxHP
	if missing >= heartEyeStep {
		hit.Damage *= math.Floor(missing / heartEyeStep)
	}
	return rules.StepDone
}
