package game

import (
	"errors"
	"math"

	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/shikigami/battle-server-go/internal/game/rules"
	"github.com/shikigami/battle-server-go/internal/game/targeting"
	"go.uber.org/zap"
)

// Actions schedule a task as a child of the task that is currently running.
// They never mutate state themselves; only their steps do.

// ActionUpdateHp changes the hp of targetID by delta. Damage clamps at 0 and
// kills; healing clamps at the target's max hp. A dead target is left alone
// and the call still succeeds.
func (b *Battle) ActionUpdateHp(sourceID, targetID int, delta float64, reason Reason) bool {
	if b.GetEntity(targetID).Dead {
		return true
	}
	payload := rules.Payload{
		rules.KeySourceID: sourceID,
		rules.KeyTargetID: targetID,
		rules.KeyNum:      delta,
		rules.KeyReason:   reason,
	}
	b.sched.AddChild(updateHpTask, payload, "UpdateHp")
	return true
}

func updateHpTask(b *Battle, data rules.Payload, step int) int {
	targetID, _ := data.Int(rules.KeyTargetID)
	target := b.GetEntity(targetID)
	switch step {
	case 1:
		if target.Dead {
			return rules.StepDone
		}
		delta, _ := data.Float(rules.KeyNum)
		remain := math.Max(target.HP+delta, 0)
		if delta > 0 {
			remain = math.Min(remain, math.Max(b.ComputeProperty(targetID, effects.MaxHP), target.HP))
		}
		data[rules.KeyRemainHp] = remain
		data[rules.KeyIsDead] = remain <= 0
		return 2
	case 2:
		remain, ok := data.Float(rules.KeyRemainHp)
		if !ok {
			return rules.StepAbort
		}
		dead := data.Bool(rules.KeyIsDead)
		target.HP = remain
		target.Dead = dead
		b.DispatchEvent(rules.EventUpdateHp, targetID, data)
		if dead {
			b.runway.Freeze(targetID)
			if b.logger != nil {
				b.logger.Debug("entity died",
					zap.Int("entity_id", targetID),
					zap.String("name", target.Name),
				)
			}
			b.DispatchEvent(rules.EventDead, targetID, data)
		}
		return rules.StepDone
	}
	return rules.StepAbort
}

// ActionAddBuff schedules the insertion of buff. Buffs that need a
// probability roll are first rolled against the source's effect hit, then
// against the owner's effect resist.
func (b *Battle) ActionAddBuff(buff *effects.Buff, reason Reason) {
	payload := rules.Payload{
		rules.KeyBuff:     buff,
		rules.KeyTargetID: buff.OwnerID,
		rules.KeyReason:   reason,
	}
	b.sched.AddChild(addBuffTask, payload, "AddBuff")
}

func addBuffTask(b *Battle, data rules.Payload, step int) int {
	buff, ok := data[rules.KeyBuff].(*effects.Buff)
	if !ok {
		return rules.StepAbort
	}
	subject := buffSubject(buff)
	switch step {
	case 1:
		if buff.IsGlobal() || !buff.Has(effects.ParamProbability) {
			return 2
		}
		target := b.GetEntity(buff.OwnerID)
		if target.Dead {
			return rules.StepDone
		}
		hit := 0.0
		if _, ok := b.byID[buff.SourceID]; ok {
			hit = b.ComputeProperty(buff.SourceID, effects.EffectHit)
		}
		p := buff.Probability * (1 + hit)
		if !b.TestHit(p) {
			if b.logger != nil {
				b.logger.Debug("buff missed", zap.Stringer("buff", buff), zap.Float64("p", p))
			}
			return rules.StepDone
		}
		resist := 1 + b.ComputeProperty(target.ID, effects.EffectResist)
		if !b.TestHit(p / resist) {
			b.DispatchEvent(rules.EventBuffResist, target.ID, rules.Payload{
				rules.KeyBuff:     buff,
				rules.KeyTargetID: target.ID,
			})
			if b.opts.ResistPreventsBuff {
				return rules.StepDone
			}
		}
		return 2
	case 2:
		b.DispatchEvent(rules.EventBeforeBuffGet, subject, rules.Payload{
			rules.KeyBuff:     buff,
			rules.KeyTargetID: buff.OwnerID,
		})
		return 3
	case 3:
		for _, old := range b.buffs.Surplus(buff) {
			b.ActionRemoveBuff(old, ReasonRule)
		}
		b.buffs.Add(buff)
		b.DispatchEvent(rules.EventBuffGet, subject, rules.Payload{
			rules.KeyBuff:     buff,
			rules.KeyTargetID: buff.OwnerID,
		})
		return rules.StepDone
	}
	return rules.StepAbort
}

// ActionRemoveBuff schedules the removal of buff. Removing a buff that is no
// longer active is a no-op.
func (b *Battle) ActionRemoveBuff(buff *effects.Buff, reason Reason) {
	payload := rules.Payload{
		rules.KeyBuff:     buff,
		rules.KeyTargetID: buff.OwnerID,
		rules.KeyReason:   reason,
	}
	b.sched.AddChild(removeBuffTask, payload, "RemoveBuff")
}

func removeBuffTask(b *Battle, data rules.Payload, step int) int {
	buff, ok := data[rules.KeyBuff].(*effects.Buff)
	if !ok {
		return rules.StepAbort
	}
	if !b.buffs.Contains(buff) {
		return rules.StepDone
	}
	event := rules.Payload{
		rules.KeyBuff:     buff,
		rules.KeyTargetID: buff.OwnerID,
	}
	switch step {
	case 1:
		b.DispatchEvent(rules.EventBeforeBuffRemove, buffSubject(buff), event)
		return 2
	case 2:
		b.buffs.Remove(buff)
		b.DispatchEvent(rules.EventBuffRemove, buffSubject(buff), event)
		return rules.StepDone
	}
	return rules.StepAbort
}

// buffSubject is the event subject for buff events; global buffs have none.
func buffSubject(buff *effects.Buff) int {
	if buff.IsGlobal() {
		return 0
	}
	return buff.OwnerID
}

// ActionCheckAndUseSkill validates skill no of sourceID now and schedules it
// only if its precondition, cost and target all hold.
func (b *Battle) ActionCheckAndUseSkill(no, sourceID, selectedID int, reason Reason) bool {
	source := b.GetEntity(sourceID)
	skill := source.Skill(no)
	if skill == nil {
		return false
	}
	if skill.Check != nil && !skill.Check(b, sourceID) {
		return false
	}
	if cost := skill.CostFor(b, sourceID); cost > 0 && !b.CanCost(source.TeamID, cost) {
		return false
	}
	if skill.Target.Kind != "" {
		if err := targeting.NewTargetValidator(b).ValidateTarget(sourceID, selectedID, skill.Target); err != nil {
			return false
		}
	}
	b.ActionUseSkill(no, sourceID, selectedID, reason)
	return true
}

// ActionUseSkill schedules skill no of sourceID against selectedID. The
// precondition and cost are checked again when the task runs; a failure then
// aborts the task.
func (b *Battle) ActionUseSkill(no, sourceID, selectedID int, reason Reason) {
	payload := rules.Payload{
		rules.KeySkillNo:    no,
		rules.KeySourceID:   sourceID,
		rules.KeySelectedID: selectedID,
		rules.KeyReason:     reason,
	}
	b.sched.AddChild(useSkillTask, payload, "UseSkill")
}

func useSkillTask(b *Battle, data rules.Payload, step int) int {
	no, _ := data.Int(rules.KeySkillNo)
	sourceID, _ := data.Int(rules.KeySourceID)
	selectedID, _ := data.Int(rules.KeySelectedID)
	source := b.GetEntity(sourceID)
	skill := source.Skill(no)
	if skill == nil {
		return rules.StepAbort
	}

	switch step {
	case 1:
		if source.Dead {
			return rules.StepDone
		}
		if skill.Target.Kind != "" {
			err := targeting.NewTargetValidator(b).ValidateTarget(sourceID, selectedID, skill.Target)
			switch {
			case err == nil:
			case isTargetDead(err):
				return rules.StepDone
			default:
				return rules.StepAbort
			}
		} else if selected, ok := b.byID[selectedID]; ok && selected.Dead {
			return rules.StepDone
		}
		if skill.Check != nil && !skill.Check(b, sourceID) {
			return rules.StepAbort
		}
		cost := skill.CostFor(b, sourceID)
		if cost > 0 {
			if !b.CanCost(source.TeamID, cost) {
				return rules.StepAbort
			}
			b.ActionUpdateMana(sourceID, source.TeamID, -cost, ReasonCost)
		}
		if b.logger != nil {
			b.logger.Debug("use skill",
				zap.Int("source", sourceID),
				zap.Int("selected", selectedID),
				zap.Int("skill", no),
				zap.String("name", skill.Name),
				zap.Int("cost", cost),
			)
		}
		return 2
	case 2:
		if skill.Use != nil {
			skill.Use(b, sourceID, selectedID)
		}
		b.DispatchEvent(rules.EventSkill, sourceID, data)
		return rules.StepDone
	}
	return rules.StepAbort
}

func isTargetDead(err error) bool {
	return errors.Is(err, targeting.ErrTargetDead)
}

// ActionUpdateMana changes the mana of teamID by delta, clamped to [0, 8].
// Overflow dispatches MANA_OVERFLOW and any change dispatches MANA_CHANGE.
func (b *Battle) ActionUpdateMana(sourceID, teamID, delta int, reason Reason) {
	b.Mana(teamID)
	payload := rules.Payload{
		rules.KeySourceID: sourceID,
		rules.KeyTeamID:   teamID,
		rules.KeyNum:      delta,
		rules.KeyReason:   reason,
	}
	b.sched.AddChild(func(b *Battle, data rules.Payload, _ int) int {
		applied, overflow := b.manas[teamID].Add(delta)
		if overflow {
			b.DispatchEvent(rules.EventManaOverflow, 0, data)
		}
		if applied != 0 {
			b.DispatchEvent(rules.EventManaChange, 0, data)
		}
		return rules.StepDone
	}, payload, "UpdateMana")
}

// ActionUpdateManaProgress changes the progress counter of teamID by delta,
// clamped to [0, 5].
func (b *Battle) ActionUpdateManaProgress(sourceID, teamID, delta int, reason Reason) {
	b.Mana(teamID)
	payload := rules.Payload{
		rules.KeySourceID: sourceID,
		rules.KeyTeamID:   teamID,
		rules.KeyNum:      delta,
		rules.KeyReason:   reason,
	}
	b.sched.AddChild(func(b *Battle, _ rules.Payload, _ int) int {
		b.manas[teamID].AddProgress(delta)
		return rules.StepDone
	}, payload, "UpdateManaProgress")
}

// ActionProcessManaProgress converts a full progress counter of teamID into
// mana.
func (b *Battle) ActionProcessManaProgress(sourceID, teamID int) {
	b.Mana(teamID)
	payload := rules.Payload{
		rules.KeySourceID: sourceID,
		rules.KeyTeamID:   teamID,
	}
	b.sched.AddChild(func(b *Battle, _ rules.Payload, _ int) int {
		if grant := b.manas[teamID].Convert(); grant > 0 {
			b.ActionUpdateMana(0, teamID, grant, ReasonManaProgress)
		}
		return rules.StepDone
	}, payload, "ProcessManaProgress")
}

// ActionUpdateRunwayPercent moves targetID along the runway by percent.
// Frozen or unknown runners are left alone.
func (b *Battle) ActionUpdateRunwayPercent(sourceID, targetID int, percent float64, reason Reason) {
	payload := rules.Payload{
		rules.KeySourceID: sourceID,
		rules.KeyTargetID: targetID,
		rules.KeyNum:      percent,
		rules.KeyReason:   reason,
	}
	b.sched.AddChild(func(b *Battle, _ rules.Payload, _ int) int {
		if !b.runway.UpdatePercent(targetID, percent) && b.logger != nil {
			b.logger.Debug("runway update ignored", zap.Int("target", targetID))
		}
		return rules.StepDone
	}, payload, "UpdateRunwayPercent")
}
