package game

import (
	"sort"

	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/shikigami/battle-server-go/internal/game/rules"
	"github.com/shikigami/battle-server-go/internal/game/targeting"
	"go.uber.org/zap"
)

// Root task steps.
const (
	gameStepStart = iota + 1
	gameStepSenki
	gameStepNextTurn
	gameStepJudge
)

// gameTask is the root of every battle: start, pre-emptive phase, then one
// Turn child per actor until a team is wiped out or the turn limit is hit.
func gameTask(b *Battle, _ rules.Payload, step int) int {
	switch step {
	case gameStepStart:
		b.DispatchEvent(rules.EventGameStart, 0, nil)
		return gameStepSenki
	case gameStepSenki:
		b.runway.Compute()
		b.DispatchEvent(rules.EventSenki, 0, nil)
		return gameStepNextTurn
	case gameStepNextTurn:
		if b.judgeWin() {
			return rules.StepDone
		}
		if b.opts.MaxTurns > 0 && b.turn >= b.opts.MaxTurns {
			b.draw("turn limit reached")
			return rules.StepDone
		}
		actor := b.runway.Next()
		if actor == 0 {
			b.draw("no entity can act")
			return rules.StepDone
		}
		b.turn++
		b.currentID = actor
		if b.logger != nil {
			e := b.GetEntity(actor)
			b.logger.Debug("turn start",
				zap.Int("turn", b.turn),
				zap.Int("actor", actor),
				zap.String("name", e.Name),
				zap.Int("team_id", e.TeamID),
			)
		}
		b.sched.AddChild(turnTask, rules.Payload{rules.KeySourceID: actor}, "Turn")
		return gameStepJudge
	case gameStepJudge:
		if b.judgeWin() {
			return rules.StepDone
		}
		return gameStepNextTurn
	}
	return rules.StepAbort
}

func (b *Battle) draw(reason string) {
	b.ended = true
	b.winner = -1
	if b.logger != nil {
		b.logger.Info("battle drawn",
			zap.String("battle_id", b.id.String()),
			zap.String("reason", reason),
			zap.Int("turn", b.turn),
		)
	}
}

// Turn task steps.
const (
	turnStepMana = iota + 1
	turnStepStart
	turnStepActionStart
	turnStepAction
	turnStepActionEnd
	turnStepEnd
	turnStepCountDown
)

func turnTask(b *Battle, data rules.Payload, step int) int {
	actorID, _ := data.Int(rules.KeySourceID)
	actor := b.GetEntity(actorID)

	switch step {
	case turnStepMana:
		if actor.TeamID == TeamLeft || actor.TeamID == TeamRight {
			b.ActionUpdateManaProgress(actorID, actor.TeamID, 1, ReasonRule)
			b.ActionProcessManaProgress(actorID, actor.TeamID)
		}
		return turnStepStart
	case turnStepStart:
		b.DispatchEvent(rules.EventTurnStart, actorID, data)
		return turnStepActionStart
	case turnStepActionStart:
		b.DispatchEvent(rules.EventActionStart, actorID, data)
		return turnStepAction
	case turnStepAction:
		if actor.Dead || b.CannotAct(actorID) || b.ai == nil {
			return turnStepActionEnd
		}
		if !b.ai(b, actorID) && b.logger != nil {
			b.logger.Debug("actor passed", zap.Int("actor", actorID))
		}
		return turnStepActionEnd
	case turnStepActionEnd:
		b.DispatchEvent(rules.EventActionEnd, actorID, data)
		return turnStepEnd
	case turnStepEnd:
		b.DispatchEvent(rules.EventTurnEnd, actorID, data)
		return turnStepCountDown
	case turnStepCountDown:
		for _, buff := range b.buffs.Tick(actorID) {
			b.ActionRemoveBuff(buff, ReasonRule)
		}
		for _, buff := range b.buffs.Orphans() {
			if buff.CountDown == 0 {
				b.ActionRemoveBuff(buff, ReasonRule)
			}
		}
		return rules.StepDone
	}
	return rules.StepAbort
}

// DefaultAI uses the highest affordable active skill of the actor, falling
// back to lower slots. Enemy skills pick a random enemy; ally skills pick
// the living ally with the lowest hp; self skills target the actor. A
// silenced actor only uses slot 1.
func DefaultAI(b *Battle, actorID int) bool {
	actor := b.GetEntity(actorID)
	skills := append([]*Skill(nil), actor.Skills()...)
	sort.SliceStable(skills, func(i, j int) bool { return skills[i].No > skills[j].No })
	silenced := b.Silenced(actorID)

	for _, skill := range skills {
		if !skill.Usable() || (silenced && skill.No != 1) {
			continue
		}
		if cost := skill.CostFor(b, actorID); cost > 0 && !b.CanCost(actor.TeamID, cost) {
			continue
		}
		target := chooseTarget(b, actor, skill.Target.Kind)
		if target == 0 {
			continue
		}
		if b.ActionCheckAndUseSkill(skill.No, actorID, target, ReasonSkill) {
			return true
		}
	}
	return false
}

func chooseTarget(b *Battle, actor *Entity, kind targeting.TargetKind) int {
	switch kind {
	case targeting.TargetKindSelf:
		return actor.ID
	case targeting.TargetKindAlly:
		var (
			best      *Entity
			bestRatio float64
		)
		for _, e := range b.GetTeamEntities(actor.TeamID) {
			ratio := e.HP / atLeastOne(b.ComputeProperty(e.ID, effects.MaxHP))
			if best == nil || ratio < bestRatio {
				best, bestRatio = e, ratio
			}
		}
		if best == nil {
			return 0
		}
		return best.ID
	default:
		if e := b.RandomEnemy(actor.ID); e != nil {
			return e.ID
		}
		return 0
	}
}

// atLeastOne guards a divisor against values below 1.
func atLeastOne(v float64) float64 {
	if v < 1 {
		return 1
	}
	return v
}
