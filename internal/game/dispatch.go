package game

import (
	"fmt"

	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/shikigami/battle-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// DispatchEvent schedules every handler registered for code that is in range
// of subjectID (0 for none), in ascending priority, and returns how many
// matched. The count is taken now; passive handlers whose owner is sealed
// when their turn comes are skipped but still counted.
//
// Handlers are discovered by scanning entities in id order, then skills,
// then handlers, so dispatch order is reproducible.
func (b *Battle) DispatchEvent(code rules.EventCode, subjectID int, payload rules.Payload) int {
	subject := rules.Subject{}
	if subjectID != 0 {
		e := b.GetEntity(subjectID)
		subject = rules.Subject{ID: e.ID, Team: e.TeamID}
	}

	var triggers []rules.Trigger[*Handler]
	for _, e := range b.entities {
		for _, skill := range e.skills {
			for i := range skill.Handlers {
				h := &skill.Handlers[i]
				if h.Code != code {
					continue
				}
				triggers = append(triggers, rules.Trigger[*Handler]{
					OwnerID:   e.ID,
					OwnerTeam: e.TeamID,
					SkillNo:   skill.No,
					Range:     h.Range,
					Priority:  h.Priority,
					Passive:   h.Passive || skill.Passive,
					Equipment: h.Equipment || skill.Equipment,
					Handler:   h,
				})
			}
		}
	}
	matched := rules.MatchTriggers(triggers, subject)

	data := payload.Clone()
	b.eventSeq++
	b.journal = append(b.journal, Record{
		Seq:     b.eventSeq,
		Kind:    RecordEvent,
		Depth:   b.sched.CurrentDepth(),
		Type:    code.String(),
		Code:    code,
		Subject: subjectID,
		Matched: len(matched),
	})
	if b.logger != nil {
		b.logger.Debug("dispatch event",
			zap.String("event", code.String()),
			zap.Int("subject", subjectID),
			zap.Int("matched", len(matched)),
		)
	}
	b.bus.Publish(rules.Event{
		Seq:       b.eventSeq,
		Code:      code,
		SubjectID: subjectID,
		Matched:   len(matched),
		Payload:   data.Clone(),
	})

	processKind := fmt.Sprintf("EventProcess(%s)", code)
	b.sched.AddChild(func(b *Battle, data rules.Payload, step int) int {
		if step > len(matched) {
			return rules.StepDone
		}
		tr := matched[step-1]
		if tr.Handler.Handle == nil {
			return step + 1
		}
		if b.sealed(tr, data) {
			if b.logger != nil {
				b.logger.Debug("sealed handler skipped",
					zap.String("event", code.String()),
					zap.Int("owner", tr.OwnerID),
					zap.Int("skill", tr.SkillNo),
				)
			}
			return step + 1
		}
		args := data.Clone()
		args[rules.KeySkillOwnerID] = tr.OwnerID
		args[rules.KeySkillNo] = tr.SkillNo
		b.sched.AddChild(tr.Handler.Handle, args, processKind)
		return step + 1
	}, data, fmt.Sprintf("Event(%s)", code))

	return len(matched)
}

// sealed reports whether a matched handler must be skipped: its owner
// carries the matching seal, or the event belongs to a hit that keeps the
// target's passive or equipment handlers out.
func (b *Battle) sealed(tr rules.Trigger[*Handler], data rules.Payload) bool {
	if tr.Passive && b.buffs.HasControl(tr.OwnerID, effects.ControlPassiveSeal) {
		return true
	}
	if tr.Equipment && b.buffs.HasControl(tr.OwnerID, effects.ControlEquipmentSeal) {
		return true
	}
	if hit, ok := data[rules.KeyHit].(*Hit); ok && hit.TargetID == tr.OwnerID {
		if tr.Passive && hit.Params.Has(AttackNoTargetPassive) {
			return true
		}
		if tr.Equipment && hit.Params.Has(AttackNoTargetEquipment) {
			return true
		}
	}
	return false
}
