package game

import (
	"math"

	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/shikigami/battle-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// AttackParam flags an attack.
type AttackParam uint8

const (
	// AttackComputeCritical rolls the source's critical rate.
	AttackComputeCritical AttackParam = 1 << iota
	AttackSingle
	AttackGroup
	AttackNormal
	// AttackNoTargetEquipment keeps the target's equipment handlers out of
	// the events of this hit.
	AttackNoTargetEquipment
	// AttackNoTargetPassive keeps the target's passive handlers out of the
	// events of this hit.
	AttackNoTargetPassive
)

// Has reports whether all of p are set.
func (a AttackParam) Has(p AttackParam) bool {
	return a&p == p
}

// defenseConstant shapes the defense curve: damage scales with
// defenseConstant / (defenseConstant + defense).
const defenseConstant = 300

// AttackInfo describes one hit of an attack.
type AttackInfo struct {
	TargetID int
	SourceID int
	Rate     float64
	Params   AttackParam
	// Completed runs after the hit resolved, with the hit's payload.
	Completed func(b *Battle, data rules.Payload)
}

// Hit is the shared, mutable record of one hit in flight. It is carried in
// event payloads under rules.KeyHit so WILL_DAMAGE handlers can change
// Damage before it is applied.
type Hit struct {
	SourceID int
	TargetID int
	Rate     float64
	Params   AttackParam
	Damage   float64
	Critical bool
}

// ActionAttack schedules an attack made of one hit per info, resolved in
// order. Hits on targets that are dead by then are skipped.
func (b *Battle) ActionAttack(infos ...AttackInfo) bool {
	if len(infos) == 0 {
		return false
	}
	hits := append([]AttackInfo(nil), infos...)
	b.sched.AddChild(func(b *Battle, _ rules.Payload, step int) int {
		if step != 1 {
			return rules.StepDone
		}
		for _, info := range hits {
			b.addHit(info)
		}
		return 2
	}, rules.Payload{"hits": len(hits)}, "Attack")
	return true
}

func (b *Battle) addHit(info AttackInfo) {
	hit := &Hit{
		SourceID: info.SourceID,
		TargetID: info.TargetID,
		Rate:     info.Rate,
		Params:   info.Params,
	}
	payload := rules.Payload{
		rules.KeySourceID: info.SourceID,
		rules.KeyTargetID: info.TargetID,
		rules.KeyHit:      hit,
	}
	completed := info.Completed
	b.sched.AddChild(func(b *Battle, data rules.Payload, step int) int {
		return hitTask(b, data, step, hit, completed)
	}, payload, "AttackHit")
}

func hitTask(b *Battle, data rules.Payload, step int, hit *Hit, completed func(*Battle, rules.Payload)) int {
	target := b.GetEntity(hit.TargetID)
	source := b.GetEntity(hit.SourceID)

	switch step {
	case 1:
		if target.Dead || source.Dead {
			return rules.StepDone
		}
		b.DispatchEvent(rules.EventBeforeAttack, hit.SourceID, data)
		return 2
	case 2:
		if target.Dead {
			return rules.StepDone
		}
		hit.Damage, hit.Critical = b.computeDamage(hit)
		b.DispatchEvent(rules.EventWillDamage, hit.SourceID, data)
		return 3
	case 3:
		if target.Dead {
			return rules.StepDone
		}
		damage := math.Max(hit.Damage, 0)
		absorbed := math.Min(target.Shield, damage)
		target.Shield -= absorbed
		data[rules.KeyDamage] = damage
		data[rules.KeyCritical] = hit.Critical

		if b.logger != nil {
			b.logger.Debug("attack hit",
				zap.Int("source", hit.SourceID),
				zap.Int("target", hit.TargetID),
				zap.Float64("damage", damage),
				zap.Float64("absorbed", absorbed),
				zap.Bool("critical", hit.Critical),
			)
		}
		if damage-absorbed > 0 {
			b.ActionUpdateHp(hit.SourceID, hit.TargetID, -(damage - absorbed), ReasonAttack)
		}
		if steal := b.ComputeProperty(hit.SourceID, effects.HpSteal); steal > 0 && damage > 0 {
			b.ActionUpdateHp(hit.SourceID, hit.SourceID, damage*steal, ReasonAttack)
		}
		return 4
	case 4:
		b.DispatchEvent(rules.EventAttack, hit.SourceID, data)
		b.DispatchEvent(rules.EventTakenAttack, hit.TargetID, data)
		b.DispatchEvent(rules.EventDamage, hit.SourceID, data)
		b.DispatchEvent(rules.EventTakenDamage, hit.TargetID, data)
		if hit.Critical {
			b.DispatchEvent(rules.EventCritical, hit.SourceID, data)
		}
		return 5
	case 5:
		if target.Dead {
			b.DispatchEvent(rules.EventKill, hit.SourceID, data)
		} else {
			b.DispatchEvent(rules.EventNoKill, hit.SourceID, data)
		}
		if completed != nil {
			completed(b, data)
		}
		return rules.StepDone
	}
	return rules.StepAbort
}

// computeDamage rolls one hit. The critical roll is drawn before the damage
// jitter so the random sequence is fixed per hit.
func (b *Battle) computeDamage(hit *Hit) (float64, bool) {
	src, dst := hit.SourceID, hit.TargetID
	atk := b.ComputeProperty(src, effects.Attack)
	def := b.ComputeProperty(dst, effects.Defense)
	def = math.Max(def*(1-b.ComputeProperty(src, effects.DefenseIgnoreP))-b.ComputeProperty(src, effects.DefenseIgnore), 0)

	damage := atk * hit.Rate * defenseConstant / (defenseConstant + def)

	critical := false
	if hit.Params.Has(AttackComputeCritical) && b.TestHit(b.ComputeProperty(src, effects.Critical)) {
		critical = true
		damage *= b.ComputeProperty(src, effects.CriticalDamage)
	}

	damage *= 1 + b.ComputeProperty(src, effects.DamageDealtUp) - b.ComputeProperty(src, effects.DamageDealtDn)
	damage *= 1 + b.ComputeProperty(dst, effects.DamageTakenUp) - b.ComputeProperty(dst, effects.DamageTakenDn)
	damage *= 0.99 + 0.02*b.random.Real()

	return math.Max(damage, 0), critical
}
