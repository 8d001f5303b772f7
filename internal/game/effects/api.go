package effects

// BuffBuilder provides a fluent API for creating buffs.
// This keeps hero content declarative:
//
//	effects.Build(source, target).Named("Inspire", 1).CountDown(2).
//		Buff(effects.Speed, effects.FixedAdd, 15).End()
type BuffBuilder struct {
	buff Buff
}

// Build starts a buff placed by sourceID on ownerID. Use GlobalOwner for a
// buff that applies to every entity.
func Build(sourceID, ownerID int) *BuffBuilder {
	return &BuffBuilder{buff: Buff{SourceID: sourceID, OwnerID: ownerID}}
}

// Named sets the buff name and, when maxCount > 0, the maximum number of
// same-named buffs one owner may hold.
func (b *BuffBuilder) Named(name string, maxCount int) *BuffBuilder {
	b.buff.Name = name
	if maxCount > 0 {
		b.buff.MaxCount = maxCount
	}
	return b
}

// CountDown makes the buff expire after n of its owner's turns.
func (b *BuffBuilder) CountDown(n int) *BuffBuilder {
	b.buff.CountDown = n
	b.buff.Params &^= ParamCountDownBySource
	return b
}

// CountDownBySource makes the buff expire after n of its source's turns.
func (b *BuffBuilder) CountDownBySource(n int) *BuffBuilder {
	b.buff.CountDown = n
	b.buff.Params |= ParamCountDownBySource
	return b
}

// Control marks the buff as a control effect of kind c.
func (b *BuffBuilder) Control(c Control) *BuffBuilder {
	b.buff.Params |= ParamControl
	b.buff.Control = c
	return b
}

// Probability requires a hit roll against p before the buff lands.
func (b *BuffBuilder) Probability(p float64) *BuffBuilder {
	b.buff.Params |= ParamProbability
	b.buff.Probability = p
	return b
}

// Buff attaches a beneficial property effect.
func (b *BuffBuilder) Buff(prop Property, kind EffectKind, value float64) *BuffBuilder {
	b.effect(prop, kind, value)
	b.buff.Params |= ParamBuff
	return b
}

// Debuff attaches a harmful property effect.
func (b *BuffBuilder) Debuff(prop Property, kind EffectKind, value float64) *BuffBuilder {
	b.effect(prop, kind, value)
	b.buff.Params |= ParamDebuff
	return b
}

func (b *BuffBuilder) effect(prop Property, kind EffectKind, value float64) {
	b.buff.Params |= ParamAffectProperty
	b.buff.Effect = &Effect{Property: prop, Kind: kind, Value: value}
}

// DependOn makes the buff inert while no buff named name is held by ownerID.
func (b *BuffBuilder) DependOn(ownerID int, name string) *BuffBuilder {
	b.buff.Params |= ParamDependOn
	b.buff.DependsOn = BuffRef{OwnerID: ownerID, Name: name}
	return b
}

// Enchantment marks the buff as a ward.
func (b *BuffBuilder) Enchantment() *BuffBuilder {
	b.buff.Params |= ParamEnchantment
	return b
}

// End returns the finished buff. The builder may be reused; every call
// returns a distinct buff.
func (b *BuffBuilder) End() *Buff {
	out := b.buff
	if out.Effect != nil {
		e := *out.Effect
		out.Effect = &e
	}
	return &out
}
