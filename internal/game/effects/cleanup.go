package effects

// TicksOn reports whether b counts down at the end of actorID's turn.
// Buffs count down on their owner's turns unless they were built with
// CountDownBySource. Buffs without a countdown never expire on their own.
func TicksOn(b *Buff, actorID int) bool {
	if b.CountDown <= 0 {
		return false
	}
	if b.Has(ParamCountDownBySource) {
		return b.SourceID == actorID
	}
	return b.OwnerID == actorID
}

// Tick decrements every buff that counts down on actorID's turn and returns
// the ones that reached zero, in collection order. Expired buffs stay in the
// collection; removing them is the caller's job so that removal events fire.
func (c *Collection) Tick(actorID int) []*Buff {
	var expired []*Buff
	for _, b := range c.buffs {
		if !TicksOn(b, actorID) {
			continue
		}
		b.CountDown--
		if b.CountDown == 0 {
			expired = append(expired, b)
		}
	}
	return expired
}

// Surplus returns the oldest same-named buffs of b's owner that must go
// before b can be inserted without exceeding its MaxCount.
func (c *Collection) Surplus(b *Buff) []*Buff {
	if b.MaxCount <= 0 {
		return nil
	}
	existing := c.ByName(b.OwnerID, b.Name)
	over := len(existing) + 1 - b.MaxCount
	if over <= 0 {
		return nil
	}
	return existing[:over]
}

// Orphans returns the dependent buffs whose dependency is no longer held.
// They contribute nothing already; callers may remove them to keep the
// collection small.
func (c *Collection) Orphans() []*Buff {
	return c.Filter(func(b *Buff) bool {
		return b.Has(ParamDependOn) && !c.HasNamed(b.DependsOn.OwnerID, b.DependsOn.Name)
	})
}
