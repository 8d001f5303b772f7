package effects

// Collection is the battle-wide list of active buffs in insertion order.
// Buffs are removed by identity, never by index, so a handler that removes a
// buff while another handler holds a reference to it stays correct.
type Collection struct {
	buffs  []*Buff
	nextID int
}

// NewCollection constructs an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Add appends b and assigns its ID if it has none.
func (c *Collection) Add(b *Buff) {
	if b == nil {
		return
	}
	if b.ID == 0 {
		c.nextID++
		b.ID = c.nextID
	}
	c.buffs = append(c.buffs, b)
}

// Remove deletes b by identity and reports whether it was present.
func (c *Collection) Remove(b *Buff) bool {
	for i, existing := range c.buffs {
		if existing == b {
			c.buffs = append(c.buffs[:i:i], c.buffs[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether b is active.
func (c *Collection) Contains(b *Buff) bool {
	for _, existing := range c.buffs {
		if existing == b {
			return true
		}
	}
	return false
}

// Len returns the number of active buffs.
func (c *Collection) Len() int {
	return len(c.buffs)
}

// All returns a copy of the active buffs in order.
func (c *Collection) All() []*Buff {
	out := make([]*Buff, len(c.buffs))
	copy(out, c.buffs)
	return out
}

// Filter returns the active buffs for which keep returns true, in order.
func (c *Collection) Filter(keep func(*Buff) bool) []*Buff {
	var out []*Buff
	for _, b := range c.buffs {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

// ByName returns buffs held by ownerID called name.
func (c *Collection) ByName(ownerID int, name string) []*Buff {
	return c.Filter(func(b *Buff) bool { return b.OwnerID == ownerID && b.Name == name })
}

// BySource returns buffs held by ownerID that were placed by sourceID.
func (c *Collection) BySource(ownerID, sourceID int) []*Buff {
	return c.Filter(func(b *Buff) bool { return b.OwnerID == ownerID && b.SourceID == sourceID })
}

// ByControl returns ownerID's control buffs of any of the given kinds.
func (c *Collection) ByControl(ownerID int, controls ...Control) []*Buff {
	return c.Filter(func(b *Buff) bool { return b.OwnerID == ownerID && b.IsControl(controls...) })
}

// HasNamed reports whether ownerID holds a buff called name.
func (c *Collection) HasNamed(ownerID int, name string) bool {
	for _, b := range c.buffs {
		if b.OwnerID == ownerID && b.Name == name {
			return true
		}
	}
	return false
}

// HasControl reports whether ownerID carries a control buff of any of the
// given kinds.
func (c *Collection) HasControl(ownerID int, controls ...Control) bool {
	for _, b := range c.buffs {
		if b.OwnerID == ownerID && b.IsControl(controls...) {
			return true
		}
	}
	return false
}

// Applicable reports whether b currently contributes its effect to
// computations of prop for ownerID.
func (c *Collection) Applicable(b *Buff, ownerID int, prop Property) bool {
	if b.OwnerID != ownerID && !b.IsGlobal() {
		return false
	}
	if !b.Has(ParamAffectProperty) || b.Effect == nil || b.Effect.Property != prop {
		return false
	}
	if b.Has(ParamDependOn) && !c.HasNamed(b.DependsOn.OwnerID, b.DependsOn.Name) {
		return false
	}
	return true
}

// EffectsFor returns, in collection order, the effects that apply to prop
// on ownerID. Global buffs apply to every owner. Dependencies are checked on
// every call.
func (c *Collection) EffectsFor(ownerID int, prop Property) []Effect {
	var out []Effect
	for _, b := range c.buffs {
		if c.Applicable(b, ownerID, prop) {
			out = append(out, *b.Effect)
		}
	}
	return out
}

// Resolve folds effects left to right starting from base.
func Resolve(base float64, effects []Effect) float64 {
	current := base
	for _, e := range effects {
		current = e.Apply(current, base)
	}
	return current
}

// Compute returns base folded through the effects that apply to prop on
// ownerID. It never mutates the collection.
func (c *Collection) Compute(ownerID int, prop Property, base float64) float64 {
	return Resolve(base, c.EffectsFor(ownerID, prop))
}
