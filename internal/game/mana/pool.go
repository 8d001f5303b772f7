package mana

// Pool limits.
const (
	MaxMana     = 8
	MaxProgress = 5
)

// Pool is one team's mana: the spendable amount, a progress counter that
// periodically converts into mana, and the ratchet that sets how much mana
// each conversion grants.
type Pool struct {
	num         int
	progress    int
	preProgress int
}

// NewPool creates a pool holding start mana, clamped to [0, MaxMana].
func NewPool(start int) *Pool {
	return &Pool{num: clamp(start, 0, MaxMana)}
}

// Num returns the current mana.
func (p *Pool) Num() int {
	return p.num
}

// Progress returns the progress counter.
func (p *Pool) Progress() int {
	return p.progress
}

// PreProgress returns the conversion ratchet.
func (p *Pool) PreProgress() int {
	return p.preProgress
}

// CanCost reports whether the pool can pay count.
func (p *Pool) CanCost(count int) bool {
	return p.num >= count
}

// Add changes mana by delta, clamping to [0, MaxMana]. It reports the applied
// change and whether the unclamped result exceeded MaxMana.
func (p *Pool) Add(delta int) (applied int, overflow bool) {
	next := p.num + delta
	overflow = next > MaxMana
	next = clamp(next, 0, MaxMana)
	applied = next - p.num
	p.num = next
	return applied, overflow
}

// AddProgress changes progress by delta, clamping to [0, MaxProgress].
func (p *Pool) AddProgress(delta int) {
	p.progress = clamp(p.progress+delta, 0, MaxProgress)
}

// Convert turns a full progress counter into a grant. When progress has
// reached MaxProgress it resets progress, raises the ratchet (capped at
// MaxProgress) and returns the ratchet as the mana to grant; otherwise it
// returns 0. The grant itself is applied by the caller through Add.
func (p *Pool) Convert() int {
	if p.progress < MaxProgress {
		return 0
	}
	p.progress = 0
	p.preProgress = clamp(p.preProgress+1, 0, MaxProgress)
	return p.preProgress
}

// State is a copy of a pool's counters.
type State struct {
	Num         int `json:"num"`
	Progress    int `json:"progress"`
	PreProgress int `json:"pre_progress"`
}

// State returns a copy of the pool's counters.
func (p *Pool) State() State {
	return State{Num: p.num, Progress: p.progress, PreProgress: p.preProgress}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
