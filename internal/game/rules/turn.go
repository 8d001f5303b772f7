package rules

// SpeedFunc reports an entity's current effective speed.
type SpeedFunc func() float64

type runner struct {
	id       int
	speed    SpeedFunc
	position float64
	frozen   bool
}

// Runway orders entities for action by speed. Every runner travels a bar of
// length 1 at its current speed; the first to reach the end acts next and
// restarts from 0. Ties go to the runner registered first.
type Runway struct {
	runners []*runner
	byID    map[int]*runner
	cached  map[int]float64
}

// NewRunway creates an empty runway.
func NewRunway() *Runway {
	return &Runway{
		byID:   make(map[int]*runner),
		cached: make(map[int]float64),
	}
}

// AddEntity registers an entity and the function that reads its speed.
// Registering an id twice replaces its speed function.
func (r *Runway) AddEntity(id int, speed SpeedFunc) {
	if existing, ok := r.byID[id]; ok {
		existing.speed = speed
		return
	}
	rn := &runner{id: id, speed: speed}
	r.runners = append(r.runners, rn)
	r.byID[id] = rn
}

// Compute refreshes the cached speed of every runner.
func (r *Runway) Compute() {
	for _, rn := range r.runners {
		r.cached[rn.id] = r.speedOf(rn)
	}
}

func (r *Runway) speedOf(rn *runner) float64 {
	if rn.speed == nil {
		return 0
	}
	if s := rn.speed(); s > 0 {
		return s
	}
	return 0
}

// Next advances time until a runner reaches the end of the bar and returns
// its id. It returns 0 when no runner can move.
func (r *Runway) Next() int {
	r.Compute()
	var (
		best     *runner
		bestTime float64
	)
	for _, rn := range r.runners {
		speed := r.cached[rn.id]
		if rn.frozen || speed <= 0 {
			continue
		}
		remaining := 1 - rn.position
		if remaining < 0 {
			remaining = 0
		}
		t := remaining / speed
		if best == nil || t < bestTime {
			best, bestTime = rn, t
		}
	}
	if best == nil {
		return 0
	}
	for _, rn := range r.runners {
		if rn.frozen {
			continue
		}
		rn.position += r.cached[rn.id] * bestTime
		if rn.position > 1 {
			rn.position = 1
		}
	}
	best.position = 0
	return best.id
}

// UpdatePercent moves a runner along the bar by percent (of the bar length,
// negative pulls it back). Positions are clamped to [0, 1]. It reports false
// for unknown or frozen runners.
func (r *Runway) UpdatePercent(id int, percent float64) bool {
	rn, ok := r.byID[id]
	if !ok || rn.frozen {
		return false
	}
	rn.position += percent
	if rn.position < 0 {
		rn.position = 0
	}
	if rn.position > 1 {
		rn.position = 1
	}
	return true
}

// Freeze removes a runner from the turn order.
func (r *Runway) Freeze(id int) {
	if rn, ok := r.byID[id]; ok {
		rn.frozen = true
	}
}

// Frozen reports whether id is registered and frozen.
func (r *Runway) Frozen(id int) bool {
	rn, ok := r.byID[id]
	return ok && rn.frozen
}

// Position returns the runner's position in [0, 1].
func (r *Runway) Position(id int) (float64, bool) {
	rn, ok := r.byID[id]
	if !ok {
		return 0, false
	}
	return rn.position, true
}
