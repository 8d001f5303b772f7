package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/shikigami/battle-server-go/internal/game/mana"
	"github.com/shikigami/battle-server-go/internal/game/rules"
	"github.com/shikigami/battle-server-go/internal/game/targeting"
	"github.com/shikigami/battle-server-go/internal/game/watchers"
	"github.com/shikigami/battle-server-go/internal/random"
	"go.uber.org/zap"
)

// Options are the rule knobs of one battle.
type Options struct {
	Seed int64
	// MaxTurns ends the battle as a draw once exceeded.
	MaxTurns int
	// StallLimit is the number of consecutive Advance calls without an
	// executed step after which Run gives up.
	StallLimit int
	StartMana  int
	// ResistPreventsBuff stops a resisted buff from landing. When false the
	// resist event fires and the buff is inserted anyway.
	ResistPreventsBuff bool
}

// DefaultOptions returns the standard rule set.
func DefaultOptions() Options {
	return Options{
		MaxTurns:   200,
		StallLimit: 3,
		StartMana:  4,
	}
}

// RosterEntry selects one catalog hero for a team.
type RosterEntry struct {
	No         int   `json:"no" mapstructure:"no"`
	TeamID     int   `json:"team_id" mapstructure:"team_id"`
	Level      int   `json:"level,omitempty" mapstructure:"level"`
	Equipments []int `json:"equipments,omitempty" mapstructure:"equipments"`
}

// AIFunc picks and schedules the action of actorID for its turn. It reports
// whether anything was scheduled.
type AIFunc func(b *Battle, actorID int) bool

// Battle is the engine state of one run: the entity store, the active buffs,
// both mana pools, the runway and the task tree that drives them.
//
// A Battle is single threaded. Every mutation happens inside a task step, and
// a step only runs from Advance.
type Battle struct {
	id     uuid.UUID
	opts   Options
	logger *zap.Logger

	roster   []RosterEntry
	rejected []RosterError

	entities []*Entity
	byID     map[int]*Entity
	nextID   int

	buffs  *effects.Collection
	manas  [2]*mana.Pool
	runway *rules.Runway
	random *random.Source
	sched  *rules.Scheduler[*Battle]

	bus      *rules.EventBus
	watchers *rules.WatcherRegistry
	journal  []Record
	eventSeq uint64

	ai        AIFunc
	turn      int
	currentID int
	winner    int
	ended     bool
	aborted   error
}

// NewBattle builds a battle from roster. Entries with a team outside {0, 1}
// or an unknown catalog number are skipped and reported by Rejected.
func NewBattle(opts Options, catalog *Catalog, roster []RosterEntry, logger *zap.Logger) *Battle {
	if opts.StallLimit <= 0 {
		opts.StallLimit = DefaultOptions().StallLimit
	}
	b := &Battle{
		id:       uuid.New(),
		opts:     opts,
		logger:   logger,
		roster:   append([]RosterEntry(nil), roster...),
		byID:     make(map[int]*Entity),
		nextID:   1,
		buffs:    effects.NewCollection(),
		manas:    [2]*mana.Pool{mana.NewPool(opts.StartMana), mana.NewPool(opts.StartMana)},
		runway:   rules.NewRunway(),
		random:   random.New(opts.Seed),
		bus:      rules.NewEventBus(),
		watchers: rules.NewWatcherRegistry(),
		ai:       DefaultAI,
		winner:   -1,
	}
	b.watchers.Attach(b.bus)
	b.watchers.AddWatcher(watchers.NewEventCountWatcher())
	b.watchers.AddWatcher(watchers.NewDeathWatcher())

	b.sched = rules.NewScheduler(b, gameTask, "Game")
	b.sched.SetLogger(logger)
	b.sched.SetTraceHook(b.recordStep)

	for i, entry := range roster {
		b.addRosterEntry(catalog, i, entry)
	}

	if b.logger != nil {
		b.logger.Info("battle created",
			zap.String("battle_id", b.id.String()),
			zap.Int64("seed", opts.Seed),
			zap.Int("entities", len(b.entities)),
			zap.Int("rejected", len(b.rejected)),
		)
	}
	return b
}

func (b *Battle) addRosterEntry(catalog *Catalog, index int, entry RosterEntry) {
	reject := func(reason string, partial bool) {
		b.rejected = append(b.rejected, RosterError{Index: index, Entry: entry, Reason: reason, Partial: partial})
		if b.logger != nil {
			b.logger.Warn("invalid roster entry",
				zap.Int("index", index),
				zap.Int("no", entry.No),
				zap.Int("team_id", entry.TeamID),
				zap.String("reason", reason),
				zap.Bool("partial", partial),
			)
		}
	}

	if entry.TeamID != TeamLeft && entry.TeamID != TeamRight {
		reject("team id must be 0 or 1", false)
		return
	}
	build, ok := catalog.Hero(entry.No)
	if !ok {
		reject("unknown catalog number", false)
		return
	}
	e := build()
	if entry.Level > 0 {
		e.Level = entry.Level
	}
	for _, no := range entry.Equipments {
		equip, ok := catalog.Equipment(no)
		if !ok {
			reject(fmt.Sprintf("unknown equipment %d", no), true)
			continue
		}
		skill := equip()
		skill.Equipment = true
		for i := range skill.Handlers {
			skill.Handlers[i].Equipment = true
		}
		e.AddSkill(skill)
	}
	b.AddEntity(e, entry.TeamID)
}

// AddEntity puts e on team and on the runway and returns its new id.
func (b *Battle) AddEntity(e *Entity, teamID int) int {
	e.ID = b.nextID
	b.nextID++
	e.TeamID = teamID
	b.entities = append(b.entities, e)
	b.byID[e.ID] = e

	id := e.ID
	b.runway.AddEntity(id, func() float64 {
		return b.ComputeProperty(id, effects.Speed)
	})

	if b.logger != nil {
		b.logger.Debug("entity joined",
			zap.Int("entity_id", id),
			zap.Int("no", e.No),
			zap.String("name", e.Name),
			zap.Int("team_id", teamID),
		)
	}
	return id
}

// ID returns the battle identifier. It is never part of a checksum.
func (b *Battle) ID() uuid.UUID {
	return b.id
}

// Options returns the rule set the battle runs with.
func (b *Battle) Options() Options {
	return b.opts
}

// Roster returns the roster the battle was built from.
func (b *Battle) Roster() []RosterEntry {
	return append([]RosterEntry(nil), b.roster...)
}

// Rejected returns the roster entries that were skipped.
func (b *Battle) Rejected() []RosterError {
	return append([]RosterError(nil), b.rejected...)
}

// SetAI replaces the turn AI. A nil AI makes every actor pass.
func (b *Battle) SetAI(ai AIFunc) {
	b.ai = ai
}

// Events returns the observer bus. Listeners see every dispatch but must not
// drive gameplay.
func (b *Battle) Events() *rules.EventBus {
	return b.bus
}

// Watchers returns the watcher registry attached to the event bus.
func (b *Battle) Watchers() *rules.WatcherRegistry {
	return b.watchers
}

// Deaths returns entity ids in the order they died.
func (b *Battle) Deaths() []int {
	if w, ok := b.watchers.GetWatcher("DeathWatcher").(*watchers.DeathWatcher); ok {
		return w.GetDead()
	}
	return nil
}

// Buffs returns the active buffs in collection order.
func (b *Battle) Buffs() *effects.Collection {
	return b.buffs
}

// Runway returns the turn order.
func (b *Battle) Runway() *rules.Runway {
	return b.runway
}

// Mana returns the pool of teamID.
func (b *Battle) Mana(teamID int) *mana.Pool {
	if teamID != TeamLeft && teamID != TeamRight {
		fail("mana", "team %d: %w", teamID, ErrUnknownTeam)
	}
	return b.manas[teamID]
}

// CanCost reports whether teamID can pay count. Neutral teams never can.
func (b *Battle) CanCost(teamID, count int) bool {
	if teamID != TeamLeft && teamID != TeamRight {
		return false
	}
	return b.manas[teamID].CanCost(count)
}

// Turn returns the number of turns started so far.
func (b *Battle) Turn() int {
	return b.turn
}

// CurrentID returns the entity acting this turn, 0 before the first turn.
func (b *Battle) CurrentID() int {
	return b.currentID
}

// Winner returns the winning team, or -1 while running or after a draw.
func (b *Battle) Winner() int {
	return b.winner
}

// Ended reports whether the battle reached an outcome.
func (b *Battle) Ended() bool {
	return b.ended
}

// Err returns the error that aborted the battle, if any.
func (b *Battle) Err() error {
	return b.aborted
}

// Scheduler exposes the task tree for drivers and diagnostics.
func (b *Battle) Scheduler() *rules.Scheduler[*Battle] {
	return b.sched
}

// Advance performs one scheduling step and reports whether the battle is
// over. A programming error raised by a step aborts the battle; the error is
// returned now and on every later call.
func (b *Battle) Advance() (finished bool, err error) {
	if b.aborted != nil {
		return true, b.aborted
	}
	if b.ended {
		return true, nil
	}

	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(*ProgrammingError)
			if !ok {
				panic(r)
			}
			b.aborted = fmt.Errorf("%w: %w", ErrBattleAborted, perr)
			if b.logger != nil {
				b.logger.Error("battle aborted",
					zap.String("battle_id", b.id.String()),
					zap.String("task", b.sched.CurrentType()),
					zap.Int("step", b.sched.CurrentStep()),
					zap.Error(perr),
				)
			}
			finished, err = true, b.aborted
		}
	}()

	if b.sched.Advance() {
		b.ended = true
	}
	return b.ended, nil
}

// Run advances until the battle is over, ctx is done, maxSteps calls were
// made (0 means unlimited) or the tree stalls.
func (b *Battle) Run(ctx context.Context, maxSteps int) error {
	idle := 0
	for calls := 0; maxSteps <= 0 || calls < maxSteps; calls++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		before := b.sched.Executed()
		finished, err := b.Advance()
		if err != nil {
			return err
		}
		if finished {
			if b.logger != nil {
				b.logger.Info("battle finished",
					zap.String("battle_id", b.id.String()),
					zap.Int("winner", b.winner),
					zap.Int("turns", b.turn),
					zap.Uint64("steps", b.sched.Executed()),
				)
			}
			return nil
		}
		if b.sched.Executed() == before {
			idle++
			if idle >= b.opts.StallLimit {
				if b.logger != nil {
					b.logger.Warn("battle stalled",
						zap.String("battle_id", b.id.String()),
						zap.String("task", b.sched.CurrentType()),
						zap.Int("depth", b.sched.CurrentDepth()),
					)
				}
				return fmt.Errorf("%w at task %s", ErrBattleStalled, b.sched.CurrentType())
			}
			continue
		}
		idle = 0
	}
	return ErrStepLimit
}

// Dump returns the current task tree.
func (b *Battle) Dump() rules.TaskDump {
	return b.sched.Dump()
}

// Journal returns a copy of every step and dispatch recorded so far.
func (b *Battle) Journal() []Record {
	return append([]Record(nil), b.journal...)
}

func (b *Battle) recordStep(st rules.StepTrace) {
	b.journal = append(b.journal, Record{
		Seq:   st.Seq,
		Kind:  RecordStep,
		Depth: st.Depth,
		Type:  st.Type,
		Step:  st.Step,
		Next:  st.Next,
	})
}

// LookupEntity returns the entity with id.
func (b *Battle) LookupEntity(id int) (*Entity, bool) {
	e, ok := b.byID[id]
	return e, ok
}

// GetEntity returns the entity with id. An unknown id is a programming
// error.
func (b *Battle) GetEntity(id int) *Entity {
	e, ok := b.byID[id]
	if !ok {
		fail("get entity", "id %d: %w", id, ErrEntityNotFound)
	}
	return e
}

// Entities returns every entity in id order, dead ones included.
func (b *Battle) Entities() []*Entity {
	return append([]*Entity(nil), b.entities...)
}

// GetTeamEntities returns the living members of teamID in id order.
func (b *Battle) GetTeamEntities(teamID int) []*Entity {
	var out []*Entity
	for _, e := range b.entities {
		if e.TeamID == teamID && !e.Dead {
			out = append(out, e)
		}
	}
	return out
}

// IsConfused reports whether id carries a confusion control.
func (b *Battle) IsConfused(id int) bool {
	return b.buffs.HasControl(id, effects.ControlConfusion)
}

// CannotAct reports whether id is held by an incapacitating control.
func (b *Battle) CannotAct(id int) bool {
	return b.buffs.HasControl(id, effects.Incapacitating...)
}

// Silenced reports whether id carries a silence control.
func (b *Battle) Silenced(id int) bool {
	return b.buffs.HasControl(id, effects.ControlSilence)
}

// GetEnemies returns the living, competing entities id may attack: the other
// team, or everybody but itself while confused.
func (b *Battle) GetEnemies(id int) []*Entity {
	self := b.GetEntity(id)
	confused := b.IsConfused(id)
	var out []*Entity
	for _, e := range b.entities {
		if e.ID == id || e.Dead {
			continue
		}
		if e.TeamID != TeamLeft && e.TeamID != TeamRight {
			continue
		}
		if !confused && e.TeamID == self.TeamID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// RandomEnemy picks one of GetEnemies(id) uniformly, or nil if there is none.
func (b *Battle) RandomEnemy(id int) *Entity {
	enemies := b.GetEnemies(id)
	if len(enemies) == 0 {
		return nil
	}
	return enemies[b.random.Integer(0, len(enemies)-1)]
}

// TestHit draws once from the battle's random source and reports a hit with
// probability p.
func (b *Battle) TestHit(p float64) bool {
	return b.random.Hit(p)
}

// Random returns the battle's random source.
func (b *Battle) Random() *random.Source {
	return b.random
}

// ComputeProperty returns the effective value of prop for id: its base value
// folded through every applicable active buff. GlobalOwner has an implied
// base of 0 and only sees global buffs. It never mutates state.
func (b *Battle) ComputeProperty(id int, prop effects.Property) float64 {
	if !effects.IsProperty(prop) {
		fail("compute property", "%q on entity %d: %w", prop, id, ErrUnknownProperty)
	}
	if id == effects.GlobalOwner {
		return b.buffs.Compute(effects.GlobalOwner, prop, 0)
	}
	base, ok := b.GetEntity(id).Property(prop)
	if !ok {
		fail("compute property", "%q on entity %d: %w", prop, id, ErrUnknownProperty)
	}
	return b.buffs.Compute(id, prop, base)
}

// FindEntityForTarget implements targeting.TargetStateAccessor.
func (b *Battle) FindEntityForTarget(id int) (targeting.TargetEntityInfo, bool) {
	e, ok := b.byID[id]
	if !ok {
		return targeting.TargetEntityInfo{}, false
	}
	return targeting.TargetEntityInfo{ID: e.ID, Name: e.Name, TeamID: e.TeamID, Dead: e.Dead}, true
}

// judgeWin ends the battle once a team has no living competing entity. Team
// 0 is checked first, so a double wipe goes to team 1.
func (b *Battle) judgeWin() bool {
	var alive [2]int
	for _, e := range b.entities {
		if e.competing() {
			alive[e.TeamID]++
		}
	}
	switch {
	case alive[TeamLeft] == 0:
		b.finish(TeamRight)
	case alive[TeamRight] == 0:
		b.finish(TeamLeft)
	}
	return b.ended
}

func (b *Battle) finish(winner int) {
	b.ended = true
	b.winner = winner
	if b.logger != nil {
		b.logger.Info("battle decided",
			zap.String("battle_id", b.id.String()),
			zap.Int("winner", winner),
			zap.Int("turn", b.turn),
		)
	}
}
