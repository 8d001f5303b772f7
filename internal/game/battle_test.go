package game

import (
	"context"
	"errors"
	"testing"

	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/shikigami/battle-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func quietLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
}

func seededOptions(seed int64) Options {
	opts := DefaultOptions()
	opts.Seed = seed
	return opts
}

func TestBattleRunsToCompletion(t *testing.T) {
	b := NewBattle(seededOptions(3), testCatalog(), testRoster(), quietLogger(t))
	require.Empty(t, b.Rejected())
	require.Len(t, b.Entities(), 4)

	require.NoError(t, b.Run(context.Background(), 0))
	assert.True(t, b.Ended())
	assert.Positive(t, b.Turn())
	if b.Winner() >= 0 {
		assert.Empty(t, b.GetTeamEntities(1-b.Winner()))
	}
}

func TestAdvanceAfterEndIsIdempotent(t *testing.T) {
	b := NewBattle(seededOptions(5), testCatalog(), testRoster(), quietLogger(t))
	require.NoError(t, b.Run(context.Background(), 0))

	executed := b.Scheduler().Executed()
	journal := len(b.Journal())
	for i := 0; i < 3; i++ {
		finished, err := b.Advance()
		assert.True(t, finished)
		assert.NoError(t, err)
	}
	assert.Equal(t, executed, b.Scheduler().Executed())
	assert.Len(t, b.Journal(), journal)
}

func TestRosterRejectsInvalidEntries(t *testing.T) {
	roster := []RosterEntry{
		{No: 1, TeamID: TeamLeft},
		{No: 1, TeamID: 2},
		{No: 77, TeamID: TeamRight},
		{No: 2, TeamID: TeamRight, Level: 35, Equipments: []int{1, 9}},
	}
	b := NewBattle(DefaultOptions(), testCatalog(), roster, quietLogger(t))

	require.Len(t, b.Entities(), 2)
	rejected := b.Rejected()
	require.Len(t, rejected, 3)
	assert.Equal(t, 1, rejected[0].Index)
	assert.Equal(t, 2, rejected[1].Index)
	assert.Equal(t, 3, rejected[2].Index)
	assert.False(t, rejected[0].Partial)
	assert.False(t, rejected[1].Partial)
	assert.True(t, rejected[2].Partial)
	assert.Contains(t, rejected[2].Error(), "joined without unknown equipment 9")

	mender := b.Entities()[1]
	assert.Equal(t, 35, mender.Level)
	charm := mender.Skill(100)
	require.NotNil(t, charm)
	assert.True(t, charm.Equipment)
	assert.True(t, charm.Handlers[0].Equipment)
}

func TestEntityIDsAreMonotonic(t *testing.T) {
	b := NewBattle(DefaultOptions(), testCatalog(), testRoster(), nil)
	for i, e := range b.Entities() {
		assert.Equal(t, i+1, e.ID)
	}
}

func TestTurnLimitIsADraw(t *testing.T) {
	opts := seededOptions(1)
	opts.MaxTurns = 2
	b := NewBattle(opts, testCatalog(), testRoster(), quietLogger(t))
	require.NoError(t, b.Run(context.Background(), 0))

	assert.True(t, b.Ended())
	assert.Equal(t, -1, b.Winner())
	assert.Equal(t, 2, b.Turn())
}

func TestNoRunnerIsADraw(t *testing.T) {
	b := NewBattle(DefaultOptions(), nil, nil, quietLogger(t))
	left := NewEntity(1, "Still")
	right := NewEntity(1, "Still")
	b.AddEntity(left, TeamLeft)
	b.AddEntity(right, TeamRight)

	require.NoError(t, b.Run(context.Background(), 0))
	assert.Equal(t, -1, b.Winner())
	assert.Equal(t, 0, b.Turn())
}

func TestEmptyTeamLoses(t *testing.T) {
	b := NewBattle(DefaultOptions(), testCatalog(), []RosterEntry{{No: 1, TeamID: TeamRight}}, quietLogger(t))
	require.NoError(t, b.Run(context.Background(), 0))
	assert.Equal(t, TeamRight, b.Winner())
}

func TestProgrammingErrorAbortsBattle(t *testing.T) {
	b := NewBattle(DefaultOptions(), testCatalog(), testRoster(), quietLogger(t))
	b.SetAI(func(b *Battle, _ int) bool {
		b.ComputeProperty(1, effects.Property("luck"))
		return true
	})

	err := b.Run(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBattleAborted)
	assert.ErrorIs(t, err, ErrUnknownProperty)
	var perr *ProgrammingError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "compute property", perr.Op)

	finished, again := b.Advance()
	assert.True(t, finished)
	assert.Equal(t, err, again)
	assert.Equal(t, err, b.Err())
}

func TestOtherPanicsPropagate(t *testing.T) {
	b := NewBattle(DefaultOptions(), testCatalog(), testRoster(), quietLogger(t))
	b.SetAI(func(*Battle, int) bool { panic("boom") })
	assert.PanicsWithValue(t, "boom", func() {
		_ = b.Run(context.Background(), 0)
	})
}

func TestRunDetectsStall(t *testing.T) {
	b := NewBattle(DefaultOptions(), testCatalog(), testRoster(), quietLogger(t))
	b.SetAI(func(b *Battle, _ int) bool {
		b.Scheduler().AddChild(func(*Battle, rules.Payload, int) int { return rules.StepAbort }, nil, "Stuck")
		return true
	})

	err := b.Run(context.Background(), 0)
	require.ErrorIs(t, err, ErrBattleStalled)
	assert.Contains(t, err.Error(), "Stuck")
	assert.True(t, b.Scheduler().Stalled())
	assert.False(t, b.Ended())
}

func TestRunStepLimit(t *testing.T) {
	b := NewBattle(DefaultOptions(), testCatalog(), testRoster(), quietLogger(t))
	assert.ErrorIs(t, b.Run(context.Background(), 10), ErrStepLimit)
	assert.False(t, b.Ended())
}

func TestRunHonoursContext(t *testing.T) {
	b := NewBattle(DefaultOptions(), testCatalog(), testRoster(), quietLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Run(ctx, 0), context.Canceled)
}

func TestSameSeedSameBattle(t *testing.T) {
	run := func(seed int64) (*Battle, string) {
		b := NewBattle(seededOptions(seed), testCatalog(), testRoster(), quietLogger(t))
		require.NoError(t, b.Run(context.Background(), 0))
		sum, err := b.Snapshot().ComputeChecksum()
		require.NoError(t, err)
		return b, sum.Hash
	}
	a, sumA := run(21)
	b, sumB := run(21)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, sumA, sumB)
	assert.Equal(t, a.Journal(), b.Journal())
}

func TestGetEnemiesHonoursConfusion(t *testing.T) {
	h := NewBattleHarness(t, DefaultOptions())
	self := h.Add(EntitySpec{Name: "Self", Team: TeamLeft})
	ally := h.Add(EntitySpec{Name: "Ally", Team: TeamLeft})
	foe := h.Add(EntitySpec{Name: "Foe", Team: TeamRight})
	neutral := NewEntity(0, "Bystander")
	h.b.AddEntity(neutral, TeamNeutral)

	ids := func(es []*Entity) []int {
		var out []int
		for _, e := range es {
			out = append(out, e.ID)
		}
		return out
	}
	assert.Equal(t, []int{foe}, ids(h.b.GetEnemies(self)))

	h.b.Buffs().Add(effects.Build(foe, self).Named("Daze", 1).Control(effects.ControlConfusion).End())
	assert.Equal(t, []int{ally, foe}, ids(h.b.GetEnemies(self)))
}

func TestCannotActUnderIncapacitatingControl(t *testing.T) {
	h := NewBattleHarness(t, DefaultOptions())
	id := h.Add(EntitySpec{Name: "Sleeper", Team: TeamLeft})
	assert.False(t, h.b.CannotAct(id))

	h.b.Buffs().Add(effects.Build(0, id).Named("Sleep", 1).Control(effects.ControlSleep).End())
	assert.True(t, h.b.CannotAct(id))
}

func TestComputePropertyFoldsGlobalBuffs(t *testing.T) {
	h := NewBattleHarness(t, DefaultOptions())
	id := h.Add(EntitySpec{Name: "Target", Team: TeamLeft, Defense: 100})
	h.b.Buffs().Add(effects.Build(0, effects.GlobalOwner).Buff(effects.Defense, effects.RateOfBase, 0.5).End())
	h.b.Buffs().Add(effects.Build(0, id).Buff(effects.Defense, effects.FixedAdd, 10).End())

	assert.Equal(t, 160.0, h.b.ComputeProperty(id, effects.Defense))
	assert.Equal(t, 0.0, h.b.ComputeProperty(effects.GlobalOwner, effects.Defense))
}

func TestTurnCountdownExpiresBuffs(t *testing.T) {
	b := NewBattle(seededOptions(2), testCatalog(), testRoster(), quietLogger(t))
	striker := b.Entities()[0]
	buff := effects.Build(striker.ID, striker.ID).Named("Focus", 1).CountDown(1).
		Buff(effects.Critical, effects.FixedAdd, 0.1).End()
	b.Buffs().Add(buff)

	for i := 0; i < 200000 && b.Buffs().Contains(buff); i++ {
		_, err := b.Advance()
		require.NoError(t, err)
	}
	assert.False(t, b.Buffs().Contains(buff))
	assert.Equal(t, 0, buff.CountDown)
}
