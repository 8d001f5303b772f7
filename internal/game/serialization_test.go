package game

import (
	"testing"

	"github.com/shikigami/battle-server-go/internal/game/effects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func harnessSnapshot(t *testing.T) (*BattleHarness, int) {
	h := NewBattleHarness(t, DefaultOptions())
	id := h.Add(EntitySpec{Name: "Alpha", Team: TeamLeft, HP: 500})
	h.Add(EntitySpec{Name: "Beta", Team: TeamRight, HP: 700})
	h.b.Buffs().Add(effects.Build(id, id).Named("Guard", 1).CountDown(2).
		Buff(effects.Defense, effects.FixedAdd, 5).End())
	return h, id
}

func TestComputeChecksum(t *testing.T) {
	h, _ := harnessSnapshot(t)
	sum, err := h.b.Snapshot().ComputeChecksum()
	require.NoError(t, err)
	assert.Len(t, sum.Hash, 64)
	assert.Equal(t, snapshotVersion, sum.Version)
}

func TestDeterministicChecksum(t *testing.T) {
	a, _ := harnessSnapshot(t)
	b, _ := harnessSnapshot(t)

	sumA, err := a.b.Snapshot().ComputeChecksum()
	require.NoError(t, err)
	sumB, err := b.b.Snapshot().ComputeChecksum()
	require.NoError(t, err)
	assert.Equal(t, sumA.Hash, sumB.Hash, "battle ids must not leak into the checksum")
}

func TestChecksumDetectsChanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *BattleHarness, id int)
	}{
		{"hp", func(h *BattleHarness, id int) { h.b.GetEntity(id).HP-- }},
		{"shield", func(h *BattleHarness, id int) { h.b.GetEntity(id).Shield = 1 }},
		{"death", func(h *BattleHarness, id int) { h.b.GetEntity(id).Dead = true }},
		{"buff countdown", func(h *BattleHarness, _ int) { h.b.Buffs().All()[0].CountDown-- }},
		{"mana", func(h *BattleHarness, _ int) { h.b.Mana(TeamRight).Add(1) }},
		{"random draw", func(h *BattleHarness, _ int) { h.b.TestHit(0.5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, id := harnessSnapshot(t)
			before, err := h.b.Snapshot().ComputeChecksum()
			require.NoError(t, err)
			tt.mutate(h, id)
			after, err := h.b.Snapshot().ComputeChecksum()
			require.NoError(t, err)
			assert.NotEqual(t, before.Hash, after.Hash)
		})
	}
}

func TestSerializeDeserialize(t *testing.T) {
	h, _ := harnessSnapshot(t)
	snap := h.b.Snapshot()

	data, err := snap.SerializeToBytes()
	require.NoError(t, err)
	decoded, err := DeserializeSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, snap.Entities, decoded.Entities)
	assert.Equal(t, snap.Buffs, decoded.Buffs)
	assert.Equal(t, snap.Mana, decoded.Mana)
	assert.NoError(t, ValidateSerializationRoundtrip(snap))
}

func TestVerifyChecksum(t *testing.T) {
	h, id := harnessSnapshot(t)
	sum, err := h.b.Snapshot().ComputeChecksum()
	require.NoError(t, err)

	ok, err := h.b.Snapshot().VerifyChecksum(sum)
	require.NoError(t, err)
	assert.True(t, ok)

	h.b.GetEntity(id).HP = 1
	ok, err = h.b.Snapshot().VerifyChecksum(sum)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeserializeGarbage(t *testing.T) {
	_, err := DeserializeSnapshot([]byte("not a snapshot"))
	assert.Error(t, err)
}
