package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shikigami/battle-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func finishedBattle(t *testing.T, seed int64) *Battle {
	t.Helper()
	b := NewBattle(seededOptions(seed), testCatalog(), testRoster(), quietLogger(t))
	require.NoError(t, b.Run(context.Background(), 0))
	return b
}

func TestNewReplay(t *testing.T) {
	b := finishedBattle(t, 4)
	replay, err := NewReplay(b)
	require.NoError(t, err)

	assert.Equal(t, b.ID().String(), replay.BattleID)
	assert.Equal(t, b.Options(), replay.Options)
	assert.Equal(t, testRoster(), replay.Roster)
	assert.Equal(t, len(b.Journal()), replay.Size())
	assert.Len(t, replay.Checksum, 64)

	first, ok := replay.RecordAt(0)
	require.True(t, ok)
	// The GAME_START dispatch is journaled before the step that made it.
	assert.Equal(t, RecordEvent, first.Kind)
	assert.Equal(t, rules.EventGameStart, first.Code)
	second, ok := replay.RecordAt(1)
	require.True(t, ok)
	assert.Equal(t, RecordStep, second.Kind)
	assert.Equal(t, "Game", second.Type)
	_, ok = replay.RecordAt(replay.Size())
	assert.False(t, ok)
}

func TestJournalInterleavesStepsAndEvents(t *testing.T) {
	b := finishedBattle(t, 4)
	var steps, events int
	var lastStep uint64
	for _, rec := range b.Journal() {
		switch rec.Kind {
		case RecordStep:
			steps++
			assert.Equal(t, lastStep+1, rec.Seq)
			lastStep = rec.Seq
		case RecordEvent:
			events++
		}
	}
	assert.Equal(t, b.Scheduler().Executed(), uint64(steps))
	assert.Positive(t, events)
}

func TestReplaySaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	replay, err := NewReplay(finishedBattle(t, 8))
	require.NoError(t, err)

	require.NoError(t, replay.SaveToFile(tempDir))
	_, err = os.Stat(filepath.Join(tempDir, replay.BattleID+".replay"))
	require.NoError(t, err)

	loaded, err := LoadReplayFromFile(tempDir, replay.BattleID)
	require.NoError(t, err)
	assert.Equal(t, replay.BattleID, loaded.BattleID)
	assert.Equal(t, replay.Options, loaded.Options)
	assert.Equal(t, replay.Roster, loaded.Roster)
	assert.Equal(t, replay.Checksum, loaded.Checksum)
	assert.Equal(t, replay.Records, loaded.Records)
}

func TestReplaySaveNonexistentDirectory(t *testing.T) {
	replay, err := NewReplay(finishedBattle(t, 8))
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "subdir", "another")
	require.NoError(t, replay.SaveToFile(dir))
	_, err = os.Stat(filepath.Join(dir, replay.BattleID+".replay"))
	require.NoError(t, err)
}

func TestReplayLoadNonexistentFile(t *testing.T) {
	_, err := LoadReplayFromFile(t.TempDir(), "nonexistent")
	assert.Error(t, err)
}

func TestVerifyReplay(t *testing.T) {
	replay, err := NewReplay(finishedBattle(t, 13))
	require.NoError(t, err)
	assert.NoError(t, VerifyReplay(context.Background(), testCatalog(), replay, quietLogger(t)))
}

func TestVerifyReplayReportsDivergence(t *testing.T) {
	replay, err := NewReplay(finishedBattle(t, 13))
	require.NoError(t, err)
	replay.Records[10].Step += 100

	err = VerifyReplay(context.Background(), testCatalog(), replay, quietLogger(t))
	require.ErrorIs(t, err, ErrReplayDiverged)
	var div *DivergenceError
	require.True(t, errors.As(err, &div))
	assert.Equal(t, 10, div.Index)
}

func TestVerifyReplayReportsChecksumMismatch(t *testing.T) {
	replay, err := NewReplay(finishedBattle(t, 13))
	require.NoError(t, err)
	replay.Checksum = "deadbeef"

	err = VerifyReplay(context.Background(), testCatalog(), replay, quietLogger(t))
	var div *DivergenceError
	require.True(t, errors.As(err, &div))
	assert.Equal(t, -1, div.Index)
}

func TestVerifyReplayWithOtherContent(t *testing.T) {
	replay, err := NewReplay(finishedBattle(t, 13))
	require.NoError(t, err)

	stronger := testCatalog()
	stronger.RegisterHero(1, func() *Entity {
		build, _ := testCatalog().Hero(2)
		return build()
	})
	assert.ErrorIs(t, VerifyReplay(context.Background(), stronger, replay, quietLogger(t)), ErrReplayDiverged)
}

func TestReplayRecorder(t *testing.T) {
	logger := zap.NewNop()
	tempDir := t.TempDir()
	recorder := NewReplayRecorder(logger, tempDir)
	require.NotNil(t, recorder)

	b := finishedBattle(t, 6)
	battleID := b.ID().String()

	// Nothing is captured while recording is off.
	require.NoError(t, recorder.Capture(b))
	_, exists := recorder.GetReplay(battleID)
	assert.False(t, exists)

	recorder.StartRecording(battleID)
	assert.True(t, recorder.IsRecording(battleID))
	require.NoError(t, recorder.Capture(b))

	replay, exists := recorder.GetReplay(battleID)
	require.True(t, exists)
	assert.Equal(t, len(b.Journal()), replay.Size())

	recorder.StopRecording(battleID)
	assert.False(t, recorder.IsRecording(battleID))
	_, exists = recorder.GetReplay(battleID)
	assert.True(t, exists)

	require.NoError(t, recorder.SaveReplay(battleID))
	_, exists = recorder.GetReplay(battleID)
	assert.False(t, exists)

	loaded, err := recorder.LoadReplay(battleID)
	require.NoError(t, err)
	assert.Equal(t, replay.Checksum, loaded.Checksum)

	assert.Error(t, recorder.SaveReplay(battleID))
}

func TestReplayRecorderClear(t *testing.T) {
	recorder := NewReplayRecorder(zap.NewNop(), t.TempDir())
	b := finishedBattle(t, 6)
	battleID := b.ID().String()

	recorder.StartRecording(battleID)
	require.NoError(t, recorder.Capture(b))
	recorder.ClearReplay(battleID)

	_, exists := recorder.GetReplay(battleID)
	assert.False(t, exists)
	assert.False(t, recorder.IsRecording(battleID))
}
