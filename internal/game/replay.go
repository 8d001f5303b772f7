package game

import (
	"compress/gzip"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shikigami/battle-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// RecordKind tells journal entries apart.
type RecordKind string

const (
	// RecordStep is one executed task step.
	RecordStep RecordKind = "step"
	// RecordEvent is one dispatch.
	RecordEvent RecordKind = "event"
)

// Record is one journal entry. Steps and dispatches have separate sequence
// counters.
type Record struct {
	Seq     uint64
	Kind    RecordKind
	Depth   int
	Type    string
	Step    int
	Next    int
	Code    rules.EventCode
	Subject int
	Matched int
}

func (r Record) String() string {
	if r.Kind == RecordEvent {
		return fmt.Sprintf("event#%d %s subject=%d matched=%d", r.Seq, r.Code, r.Subject, r.Matched)
	}
	return fmt.Sprintf("step#%d [%s] depth=%d step=%d next=%d", r.Seq, r.Type, r.Depth, r.Step, r.Next)
}

// Replay is everything needed to reproduce a battle and check the result:
// its inputs, its journal and the checksum of its final snapshot.
type Replay struct {
	BattleID string
	Options  Options
	Roster   []RosterEntry
	Records  []Record
	Checksum string
	mu       sync.RWMutex
}

// NewReplay captures the inputs, journal and final checksum of b.
func NewReplay(b *Battle) (*Replay, error) {
	sum, err := b.Snapshot().ComputeChecksum()
	if err != nil {
		return nil, err
	}
	return &Replay{
		BattleID: b.ID().String(),
		Options:  b.Options(),
		Roster:   b.Roster(),
		Records:  b.Journal(),
		Checksum: sum.Hash,
	}, nil
}

// Size returns the number of journal records.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Records)
}

// RecordAt returns the record at index.
func (r *Replay) RecordAt(index int) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.Records) {
		return Record{}, false
	}
	return r.Records[index], true
}

// replayMetadata is the header of a replay file.
type replayMetadata struct {
	BattleID    string
	Timestamp   time.Time
	Version     int
	RecordCount int
}

const replayVersion = 1

// SaveToFile writes the replay to <directory>/<battle id>.replay as gzipped
// gob: a metadata header, the inputs, then every record.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.BattleID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		BattleID:    r.BattleID,
		Timestamp:   time.Now(),
		Version:     replayVersion,
		RecordCount: len(r.Records),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := encoder.Encode(&r.Options); err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	if err := encoder.Encode(r.Roster); err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}
	if err := encoder.Encode(r.Checksum); err != nil {
		return fmt.Errorf("failed to encode checksum: %w", err)
	}
	for i := range r.Records {
		if err := encoder.Encode(&r.Records[i]); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, battleID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", battleID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := &Replay{BattleID: metadata.BattleID}
	if err := decoder.Decode(&replay.Options); err != nil {
		return nil, fmt.Errorf("failed to decode options: %w", err)
	}
	if err := decoder.Decode(&replay.Roster); err != nil {
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}
	if err := decoder.Decode(&replay.Checksum); err != nil {
		return nil, fmt.Errorf("failed to decode checksum: %w", err)
	}
	replay.Records = make([]Record, 0, metadata.RecordCount)
	for i := 0; i < metadata.RecordCount; i++ {
		var rec Record
		if err := decoder.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode record %d: %w", i, err)
		}
		replay.Records = append(replay.Records, rec)
	}
	return replay, nil
}

// ErrReplayDiverged reports that a rerun did not reproduce a replay.
var ErrReplayDiverged = errors.New("replay diverged")

// DivergenceError describes the first difference between a replay and its
// rerun. Index is -1 when only the final checksum differs.
type DivergenceError struct {
	Index int
	Want  Record
	Got   Record
	Note  string
}

func (e *DivergenceError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s", ErrReplayDiverged, e.Note)
	}
	return fmt.Sprintf("%v at record %d: want %s, got %s", ErrReplayDiverged, e.Index, e.Want, e.Got)
}

func (e *DivergenceError) Unwrap() error {
	return ErrReplayDiverged
}

// VerifyReplay reruns the battle described by replay against catalog and
// compares the journals record by record, then the final checksums.
func VerifyReplay(ctx context.Context, catalog *Catalog, replay *Replay, logger *zap.Logger) error {
	replay.mu.RLock()
	defer replay.mu.RUnlock()

	b := NewBattle(replay.Options, catalog, replay.Roster, logger)
	if err := b.Run(ctx, 0); err != nil && !errors.Is(err, ErrBattleStalled) {
		return fmt.Errorf("rerun failed: %w", err)
	}

	got := b.Journal()
	for i, want := range replay.Records {
		if i >= len(got) {
			return &DivergenceError{Index: i, Want: want, Note: "rerun ended early"}
		}
		if got[i] != want {
			return &DivergenceError{Index: i, Want: want, Got: got[i]}
		}
	}
	if len(got) != len(replay.Records) {
		return &DivergenceError{Index: -1, Note: fmt.Sprintf("rerun recorded %d entries, replay has %d", len(got), len(replay.Records))}
	}

	sum, err := b.Snapshot().ComputeChecksum()
	if err != nil {
		return err
	}
	if sum.Hash != replay.Checksum {
		return &DivergenceError{Index: -1, Note: fmt.Sprintf("checksum %s, want %s", sum.Hash, replay.Checksum)}
	}
	return nil
}

// ReplayRecorder keeps replays of finished battles in memory and writes them
// to disk on request.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay // battleID -> Replay
	enabled map[string]bool    // battleID -> whether recording is enabled
	saveDir string
}

// NewReplayRecorder creates a new replay recorder.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// StartRecording enables recording for a battle.
func (rr *ReplayRecorder) StartRecording(battleID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[battleID] = true

	if rr.logger != nil {
		rr.logger.Info("started replay recording",
			zap.String("battle_id", battleID),
		)
	}
}

// StopRecording disables recording for a battle.
func (rr *ReplayRecorder) StopRecording(battleID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[battleID] = false

	if rr.logger != nil {
		rr.logger.Info("stopped replay recording",
			zap.String("battle_id", battleID),
		)
	}
}

// Capture stores the replay of b if recording is enabled for it.
func (rr *ReplayRecorder) Capture(b *Battle) error {
	battleID := b.ID().String()

	rr.mu.RLock()
	enabled := rr.enabled[battleID]
	rr.mu.RUnlock()
	if !enabled {
		return nil
	}

	replay, err := NewReplay(b)
	if err != nil {
		return fmt.Errorf("failed to capture replay: %w", err)
	}

	rr.mu.Lock()
	rr.replays[battleID] = replay
	rr.mu.Unlock()

	if rr.logger != nil {
		rr.logger.Debug("captured replay",
			zap.String("battle_id", battleID),
			zap.Int("record_count", replay.Size()),
		)
	}
	return nil
}

// GetReplay returns the replay captured for a battle.
func (rr *ReplayRecorder) GetReplay(battleID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[battleID]
	return replay, exists
}

// SaveReplay writes a captured replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(battleID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[battleID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for battle %s", battleID)
	}
	delete(rr.replays, battleID)
	delete(rr.enabled, battleID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("battle_id", battleID),
			zap.Int("record_count", replay.Size()),
			zap.String("directory", rr.saveDir),
		)
	}
	return nil
}

// LoadReplay reads a replay from disk.
func (rr *ReplayRecorder) LoadReplay(battleID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, battleID)
	if err != nil {
		return nil, err
	}

	if rr.logger != nil {
		rr.logger.Info("loaded replay from disk",
			zap.String("battle_id", battleID),
			zap.Int("record_count", replay.Size()),
		)
	}
	return replay, nil
}

// ClearReplay drops a replay from memory without saving it.
func (rr *ReplayRecorder) ClearReplay(battleID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, battleID)
	delete(rr.enabled, battleID)
}

// IsRecording reports whether recording is enabled for a battle.
func (rr *ReplayRecorder) IsRecording(battleID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled[battleID]
}
