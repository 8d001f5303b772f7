package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/shikigami/battle-server-go/internal/game/mana"
)

// snapshotVersion is bumped whenever the canonical form changes.
const snapshotVersion = 1

// EntitySnapshot is the mutable state of one entity.
type EntitySnapshot struct {
	ID     int
	No     int
	Name   string
	TeamID int
	HP     float64
	Shield float64
	Dead   bool
}

// BuffSnapshot is one active buff.
type BuffSnapshot struct {
	ID        int
	OwnerID   int
	SourceID  int
	Name      string
	CountDown int
}

// Snapshot is a point-in-time copy of everything that decides the outcome of
// a battle. It holds no battle id and no timestamps, so two runs with the
// same seed and roster produce equal snapshots.
type Snapshot struct {
	Turn     int
	Winner   int
	Ended    bool
	Entities []EntitySnapshot
	Buffs    []BuffSnapshot
	Mana     [2]mana.State
	Draws    uint64
	Executed uint64
}

// Snapshot captures the current battle state.
func (b *Battle) Snapshot() *Snapshot {
	s := &Snapshot{
		Turn:     b.turn,
		Winner:   b.winner,
		Ended:    b.ended,
		Entities: make([]EntitySnapshot, 0, len(b.entities)),
		Mana:     [2]mana.State{b.manas[0].State(), b.manas[1].State()},
		Draws:    b.random.Draws(),
		Executed: b.sched.Executed(),
	}
	for _, e := range b.entities {
		s.Entities = append(s.Entities, EntitySnapshot{
			ID:     e.ID,
			No:     e.No,
			Name:   e.Name,
			TeamID: e.TeamID,
			HP:     e.HP,
			Shield: e.Shield,
			Dead:   e.Dead,
		})
	}
	for _, buff := range b.buffs.All() {
		s.Buffs = append(s.Buffs, BuffSnapshot{
			ID:        buff.ID,
			OwnerID:   buff.OwnerID,
			SourceID:  buff.SourceID,
			Name:      buff.Name,
			CountDown: buff.CountDown,
		})
	}
	return s
}

// SerializationChecksum is a deterministic digest of a snapshot.
type SerializationChecksum struct {
	Hash    string // SHA-256 of the canonical form
	Version int
}

// ComputeChecksum hashes the canonical form of the snapshot.
func (s *Snapshot) ComputeChecksum() (*SerializationChecksum, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(s.canonical())); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &SerializationChecksum{
		Hash:    hex.EncodeToString(hash.Sum(nil)),
		Version: snapshotVersion,
	}, nil
}

// canonical renders the snapshot as text. Entities are already in id order
// and buffs in collection order, which is part of the state, so nothing is
// sorted here.
func (s *Snapshot) canonical() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "BATTLE:%d|%d|%t|%d|%d\n", s.Turn, s.Winner, s.Ended, s.Draws, s.Executed)
	for team, m := range s.Mana {
		fmt.Fprintf(&buf, "MANA:%d|%d|%d|%d\n", team, m.Num, m.Progress, m.PreProgress)
	}
	for _, e := range s.Entities {
		fmt.Fprintf(&buf, "ENTITY:%d|%d|%s|%d|%s|%s|%t\n",
			e.ID, e.No, e.Name, e.TeamID, formatFloat(e.HP), formatFloat(e.Shield), e.Dead)
	}
	for _, b := range s.Buffs {
		fmt.Fprintf(&buf, "BUFF:%d|%d|%d|%s|%d\n", b.ID, b.OwnerID, b.SourceID, b.Name, b.CountDown)
	}
	return buf.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// VerifyChecksum reports whether the snapshot still hashes to expected.
func (s *Snapshot) VerifyChecksum(expected *SerializationChecksum) (bool, error) {
	computed, err := s.ComputeChecksum()
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

// SerializeToBytes encodes the snapshot with gob.
func (s *Snapshot) SerializeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeSnapshot decodes a snapshot produced by SerializeToBytes.
func DeserializeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// ValidateSerializationRoundtrip checks that a snapshot survives encoding by
// comparing checksums.
func ValidateSerializationRoundtrip(s *Snapshot) error {
	original, err := s.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}
	data, err := s.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	decoded, err := DeserializeSnapshot(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}
	roundtrip, err := decoded.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute deserialized checksum: %w", err)
	}
	if original.Hash != roundtrip.Hash {
		return fmt.Errorf("checksum mismatch: original=%s, deserialized=%s", original.Hash, roundtrip.Hash)
	}
	return nil
}
