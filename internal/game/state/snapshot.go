package state

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/blake2b"
)

// SnapshotVersion is the payload layout version written by EncodeSnapshot.
const SnapshotVersion = 1

// ErrChecksumMismatch is returned when a save payload fails verification.
var ErrChecksumMismatch = errors.New("save payload checksum mismatch")

// Location is a (stack, card) position.
type Location struct {
	Stack uint16 `msgpack:"stack"`
	Card  uint16 `msgpack:"card"`
}

// Snapshot is the persisted form of a GameState plus the player's location.
type Snapshot struct {
	Version  int                 `msgpack:"version"`
	Location Location            `msgpack:"location"`
	Globals  Globals             `msgpack:"globals"`
	Vars     []uint16            `msgpack:"vars"`
	Zip      map[uint16][]uint16 `msgpack:"zip"`
}

// Capture builds a snapshot of st at loc.
func Capture(st *GameState, loc Location) Snapshot {
	return Snapshot{
		Version:  SnapshotVersion,
		Location: loc,
		Globals:  st.Globals,
		Vars:     st.Vars.Snapshot(),
		Zip:      st.Zip.Snapshot(),
	}
}

// RestoreInto overwrites st with the snapshot's content.
func (s Snapshot) RestoreInto(st *GameState) {
	st.Globals = s.Globals
	st.Vars.Restore(s.Vars)
	st.Zip.Restore(s.Zip)
}

// EncodeSnapshot serializes s with msgpack and returns the payload and its
// BLAKE2b-256 checksum.
func EncodeSnapshot(s Snapshot) (payload, checksum []byte, err error) {
	payload, err = msgpack.Marshal(&s)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	sum := blake2b.Sum256(payload)
	return payload, sum[:], nil
}

// DecodeSnapshot verifies payload against checksum and decodes it.
//
// Postcondition: Returns the snapshot, or an error wrapping
// ErrChecksumMismatch when the payload was altered.
func DecodeSnapshot(payload, checksum []byte) (Snapshot, error) {
	sum := blake2b.Sum256(payload)
	if !bytes.Equal(sum[:], checksum) {
		return Snapshot{}, ErrChecksumMismatch
	}
	var s Snapshot
	if err := msgpack.Unmarshal(payload, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return s, nil
}
