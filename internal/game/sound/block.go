// Package sound decodes and applies sound blocks: compact records attached to
// cards and scripts that keep, change, stop or replace the background sound,
// optionally selected by a game variable.
package sound

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Leading action codes. Positive codes play that sound id.
const (
	ActionContinue     int16 = -1
	ActionChangeVolume int16 = -2
	ActionStop         int16 = -3
	ActionConditional  int16 = -4
)

// ErrUnknownAction is returned for action codes outside the grammar.
var ErrUnknownAction = errors.New("unknown sound action")

// Item is one (action, volume) pair of a conditional list.
type Item struct {
	Action int16
	Volume uint16
}

// Block is a decoded sound block.
type Block struct {
	// Sound is the leading action code.
	Sound  int16
	Volume uint16
	// Var selects the Items entry when Sound is ActionConditional.
	Var   uint16
	Items []Item
}

// hasVolume reports whether a volume field follows action.
func hasVolume(action int16) bool {
	return action == ActionChangeVolume || action > 0
}

// Decode reads one sound block from r.
//
// Precondition: r must be positioned at the start of a block.
// Postcondition: Returns the block, an error wrapping ErrUnknownAction, or a
// read error for truncated input.
func Decode(r io.Reader) (Block, error) {
	var b Block
	if err := binary.Read(r, binary.LittleEndian, &b.Sound); err != nil {
		return Block{}, fmt.Errorf("reading sound action: %w", err)
	}
	switch {
	case b.Sound > 0, b.Sound == ActionChangeVolume:
		if err := binary.Read(r, binary.LittleEndian, &b.Volume); err != nil {
			return Block{}, fmt.Errorf("reading sound volume: %w", err)
		}
	case b.Sound == ActionContinue, b.Sound == ActionStop:
	case b.Sound == ActionConditional:
		var count uint16
		if err := binary.Read(r, binary.LittleEndian, &b.Var); err != nil {
			return Block{}, fmt.Errorf("reading sound var: %w", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return Block{}, fmt.Errorf("reading sound count: %w", err)
		}
		b.Items = make([]Item, 0, count)
		for i := uint16(0); i < count; i++ {
			var it Item
			if err := binary.Read(r, binary.LittleEndian, &it.Action); err != nil {
				return Block{}, fmt.Errorf("reading sound item %d: %w", i, err)
			}
			if hasVolume(it.Action) {
				if err := binary.Read(r, binary.LittleEndian, &it.Volume); err != nil {
					return Block{}, fmt.Errorf("reading sound item %d volume: %w", i, err)
				}
			}
			b.Items = append(b.Items, it)
		}
	default:
		return Block{}, fmt.Errorf("%w %d", ErrUnknownAction, b.Sound)
	}
	return b, nil
}

// DecodeWords decodes a block stored as little endian 16-bit script arguments.
func DecodeWords(words []uint16) (Block, error) {
	buf := make([]byte, 2*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint16(buf[2*i:], w)
	}
	return Decode(bytes.NewReader(buf))
}

// Encode returns the wire form of b.
//
// Postcondition: Decode(Encode(b)) equals b for any block Decode accepts,
// except that volumes of actions without a volume field are dropped.
func Encode(b Block) []byte {
	var buf bytes.Buffer
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	w(b.Sound)
	switch {
	case hasVolume(b.Sound):
		w(b.Volume)
	case b.Sound == ActionConditional:
		w(b.Var)
		w(uint16(len(b.Items)))
		for _, it := range b.Items {
			w(it.Action)
			if hasVolume(it.Action) {
				w(it.Volume)
			}
		}
	}
	return buf.Bytes()
}

// Background is the audio channel a block drives.
type Background interface {
	PlayBackground(id, volume uint16)
	ChangeBackgroundVolume(volume uint16)
	StopBackground()
}

// VarReader resolves the selector variable of a conditional block.
type VarReader interface {
	Var(idx uint16) uint16
}

// Resolve returns the action and volume b selects given vars. ok is false
// when a conditional selector is out of range.
func Resolve(b Block, vars VarReader) (action int16, volume uint16, ok bool) {
	if b.Sound != ActionConditional {
		return b.Sound, b.Volume, true
	}
	v := vars.Var(b.Var)
	if int(v) >= len(b.Items) {
		return 0, 0, false
	}
	return b.Items[v].Action, b.Items[v].Volume, true
}

// Apply resolves b against vars and drives audio.
//
// Postcondition: An out-of-range conditional selector logs a warning and
// leaves audio untouched. A resolved action outside the grammar returns an
// error wrapping ErrUnknownAction.
func Apply(b Block, vars VarReader, audio Background, logger *zap.Logger) error {
	action, volume, ok := Resolve(b, vars)
	if !ok {
		logger.Warn("conditional sound variable outside range",
			zap.Uint16("var", b.Var),
			zap.Uint16("value", vars.Var(b.Var)),
			zap.Int("items", len(b.Items)),
		)
		return nil
	}
	switch {
	case action == ActionContinue:
		logger.Debug("continuing with current sound")
	case action == ActionChangeVolume:
		audio.ChangeBackgroundVolume(volume)
	case action == ActionStop:
		audio.StopBackground()
	case action > 0:
		audio.PlayBackground(uint16(action), volume)
	default:
		return fmt.Errorf("%w %d", ErrUnknownAction, action)
	}
	return nil
}
