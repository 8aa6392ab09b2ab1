// Package script defines card scripts, the Interpreter contract every stack
// implements, the Host contract through which scripts reach the engine, and
// Parser, the interpreter of the opcodes shared by all stacks.
package script

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Op is one script instruction.
type Op struct {
	Opcode uint16
	Var    uint16
	Args   []uint16
}

// Script is an ordered list of instructions.
type Script []Op

// Decode reads a script: a u16 count followed by that many ops, each
// {opcode u16, var u16, argc u16, argv[argc] u16}, little endian.
//
// Postcondition: Returns the script or a read error for truncated input.
func Decode(r io.Reader) (Script, error) {
	var count uint16
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("reading script op count: %w", err)
	}
	ops := make(Script, 0, count)
	for i := uint16(0); i < count; i++ {
		var hdr struct {
			Opcode uint16
			Var    uint16
			Argc   uint16
		}
		if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
			return nil, fmt.Errorf("reading script op %d: %w", i, err)
		}
		args := make([]uint16, hdr.Argc)
		if err := binary.Read(r, binary.LittleEndian, args); err != nil {
			return nil, fmt.Errorf("reading script op %d args: %w", i, err)
		}
		ops = append(ops, Op{Opcode: hdr.Opcode, Var: hdr.Var, Args: args})
	}
	return ops, nil
}

// DecodeBytes decodes a script resource.
func DecodeBytes(data []byte) (Script, error) {
	return Decode(bytes.NewReader(data))
}

// Encode returns the wire form of s.
func Encode(s Script) []byte {
	var buf bytes.Buffer
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	w(uint16(len(s)))
	for _, op := range s {
		w(op.Opcode)
		w(op.Var)
		w(uint16(len(op.Args)))
		w(op.Args)
	}
	return buf.Bytes()
}

// Arg returns argument i, or def when the op has fewer arguments.
func (o Op) Arg(i int, def uint16) uint16 {
	if i < len(o.Args) {
		return o.Args[i]
	}
	return def
}

// Common opcodes understood by every stack.
const (
	OpToggleVar             uint16 = 0
	OpSetVar                uint16 = 1
	OpChangeCardSwitch      uint16 = 2
	OpTakePage              uint16 = 3
	OpRedrawCard            uint16 = 4
	OpGoToDest              uint16 = 6
	OpGoToDestForward       uint16 = 7
	OpTriggerMovie          uint16 = 9
	OpToggleVarNoRedraw     uint16 = 10
	OpRedrawAreaForVar      uint16 = 15
	OpChangeCardPush        uint16 = 17
	OpChangeCardPop         uint16 = 18
	OpEnableAreas           uint16 = 19
	OpDisableAreas          uint16 = 20
	OpToggleAreas           uint16 = 23
	OpPlaySound             uint16 = 24
	OpStopBackground        uint16 = 26
	OpPlaySoundBlocking     uint16 = 27
	OpChangeBackgroundSound uint16 = 30
	OpChangeCard            uint16 = 34
	OpChangeMainCursor      uint16 = 36
	OpDelay                 uint16 = 39
	OpChangeStack           uint16 = 40
	OpSaveMainCursor        uint16 = 43
	OpRestoreMainCursor     uint16 = 44
	OpSoundWaitStop         uint16 = 46
	OpQuit                  uint16 = 99

	// FirstStackOpcode is the first opcode reserved for stack extensions.
	FirstStackOpcode uint16 = 100
)

// InvokingArea in an area list argument designates the area running the script.
const InvokingArea uint16 = 0xFFFF

var opNames = map[uint16]string{
	OpToggleVar:             "toggle_var",
	OpSetVar:                "set_var",
	OpChangeCardSwitch:      "change_card_switch",
	OpTakePage:              "take_page",
	OpRedrawCard:            "redraw_card",
	OpGoToDest:              "go_to_dest",
	OpGoToDestForward:       "go_to_dest_forward",
	OpTriggerMovie:          "trigger_movie",
	OpToggleVarNoRedraw:     "toggle_var_no_redraw",
	OpRedrawAreaForVar:      "redraw_area_for_var",
	OpChangeCardPush:        "change_card_push",
	OpChangeCardPop:         "change_card_pop",
	OpEnableAreas:           "enable_areas",
	OpDisableAreas:          "disable_areas",
	OpToggleAreas:           "toggle_areas",
	OpPlaySound:             "play_sound",
	OpStopBackground:        "stop_background",
	OpPlaySoundBlocking:     "play_sound_blocking",
	OpChangeBackgroundSound: "change_background_sound",
	OpChangeCard:            "change_card",
	OpChangeMainCursor:      "change_main_cursor",
	OpDelay:                 "delay",
	OpChangeStack:           "change_stack",
	OpSaveMainCursor:        "save_main_cursor",
	OpRestoreMainCursor:     "restore_main_cursor",
	OpSoundWaitStop:         "sound_wait_stop",
	OpQuit:                  "quit",
}

// OpName returns the name of a common opcode. Stack extension opcodes are
// named "stack_op(N)" and unassigned ones "op(N)".
func OpName(opcode uint16) string {
	if name, ok := opNames[opcode]; ok {
		return name
	}
	if opcode >= FirstStackOpcode {
		return fmt.Sprintf("stack_op(%d)", opcode)
	}
	return fmt.Sprintf("op(%d)", opcode)
}

// String returns the op as "name var=V args=[...]".
func (o Op) String() string {
	return fmt.Sprintf("%s var=%d args=%v", OpName(o.Opcode), o.Var, o.Args)
}
