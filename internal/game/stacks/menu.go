package stacks

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/stack"
)

// Menu opcodes.
const (
	OpMenuResume  uint16 = 100
	OpMenuNewGame uint16 = 101
	OpMenuLoad    uint16 = 102
	OpMenuSave    uint16 = 103
	OpMenuQuit    uint16 = 104
)

// Menu variables answered by the interpreter instead of the store.
const (
	VarMenuInGame  uint16 = 1
	VarMenuCanSave uint16 = 2
)

// MenuController is implemented by interpreters that show the in-game
// state of the menu overlay.
type MenuController interface {
	SetGameState(inGame, canSave bool)
}

// Menu interprets the main menu stack.
type Menu struct {
	*script.Parser
	host    script.MenuHost
	logger  *zap.Logger
	inGame  bool
	canSave bool

	newGameStack uint16
	newGameCard  uint16
}

// NewMenu creates the menu interpreter. The new-game location comes from
// the params new_game_stack and new_game_card.
//
// Precondition: deps.Host must implement script.MenuHost.
// Postcondition: Returns an error when the host lacks menu support or a
// param is not a number.
func NewMenu(d *stack.Descriptor, deps Deps) (*Menu, error) {
	host, ok := deps.Host.(script.MenuHost)
	if !ok {
		return nil, fmt.Errorf("stack %q: host does not support the menu overlay", d.Name)
	}
	m := &Menu{
		Parser: script.NewParser(deps.Host, deps.State),
		host:   host,
		logger: deps.logger().With(zap.String("stack", d.Name)),
	}
	var err error
	if m.newGameStack, err = paramU16(d, "new_game_stack", uint16(stack.Intro)); err != nil {
		return nil, err
	}
	if m.newGameCard, err = paramU16(d, "new_game_card", 1); err != nil {
		return nil, err
	}
	m.Parser.Extension = m.extension
	return m, nil
}

// SetGameState implements MenuController.
func (m *Menu) SetGameState(inGame, canSave bool) {
	m.inGame, m.canSave = inGame, canSave
}

// Var implements script.Interpreter.
func (m *Menu) Var(idx uint16) uint16 {
	switch idx {
	case VarMenuInGame:
		return boolVar(m.inGame)
	case VarMenuCanSave:
		return boolVar(m.canSave)
	}
	return m.Parser.Var(idx)
}

func (m *Menu) extension(op script.Op, _ *script.Caller) (bool, error) {
	switch op.Opcode {
	case OpMenuResume:
		if !m.inGame {
			m.logger.Warn("resume without a game in progress")
			return true, nil
		}
		return true, m.host.ResumeFromMainMenu()
	case OpMenuNewGame:
		m.State().Reset()
		m.inGame, m.canSave = false, false
		return true, m.host.ChangeToStack(m.newGameStack, m.newGameCard, 0, 0)
	case OpMenuLoad:
		return true, m.host.RunLoadDialog()
	case OpMenuSave:
		if !m.canSave {
			m.logger.Warn("save requested while saving is unavailable")
			return true, nil
		}
		return true, m.host.RunSaveDialog()
	case OpMenuQuit:
		m.host.Quit()
		return true, nil
	}
	return false, nil
}

func boolVar(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

func paramU16(d *stack.Descriptor, key string, def uint16) (uint16, error) {
	raw := d.Param(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("stack %q: param %s: %w", d.Name, key, err)
	}
	return uint16(v), nil
}
