package script

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/sound"
	"github.com/cory-johannsen/cardstack/internal/game/state"
)

// Extension handles stack-specific opcodes. It reports whether op was handled.
type Extension func(op Op, caller *Caller) (bool, error)

// Parser interprets the opcodes common to every stack and implements
// Interpreter with no persistent logic. Stack interpreters embed it and
// install an Extension for their own opcodes.
//
// Parser is owned by the single engine control flow and is not safe for
// concurrent use.
type Parser struct {
	host    Host
	state   *state.GameState
	logger  *zap.Logger
	running int

	savedCursor uint16
	pushedCard  uint16

	// Extension is consulted for opcodes the common table does not know.
	Extension Extension
}

// NewParser creates a Parser bound to host and st.
//
// Precondition: host and st must be non-nil.
// Postcondition: Returns a non-nil Parser with no extension installed.
func NewParser(host Host, st *state.GameState) *Parser {
	if host == nil || st == nil {
		panic("script.NewParser: nil dependency")
	}
	return &Parser{host: host, state: st, logger: host.Logger()}
}

// Host returns the host the parser acts on.
func (p *Parser) Host() Host { return p.host }

// State returns the game state the parser mutates.
func (p *Parser) State() *state.GameState { return p.state }

// Run executes ops in order on behalf of caller.
//
// Postcondition: Stops at and returns the first fatal error.
func (p *Parser) Run(ops Script, caller *Caller) error {
	p.running++
	defer func() { p.running-- }()
	for _, op := range ops {
		if err := p.exec(op, caller); err != nil {
			return err
		}
	}
	return nil
}

// RunPersistent implements Interpreter; the common table has no per-frame logic.
func (p *Parser) RunPersistent() error { return nil }

// OnEnter implements Interpreter.
func (p *Parser) OnEnter(_ uint16, ops Script) error { return p.Run(ops, nil) }

// OnExit implements Interpreter.
func (p *Parser) OnExit(_ uint16, ops Script) error { return p.Run(ops, nil) }

// OnActivate implements Interpreter.
func (p *Parser) OnActivate(ops Script, caller *Caller) error { return p.Run(ops, caller) }

// RunOpcode implements Interpreter.
func (p *Parser) RunOpcode(op Op, caller *Caller) error {
	return p.Run(Script{op}, caller)
}

// Var implements Interpreter.
func (p *Parser) Var(idx uint16) uint16 { return p.state.Vars.Get(idx) }

// SetVar implements Interpreter.
func (p *Parser) SetVar(idx, value uint16) bool { return p.state.Vars.Set(idx, value) }

// ToggleVar implements Interpreter.
func (p *Parser) ToggleVar(idx uint16) { p.state.Vars.Toggle(idx) }

// IsScriptRunning implements Interpreter.
func (p *Parser) IsScriptRunning() bool { return p.running > 0 }

// DisablePersistent implements Interpreter.
func (p *Parser) DisablePersistent() {}

// Close implements Interpreter.
func (p *Parser) Close() error { return nil }

func (p *Parser) exec(op Op, caller *Caller) error {
	h := p.host
	switch op.Opcode {
	case OpToggleVar:
		p.state.Vars.Toggle(op.Var)
		h.RedrawArea(op.Var)
	case OpSetVar:
		if p.state.Vars.Set(op.Var, op.Arg(0, 0)) {
			h.RedrawArea(op.Var)
		}
	case OpChangeCardSwitch:
		return p.changeCardSwitch(op, caller)
	case OpTakePage:
		p.takePage(op)
	case OpRedrawCard:
		h.RedrawCard()
	case OpGoToDest, OpGoToDestForward:
		if caller == nil || caller.Dest == 0 {
			p.logger.Warn("go to dest without destination", zap.Uint16("opcode", op.Opcode))
			return nil
		}
		t := media.TransitionCopy
		if op.Opcode == OpGoToDestForward {
			t = media.TransitionDissolve
		}
		return h.ChangeToCard(caller.Dest, t)
	case OpTriggerMovie:
		if caller == nil {
			p.logger.Warn("trigger movie without invoking area")
			return nil
		}
		return h.PlayAreaVideo(caller.Index)
	case OpToggleVarNoRedraw:
		p.state.Vars.Toggle(op.Var)
	case OpRedrawAreaForVar:
		h.RedrawArea(op.Var)
	case OpChangeCardPush:
		p.pushedCard = h.CurrentCardID()
		return h.ChangeToCard(op.Arg(0, 0), media.Transition(op.Arg(1, uint16(media.TransitionCopy))))
	case OpChangeCardPop:
		if p.pushedCard == 0 {
			p.logger.Warn("popping a card that was never pushed")
			return nil
		}
		return h.ChangeToCard(p.pushedCard, media.Transition(op.Arg(0, uint16(media.TransitionCopy))))
	case OpEnableAreas, OpDisableAreas, OpToggleAreas:
		p.setAreas(op, caller)
	case OpPlaySound:
		h.PlayEffect(op.Arg(0, 0))
	case OpStopBackground:
		h.StopBackground()
	case OpPlaySoundBlocking:
		return h.PlaySoundBlocking(op.Arg(0, 0))
	case OpChangeBackgroundSound:
		b, err := sound.DecodeWords(op.Args)
		if err != nil {
			return err
		}
		return h.ApplySoundBlock(b)
	case OpChangeCard:
		return h.ChangeToCard(op.Arg(0, 0), media.Transition(op.Arg(1, uint16(media.TransitionCopy))))
	case OpChangeMainCursor:
		h.SetMainCursor(op.Arg(0, state.DefaultCursor))
	case OpDelay:
		_, err := h.Wait(uint32(op.Arg(0, 0)), false)
		return err
	case OpChangeStack:
		return h.ChangeToStack(op.Arg(0, 0), op.Arg(1, 0), op.Arg(2, 0), op.Arg(3, 0))
	case OpSaveMainCursor:
		p.savedCursor = h.MainCursor()
	case OpRestoreMainCursor:
		h.SetMainCursor(p.savedCursor)
	case OpSoundWaitStop:
		return h.WaitEffect()
	case OpQuit:
		h.Quit()
	default:
		if p.Extension != nil {
			handled, err := p.Extension(op, caller)
			if err != nil || handled {
				return err
			}
		}
		p.logger.Warn("unknown opcode",
			zap.Uint16("opcode", op.Opcode),
			zap.Uint16("var", op.Var),
			zap.Int("argc", len(op.Args)),
		)
	}
	return nil
}

func (p *Parser) changeCardSwitch(op Op, caller *Caller) error {
	value := p.Var(op.Var)
	if value != 0 {
		if int(value) > len(op.Args) {
			p.logger.Warn("card switch value outside argument list",
				zap.Uint16("var", op.Var),
				zap.Uint16("value", value),
			)
			return nil
		}
		return p.host.ChangeToCard(op.Args[value-1], media.TransitionDissolve)
	}
	if caller != nil && caller.Dest != 0 {
		return p.host.ChangeToCard(caller.Dest, media.TransitionDissolve)
	}
	p.logger.Warn("card switch has no destination", zap.Uint16("var", op.Var))
	return nil
}

// takePage toggles the held page named by op.Var. args[0] is the cursor
// shown while the page is held.
func (p *Parser) takePage(op Op) {
	page := state.HeldPage(op.Var)
	g := &p.state.Globals
	old := g.HeldPage
	if old == page {
		g.HeldPage = state.NoPage
	} else {
		g.HeldPage = page
	}
	if old == g.HeldPage {
		return
	}
	p.host.RedrawArea(op.Var)
	if g.HeldPage != state.NoPage {
		p.host.SetMainCursor(op.Arg(0, g.HeldPage.Cursor()))
	} else {
		p.host.SetMainCursor(state.DefaultCursor)
	}
}

// setAreas handles enable/disable/toggle: args[0] is the count, followed by
// area indices; InvokingArea designates the caller.
func (p *Parser) setAreas(op Op, caller *Caller) {
	count := int(op.Arg(0, 0))
	for i := 0; i < count; i++ {
		raw := op.Arg(i+1, InvokingArea)
		idx := int(raw)
		if raw == InvokingArea {
			if caller == nil {
				p.logger.Warn("area list names the invoking area outside an activation")
				continue
			}
			idx = caller.Index
		}
		enabled := op.Opcode == OpEnableAreas
		if op.Opcode == OpToggleAreas {
			cur, ok := p.host.AreaEnabled(idx)
			if !ok {
				p.logger.Warn("toggling unknown area", zap.Int("area", idx))
				continue
			}
			enabled = !cur
		}
		if !p.host.SetAreaEnabled(idx, enabled) {
			p.logger.Warn("unknown area in area list", zap.Int("area", idx))
		}
	}
}
