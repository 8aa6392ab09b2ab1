package stacks

import (
	"fmt"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/media"
	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/stack"
	"github.com/cory-johannsen/cardstack/internal/scripting"
)

// Lua hooks looked up in a stack's scripts.
const (
	// HookEnter is called as on_enter(card) after the card's INIT script.
	HookEnter = "on_enter"
	// HookExit is called as on_exit(card) after the card's EXIT script.
	HookExit = "on_exit"
	// HookActivate is called as on_activate(area, kind, dest) after an
	// activated area's script.
	HookActivate = "on_activate"
	// HookOpcode is called as opcode(op, var, area, args...) for opcodes the
	// common table does not know; a truthy return marks the op handled.
	HookOpcode = "opcode"
	// HookShowMap is called as show_map() from the options dialog.
	HookShowMap = "show_map"
)

// Mapper is implemented by interpreters able to show an age map.
type Mapper interface {
	HasMap() bool
	ShowMap() error
}

// Generic runs the common opcode table and, when the stack has a script
// directory, forwards card events and unknown opcodes to its Lua scripts.
type Generic struct {
	*script.Parser
	desc    *stack.Descriptor
	scripts *scripting.Manager
	logger  *zap.Logger
	// key names this instance's VM; unique so a deferred unload never hits
	// a newer VM of the same stack.
	key string

	caller *script.Caller
	depth  int
	closed bool
}

// NewGeneric creates the interpreter of d and loads its scripts.
//
// Precondition: deps.Host and deps.State must be non-nil.
// Postcondition: Returns a ready interpreter, or an error when the scripts
// fail to load.
func NewGeneric(d *stack.Descriptor, deps Deps) (*Generic, error) {
	g := &Generic{
		Parser: script.NewParser(deps.Host, deps.State),
		desc:   d,
		logger: deps.logger().With(zap.String("stack", d.Name)),
		key:    d.Name + "/" + uuid.NewString(),
	}
	g.Parser.Extension = g.extension
	if d.ScriptDir == "" || deps.Scripts == nil {
		return g, nil
	}
	g.scripts = deps.Scripts
	g.bind()
	if err := g.scripts.LoadStack(g.key, d.ScriptDir, d.InstructionLimit); err != nil {
		return nil, fmt.Errorf("stack %q: %w", d.Name, err)
	}
	g.logger.Debug("stack scripts loaded", zap.String("dir", d.ScriptDir))
	return g, nil
}

// Descriptor returns the stack the interpreter runs.
func (g *Generic) Descriptor() *stack.Descriptor { return g.desc }

// Scripted reports whether Lua scripts are attached.
func (g *Generic) Scripted() bool { return g.scripts != nil }

// bind points the script callbacks at this interpreter and its host. Only
// one stack is active at a time, so the latest bound stack owns them.
func (g *Generic) bind() {
	m, h := g.scripts, g.Host()
	m.GetVar = g.Var
	m.SetVar = func(idx, value uint16) { g.SetVar(idx, value) }
	m.CurrentCard = h.CurrentCardID
	m.ChangeCard = func(card, t uint16) error {
		return h.ChangeToCard(card, media.Transition(t))
	}
	m.ChangeStack = h.ChangeToStack
	m.PlayEffect = h.PlayEffect
	m.PlayBlocking = h.PlaySoundBlocking
	m.StopBackground = h.StopBackground
	m.PlayMovie = h.PlayMovieBlocking
	m.SetAreaEnabled = h.SetAreaEnabled
	m.RedrawArea = h.RedrawArea
	m.SetCursor = h.SetMainCursor
	m.Millis = h.Millis
	m.Wait = h.Wait
	m.Message = h.DisplayMessage
	m.RunOpcode = func(opcode, v uint16, args []uint16) error {
		return g.Parser.Run(script.Script{{Opcode: opcode, Var: v, Args: args}}, g.caller)
	}
}

func (g *Generic) call(hook string, args ...lua.LValue) (lua.LValue, error) {
	if g.scripts == nil || g.closed {
		return lua.LNil, nil
	}
	g.depth++
	ret, err := g.scripts.CallHook(g.key, hook, args...)
	g.depth--
	if g.closed && g.depth == 0 {
		g.scripts.Unload(g.key)
	}
	return ret, err
}

func (g *Generic) withCaller(caller *script.Caller, fn func() error) error {
	outer := g.caller
	g.caller = caller
	defer func() { g.caller = outer }()
	return fn()
}

// OnEnter implements script.Interpreter.
func (g *Generic) OnEnter(card uint16, ops script.Script) error {
	if err := g.Parser.OnEnter(card, ops); err != nil {
		return err
	}
	_, err := g.call(HookEnter, lua.LNumber(card))
	return err
}

// OnExit implements script.Interpreter.
func (g *Generic) OnExit(card uint16, ops script.Script) error {
	if err := g.Parser.OnExit(card, ops); err != nil {
		return err
	}
	_, err := g.call(HookExit, lua.LNumber(card))
	return err
}

// OnActivate implements script.Interpreter.
func (g *Generic) OnActivate(ops script.Script, caller *script.Caller) error {
	return g.withCaller(caller, func() error {
		if err := g.Parser.OnActivate(ops, caller); err != nil {
			return err
		}
		if caller == nil {
			return nil
		}
		_, err := g.call(HookActivate,
			lua.LNumber(caller.Index),
			lua.LNumber(caller.Kind),
			lua.LNumber(caller.Dest),
		)
		return err
	})
}

// RunPersistent implements script.Interpreter by calling the function
// registered with engine.set_persistent.
func (g *Generic) RunPersistent() error {
	if g.scripts == nil || !g.scripts.HasHook(g.key, scripting.PersistentHook) {
		return nil
	}
	_, err := g.call(scripting.PersistentHook)
	return err
}

// DisablePersistent implements script.Interpreter. Cards re-enable their
// persistent function from on_enter.
func (g *Generic) DisablePersistent() {
	if g.scripts != nil {
		g.scripts.Clear(g.key, scripting.PersistentHook)
	}
}

// IsScriptRunning implements script.Interpreter.
func (g *Generic) IsScriptRunning() bool {
	return g.depth > 0 || g.Parser.IsScriptRunning()
}

// Close implements script.Interpreter. A VM still executing is released
// when its outermost hook returns.
func (g *Generic) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	if g.scripts != nil && g.depth == 0 {
		g.scripts.Unload(g.key)
	}
	return nil
}

// HasMap implements Mapper.
func (g *Generic) HasMap() bool {
	return g.scripts != nil && !g.closed && g.scripts.HasHook(g.key, HookShowMap)
}

// ShowMap implements Mapper.
func (g *Generic) ShowMap() error {
	_, err := g.call(HookShowMap)
	return err
}

func (g *Generic) extension(op script.Op, caller *script.Caller) (bool, error) {
	if g.scripts == nil || op.Opcode < script.FirstStackOpcode || !g.scripts.HasHook(g.key, HookOpcode) {
		return false, nil
	}
	area := -1
	if caller != nil {
		area = caller.Index
	}
	args := []lua.LValue{lua.LNumber(op.Opcode), lua.LNumber(op.Var), lua.LNumber(area)}
	for _, a := range op.Args {
		args = append(args, lua.LNumber(a))
	}
	var ret lua.LValue = lua.LNil
	err := g.withCaller(caller, func() error {
		var err error
		ret, err = g.call(HookOpcode, args...)
		return err
	})
	if err != nil {
		return true, err
	}
	return lua.LVAsBool(ret), nil
}
