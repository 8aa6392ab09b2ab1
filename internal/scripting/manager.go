package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// PersistentHook is the global under which engine.set_persistent stores the
// per-frame function of a stack.
const PersistentHook = "__persistent"

type vm struct {
	L      *lua.LState
	limit  int
	cancel context.CancelFunc
	// depth counts calls in progress; only the outermost call arms a budget.
	depth int
}

// Manager owns one sandboxed LState per stack and exposes hook dispatch.
//
// Manager is driven by the engine's single control flow. Hooks may re-enter
// the same VM through engine callbacks; the instruction budget of the
// outermost call covers the nested ones.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*vm
	logger *zap.Logger

	// fatal holds the first engine error raised from a callback during the
	// current hook call.
	fatal error

	// Injected after construction. nil = no-op in engine.* modules.
	GetVar         func(idx uint16) uint16
	SetVar         func(idx, value uint16)
	CurrentCard    func() uint16
	ChangeCard     func(card, transition uint16) error
	ChangeStack    func(stack, card, linkSrc, linkDst uint16) error
	PlayEffect     func(id uint16)
	PlayBlocking   func(id uint16) error
	StopBackground func()
	PlayMovie      func(name string, x, y int) error
	SetAreaEnabled func(index int, enabled bool) bool
	RedrawArea     func(v uint16)
	SetCursor      func(id uint16)
	Millis         func() uint32
	Wait           func(ms uint32, skippable bool) (bool, error)
	Message        func(text string) error
	RunOpcode      func(opcode, v uint16, args []uint16) error
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty stack map.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*vm),
		logger: logger,
	}
}

// LoadStack creates a sandboxed VM for stack, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order. A VM
// already loaded under the same key is replaced.
//
// Precondition: stack must be non-empty; scriptDir must be a readable directory.
// Postcondition: Stack VM is registered; returns error on Lua load failure.
func (m *Manager) LoadStack(stack, scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, stack, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		cancel()
		cancel = Arm(L, instLimit)
		err := L.DoFile(path)
		if m.fatal != nil {
			err, m.fatal = m.fatal, nil
		}
		if err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, stack, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[stack]; ok {
		old.cancel()
		old.L.Close()
	}
	m.states[stack] = &vm{L: L, limit: instLimit, cancel: cancel}
	m.mu.Unlock()
	return nil
}

// Unload closes the VM of stack. Unloading an unknown stack is a no-op.
func (m *Manager) Unload(stack string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.states[stack]; ok {
		v.cancel()
		v.L.Close()
		delete(m.states, stack)
	}
}

// Loaded reports whether stack has a VM.
func (m *Manager) Loaded(stack string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.states[stack]
	return ok
}

// HasHook reports whether stack's VM defines the global function hook.
func (m *Manager) HasHook(stack, hook string) bool {
	m.mu.RLock()
	v, ok := m.states[stack]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	_, isFn := v.L.GetGlobal(hook).(*lua.LFunction)
	return isFn
}

// CallHook calls the named Lua global function in stack's VM. Returns
// (LNil, nil) if the hook is not defined or no VM exists. Lua runtime errors
// are logged at Warn level and never propagated; an error returned by an
// engine callback during the call is propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(stack, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.states[stack]
	m.mu.RUnlock()

	if !ok {
		m.logger.Debug("scripting: no VM for stack",
			zap.String("stack", stack),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if v.depth == 0 {
		v.cancel()
		v.cancel = Arm(v.L, v.limit)
	}
	outer := m.fatal
	m.fatal = nil
	v.depth++
	err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...)
	v.depth--
	fatal := m.fatal
	m.fatal = outer

	if fatal != nil {
		return lua.LNil, fatal
	}
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("stack", stack),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Clear sets the global name of stack's VM to nil. Unknown stacks are
// ignored.
func (m *Manager) Clear(stack, name string) {
	m.mu.RLock()
	v, ok := m.states[stack]
	m.mu.RUnlock()
	if ok {
		v.L.SetGlobal(name, lua.LNil)
	}
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.states {
		v.cancel()
		v.L.Close()
		delete(m.states, key)
	}
}

// raise records err as the call's fatal error and aborts the running Lua
// function.
func (m *Manager) raise(L *lua.LState, err error) int {
	if m.fatal == nil {
		m.fatal = err
	}
	L.RaiseError("engine error: %v", err)
	return 0
}
