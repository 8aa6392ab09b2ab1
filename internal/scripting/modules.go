package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)

	L.SetField(engine, "log", m.newLogModule(L))
	L.SetField(engine, "var", m.newVarModule(L))
	L.SetField(engine, "card", m.newCardModule(L))
	L.SetField(engine, "stack", m.newStackModule(L))
	L.SetField(engine, "sound", m.newSoundModule(L))
	L.SetField(engine, "movie", m.newMovieModule(L))
	L.SetField(engine, "area", m.newAreaModule(L))
	L.SetField(engine, "cursor", m.newCursorModule(L))
	L.SetField(engine, "time", m.newTimeModule(L))

	L.SetField(engine, "wait", L.NewFunction(m.luaWait))
	L.SetField(engine, "message", L.NewFunction(m.luaMessage))
	L.SetField(engine, "op", L.NewFunction(m.luaOp))
	L.SetField(engine, "set_persistent", L.NewFunction(luaSetPersistent))
}

func u16(L *lua.LState, n int) uint16 { return uint16(L.CheckInt(n)) }

func optU16(L *lua.LState, n int, def uint16) uint16 { return uint16(L.OptInt(n, int(def))) }

func (m *Manager) newLogModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	for name, log := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	} {
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			log(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func (m *Manager) newVarModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(func(L *lua.LState) int {
		if m.GetVar == nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(m.GetVar(u16(L, 1))))
		return 1
	}))
	L.SetField(mod, "set", L.NewFunction(func(L *lua.LState) int {
		if m.SetVar != nil {
			m.SetVar(u16(L, 1), u16(L, 2))
		}
		return 0
	}))
	L.SetField(mod, "toggle", L.NewFunction(func(L *lua.LState) int {
		if m.GetVar == nil || m.SetVar == nil {
			return 0
		}
		idx := u16(L, 1)
		next := uint16(0)
		if m.GetVar(idx) == 0 {
			next = 1
		}
		m.SetVar(idx, next)
		L.Push(lua.LNumber(next))
		return 1
	}))
	return mod
}

func (m *Manager) newCardModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "current", L.NewFunction(func(L *lua.LState) int {
		if m.CurrentCard == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(m.CurrentCard()))
		return 1
	}))
	// go(card [, transition]); transition defaults to copy (11).
	L.SetField(mod, "go", L.NewFunction(func(L *lua.LState) int {
		if m.ChangeCard == nil {
			return 0
		}
		if err := m.ChangeCard(u16(L, 1), optU16(L, 2, 11)); err != nil {
			return m.raise(L, err)
		}
		return 0
	}))
	return mod
}

func (m *Manager) newStackModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "go", L.NewFunction(func(L *lua.LState) int {
		if m.ChangeStack == nil {
			return 0
		}
		if err := m.ChangeStack(u16(L, 1), u16(L, 2), optU16(L, 3, 0), optU16(L, 4, 0)); err != nil {
			return m.raise(L, err)
		}
		return 0
	}))
	return mod
}

func (m *Manager) newSoundModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "play", L.NewFunction(func(L *lua.LState) int {
		if m.PlayEffect != nil {
			m.PlayEffect(u16(L, 1))
		}
		return 0
	}))
	L.SetField(mod, "play_blocking", L.NewFunction(func(L *lua.LState) int {
		if m.PlayBlocking == nil {
			return 0
		}
		if err := m.PlayBlocking(u16(L, 1)); err != nil {
			return m.raise(L, err)
		}
		return 0
	}))
	L.SetField(mod, "stop_background", L.NewFunction(func(L *lua.LState) int {
		if m.StopBackground != nil {
			m.StopBackground()
		}
		return 0
	}))
	return mod
}

func (m *Manager) newMovieModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "play", L.NewFunction(func(L *lua.LState) int {
		if m.PlayMovie == nil {
			return 0
		}
		if err := m.PlayMovie(L.CheckString(1), L.OptInt(2, 0), L.OptInt(3, 0)); err != nil {
			return m.raise(L, err)
		}
		return 0
	}))
	return mod
}

func (m *Manager) newAreaModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "enable", L.NewFunction(func(L *lua.LState) int {
		if m.SetAreaEnabled == nil {
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(lua.LBool(m.SetAreaEnabled(L.CheckInt(1), L.OptBool(2, true))))
		return 1
	}))
	L.SetField(mod, "redraw", L.NewFunction(func(L *lua.LState) int {
		if m.RedrawArea != nil {
			m.RedrawArea(u16(L, 1))
		}
		return 0
	}))
	return mod
}

func (m *Manager) newCursorModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "set", L.NewFunction(func(L *lua.LState) int {
		if m.SetCursor != nil {
			m.SetCursor(u16(L, 1))
		}
		return 0
	}))
	return mod
}

func (m *Manager) newTimeModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "millis", L.NewFunction(func(L *lua.LState) int {
		if m.Millis == nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(m.Millis()))
		return 1
	}))
	return mod
}

// luaWait implements engine.wait(ms [, skippable]) and returns whether the
// player skipped it.
func (m *Manager) luaWait(L *lua.LState) int {
	if m.Wait == nil {
		L.Push(lua.LFalse)
		return 1
	}
	skipped, err := m.Wait(uint32(L.CheckInt(1)), L.OptBool(2, false))
	if err != nil {
		return m.raise(L, err)
	}
	L.Push(lua.LBool(skipped))
	return 1
}

func (m *Manager) luaMessage(L *lua.LState) int {
	if m.Message == nil {
		return 0
	}
	if err := m.Message(L.CheckString(1)); err != nil {
		return m.raise(L, err)
	}
	return 0
}

// luaOp implements engine.op(opcode, var, args...), running a native opcode.
func (m *Manager) luaOp(L *lua.LState) int {
	if m.RunOpcode == nil {
		return 0
	}
	opcode, v := u16(L, 1), optU16(L, 2, 0)
	var args []uint16
	for i := 3; i <= L.GetTop(); i++ {
		args = append(args, u16(L, i))
	}
	if err := m.RunOpcode(opcode, v, args); err != nil {
		return m.raise(L, err)
	}
	return 0
}

// luaSetPersistent implements engine.set_persistent(fn); nil clears it.
func luaSetPersistent(L *lua.LState) int {
	fn := L.Get(1)
	if fn != lua.LNil {
		fn = L.CheckFunction(1)
	}
	L.SetGlobal(PersistentHook, fn)
	return 0
}
