package scripting_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/cardstack/internal/scripting"
)

func runScript(t *testing.T, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	dir := writeTempLua(t, "test.lua", luaSrc)
	stack := "modtest_" + t.Name()
	require.NoError(t, mgr.LoadStack(stack, dir, 0))
	ret, err := mgr.CallHook(stack, hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_AllLevels(t *testing.T) {
	mgr, logs := newTestManager(t)
	runScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	assert.Equal(t, 1, logs.FilterLevelExact(zap.DebugLevel).FilterMessage("d").Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zap.InfoLevel).FilterMessage("i").Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).FilterMessage("w").Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zap.ErrorLevel).FilterMessage("e").Len())
	assert.Equal(t, 4, logs.FilterField(zap.String("source", "lua")).Len())
}

func TestEngineVar_GetSetToggle(t *testing.T) {
	mgr, _ := newTestManager(t)
	vars := map[uint16]uint16{3: 7}
	mgr.GetVar = func(idx uint16) uint16 { return vars[idx] }
	mgr.SetVar = func(idx, value uint16) { vars[idx] = value }

	ret := runScript(t, mgr, `
		function run()
			engine.var.set(4, engine.var.get(3) + 1)
			engine.var.toggle(5)
			return engine.var.toggle(5)
		end
	`, "run")

	assert.Equal(t, lua.LNumber(0), ret)
	assert.Equal(t, uint16(8), vars[4])
	assert.Equal(t, uint16(0), vars[5])
}

func TestEngineCard_GoDefaultsToCopy(t *testing.T) {
	mgr, _ := newTestManager(t)
	type change struct{ card, transition uint16 }
	var got []change
	mgr.ChangeCard = func(card, transition uint16) error {
		got = append(got, change{card, transition})
		return nil
	}
	mgr.CurrentCard = func() uint16 { return 4134 }

	ret := runScript(t, mgr, `
		function run()
			engine.card.go(10)
			engine.card.go(11, 2)
			return engine.card.current()
		end
	`, "run")

	assert.Equal(t, lua.LNumber(4134), ret)
	assert.Equal(t, []change{{10, 11}, {11, 2}}, got)
}

func TestEngineStack_Go(t *testing.T) {
	mgr, _ := newTestManager(t)
	var got []uint16
	mgr.ChangeStack = func(stack, card, linkSrc, linkDst uint16) error {
		got = append(got, stack, card, linkSrc, linkDst)
		return nil
	}
	runScript(t, mgr, `
		function run()
			engine.stack.go(11, 2000, 5, 6)
			engine.stack.go(7, 4134)
		end
	`, "run")
	assert.Equal(t, []uint16{11, 2000, 5, 6, 7, 4134, 0, 0}, got)
}

func TestEngineOp_PassesArgs(t *testing.T) {
	mgr, _ := newTestManager(t)
	var opcode, v uint16
	var args []uint16
	mgr.RunOpcode = func(o, vv uint16, a []uint16) error {
		opcode, v, args = o, vv, a
		return nil
	}
	runScript(t, mgr, `
		function run()
			engine.op(17, 3, 1, 2, 3)
		end
	`, "run")
	assert.Equal(t, uint16(17), opcode)
	assert.Equal(t, uint16(3), v)
	assert.Equal(t, []uint16{1, 2, 3}, args)
}

func TestEngineSound_Movie_Area_Cursor(t *testing.T) {
	mgr, _ := newTestManager(t)
	var calls []string
	mgr.PlayEffect = func(id uint16) { calls = append(calls, "effect") }
	mgr.PlayBlocking = func(id uint16) error { calls = append(calls, "blocking"); return nil }
	mgr.StopBackground = func() { calls = append(calls, "stop") }
	mgr.PlayMovie = func(name string, x, y int) error {
		calls = append(calls, name)
		assert.Equal(t, 10, x)
		assert.Equal(t, 0, y)
		return nil
	}
	mgr.SetAreaEnabled = func(index int, enabled bool) bool {
		calls = append(calls, "area")
		return index == 2 && !enabled
	}
	mgr.RedrawArea = func(v uint16) { calls = append(calls, "redraw") }
	mgr.SetCursor = func(id uint16) { calls = append(calls, "cursor") }
	mgr.Millis = func() uint32 { return 1234 }

	ret := runScript(t, mgr, `
		function run()
			engine.sound.play(1)
			engine.sound.play_blocking(2)
			engine.sound.stop_background()
			engine.movie.play("dome", 10)
			engine.area.redraw(4)
			engine.cursor.set(3000)
			assert_ok = engine.area.enable(2, false)
			if not assert_ok then return -1 end
			return engine.time.millis()
		end
	`, "run")

	assert.Equal(t, lua.LNumber(1234), ret)
	assert.Equal(t, []string{"effect", "blocking", "stop", "dome", "redraw", "cursor", "area"}, calls)
}

func TestEngineWait_ReturnsSkipped(t *testing.T) {
	mgr, _ := newTestManager(t)
	var gotMS uint32
	var gotSkippable bool
	mgr.Wait = func(ms uint32, skippable bool) (bool, error) {
		gotMS, gotSkippable = ms, skippable
		return skippable, nil
	}
	ret := runScript(t, mgr, `
		function run()
			return engine.wait(500, true)
		end
	`, "run")
	assert.Equal(t, lua.LTrue, ret)
	assert.Equal(t, uint32(500), gotMS)
	assert.True(t, gotSkippable)
}

func TestEngineMessage_ErrorAborts(t *testing.T) {
	mgr, _ := newTestManager(t)
	boom := errors.New("no font")
	mgr.Message = func(string) error { return boom }
	dir := writeTempLua(t, "msg.lua", `
		function run()
			engine.message("hello")
			return 1
		end
	`)
	require.NoError(t, mgr.LoadStack("msg", dir, 0))
	_, err := mgr.CallHook("msg", "run")
	assert.ErrorIs(t, err, boom)
}

func TestEngineSetPersistent(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "persist.lua", `
		ticks = 0
		function start()
			engine.set_persistent(function() ticks = ticks + 1 end)
		end
		function stop()
			engine.set_persistent(nil)
		end
		function count() return ticks end
	`)
	require.NoError(t, mgr.LoadStack("p", dir, 0))
	assert.False(t, mgr.HasHook("p", scripting.PersistentHook))

	_, err := mgr.CallHook("p", "start")
	require.NoError(t, err)
	require.True(t, mgr.HasHook("p", scripting.PersistentHook))
	for i := 0; i < 3; i++ {
		_, err = mgr.CallHook("p", scripting.PersistentHook)
		require.NoError(t, err)
	}
	ret, err := mgr.CallHook("p", "count")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(3), ret)

	_, err = mgr.CallHook("p", "stop")
	require.NoError(t, err)
	assert.False(t, mgr.HasHook("p", scripting.PersistentHook))
}

func TestEngineModules_NilCallbacksAreNoOps(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function run()
			engine.var.set(1, 2)
			engine.var.toggle(1)
			engine.card.go(3)
			engine.stack.go(1, 2)
			engine.sound.play(1)
			engine.sound.play_blocking(1)
			engine.sound.stop_background()
			engine.movie.play("x")
			engine.area.redraw(1)
			engine.cursor.set(1)
			engine.message("hi")
			engine.op(1)
			if engine.card.current() ~= nil then return -1 end
			if engine.area.enable(0) then return -2 end
			if engine.wait(10) then return -3 end
			return engine.var.get(1) + engine.time.millis()
		end
	`, "run")
	assert.Equal(t, lua.LNumber(0), ret)
}

func TestProperty_EngineVar_RoundTrip(t *testing.T) {
	mgr, _ := newTestManager(t)
	vars := map[uint16]uint16{}
	mgr.GetVar = func(idx uint16) uint16 { return vars[idx] }
	mgr.SetVar = func(idx, value uint16) { vars[idx] = value }
	dir := writeTempLua(t, "vars.lua", `
		function roundtrip(idx, value)
			engine.var.set(idx, value)
			return engine.var.get(idx)
		end
	`)
	require.NoError(t, mgr.LoadStack("vars", dir, 0))

	rapid.Check(t, func(rt *rapid.T) {
		idx := rapid.Uint16().Draw(rt, "idx")
		value := rapid.Uint16().Draw(rt, "value")
		ret, err := mgr.CallHook("vars", "roundtrip", lua.LNumber(idx), lua.LNumber(value))
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		if ret != lua.LNumber(value) {
			rt.Fatalf("roundtrip(%d, %d) = %v", idx, value, ret)
		}
	})
}
