package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/scripting"
)

func runScript(t testing.TB, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	require.NoError(t, mgr.LoadScope("modtest", luaFS(map[string]string{"test.lua": luaSrc}), "scripts", 0))
	ret, err := mgr.CallHook("modtest", hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_AllLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(dice.NewCryptoSource(), zap.New(core))

	runScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
		end
	`, "do_all_logs")

	assert.Equal(t, 1, logs.FilterMessage("lua: d").FilterLevelExact(zap.DebugLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("lua: i").FilterLevelExact(zap.InfoLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("lua: w").FilterLevelExact(zap.WarnLevel).Len())
}

type constSource int

func (c constSource) Intn(int) int { return int(c) }

func TestEngineRandom_UsesSource(t *testing.T) {
	mgr := scripting.NewManager(constSource(2), zap.NewNop())
	ret := runScript(t, mgr, `function roll() return engine.random(6) end`, "roll")
	assert.Equal(t, lua.LNumber(3), ret)
}

func TestEngineRandom_BadArgumentIsContained(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(dice.NewCryptoSource(), zap.New(core))
	ret := runScript(t, mgr, `function roll() return engine.random(0) end`, "roll")
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestPropertyEngineRandom_InRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		n := rapid.IntRange(1, 100).Draw(rt, "n")
		mgr := scripting.NewManager(dice.NewSeededSource(seed), zap.NewNop())
		require.NoError(rt, mgr.LoadScope("r", luaFS(map[string]string{"r.lua": `function roll(n) return engine.random(n) end`}), "scripts", 0))
		defer mgr.Close()
		ret, err := mgr.CallHook("r", "roll", lua.LNumber(n))
		require.NoError(rt, err)
		v, ok := ret.(lua.LNumber)
		require.True(rt, ok)
		assert.GreaterOrEqual(rt, int(v), 1)
		assert.LessOrEqual(rt, int(v), n)
	})
}
