package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pantheon/content"
	"github.com/cory-johannsen/pantheon/internal/game/ai"
	"github.com/cory-johannsen/pantheon/internal/game/combat"
	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/game/effect"
	"github.com/cory-johannsen/pantheon/internal/game/god"
	"github.com/cory-johannsen/pantheon/internal/scripting"
)

func weighted(w map[ai.Factor]float64) *ai.Persona {
	return &ai.Persona{ID: "test", Name: "Test", Weights: w}
}

// char builds a visible character with an explicit hp and reload.
func char(kind god.Kind, maxHP, hp, damage, reload int) *god.Character {
	c := god.New(kind, maxHP, damage, 2)
	c.SetHP(hp)
	c.Reload = reload
	c.Visible = true
	return c
}

func choose(t testing.TB, b *ai.Bot, req combat.ChoiceRequest) *god.Character {
	t.Helper()
	got, err := b.Choose(context.Background(), req)
	require.NoError(t, err)
	require.Contains(t, req.Candidates, got)
	return got
}

func TestBot_NoCandidates(t *testing.T) {
	b := ai.NewBot(weighted(map[ai.Factor]float64{ai.FactorDamage: 1}), dice.NewSeededSource(1), nil, nil)
	_, err := b.Choose(context.Background(), combat.ChoiceRequest{Role: combat.RoleAttacker})
	assert.True(t, errors.Is(err, ai.ErrNoCandidates))
}

func TestNewBot_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { ai.NewBot(nil, dice.NewCryptoSource(), nil, nil) })
	assert.Panics(t, func() { ai.NewBot(weighted(nil), nil, nil, nil) })
}

func TestBot_Attacker_HighestDamageIsDeterministic(t *testing.T) {
	weak := char(god.Artemis, 8, 8, 2, 0)
	strong := char(god.Artemis, 8, 8, 3, 0)
	other := char(god.Artemis, 8, 8, 2, 0)
	for seed := uint64(0); seed < 50; seed++ {
		b := ai.NewBot(weighted(map[ai.Factor]float64{ai.FactorDamage: 1}), dice.NewSeededSource(seed), nil, nil)
		got := choose(t, b, combat.ChoiceRequest{Role: combat.RoleAttacker, Candidates: []*god.Character{weak, strong, other}})
		assert.Same(t, strong, got)
	}
}

func TestBot_Attacker_NegativeDamageWeightPicksWeakest(t *testing.T) {
	reg := personas(t)
	saboteur, _ := reg.Get("saboteur")
	weak := char(god.Artemis, 8, 8, 1, 1)
	strong := char(god.Artemis, 8, 8, 3, 1)
	b := ai.NewBot(saboteur, dice.NewSeededSource(1), nil, nil)
	got := choose(t, b, combat.ChoiceRequest{Role: combat.RoleAttacker, Candidates: []*god.Character{strong, weak}})
	assert.Same(t, weak, got)
}

func TestBot_Attacker_ReloadFilterBreaksTies(t *testing.T) {
	ready := char(god.Artemis, 8, 8, 2, 0)
	recharging := char(god.Artemis, 8, 8, 2, 2)
	cands := []*god.Character{ready, recharging}

	for seed := uint64(0); seed < 20; seed++ {
		patient := ai.NewBot(weighted(map[ai.Factor]float64{ai.FactorDamage: 1, ai.FactorReload: -1}), dice.NewSeededSource(seed), nil, nil)
		assert.Same(t, recharging, choose(t, patient, combat.ChoiceRequest{Role: combat.RoleAttacker, Candidates: cands}))

		eager := ai.NewBot(weighted(map[ai.Factor]float64{ai.FactorDamage: 1, ai.FactorReload: 1}), dice.NewSeededSource(seed), nil, nil)
		assert.Same(t, ready, choose(t, eager, combat.ChoiceRequest{Role: combat.RoleAttacker, Candidates: cands}))
	}
}

func TestBot_Attacker_NoReloadWeightStillPrefersReady(t *testing.T) {
	recharging := char(god.Artemis, 8, 8, 2, 2)
	ready := char(god.Artemis, 8, 8, 2, 0)
	cands := []*god.Character{recharging, ready}
	for seed := uint64(0); seed < 200; seed++ {
		b := ai.NewBot(weighted(map[ai.Factor]float64{ai.FactorDamage: 1}), dice.NewSeededSource(seed), nil, nil)
		assert.Same(t, ready, choose(t, b, combat.ChoiceRequest{Role: combat.RoleAttacker, Candidates: cands}))
	}
}

func TestBot_Attacker_ReloadFilterFallsBackWhenEmpty(t *testing.T) {
	a := char(god.Artemis, 8, 8, 2, 0)
	b := char(god.Artemis, 8, 8, 2, 0)
	bot := ai.NewBot(weighted(map[ai.Factor]float64{ai.FactorDamage: 1, ai.FactorReload: -1}), dice.NewSeededSource(3), nil, nil)
	got := choose(t, bot, combat.ChoiceRequest{Role: combat.RoleAttacker, Candidates: []*god.Character{a, b}})
	assert.Contains(t, []*god.Character{a, b}, got)
}

func TestBot_TiesAreBrokenUniformly(t *testing.T) {
	cands := []*god.Character{char(god.Artemis, 8, 8, 2, 0), char(god.Artemis, 8, 8, 2, 0), char(god.Artemis, 8, 8, 2, 0)}
	b := ai.NewBot(weighted(map[ai.Factor]float64{ai.FactorDamage: 1}), dice.NewSeededSource(99), nil, nil)
	counts := map[*god.Character]int{}
	const n = 3000
	for i := 0; i < n; i++ {
		counts[choose(t, b, combat.ChoiceRequest{Role: combat.RoleAttacker, Candidates: cands})]++
	}
	for _, c := range cands {
		assert.InDelta(t, n/3, counts[c], 150)
	}
}

func TestBot_RandomPersonaPicksUniformly(t *testing.T) {
	random, _ := personas(t).Get("random")
	cands := []*god.Character{char(god.Artemis, 8, 8, 1, 0), char(god.Artemis, 8, 8, 9, 0)}
	b := ai.NewBot(random, dice.NewSeededSource(5), nil, nil)
	counts := map[*god.Character]int{}
	for i := 0; i < 2000; i++ {
		counts[choose(t, b, combat.ChoiceRequest{Role: combat.RoleAttacker, Candidates: cands})]++
	}
	assert.InDelta(t, 1000, counts[cands[0]], 120)
}

func TestBot_Target_PrefersLethal(t *testing.T) {
	attacker := char(god.Artemis, 8, 8, 3, 0)
	healthy := char(god.Artemis, 10, 10, 2, 0)
	fragile := char(god.Artemis, 10, 4, 2, 0)
	require.NoError(t, fragile.AddEffect(effect.Vulnerability, 1, 2))

	b := ai.NewBot(weighted(map[ai.Factor]float64{ai.FactorHP: 1, ai.FactorDamage: 1}), dice.NewSeededSource(1), nil, nil)
	got := choose(t, b, combat.ChoiceRequest{
		Role:       combat.RoleTarget,
		Candidates: []*god.Character{healthy, fragile},
		Attacker:   attacker,
	})
	assert.Same(t, fragile, got)
}

func TestBot_Target_ShieldPreventsLethal(t *testing.T) {
	attacker := char(god.Artemis, 8, 8, 3, 0)
	// Without shields both are lethal; argmax composite picks the sturdier one.
	a := char(god.Artemis, 20, 3, 2, 0)
	b := char(god.Artemis, 20, 1, 2, 0)
	bot := ai.NewBot(weighted(map[ai.Factor]float64{ai.FactorHP: 1, ai.FactorDamage: 1}), dice.NewSeededSource(1), nil, nil)
	req := combat.ChoiceRequest{Role: combat.RoleTarget, Candidates: []*god.Character{a, b}, Attacker: attacker}
	assert.Same(t, a, choose(t, bot, req))

	require.NoError(t, a.AddEffect(effect.Shield, 5, 100))
	assert.Same(t, b, choose(t, bot, req))
}

func TestBot_Target_ConsumesStoredAttackerDamage(t *testing.T) {
	w := map[ai.Factor]float64{ai.FactorHP: 1, ai.FactorDamage: 1}
	bot := ai.NewBot(weighted(w), dice.NewSeededSource(1), nil, nil)

	light := char(god.Artemis, 8, 8, 1, 0)
	heavy := char(god.Artemis, 8, 8, 5, 0)
	// With 1 damage neither dies and p (bucket 7) outranks q (bucket 6).
	// With 5 damage both die and q has the higher composite.
	p := char(god.Artemis, 20, 2, 2, 0)
	q := char(god.Artemis, 20, 5, 2, 0)
	target := combat.ChoiceRequest{Role: combat.RoleTarget, Candidates: []*god.Character{p, q}, Attacker: light}

	assert.Same(t, p, choose(t, bot, target), "falls back to the attacker's preview")

	choose(t, bot, combat.ChoiceRequest{Role: combat.RoleAttacker, Candidates: []*god.Character{heavy}})
	assert.Same(t, q, choose(t, bot, target), "uses the stored attacker damage")

	assert.Same(t, p, choose(t, bot, target), "stored damage is cleared after one use")
}

func TestBot_Target_NegativeDamageWeightMinimizes(t *testing.T) {
	saboteur, _ := personas(t).Get("saboteur")
	attacker := char(god.Artemis, 8, 8, 3, 0)
	dying := char(god.Artemis, 10, 2, 2, 0)
	sturdy := char(god.Artemis, 10, 10, 2, 0)
	bot := ai.NewBot(saboteur, dice.NewSeededSource(1), nil, nil)
	got := choose(t, bot, combat.ChoiceRequest{Role: combat.RoleTarget, Candidates: []*god.Character{sturdy, dying}, Attacker: attacker})
	assert.Same(t, dying, got, "minimum composite wins for a saboteur")
}

type hookFunc func(scopeID, hook string, args ...lua.LValue) (lua.LValue, error)

func (f hookFunc) CallHook(scopeID, hook string, args ...lua.LValue) (lua.LValue, error) {
	return f(scopeID, hook, args...)
}

func TestBot_ScriptHookAdjustsScore(t *testing.T) {
	p := weighted(map[ai.Factor]float64{ai.FactorDamage: 1})
	p.ScriptHook = "boost_nyx"
	var roles []string
	caller := hookFunc(func(_, hook string, args ...lua.LValue) (lua.LValue, error) {
		assert.Equal(t, "boost_nyx", hook)
		roles = append(roles, args[1].String())
		score := args[2].(lua.LNumber)
		if args[0].String() == "nyx" {
			return score + 10, nil
		}
		return score, nil
	})
	thor := char(god.Thor, 9, 9, 3, 1)
	nyx := char(god.Nyx, 7, 7, 2, 1)
	bot := ai.NewBot(p, dice.NewSeededSource(1), caller, zap.NewNop())
	got := choose(t, bot, combat.ChoiceRequest{Role: combat.RoleChain, Candidates: []*god.Character{thor, nyx}})
	assert.Same(t, nyx, got)
	assert.Equal(t, []string{"chain", "chain"}, roles)
}

func TestBot_ScriptHookFailureLeavesScore(t *testing.T) {
	p := weighted(map[ai.Factor]float64{ai.FactorDamage: 1})
	p.ScriptHook = "broken"
	caller := hookFunc(func(string, string, ...lua.LValue) (lua.LValue, error) {
		return lua.LNil, errors.New("vm gone")
	})
	thor := char(god.Thor, 9, 9, 3, 1)
	nyx := char(god.Nyx, 7, 7, 2, 1)
	bot := ai.NewBot(p, dice.NewSeededSource(1), caller, nil)
	assert.Same(t, thor, choose(t, bot, combat.ChoiceRequest{Role: combat.RoleAttacker, Candidates: []*god.Character{thor, nyx}}))
}

func TestBot_EmbeddedTacticianScript(t *testing.T) {
	mgr := scripting.NewManager(dice.NewSeededSource(1), zap.NewNop())
	require.NoError(t, mgr.LoadGlobal(content.FS, content.ScriptsDir, 0))
	defer mgr.Close()

	p := weighted(map[ai.Factor]float64{ai.FactorDamage: 1})
	p.ScriptHook = "tactician_adjust"
	loki := char(god.Loki, 7, 7, 2, 1)
	odin := char(god.Odin, 9, 9, 2, 1)
	bot := ai.NewBot(p, dice.NewSeededSource(1), mgr, nil)
	for i := 0; i < 10; i++ {
		assert.Same(t, odin, choose(t, bot, combat.ChoiceRequest{Role: combat.RoleAttacker, Candidates: []*god.Character{loki, odin}}))
	}
}

func TestPropertyBot_AlwaysPicksACandidate(t *testing.T) {
	reg := personas(t)
	ids := reg.IDs()
	rapid.Check(t, func(rt *rapid.T) {
		id := rapid.SampledFrom(ids).Draw(rt, "persona")
		p, _ := reg.Get(id)
		n := rapid.IntRange(1, 5).Draw(rt, "n")
		cands := make([]*god.Character, n)
		for i := range cands {
			kind := god.Kind(rapid.IntRange(1, god.KindCount).Draw(rt, "kind"))
			maxHP := rapid.IntRange(1, 12).Draw(rt, "maxhp")
			cands[i] = char(kind, maxHP, rapid.IntRange(0, maxHP).Draw(rt, "hp"), rapid.IntRange(0, 4).Draw(rt, "dmg"), rapid.IntRange(0, 3).Draw(rt, "reload"))
		}
		role := combat.Role(rapid.IntRange(0, 2).Draw(rt, "role"))
		bot := ai.NewBot(p, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")), nil, nil)
		got, err := bot.Choose(context.Background(), combat.ChoiceRequest{
			Role:       role,
			Candidates: cands,
			Allies:     cands,
			Enemies:    cands,
			Attacker:   cands[0],
		})
		require.NoError(rt, err)
		assert.Contains(rt, cands, got)
	})
}

func TestBot_BotVersusBotFinishes(t *testing.T) {
	cat, err := god.LoadCatalog(content.FS, content.GodsDir)
	require.NoError(t, err)
	reg := personas(t)
	mgr := scripting.NewManager(dice.NewSeededSource(2), zap.NewNop())
	require.NoError(t, mgr.LoadGlobal(content.FS, content.ScriptsDir, 0))
	defer mgr.Close()

	for seed := uint64(1); seed <= 10; seed++ {
		coin := dice.NewSeededSource(seed)
		eng := combat.NewEngine(cat, combat.Options{Coin: coin})
		m, err := eng.StartMatch(combat.Draft(coin), combat.Draft(coin))
		require.NoError(t, err)
		tactician, _ := reg.Get("tactician")
		berserker, _ := reg.Get("berserker")
		choosers := [2]combat.Chooser{
			ai.NewBot(tactician, coin, mgr, nil),
			ai.NewBot(berserker, coin, nil, nil),
		}
		out, err := m.Play(context.Background(), choosers, 500)
		if err != nil {
			require.True(t, errors.Is(err, combat.ErrTurnLimit), "unexpected error: %v", err)
			continue
		}
		assert.Contains(t, []combat.OutcomeKind{combat.Win, combat.Draw}, out.Kind)
	}
}
