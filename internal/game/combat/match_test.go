package combat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pantheon/content"
	"github.com/cory-johannsen/pantheon/internal/game/combat"
	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/game/god"
)

func catalog(t testing.TB) *god.Catalog {
	t.Helper()
	cat, err := god.LoadCatalog(content.FS, content.GodsDir)
	require.NoError(t, err)
	return cat
}

// randomChooser picks uniformly with its own seeded source.
func randomChooser(src dice.Source) combat.Chooser {
	return combat.ChooserFunc(func(_ context.Context, req combat.ChoiceRequest) (*god.Character, error) {
		return req.Candidates[dice.Pick(src, len(req.Candidates))], nil
	})
}

var squadA = []god.Kind{god.Athena, god.Thor, god.Hades, god.Apollo, god.Atlas}
var squadB = []god.Kind{god.Odin, god.Loki, god.Surtr, god.Nyx, god.Poseidon}

func TestEngine_StartGetEnd(t *testing.T) {
	eng := combat.NewEngine(catalog(t), combat.Options{Coin: dice.NewSeededSource(1)})
	m, err := eng.StartMatch(squadA, squadB)
	require.NoError(t, err)
	assert.Equal(t, 1, eng.Len())

	got, ok := eng.Get(m.ID)
	require.True(t, ok)
	assert.Same(t, m, got)
	for _, c := range m.Team(combat.SideA).Members {
		assert.True(t, c.Alive)
		assert.False(t, c.Visible)
		assert.Equal(t, c.MaxHP, c.HP)
	}

	eng.End(m.ID)
	_, ok = eng.Get(m.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, eng.Len())
}

func TestEngine_RejectsInvalidRosters(t *testing.T) {
	eng := combat.NewEngine(catalog(t), combat.Options{})
	_, err := eng.StartMatch(squadA[:4], squadB)
	assert.Error(t, err)
	_, err = eng.StartMatch([]god.Kind{god.Thor, god.Thor, god.Hades, god.Apollo, god.Atlas}, squadB)
	assert.Error(t, err)
	_, err = eng.StartMatch(squadA, []god.Kind{god.Odin, god.Loki, god.Surtr, god.Nyx, god.KindUnknown})
	assert.Error(t, err)
	assert.Equal(t, 0, eng.Len())
}

func TestEngine_MatchesDoNotShareCharacters(t *testing.T) {
	eng := combat.NewEngine(catalog(t), combat.Options{})
	m1, err := eng.StartMatch(squadA, squadB)
	require.NoError(t, err)
	m2, err := eng.StartMatch(squadA, squadB)
	require.NoError(t, err)
	m1.Team(combat.SideA).Members[0].LoseHP(3)
	assert.Equal(t, m2.Team(combat.SideA).Members[0].MaxHP, m2.Team(combat.SideA).Members[0].HP)
}

func TestDraft_DistinctKinds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kinds := combat.Draft(dice.NewSeededSource(rapid.Uint64().Draw(t, "seed")))
		assert.NoError(t, combat.ValidateRoster(kinds))
	})
}

func TestPlay_TurnLimit(t *testing.T) {
	eng := combat.NewEngine(catalog(t), combat.Options{Coin: dice.NewSeededSource(7)})
	m, err := eng.StartMatch(squadA, squadB)
	require.NoError(t, err)
	src := dice.NewSeededSource(8)
	out, err := m.Play(context.Background(), [2]combat.Chooser{randomChooser(src), randomChooser(src)}, 1)
	assert.True(t, errors.Is(err, combat.ErrTurnLimit))
	assert.Equal(t, combat.SideNone, out.Winner, "an unresolved match names no winner")
	_, turn, _, _ := m.Status()
	assert.Equal(t, 1, turn)
}

func TestPlay_CancelledContext(t *testing.T) {
	eng := combat.NewEngine(catalog(t), combat.Options{})
	m, err := eng.StartMatch(squadA, squadB)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := m.Play(ctx, [2]combat.Chooser{randomChooser(dice.NewSeededSource(1)), randomChooser(dice.NewSeededSource(2))}, 0)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, combat.SideNone, out.Winner)
}

func TestSnapshot_RestoreRoundTrip(t *testing.T) {
	cat := catalog(t)
	eng := combat.NewEngine(cat, combat.Options{Coin: dice.NewSeededSource(3)})
	m, err := eng.StartMatch(squadA, squadB)
	require.NoError(t, err)
	src := dice.NewSeededSource(4)
	choosers := [2]combat.Chooser{randomChooser(src), randomChooser(src)}
	for i := 0; i < 4; i++ {
		next, _, phase, _ := m.Status()
		if phase.Terminal() {
			break
		}
		_, err := m.RunTurn(context.Background(), next, choosers[next])
		require.NoError(t, err)
	}

	snap := m.Snapshot()
	restored, err := combat.RestoreMatch(cat, snap, combat.Options{})
	require.NoError(t, err)
	assert.Equal(t, snap, restored.Snapshot())

	_, err = eng.Resume(snap)
	assert.Error(t, err, "match id already live")
	eng.End(m.ID)
	resumed, err := eng.Resume(snap)
	require.NoError(t, err)
	assert.Equal(t, m.ID, resumed.ID)
}

func TestRestoreMatch_RejectsBadSnapshots(t *testing.T) {
	cat := catalog(t)
	eng := combat.NewEngine(cat, combat.Options{})
	m, err := eng.StartMatch(squadA, squadB)
	require.NoError(t, err)

	snap := m.Snapshot()
	snap.Phase = combat.PhaseResolveBase
	_, err = combat.RestoreMatch(cat, snap, combat.Options{})
	assert.Error(t, err)

	snap = m.Snapshot()
	snap.Teams[0] = snap.Teams[0][:4]
	_, err = combat.RestoreMatch(cat, snap, combat.Options{})
	assert.Error(t, err)

	snap = m.Snapshot()
	snap.Next = combat.SideNone
	_, err = combat.RestoreMatch(cat, snap, combat.Options{})
	assert.Error(t, err)
}

func TestParseSideAndPhase(t *testing.T) {
	for _, s := range []combat.Side{combat.SideA, combat.SideB, combat.SideNone} {
		got, err := combat.ParseSide(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	for p := combat.PhaseAwaitAttacker; p <= combat.PhaseAbandoned; p++ {
		got, err := combat.ParsePhase(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := combat.ParsePhase("lunch")
	assert.Error(t, err)
}

func TestPropertyPlay_InvariantsHoldEveryTurn(t *testing.T) {
	cat := catalog(t)
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64().Draw(t, "seed")
		coin := dice.NewSeededSource(seed)
		a, b := combat.Draft(coin), combat.Draft(coin)
		ta, err := combat.NewTeam(cat, combat.SideA, a)
		require.NoError(t, err)
		tb, err := combat.NewTeam(cat, combat.SideB, b)
		require.NoError(t, err)
		m := combat.NewMatch(uuid.New(), ta, tb, combat.Options{Coin: coin})
		choosers := [2]combat.Chooser{randomChooser(coin), randomChooser(coin)}

		for i := 0; i < 200; i++ {
			next, _, phase, _ := m.Status()
			if phase.Terminal() {
				break
			}
			out, err := m.RunTurn(context.Background(), next, choosers[next])
			require.NoError(t, err)
			for _, team := range m.Teams {
				for _, c := range team.Members {
					assert.GreaterOrEqual(t, c.HP, 0)
					assert.LessOrEqual(t, c.HP, c.EffectiveMaxHP())
					assert.False(t, c.Dying(), "cleanup leaves no living character at 0 hp")
					assert.GreaterOrEqual(t, c.Reload, 0)
					for _, in := range c.Effects.All() {
						assert.Greater(t, in.Duration, 0)
					}
				}
			}
			switch out.Kind {
			case combat.Win:
				assert.Empty(t, m.Team(out.Winner.Other()).Live())
				assert.NotEmpty(t, m.Team(out.Winner).Live())
			case combat.Draw:
				assert.Empty(t, m.Team(combat.SideA).Live())
				assert.Empty(t, m.Team(combat.SideB).Live())
			}
		}
	})
}
