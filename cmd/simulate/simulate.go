package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/pantheon/internal/game/ai"
	"github.com/cory-johannsen/pantheon/internal/game/combat"
	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/game/god"
	"github.com/cory-johannsen/pantheon/internal/observability"
)

// result is one finished match. Limited is set when the turn limit stopped it.
type result struct {
	Rosters [2][]god.Kind
	Outcome combat.OutcomeKind
	Winner  combat.Side
	Turns   int
	Limited bool
}

// simulation plays bot-versus-bot matches on one engine.
type simulation struct {
	engine   *combat.Engine
	personas [2]*ai.Persona
	scripts  ai.ScriptCaller
	// seed 0 draws every match from crypto randomness.
	seed     uint64
	maxTurns int
	parallel int
	logger   *zap.Logger
}

// run plays n matches, at most s.parallel at once. Match i owns the dice
// stream dice.Derive(s.seed, i) for its draft, coin and bots, so a seeded run
// yields the same results in the same order whatever the scheduling.
//
// Postcondition: Returns n results indexed by match, or the first error.
func (s simulation) run(ctx context.Context, n int) ([]result, error) {
	results := make([]result, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.parallel, 1))
	for i := range n {
		g.Go(func() error {
			r, err := s.one(ctx, i)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s simulation) one(ctx context.Context, i int) (result, error) {
	src := dice.Derive(s.seed, uint64(i))
	rosters := [2][]god.Kind{combat.Draft(src), combat.Draft(src)}
	m, err := s.engine.StartMatchWith(rosters[0], rosters[1], combat.Options{
		Coin: dice.NewLoggedSource(src, s.logger),
	})
	if err != nil {
		return result{}, err
	}
	defer s.engine.End(m.ID)

	ml := observability.ForMatch(s.logger, m.ID)
	choosers := [2]combat.Chooser{
		combat.SideA: ai.NewBot(s.personas[combat.SideA], src, s.scripts, ml),
		combat.SideB: ai.NewBot(s.personas[combat.SideB], src, s.scripts, ml),
	}
	out, err := m.Play(ctx, choosers, s.maxTurns)
	limited := errors.Is(err, combat.ErrTurnLimit)
	if err != nil && !limited {
		return result{}, err
	}
	_, turns, _, _ := m.Status()
	ml.Debug("match finished",
		zap.Int("index", i),
		zap.Stringer("outcome", out.Kind),
		zap.Int("turns", turns),
	)
	return result{Rosters: rosters, Outcome: out.Kind, Winner: out.Winner, Turns: turns, Limited: limited}, nil
}

// tally counts match results. wins is indexed by combat.Side.
type tally struct {
	wins      [2]int
	draws     int
	unsettled int
	turns     int
}

func (t *tally) record(r result) {
	t.turns += r.Turns
	switch {
	case r.Limited:
		t.unsettled++
	case r.Outcome == combat.Win:
		t.wins[r.Winner]++
	case r.Outcome == combat.Draw:
		t.draws++
	default:
		t.unsettled++
	}
}
