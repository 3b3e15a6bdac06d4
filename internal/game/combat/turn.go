package combat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pantheon/internal/game/ability"
	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/game/effect"
	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// turn carries the per-turn working state. It lives for one RunTurn call.
type turn struct {
	m       *Match
	acting  *Team
	defend  *Team
	events  []Event
	logger  *zap.Logger
	reveals [2]*god.Character // planned bootstrap reveals, by side
}

// RunTurn executes one full turn for side.
//
// All choices (attacker, target, chain allies) are collected before any
// state changes. An out-of-set choice returns ErrInvalidSelection and leaves
// the match untouched. A choice that exceeds the configured timeout
// abandons the match: the outcome is Abandoned, the error nil, and nothing is
// mutated.
//
// Precondition: chooser must be non-nil.
// Postcondition: On success the turn counter advances and Next flips, unless
// the match ended or was abandoned.
func (m *Match) RunTurn(ctx context.Context, side Side, chooser Chooser) (TurnOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Phase.Terminal() {
		return noOutcome, ErrMatchOver
	}
	if side != m.Next {
		return noOutcome, fmt.Errorf("%w: %s acts next", ErrNotYourTurn, m.Next)
	}

	t := &turn{
		m:      m,
		acting: m.Teams[side],
		defend: m.Teams[side.Other()],
		logger: m.opts.Logger.With(zap.String("match", m.ID.String()), zap.Int("turn", m.Turn), zap.Stringer("side", side)),
	}
	t.planBootstrap()

	m.Phase = PhaseAwaitAttacker
	attackers := t.attackerCandidates()
	if len(attackers) == 0 {
		t.applyBootstrap()
		return t.skip("no eligible attacker"), nil
	}
	attacker, err := t.choose(ctx, chooser, ChoiceRequest{Role: RoleAttacker, Candidates: attackers})
	if err != nil {
		return t.fail(err)
	}

	m.Phase = PhaseAwaitTarget
	targets := t.targetCandidates()
	if len(targets) == 0 {
		t.applyBootstrap()
		return t.skip("no eligible target"), nil
	}
	target, err := t.choose(ctx, chooser, ChoiceRequest{Role: RoleTarget, Candidates: targets, Attacker: attacker})
	if err != nil {
		return t.fail(err)
	}

	var chain []*god.Character
	if t.canChain(attacker) {
		pool := t.chainCandidates(attacker)
		for i := 0; i < 2; i++ {
			pick, err := t.choose(ctx, chooser, ChoiceRequest{Role: RoleChain, Candidates: pool, Attacker: attacker})
			if err != nil {
				return t.fail(err)
			}
			chain = append(chain, pick)
			pool = without(pool, pick)
		}
	}

	// Every choice is in; mutation starts here.
	t.applyBootstrap()
	t.declare(attacker)

	m.Phase = PhaseResolveBase
	if !attacker.Kind.OptsOutOfStandardDamage() {
		t.strike(attacker, target)
	}

	m.Phase = PhaseResolveAbility
	t.resolveAbility(attacker, target, chain)

	m.Phase = PhaseCleanup
	t.cleanup()

	m.Phase = PhaseTickEffects
	t.tick()

	m.Phase = PhaseCheckWin
	return t.checkWin(), nil
}

// choose asks chooser for one candidate under the choice timeout. The call
// runs in its own goroutine so a chooser that ignores ctx cannot stall the match.
func (t *turn) choose(ctx context.Context, chooser Chooser, req ChoiceRequest) (*god.Character, error) {
	req.Side = t.acting.Side
	req.Turn = t.m.Turn
	req.Allies = t.acting.Members
	req.Enemies = t.defend.Members

	cctx, cancel := ctx, context.CancelFunc(func() {})
	if t.m.opts.ChoiceTimeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, t.m.opts.ChoiceTimeout)
	}
	defer cancel()

	type result struct {
		c   *god.Character
		err error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := chooser.Choose(cctx, req)
		ch <- result{c, err}
	}()

	var res result
	select {
	case res = <-ch:
	case <-cctx.Done():
		res = result{err: cctx.Err()}
	}

	if res.err != nil {
		if ctx.Err() == nil && (errors.Is(res.err, context.DeadlineExceeded) || errors.Is(res.err, ErrChoiceTimeout)) {
			return nil, ErrChoiceTimeout
		}
		return nil, fmt.Errorf("choosing %s: %w", req.Role, res.err)
	}
	if !containsChar(req.Candidates, res.c) {
		return nil, fmt.Errorf("%w: %s choice", ErrInvalidSelection, req.Role)
	}
	return res.c, nil
}

// fail converts a choice error into the turn result. Timeouts abandon the match.
func (t *turn) fail(err error) (TurnOutcome, error) {
	if errors.Is(err, ErrChoiceTimeout) {
		t.m.Phase = PhaseAbandoned
		t.logger.Info("match abandoned: choice timed out")
		return TurnOutcome{Kind: Abandoned, Winner: SideNone}, nil
	}
	t.m.Phase = PhaseAwaitAttacker
	return noOutcome, err
}

func (t *turn) emit(typ EventType, actor, target *god.Character, format string, args ...any) {
	ev := Event{Type: typ, Narrative: fmt.Sprintf(format, args...)}
	if actor != nil {
		ev.Actor = actor.Name
	}
	if target != nil {
		ev.Target = target.Name
	}
	t.events = append(t.events, ev)
	t.logger.Debug(ev.Narrative)
}

func (t *turn) env(typ EventType, actor *god.Character) ability.Env {
	return ability.Env{
		Coin: t.m.opts.Coin,
		Narrate: func(text string) {
			t.emit(typ, actor, nil, "%s", text)
		},
	}
}

// planBootstrap picks, for each side with no visible living member, one
// hidden living member to reveal. Nothing is mutated until applyBootstrap.
func (t *turn) planBootstrap() {
	for _, team := range []*Team{t.acting, t.defend} {
		if len(team.Visible()) > 0 {
			continue
		}
		live := team.Live()
		if len(live) == 0 {
			continue
		}
		t.reveals[team.Side] = live[dice.Pick(t.m.opts.Coin, len(live))]
	}
}

func (t *turn) applyBootstrap() {
	for _, team := range []*Team{t.acting, t.defend} {
		c := t.reveals[team.Side]
		if c == nil {
			continue
		}
		t.reveals[team.Side] = nil
		if c.Reveal() {
			t.emit(EventReveal, c, nil, "%s steps out of hiding", c.Name)
			t.revealPassives(team, c)
		}
	}
}

// visible returns team members that are alive and visible, counting planned reveals.
func (t *turn) visible(team *Team) []*god.Character {
	var out []*god.Character
	for _, c := range team.Members {
		if c.Alive && (c.Visible || c == t.reveals[team.Side]) {
			out = append(out, c)
		}
	}
	return out
}

func (t *turn) attackerCandidates() []*god.Character {
	var out []*god.Character
	for _, c := range t.visible(t.acting) {
		if c.Stunned() || c.Frozen() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// targetCandidates collapses to the forced-target kind when one is alive and visible.
func (t *turn) targetCandidates() []*god.Character {
	vis := t.visible(t.defend)
	for _, c := range vis {
		if c.Kind.IsForcedTarget() {
			return []*god.Character{c}
		}
	}
	return vis
}

func (t *turn) canChain(attacker *god.Character) bool {
	return attacker.Kind.IsChainEnabler() && attacker.Ready() && !attacker.Charmed() &&
		len(t.chainCandidates(attacker)) >= 2
}

func (t *turn) chainCandidates(attacker *god.Character) []*god.Character {
	return without(t.visible(t.acting), attacker)
}

// declare reveals the attacker, triggering reveal passives if it was hidden.
func (t *turn) declare(attacker *god.Character) {
	if attacker.Reveal() {
		t.emit(EventReveal, attacker, nil, "%s reveals itself to attack", attacker.Name)
		t.revealPassives(t.acting, attacker)
	}
}

func (t *turn) revealPassives(team *Team, revealed *god.Character) {
	other := t.m.Teams[team.Side.Other()]
	for _, err := range ability.RevealPassives(t.env(EventPassive, revealed), revealed, team.Members, other.Members) {
		t.fault(revealed, err)
	}
}

func (t *turn) fault(actor *god.Character, err error) {
	t.logger.Warn("ability fault ignored", zap.String("actor", actor.Name), zap.Error(err))
	t.emit(EventFault, actor, nil, "%s falters", actor.Name)
}

// strike applies the actor's standard damage to target through the pipeline.
func (t *turn) strike(actor, target *god.Character) {
	dmg := actor.OutgoingDamage()
	r := target.ApplyIncomingDamage(dmg)
	t.emit(EventAttack, actor, target, "%s hits %s: %s", actor.Name, target.Name, r)
}

// resolveAbility fires the attacker's ability when ready and not charmed,
// then the chain sub-calls. Chained calls neither need nor spend reload.
func (t *turn) resolveAbility(attacker, target *god.Character, chain []*god.Character) {
	if !attacker.Ready() || attacker.Charmed() {
		return
	}
	ctx := ability.NewContext(t.env(EventAbility, attacker), attacker, target, t.acting.Members, t.defend.Members)
	ctx.Secondaries = chain
	if err := ability.Invoke(ctx); err != nil {
		t.fault(attacker, err)
	}
	attacker.Reload = attacker.Cooldown

	for _, sub := range chain {
		if !sub.Alive {
			continue
		}
		sctx := ability.NewContext(t.env(EventChain, sub), sub, target, t.acting.Members, t.defend.Members)
		sctx.Chained = true
		if err := ability.Invoke(sctx); err != nil {
			t.fault(sub, err)
		}
		if !sub.Kind.OptsOutOfStandardDamage() {
			t.strike(sub, target)
		}
	}
}

// cleanup finalizes every death, acting side first, in slot order, and
// repeats until no living character is left at 0 hp, since death passives
// can kill.
func (t *turn) cleanup() {
	for {
		changed := false
		for _, team := range []*Team{t.acting, t.defend} {
			for _, c := range team.Members {
				if c.Dying() {
					t.die(team, c)
					changed = true
				}
			}
		}
		if !changed {
			return
		}
	}
}

func (t *turn) die(team *Team, dying *god.Character) {
	for _, kind := range dying.Kind.TeamGrants() {
		for _, mate := range team.Members {
			mate.RemoveEffects(kind)
		}
	}
	for _, mate := range team.Members {
		if mate == dying || !mate.Alive {
			continue
		}
		in, ok := mate.Effects.RemoveFirst(effect.DelayedProtection)
		if !ok {
			continue
		}
		restored := min(in.Magnitude, mate.EffectiveMaxHP())
		if restored > mate.HP {
			mate.SetHP(restored)
		}
		t.emit(EventPassive, mate, dying, "%s is restored to %d hp", mate.Name, mate.HP)
	}
	dying.MarkDead()
	t.emit(EventDeath, dying, nil, "%s falls", dying.Name)

	other := t.m.Teams[team.Side.Other()]
	if err := ability.DeathPassive(t.env(EventPassive, dying), dying, team.Members, other.Members); err != nil {
		t.fault(dying, err)
	}
}

// tick advances reloads and effect durations for every character.
// Reload is checked against Freeze before effects expire.
func (t *turn) tick() {
	for _, team := range t.m.Teams {
		for _, c := range team.Members {
			c.TickReload()
			c.TickEffects()
		}
	}
}

func (t *turn) checkWin() TurnOutcome {
	m := t.m
	out := TurnOutcome{Kind: Continues, Winner: SideNone}
	aLive, bLive := len(m.Teams[SideA].Live()), len(m.Teams[SideB].Live())
	switch {
	case aLive == 0 && bLive == 0:
		out.Kind = Draw
	case aLive == 0:
		out.Kind, out.Winner = Win, SideB
	case bLive == 0:
		out.Kind, out.Winner = Win, SideA
	}
	if out.Kind != Continues {
		m.Phase = PhaseDone
		m.Winner = out.Winner
		t.emit(EventEnd, nil, nil, "match over: %s (winner %s)", out.Kind, out.Winner)
	} else {
		m.Phase = PhaseAwaitAttacker
	}
	m.Next = m.Next.Other()
	m.Turn++
	out.Events = t.events
	return out
}

func (t *turn) skip(reason string) TurnOutcome {
	t.emit(EventSkip, nil, nil, "side %s skips: %s", t.acting.Side, reason)
	t.m.Phase = PhaseAwaitAttacker
	t.m.Next = t.m.Next.Other()
	t.m.Turn++
	return TurnOutcome{Kind: Continues, Winner: SideNone, Skipped: true, Events: t.events}
}

func without(list []*god.Character, c *god.Character) []*god.Character {
	out := make([]*god.Character, 0, len(list))
	for _, x := range list {
		if x != c {
			out = append(out, x)
		}
	}
	return out
}
