package ability

import (
	"github.com/cory-johannsen/pantheon/internal/game/effect"
	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// athena pays 1 hp first, then shields the visible allies. A standalone cast
// skips allies already holding a Shield.
func athena(ctx Context) error {
	if ctx.Passive {
		ally, err := ctx.revealedAlly()
		if err != nil {
			return err
		}
		if ally.Effects.Has(effect.Shield) {
			return nil
		}
		ctx.narrate("%s raises a shield over %s", ctx.Self.Name, ally.Name)
		return ally.AddEffect(effect.Shield, 5, 100)
	}

	ctx.Self.LoseHP(1)
	n := 0
	for _, ally := range ctx.VisibleAllies {
		if !ctx.Chained && ally.Effects.Has(effect.Shield) {
			continue
		}
		if err := ally.AddEffect(effect.Shield, tier(ctx.Chained, 5, 2), tier(ctx.Chained, 100, 1)); err != nil {
			return err
		}
		n++
	}
	ctx.narrate("%s pays 1 hp and shields %d allies", ctx.Self.Name, n)
	return nil
}

// hera grants a permanent max hp boost and matching heal to visible allies
// that lack one; chained, she only boosts herself briefly.
func hera(ctx Context) error {
	boost := func(c *god.Character, mag, dur int) error {
		if err := c.AddEffect(effect.MaxHPBoost, mag, dur); err != nil {
			return err
		}
		c.Heal(mag)
		return nil
	}
	if ctx.Passive {
		ally, err := ctx.revealedAlly()
		if err != nil {
			return err
		}
		if ally.Effects.Has(effect.MaxHPBoost) {
			return nil
		}
		ctx.narrate("%s blesses %s", ctx.Self.Name, ally.Name)
		return boost(ally, 3, effect.Permanent)
	}
	if ctx.Chained {
		ctx.narrate("%s blesses herself", ctx.Self.Name)
		return boost(ctx.Self, 1, 1)
	}
	n := 0
	for _, ally := range ctx.VisibleAllies {
		if ally.Effects.Has(effect.MaxHPBoost) {
			continue
		}
		if err := boost(ally, 3, effect.Permanent); err != nil {
			return err
		}
		n++
	}
	ctx.narrate("%s blesses %d allies", ctx.Self.Name, n)
	return nil
}

func heimdall(ctx Context) error {
	return grantVisible(ctx, effect.Guard, "guards", 2, 2, 1, 1)
}

func ares(ctx Context) error {
	return grantVisible(ctx, effect.DamageBoost, "emboldens", 1, 2, 1, 1)
}

// grantVisible adds kind to every visible ally, or to the revealed ally for
// a passive call, which always uses the standalone values.
func grantVisible(ctx Context, kind effect.Kind, verb string, mag, dur, chainedMag, chainedDur int) error {
	if ctx.Passive {
		ally, err := ctx.revealedAlly()
		if err != nil {
			return err
		}
		ctx.narrate("%s %s %s", ctx.Self.Name, verb, ally.Name)
		return ally.AddEffect(kind, mag, dur)
	}
	for _, ally := range ctx.VisibleAllies {
		if err := ally.AddEffect(kind, tier(ctx.Chained, mag, chainedMag), tier(ctx.Chained, dur, chainedDur)); err != nil {
			return err
		}
	}
	ctx.narrate("%s %s %d allies", ctx.Self.Name, verb, len(ctx.VisibleAllies))
	return nil
}

func atlas(ctx Context) error {
	ctx.narrate("%s braces behind a ward", ctx.Self.Name)
	return ctx.Self.AddEffect(effect.Ward, tier(ctx.Chained, 3, 1), tier(ctx.Chained, 2, 1))
}

// odin readies the secondaries; the turn protocol then runs their chained calls.
func odin(ctx Context) error {
	if ctx.Chained {
		return nil
	}
	for _, s := range ctx.Secondaries {
		s.Reload = 0
		ctx.narrate("%s readies %s", ctx.Self.Name, s.Name)
	}
	return nil
}

// apollo heals the living ally missing the most hp; ties go to roster order.
func apollo(ctx Context) error {
	var best *god.Character
	for _, ally := range ctx.Allies {
		if best == nil || ally.MissingHP() > best.MissingHP() {
			best = ally
		}
	}
	if best == nil {
		return nil
	}
	healed := best.Heal(tier(ctx.Chained, 3, 1))
	ctx.narrate("%s heals %s for %d", ctx.Self.Name, best.Name, healed)
	return nil
}

// anubis records the hp of the weakest unprotected visible ally, restored by
// cleanup when one of its teammates dies.
func anubis(ctx Context) error {
	var weakest *god.Character
	for _, ally := range ctx.VisibleAllies {
		if ally == ctx.Self || ally.Effects.Has(effect.DelayedProtection) {
			continue
		}
		if weakest == nil || ally.HP < weakest.HP {
			weakest = ally
		}
	}
	if weakest == nil {
		return nil
	}
	ctx.narrate("%s weighs the heart of %s at %d hp", ctx.Self.Name, weakest.Name, weakest.HP)
	return weakest.AddEffect(effect.DelayedProtection, weakest.HP, tier(ctx.Chained, 3, 1))
}

// osiris pays 2 hp regardless of outcome, then on heads revives a random
// fallen ally hidden at half its base max hp, rounded up.
func osiris(ctx Context) error {
	ctx.Self.LoseHP(tier(ctx.Chained, 2, 1))
	if ctx.Coin == nil {
		return errNoCoin(ctx)
	}
	heads := flip(ctx)
	if !heads || len(ctx.DeadAllies) == 0 {
		ctx.narrate("%s calls to the dead, but none answer", ctx.Self.Name)
		return nil
	}
	fallen := ctx.DeadAllies[pick(ctx, len(ctx.DeadAllies))]
	hp := tier(ctx.Chained, (fallen.MaxHP+1)/2, 1)
	fallen.Revive(hp)
	ctx.narrate("%s raises %s with %d hp", ctx.Self.Name, fallen.Name, fallen.HP)
	return nil
}

// hermes reveals hidden enemies. Reveal passives are not triggered.
func hermes(ctx Context) error {
	for _, e := range ctx.Enemies {
		if e.Reveal() {
			ctx.narrate("%s exposes %s", ctx.Self.Name, e.Name)
			if ctx.Chained {
				return nil
			}
		}
	}
	return nil
}
