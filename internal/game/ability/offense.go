package ability

import (
	"fmt"

	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/game/effect"
)

// loki deals his whole outgoing damage plus one directly, bypassing shields.
func loki(ctx Context) error {
	target, err := ctx.enemyTarget()
	if err != nil {
		return err
	}
	dmg := ctx.Self.OutgoingDamage() + tier(ctx.Chained, 1, 0)
	lost := target.LoseHP(dmg)
	ctx.narrate("%s tricks %s for %d", ctx.Self.Name, target.Name, lost)
	return nil
}

// thor stuns the target and pays hp in the same step. Chained, only the
// cost drops: a one-turn stun would expire in the caster's own tick.
func thor(ctx Context) error {
	target, err := ctx.enemyTarget()
	if err != nil {
		return err
	}
	if err := target.AddEffect(effect.Stun, 1, 2); err != nil {
		return err
	}
	ctx.Self.LoseHP(tier(ctx.Chained, 2, 1))
	ctx.narrate("%s stuns %s", ctx.Self.Name, target.Name)
	return nil
}

func skadi(ctx Context) error {
	return curse(ctx, effect.Freeze, "freezes", 1, 2, 1, 2)
}

func aphrodite(ctx Context) error {
	return curse(ctx, effect.Charm, "charms", 1, 2, 1, 2)
}

func hecate(ctx Context) error {
	return curse(ctx, effect.DamageReduction, "weakens", 2, 2, 1, 2)
}

func artemis(ctx Context) error {
	return curse(ctx, effect.Vulnerability, "marks", 2, 2, 1, 1)
}

// curse places kind on the enemy target.
func curse(ctx Context, kind effect.Kind, verb string, mag, dur, chainedMag, chainedDur int) error {
	target, err := ctx.enemyTarget()
	if err != nil {
		return err
	}
	ctx.narrate("%s %s %s", ctx.Self.Name, verb, target.Name)
	return target.AddEffect(kind, tier(ctx.Chained, mag, chainedMag), tier(ctx.Chained, dur, chainedDur))
}

// hades pays 3 hp regardless of outcome, then on heads slays the target.
// Chained, the cost drops to 1 and heads deals 3 direct damage instead.
func hades(ctx Context) error {
	target, err := ctx.enemyTarget()
	if err != nil {
		return err
	}
	ctx.Self.LoseHP(tier(ctx.Chained, 3, 1))
	if ctx.Coin == nil {
		return errNoCoin(ctx)
	}
	if !flip(ctx) {
		ctx.narrate("%s reaches for %s and misses", ctx.Self.Name, target.Name)
		return nil
	}
	if ctx.Chained {
		target.LoseHP(3)
	} else {
		target.SetHP(0)
	}
	ctx.narrate("%s claims %s", ctx.Self.Name, target.Name)
	return nil
}

// surtr burns the target for 1 direct damage, then pays 1 hp.
func surtr(ctx Context) error {
	target, err := ctx.enemyTarget()
	if err != nil {
		return err
	}
	target.LoseHP(1)
	if !ctx.Chained {
		ctx.Self.LoseHP(1)
	}
	ctx.narrate("%s burns %s", ctx.Self.Name, target.Name)
	return nil
}

// nyx strikes for 1 direct damage, then slips out of sight when another ally
// remains visible to draw attention.
func nyx(ctx Context) error {
	target, err := ctx.enemyTarget()
	if err != nil {
		return err
	}
	target.LoseHP(1)
	ctx.narrate("%s strikes %s from the dark", ctx.Self.Name, target.Name)
	if ctx.Chained {
		return nil
	}
	for _, ally := range ctx.VisibleAllies {
		if ally != ctx.Self && ally.Visible {
			ctx.Self.Hide()
			ctx.narrate("%s vanishes", ctx.Self.Name)
			return nil
		}
	}
	return nil
}

// poseidon splashes every visible enemy other than the target for 1.
func poseidon(ctx Context) error {
	target, err := ctx.enemyTarget()
	if err != nil {
		return err
	}
	for _, e := range ctx.VisibleEnemies {
		if e == target {
			continue
		}
		r := e.ApplyIncomingDamage(1)
		ctx.narrate("%s splashes %s: %s", ctx.Self.Name, e.Name, r)
		if ctx.Chained {
			return nil
		}
	}
	return nil
}

func flip(ctx Context) bool {
	return dice.Flip(ctx.Coin)
}

func pick(ctx Context, n int) int {
	return dice.Pick(ctx.Coin, n)
}

func errNoCoin(ctx Context) error {
	return fmt.Errorf("%s: no coin source", ctx.Self.Name)
}
