package ability

import (
	"fmt"

	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// DeathDamage is the pipeline damage Surtr deals to each living enemy when he dies.
const DeathDamage = 2

// RevealPassives runs the reveal passive of every other living, visible ally
// of revealed whose kind carries one, in roster order. Each failure is
// returned; none stops the remaining passives.
//
// Precondition: revealed must be a member of own.
// Postcondition: len(result) is the number of failed passives.
func RevealPassives(env Env, revealed *god.Character, own, opposing []*god.Character) []error {
	if !revealed.Alive {
		return nil
	}
	var errs []error
	for _, ally := range own {
		if ally == revealed || !ally.Alive || !ally.Visible || !ally.Kind.HasRevealPassive() {
			continue
		}
		ctx := NewContext(env, ally, revealed, own, opposing)
		ctx.Passive = true
		if err := Invoke(ctx); err != nil {
			errs = append(errs, fmt.Errorf("reveal passive of %s on %s: %w", ally.Name, revealed.Name, err))
		}
	}
	return errs
}

// DeathPassive runs the death trigger of dead, if its kind has one.
//
// Precondition: dead must be a member of own.
func DeathPassive(env Env, dead *god.Character, own, opposing []*god.Character) (err error) {
	if !dead.Kind.HasDeathPassive() {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: death passive of %s: %v", ErrFault, dead.Name, r)
		}
	}()
	ctx := NewContext(env, dead, nil, own, opposing)
	for _, e := range ctx.Enemies {
		r := e.ApplyIncomingDamage(DeathDamage)
		ctx.narrate("%s's dying flames scorch %s: %s", dead.Name, e.Name, r)
	}
	return nil
}
