// Package ability implements the twenty god abilities, the reveal passives
// and the death passive. Every behavior receives the same Context shape and
// ignores the fields it does not need.
package ability

import (
	"fmt"

	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// Env carries the collaborators shared by every invocation in a turn.
type Env struct {
	// Coin drives coin flips and random picks. Required by Hades and Osiris.
	Coin dice.Source
	// Narrate receives one line of narrative per notable mutation. May be nil.
	Narrate func(text string)
}

// Context is the explicit, per-call view handed to a Behavior. Rosters are
// built from the acting character's perspective when the context is created
// and are not refreshed during the call.
type Context struct {
	Env

	Self   *god.Character
	Target *god.Character

	// Allies are the living members of Self's team, Self included.
	Allies []*god.Character
	// VisibleAllies are the living, visible members of Self's team.
	VisibleAllies []*god.Character
	// Enemies are the living members of the opposing team.
	Enemies []*god.Character
	// VisibleEnemies are the living, visible members of the opposing team.
	VisibleEnemies []*god.Character
	// DeadAllies are the members of Self's team already marked dead.
	DeadAllies []*god.Character

	// Chained selects the weaker parameterization used for chain sub-calls.
	Chained bool
	// Passive marks a reveal-passive re-invocation; Target is the revealed ally.
	Passive bool
	// Secondaries are the allies picked by a chain enabler.
	Secondaries []*god.Character
}

// NewContext builds a context for self acting against target. own is self's
// full team (dead members included) and opposing the other team.
//
// Precondition: self must be non-nil and a member of own.
func NewContext(env Env, self, target *god.Character, own, opposing []*god.Character) Context {
	ctx := Context{Env: env, Self: self, Target: target}
	for _, c := range own {
		if c.Alive {
			ctx.Allies = append(ctx.Allies, c)
			if c.Visible {
				ctx.VisibleAllies = append(ctx.VisibleAllies, c)
			}
		} else {
			ctx.DeadAllies = append(ctx.DeadAllies, c)
		}
	}
	for _, c := range opposing {
		if c.Alive {
			ctx.Enemies = append(ctx.Enemies, c)
			if c.Visible {
				ctx.VisibleEnemies = append(ctx.VisibleEnemies, c)
			}
		}
	}
	return ctx
}

func (ctx Context) narrate(format string, args ...any) {
	if ctx.Narrate != nil {
		ctx.Narrate(fmt.Sprintf(format, args...))
	}
}

// enemyTarget returns the target when it is a living member of the opposing side.
func (ctx Context) enemyTarget() (*god.Character, error) {
	if ctx.Target == nil || !ctx.Target.Alive || !contains(ctx.Enemies, ctx.Target) {
		return nil, fmt.Errorf("%w: %s needs a living enemy target", ErrUnexpectedTarget, ctx.Self.Name)
	}
	return ctx.Target, nil
}

// revealedAlly returns the target of a reveal passive: a living ally other than self.
func (ctx Context) revealedAlly() (*god.Character, error) {
	if ctx.Target == nil || ctx.Target == ctx.Self || !ctx.Target.Alive || !contains(ctx.Allies, ctx.Target) {
		return nil, fmt.Errorf("%w: %s passive needs a living ally other than itself", ErrUnexpectedTarget, ctx.Self.Name)
	}
	return ctx.Target, nil
}

func contains(list []*god.Character, c *god.Character) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

// tier selects the standalone or chained value.
func tier[T any](chained bool, standalone, weak T) T {
	if chained {
		return weak
	}
	return standalone
}
