package ability

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// ErrUnexpectedTarget is returned when a behavior is invoked with a target
// of the wrong shape (missing, dead, or on the wrong side).
var ErrUnexpectedTarget = errors.New("unexpected target")

// ErrFault wraps a panic recovered from a behavior.
var ErrFault = errors.New("ability fault")

// Behavior is one god's ability.
type Behavior interface {
	Invoke(ctx Context) error
}

// BehaviorFunc adapts a function to Behavior.
type BehaviorFunc func(ctx Context) error

// Invoke calls f(ctx).
func (f BehaviorFunc) Invoke(ctx Context) error { return f(ctx) }

var behaviors = [god.KindCount + 1]Behavior{
	god.Athena:    BehaviorFunc(athena),
	god.Hera:      BehaviorFunc(hera),
	god.Heimdall:  BehaviorFunc(heimdall),
	god.Ares:      BehaviorFunc(ares),
	god.Atlas:     BehaviorFunc(atlas),
	god.Odin:      BehaviorFunc(odin),
	god.Loki:      BehaviorFunc(loki),
	god.Thor:      BehaviorFunc(thor),
	god.Skadi:     BehaviorFunc(skadi),
	god.Aphrodite: BehaviorFunc(aphrodite),
	god.Hades:     BehaviorFunc(hades),
	god.Osiris:    BehaviorFunc(osiris),
	god.Surtr:     BehaviorFunc(surtr),
	god.Apollo:    BehaviorFunc(apollo),
	god.Anubis:    BehaviorFunc(anubis),
	god.Hermes:    BehaviorFunc(hermes),
	god.Hecate:    BehaviorFunc(hecate),
	god.Artemis:   BehaviorFunc(artemis),
	god.Nyx:       BehaviorFunc(nyx),
	god.Poseidon:  BehaviorFunc(poseidon),
}

// For returns the behavior bound to kind, or nil for an invalid kind.
func For(kind god.Kind) Behavior {
	if !kind.Valid() {
		return nil
	}
	return behaviors[kind]
}

// Invoke runs ctx.Self's behavior. A panic inside the behavior is recovered
// and returned as an error wrapping ErrFault; mutations made before the
// fault remain.
//
// Precondition: ctx.Self must be non-nil.
func Invoke(ctx Context) (err error) {
	b := For(ctx.Self.Kind)
	if b == nil {
		return fmt.Errorf("Invoke: no behavior for kind %d", int(ctx.Self.Kind))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrFault, ctx.Self.Name, r)
		}
	}()
	return b.Invoke(ctx)
}
