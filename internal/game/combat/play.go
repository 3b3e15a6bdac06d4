package combat

import (
	"context"
	"fmt"
)

// Play runs turns until the match ends, is abandoned, or maxTurns turns have
// been played. choosers supplies the decision maker for each side.
//
// Precondition: choosers[SideA] and choosers[SideB] must be non-nil.
// Postcondition: Returns the final outcome, or ErrTurnLimit when maxTurns > 0
// is reached first, or the first turn error.
func (m *Match) Play(ctx context.Context, choosers [2]Chooser, maxTurns int) (TurnOutcome, error) {
	for {
		if err := ctx.Err(); err != nil {
			return noOutcome, err
		}
		next, turn, phase, _ := m.Status()
		if phase.Terminal() {
			return noOutcome, ErrMatchOver
		}
		if maxTurns > 0 && turn >= maxTurns {
			return noOutcome, fmt.Errorf("%w: %d turns", ErrTurnLimit, maxTurns)
		}
		out, err := m.RunTurn(ctx, next, choosers[next])
		if err != nil {
			return out, err
		}
		if out.Kind != Continues {
			return out, nil
		}
	}
}
