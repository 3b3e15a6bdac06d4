package combat

import (
	"context"
	"errors"

	"github.com/cory-johannsen/pantheon/internal/game/god"
)

var (
	// ErrInvalidSelection is returned when a chooser picks a character outside
	// the offered candidates. The turn is rejected without mutation.
	ErrInvalidSelection = errors.New("selection is not one of the candidates")
	// ErrChoiceTimeout is reported by a chooser that ran out of time.
	ErrChoiceTimeout = errors.New("choice timed out")
	// ErrMatchOver is returned when a turn is requested on a finished or abandoned match.
	ErrMatchOver = errors.New("match is over")
	// ErrNotYourTurn is returned when the wrong side tries to act.
	ErrNotYourTurn = errors.New("not this side's turn")
	// ErrTurnLimit is returned by Play when the turn cap is reached.
	ErrTurnLimit = errors.New("turn limit reached")
)

// Role names the decision being requested.
type Role int

const (
	// RoleAttacker selects who acts.
	RoleAttacker Role = iota
	// RoleTarget selects whom to hit.
	RoleTarget
	// RoleChain selects an ally for a chain enabler's sub-call.
	RoleChain
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleAttacker:
		return "attacker"
	case RoleTarget:
		return "target"
	case RoleChain:
		return "chain"
	default:
		return "unknown"
	}
}

// ChoiceRequest describes one decision. Allies and Enemies are the full
// rosters from the acting side's perspective; Candidates for RoleTarget come
// from the defending team.
type ChoiceRequest struct {
	Role       Role
	Side       Side
	Turn       int
	Candidates []*god.Character
	Allies     []*god.Character
	Enemies    []*god.Character
	// Attacker is set for RoleTarget and RoleChain.
	Attacker *god.Character
}

// Chooser picks one element of req.Candidates. Human front-ends may block
// until ctx is done; implementations should return ctx.Err() or
// ErrChoiceTimeout when it is.
type Chooser interface {
	Choose(ctx context.Context, req ChoiceRequest) (*god.Character, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context, req ChoiceRequest) (*god.Character, error)

// Choose calls f(ctx, req).
func (f ChooserFunc) Choose(ctx context.Context, req ChoiceRequest) (*god.Character, error) {
	return f(ctx, req)
}

func containsChar(list []*god.Character, c *god.Character) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}
