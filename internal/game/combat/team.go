// Package combat implements the turn protocol for two teams of gods: match
// state, the choice contract with front-ends and bots, and turn resolution.
package combat

import (
	"fmt"

	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// TeamSize is the number of gods on each side.
const TeamSize = 5

// Side identifies one of the two teams.
type Side int

const (
	SideA Side = iota
	SideB
	// SideNone marks the absence of a winner.
	SideNone Side = -1
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Valid reports whether s is SideA or SideB.
func (s Side) Valid() bool { return s == SideA || s == SideB }

// String returns "A", "B" or "none".
func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return "none"
	}
}

// ParseSide maps "A"/"B" back to a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "A", "a":
		return SideA, nil
	case "B", "b":
		return SideB, nil
	case "none", "":
		return SideNone, nil
	}
	return SideNone, fmt.Errorf("unknown side %q", s)
}

// Team is the ordered roster of one side. Slot order is fixed for the match.
type Team struct {
	Side    Side
	Members []*god.Character
}

// NewTeam builds a team of fresh characters for kinds.
//
// Precondition: cat must be non-nil.
// Postcondition: Returns an error unless kinds holds exactly TeamSize distinct valid kinds.
func NewTeam(cat *god.Catalog, side Side, kinds []god.Kind) (*Team, error) {
	if err := ValidateRoster(kinds); err != nil {
		return nil, fmt.Errorf("team %s: %w", side, err)
	}
	t := &Team{Side: side}
	for _, k := range kinds {
		c, err := cat.NewCharacter(k)
		if err != nil {
			return nil, fmt.Errorf("team %s: %w", side, err)
		}
		t.Members = append(t.Members, c)
	}
	return t, nil
}

// ValidateRoster checks that kinds holds exactly TeamSize distinct valid kinds.
func ValidateRoster(kinds []god.Kind) error {
	if len(kinds) != TeamSize {
		return fmt.Errorf("roster must have %d gods, got %d", TeamSize, len(kinds))
	}
	seen := make(map[god.Kind]bool, TeamSize)
	for _, k := range kinds {
		if !k.Valid() {
			return fmt.Errorf("roster has invalid kind %d", int(k))
		}
		if seen[k] {
			return fmt.Errorf("roster repeats %s", k)
		}
		seen[k] = true
	}
	return nil
}

// Draft picks TeamSize distinct kinds uniformly at random.
//
// Precondition: src must be non-nil.
func Draft(src dice.Source) []god.Kind {
	pool := god.Kinds()
	out := make([]god.Kind, 0, TeamSize)
	for len(out) < TeamSize {
		i := dice.Pick(src, len(pool))
		out = append(out, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}
	return out
}

// Live returns the members flagged alive.
func (t *Team) Live() []*god.Character {
	var out []*god.Character
	for _, c := range t.Members {
		if c.Alive {
			out = append(out, c)
		}
	}
	return out
}

// Visible returns the members that are alive and visible.
func (t *Team) Visible() []*god.Character {
	var out []*god.Character
	for _, c := range t.Members {
		if c.Targetable() {
			out = append(out, c)
		}
	}
	return out
}

// Dead returns the members already marked dead.
func (t *Team) Dead() []*god.Character {
	var out []*god.Character
	for _, c := range t.Members {
		if !c.Alive {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the slot of c, or -1 when c is not on this team.
func (t *Team) Find(c *god.Character) int {
	for i, m := range t.Members {
		if m == c {
			return i
		}
	}
	return -1
}

// ByKind returns the member of kind, or nil.
func (t *Team) ByKind(kind god.Kind) *god.Character {
	for _, m := range t.Members {
		if m.Kind == kind {
			return m
		}
	}
	return nil
}
