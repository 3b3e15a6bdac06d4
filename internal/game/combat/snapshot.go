package combat

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// MatchSnapshot is the complete serializable state of a match between turns.
type MatchSnapshot struct {
	ID     uuid.UUID
	Next   Side
	Turn   int
	Phase  Phase
	Winner Side
	// Teams holds each side's records in slot order.
	Teams [2][]god.Record
}

// Snapshot captures the match state. It waits for any in-flight turn.
func (m *Match) Snapshot() MatchSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MatchSnapshot{ID: m.ID, Next: m.Next, Turn: m.Turn, Phase: m.Phase, Winner: m.Winner}
	for side, team := range m.Teams {
		for _, c := range team.Members {
			snap.Teams[side] = append(snap.Teams[side], c.Snapshot())
		}
	}
	return snap
}

// RestoreMatch rebuilds a match from snap.
//
// Precondition: cat must be non-nil.
// Postcondition: Returns an error if a side does not hold TeamSize distinct
// kinds, a record is invalid, or the phase is mid-turn.
func RestoreMatch(cat *god.Catalog, snap MatchSnapshot, opts Options) (*Match, error) {
	if !snap.Next.Valid() {
		return nil, fmt.Errorf("RestoreMatch %s: invalid next side %d", snap.ID, int(snap.Next))
	}
	switch snap.Phase {
	case PhaseAwaitAttacker, PhaseDone, PhaseAbandoned:
	default:
		return nil, fmt.Errorf("RestoreMatch %s: cannot resume in phase %s", snap.ID, snap.Phase)
	}
	var teams [2]*Team
	for i, recs := range snap.Teams {
		side := Side(i)
		team := &Team{Side: side}
		kinds := make([]god.Kind, 0, len(recs))
		for slot, rec := range recs {
			c, err := cat.Restore(rec)
			if err != nil {
				return nil, fmt.Errorf("RestoreMatch %s side %s slot %d: %w", snap.ID, side, slot, err)
			}
			team.Members = append(team.Members, c)
			kinds = append(kinds, c.Kind)
		}
		if err := ValidateRoster(kinds); err != nil {
			return nil, fmt.Errorf("RestoreMatch %s side %s: %w", snap.ID, side, err)
		}
		teams[i] = team
	}
	m := NewMatch(snap.ID, teams[SideA], teams[SideB], opts)
	m.Next = snap.Next
	m.Turn = snap.Turn
	m.Phase = snap.Phase
	m.Winner = snap.Winner
	return m, nil
}
