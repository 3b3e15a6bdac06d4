package combat

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// Phase is the turn protocol state a match is in.
type Phase int

const (
	PhaseAwaitAttacker Phase = iota
	PhaseAwaitTarget
	PhaseResolveBase
	PhaseResolveAbility
	PhaseCleanup
	PhaseTickEffects
	PhaseCheckWin
	PhaseDone
	PhaseAbandoned
)

var phaseNames = [...]string{
	PhaseAwaitAttacker:  "await_attacker",
	PhaseAwaitTarget:    "await_target",
	PhaseResolveBase:    "resolve_base",
	PhaseResolveAbility: "resolve_ability",
	PhaseCleanup:        "cleanup",
	PhaseTickEffects:    "tick_effects",
	PhaseCheckWin:       "check_win",
	PhaseDone:           "done",
	PhaseAbandoned:      "abandoned",
}

// String returns the snake_case phase name.
func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// ParsePhase maps a phase name back to a Phase.
func ParsePhase(s string) (Phase, error) {
	for i, n := range phaseNames {
		if n == s {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// Terminal reports whether no further turns may run.
func (p Phase) Terminal() bool { return p == PhaseDone || p == PhaseAbandoned }

// OutcomeKind is the result of one turn.
type OutcomeKind int

const (
	Continues OutcomeKind = iota
	Win
	Draw
	Abandoned
)

// String returns the lowercase outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case Continues:
		return "continues"
	case Win:
		return "win"
	case Draw:
		return "draw"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// EventType classifies a turn event.
type EventType int

const (
	EventReveal EventType = iota
	EventAttack
	EventAbility
	EventChain
	EventPassive
	EventDeath
	EventFault
	EventSkip
	EventEnd
)

// Event records one notable step of a turn.
type Event struct {
	Type      EventType
	Actor     string
	Target    string
	Narrative string
}

// TurnOutcome is what RunTurn reports.
type TurnOutcome struct {
	Kind OutcomeKind
	// Winner is set when Kind == Win; SideNone otherwise.
	Winner Side
	// Skipped is true when the acting side had no eligible attacker or no target.
	Skipped bool
	Events  []Event
}

// noOutcome accompanies every error return so that a caller ignoring the
// error never reads SideA as a winner.
var noOutcome = TurnOutcome{Kind: Continues, Winner: SideNone}

// Options are the collaborators of a match. An Engine applies its own Options
// to every match unless StartMatchWith or ResumeWith overrides them.
type Options struct {
	// Coin drives bootstrap reveals and probabilistic abilities.
	Coin dice.Source
	// Logger receives turn traces and ability faults. Defaults to a no-op logger.
	Logger *zap.Logger
	// ChoiceTimeout bounds every chooser call. Zero disables the bound.
	ChoiceTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Coin == nil {
		o.Coin = dice.NewCryptoSource()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// over fills every zero field of o from base.
func (o Options) over(base Options) Options {
	if o.Coin == nil {
		o.Coin = base.Coin
	}
	if o.Logger == nil {
		o.Logger = base.Logger
	}
	if o.ChoiceTimeout == 0 {
		o.ChoiceTimeout = base.ChoiceTimeout
	}
	return o
}

// Match is the state of one game between two teams. Turns are serialized:
// RunTurn holds the match lock for its whole duration, choices included.
type Match struct {
	mu sync.Mutex

	ID     uuid.UUID
	Teams  [2]*Team
	Next   Side
	Turn   int
	Phase  Phase
	Winner Side

	opts Options
}

// NewMatch creates a match with side A to act first.
//
// Precondition: a.Side == SideA, b.Side == SideB.
func NewMatch(id uuid.UUID, a, b *Team, opts Options) *Match {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.With(zap.String("match_id", id.String()))
	return &Match{
		ID:     id,
		Teams:  [2]*Team{a, b},
		Next:   SideA,
		Phase:  PhaseAwaitAttacker,
		Winner: SideNone,
		opts:   opts,
	}
}

// Team returns the roster for side.
func (m *Match) Team(side Side) *Team {
	return m.Teams[side]
}

// Status returns next side, turn counter, phase and winner under the match lock.
func (m *Match) Status() (next Side, turn int, phase Phase, winner Side) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Next, m.Turn, m.Phase, m.Winner
}

// Abandon marks the match abandoned. Used by lifecycle collaborators when a
// player disconnects outside a pending choice.
func (m *Match) Abandon() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Phase.Terminal() {
		m.Phase = PhaseAbandoned
	}
}

// Engine is the registry of live matches. All methods are safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	matches map[uuid.UUID]*Match
	catalog *god.Catalog
	opts    Options
}

// NewEngine creates an empty Engine.
//
// Precondition: cat must be non-nil.
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(cat *god.Catalog, opts Options) *Engine {
	return &Engine{
		matches: make(map[uuid.UUID]*Match),
		catalog: cat,
		opts:    opts.withDefaults(),
	}
}

// Catalog returns the template catalog the engine builds teams from.
func (e *Engine) Catalog() *god.Catalog { return e.catalog }

// StartMatch builds both teams from fresh characters and registers a new match
// using the engine's options.
//
// Postcondition: Returns the match or an error if either roster is invalid.
func (e *Engine) StartMatch(a, b []god.Kind) (*Match, error) {
	return e.StartMatchWith(a, b, Options{})
}

// StartMatchWith is StartMatch with per-match options. Zero fields of opts
// fall back to the engine's; a match that owns its Coin replays exactly for
// a given seed regardless of what other matches draw concurrently.
func (e *Engine) StartMatchWith(a, b []god.Kind, opts Options) (*Match, error) {
	ta, err := NewTeam(e.catalog, SideA, a)
	if err != nil {
		return nil, err
	}
	tb, err := NewTeam(e.catalog, SideB, b)
	if err != nil {
		return nil, err
	}
	m := NewMatch(uuid.New(), ta, tb, opts.over(e.opts))
	e.mu.Lock()
	defer e.mu.Unlock()
	e.matches[m.ID] = m
	return m, nil
}

// Resume rebuilds a match from a snapshot and registers it.
//
// Postcondition: Returns an error if the snapshot is invalid or the id is already live.
func (e *Engine) Resume(snap MatchSnapshot) (*Match, error) {
	return e.ResumeWith(snap, Options{})
}

// ResumeWith is Resume with per-match options, defaulted like StartMatchWith.
func (e *Engine) ResumeWith(snap MatchSnapshot, opts Options) (*Match, error) {
	m, err := RestoreMatch(e.catalog, snap, opts.over(e.opts))
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.matches[m.ID]; exists {
		return nil, fmt.Errorf("match %s already active", m.ID)
	}
	e.matches[m.ID] = m
	return m, nil
}

// Get returns the live match with id.
//
// Postcondition: Returns (match, true) if found, or (nil, false) otherwise.
func (e *Engine) Get(id uuid.UUID) (*Match, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.matches[id]
	return m, ok
}

// End removes the match from the registry.
func (e *Engine) End(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.matches, id)
}

// Len returns the number of live matches.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.matches)
}
