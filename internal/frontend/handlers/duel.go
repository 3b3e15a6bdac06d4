// Package handlers implements the Telnet duel session: a human player on
// side A against a persona-driven bot on side B.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pantheon/internal/config"
	"github.com/cory-johannsen/pantheon/internal/frontend/telnet"
	"github.com/cory-johannsen/pantheon/internal/game/ai"
	"github.com/cory-johannsen/pantheon/internal/game/combat"
	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/observability"
)

// MatchStore persists match snapshots between turns.
type MatchStore interface {
	Save(ctx context.Context, snap combat.MatchSnapshot) error
	Load(ctx context.Context, id uuid.UUID) (combat.MatchSnapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListResumable returns up to limit ids of matches awaiting an attacker.
	ListResumable(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// listLimit caps the ids shown by the list command.
const listLimit = 10

// Session is the conversation surface the duel needs from a connection.
type Session interface {
	LineConn
	RemoteAddr() string
}

// DuelHandler runs one duel per Telnet session.
type DuelHandler struct {
	engine  *combat.Engine
	persona *ai.Persona
	scripts ai.ScriptCaller
	store   MatchStore
	cfg     config.MatchConfig
	logger  *zap.Logger

	// sessions numbers the dice stream of each session.
	sessions atomic.Uint64
}

// NewDuelHandler creates a DuelHandler whose bot plays cfg.BotPersona. Each
// session draws from its own stream, dice.Derive(cfg.Seed, n) for the n-th
// session, so a seeded server replays a session regardless of the others.
//
// Precondition: engine, personas and logger must be non-nil. scripts and
// store may be nil.
// Postcondition: Returns an error if the persona is not registered.
func NewDuelHandler(engine *combat.Engine, personas *ai.Registry, scripts ai.ScriptCaller, store MatchStore, cfg config.MatchConfig, logger *zap.Logger) (*DuelHandler, error) {
	p, ok := personas.Get(cfg.BotPersona)
	if !ok {
		return nil, fmt.Errorf("bot persona %q not found (have %s)", cfg.BotPersona, strings.Join(personas.IDs(), ", "))
	}
	return &DuelHandler{
		engine:  engine,
		persona: p,
		scripts: scripts,
		store:   store,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// HandleSession implements telnet.SessionHandler.
func (h *DuelHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	return h.Run(ctx, telnetSession{conn})
}

type telnetSession struct{ *telnet.Conn }

func (s telnetSession) RemoteAddr() string { return s.Conn.RemoteAddr().String() }

// Run drives the menu and one duel over s.
func (h *DuelHandler) Run(ctx context.Context, s Session) error {
	logger := observability.ForPlayer(h.logger, s.RemoteAddr(), uuid.Nil)
	logger.Debug("duel session opened")
	if err := s.WriteLine(telnet.Colorize(telnet.Bold, "Welcome to the Pantheon.")); err != nil {
		return err
	}

	src := dice.Derive(h.cfg.Seed, h.sessions.Add(1))
	m, err := h.openMatch(ctx, s, src)
	if err != nil || m == nil {
		return err
	}
	defer h.engine.End(m.ID)

	logger = observability.ForPlayer(h.logger, s.RemoteAddr(), m.ID)
	logger.Info("duel started", zap.String("persona", h.persona.ID))
	if err := s.WriteLine(fmt.Sprintf("Match %s. You command side A against the %s.", m.ID, h.persona.Name)); err != nil {
		return err
	}

	bot := ai.NewBot(h.persona, src, h.scripts, logger)
	choosers := [2]combat.Chooser{combat.SideA: NewHumanChooser(s), combat.SideB: bot}
	return h.play(ctx, s, m, choosers, logger)
}

// openMatch runs the new/list/resume menu. A nil match with a nil error means
// the player left.
func (h *DuelHandler) openMatch(ctx context.Context, s Session, src dice.Source) (*combat.Match, error) {
	opts := combat.Options{Coin: dice.NewLoggedSource(src, h.logger)}
	for {
		if err := s.WriteLine("Type 'new' to draft a duel, 'list' to see saved duels, 'resume <id>' to continue one, or 'quit'."); err != nil {
			return nil, err
		}
		if err := s.WritePrompt("> "); err != nil {
			return nil, err
		}
		line, err := s.ReadLine(ctx)
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(strings.ToLower(line))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit":
			return nil, s.WriteLine("Farewell.")
		case "new":
			return h.engine.StartMatchWith(combat.Draft(src), combat.Draft(src), opts)
		case "list":
			if err := s.WriteLine(h.list(ctx)); err != nil {
				return nil, err
			}
		case "resume":
			if len(fields) != 2 {
				break
			}
			m, err := h.resume(ctx, fields[1], opts)
			if err == nil {
				return m, nil
			}
			if werr := s.WriteLine(telnet.Colorize(telnet.Red, "Cannot resume: "+err.Error())); werr != nil {
				return nil, werr
			}
		}
	}
}

// list renders the resumable match ids.
func (h *DuelHandler) list(ctx context.Context) string {
	if h.store == nil {
		return "No match store configured."
	}
	ids, err := h.store.ListResumable(ctx, listLimit)
	if err != nil {
		h.logger.Warn("listing saved matches", zap.Error(err))
		return telnet.Colorize(telnet.Red, "Cannot list saved duels.")
	}
	if len(ids) == 0 {
		return "No saved duels."
	}
	var b strings.Builder
	b.WriteString("Saved duels:")
	for _, id := range ids {
		b.WriteString("\r\n  " + id.String())
	}
	return b.String()
}

func (h *DuelHandler) resume(ctx context.Context, raw string, opts combat.Options) (*combat.Match, error) {
	if h.store == nil {
		return nil, errors.New("no match store configured")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid match id %q", raw)
	}
	snap, err := h.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return h.engine.ResumeWith(snap, opts)
}

func (h *DuelHandler) play(ctx context.Context, s Session, m *combat.Match, choosers [2]combat.Chooser, logger *zap.Logger) error {
	for {
		next, turn, phase, _ := m.Status()
		if phase.Terminal() {
			return s.WriteLine("This match is already over.")
		}
		if h.cfg.MaxTurns > 0 && turn >= h.cfg.MaxTurns {
			logger.Info("duel hit turn limit", zap.Int("turns", turn))
			return s.WriteLine(telnet.Colorize(telnet.Yellow, "Turn limit reached. The duel ends unresolved."))
		}
		if next == combat.SideA {
			if err := s.WriteLine(RenderBoard(m, combat.SideA)); err != nil {
				return err
			}
		}

		out, err := m.RunTurn(ctx, next, choosers[next])
		if errors.Is(err, ErrForfeit) {
			m.Abandon()
			h.save(ctx, m, logger)
			logger.Info("player forfeited")
			return s.WriteLine("You forfeit the duel.")
		}
		if err != nil {
			if ctx.Err() != nil {
				// Server shutdown: keep the match resumable.
				h.save(ctx, m, logger)
				return err
			}
			logger.Warn("turn failed", zap.Error(err))
			return err
		}

		if err := s.WriteLine(RenderEvents(out.Events)); err != nil {
			return err
		}
		switch out.Kind {
		case combat.Win, combat.Draw:
			h.forget(ctx, m, logger)
		default:
			h.save(ctx, m, logger)
		}
		if out.Kind != combat.Continues {
			logger.Info("duel finished", zap.Stringer("outcome", out.Kind), zap.Stringer("winner", out.Winner))
			return s.WriteLine(RenderOutcome(out, combat.SideA))
		}
	}
}

// save persists the match when a store is configured. Failures are logged,
// not fatal.
func (h *DuelHandler) save(ctx context.Context, m *combat.Match, logger *zap.Logger) {
	if h.store == nil {
		return
	}
	if err := h.store.Save(context.WithoutCancel(ctx), m.Snapshot()); err != nil {
		logger.Warn("saving match snapshot", zap.Error(err))
	}
}

// forget drops a decided match from the store. Failures are logged, not fatal.
func (h *DuelHandler) forget(ctx context.Context, m *combat.Match, logger *zap.Logger) {
	if h.store == nil {
		return
	}
	if err := h.store.Delete(context.WithoutCancel(ctx), m.ID); err != nil {
		logger.Warn("deleting finished match", zap.Error(err))
	}
}
