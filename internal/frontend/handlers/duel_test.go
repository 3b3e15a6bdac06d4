package handlers_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/pantheon/content"
	"github.com/cory-johannsen/pantheon/internal/config"
	"github.com/cory-johannsen/pantheon/internal/frontend/handlers"
	"github.com/cory-johannsen/pantheon/internal/frontend/telnet"
	"github.com/cory-johannsen/pantheon/internal/game/ai"
	"github.com/cory-johannsen/pantheon/internal/game/combat"
	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/game/god"
	"github.com/cory-johannsen/pantheon/internal/testutil"
)

// scriptSession replays queued input lines. Once the queue is empty it
// answers auto when set, and otherwise blocks until ctx is done.
type scriptSession struct {
	mu    sync.Mutex
	lines []string
	auto  string
	out   strings.Builder
}

func newScriptSession(lines ...string) *scriptSession {
	return &scriptSession{lines: lines}
}

func (s *scriptSession) ReadLine(ctx context.Context) (string, error) {
	s.mu.Lock()
	if len(s.lines) > 0 {
		line := s.lines[0]
		s.lines = s.lines[1:]
		s.mu.Unlock()
		return line, nil
	}
	auto := s.auto
	s.mu.Unlock()
	if auto != "" {
		return auto, nil
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func (s *scriptSession) WriteLine(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.WriteString(text + "\r\n")
	return nil
}

func (s *scriptSession) WritePrompt(prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.WriteString(prompt)
	return nil
}

func (s *scriptSession) RemoteAddr() string { return "test:1" }

func (s *scriptSession) output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return telnet.StripANSI(s.out.String())
}

type memStore struct {
	mu    sync.Mutex
	snaps map[uuid.UUID]combat.MatchSnapshot
	saves int
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[uuid.UUID]combat.MatchSnapshot)}
}

func (s *memStore) Save(_ context.Context, snap combat.MatchSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.ID] = snap
	s.saves++
	return nil
}

func (s *memStore) Load(_ context.Context, id uuid.UUID) (combat.MatchSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[id]
	if !ok {
		return combat.MatchSnapshot{}, fmt.Errorf("match %s not found", id)
	}
	return snap, nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snaps[id]; !ok {
		return fmt.Errorf("match %s not found", id)
	}
	delete(s.snaps, id)
	return nil
}

func (s *memStore) ListResumable(_ context.Context, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for id, snap := range s.snaps {
		if snap.Phase == combat.PhaseAwaitAttacker {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids[:min(limit, len(ids))], nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

func (s *memStore) only(t *testing.T) combat.MatchSnapshot {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.snaps, 1)
	for _, snap := range s.snaps {
		return snap
	}
	return combat.MatchSnapshot{}
}

type fixture struct {
	engine *combat.Engine
	reg    *ai.Registry
	store  *memStore
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()
	cat, err := god.LoadCatalog(content.FS, content.GodsDir)
	require.NoError(t, err)
	reg, err := ai.LoadPersonas(content.FS, content.PersonasDir)
	require.NoError(t, err)
	engine := combat.NewEngine(cat, combat.Options{
		Coin:          dice.NewSeededSource(7),
		Logger:        zaptest.NewLogger(t),
		ChoiceTimeout: timeout,
	})
	return &fixture{engine: engine, reg: reg, store: newMemStore()}
}

func (f *fixture) handler(t *testing.T, store handlers.MatchStore, cfg config.MatchConfig) *handlers.DuelHandler {
	t.Helper()
	if cfg.BotPersona == "" {
		cfg.BotPersona = "berserker"
	}
	if cfg.Seed == 0 {
		cfg.Seed = 11
	}
	h, err := handlers.NewDuelHandler(f.engine, f.reg, nil, store, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return h
}

func TestNewDuelHandler_UnknownPersona(t *testing.T) {
	f := newFixture(t, 0)
	_, err := handlers.NewDuelHandler(f.engine, f.reg, nil, nil,
		config.MatchConfig{BotPersona: "nobody"}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tactician")
}

func TestDuel_QuitAtMenu(t *testing.T) {
	f := newFixture(t, 0)
	s := newScriptSession("", "bogus", "quit")
	require.NoError(t, f.handler(t, nil, config.MatchConfig{}).Run(context.Background(), s))
	assert.Contains(t, s.output(), "Farewell.")
	assert.Equal(t, 0, f.engine.Len())
}

func TestDuel_ChoiceTimeoutAbandonsMatch(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	s := newScriptSession("new")
	require.NoError(t, f.handler(t, f.store, config.MatchConfig{}).Run(context.Background(), s))

	out := s.output()
	assert.Contains(t, out, "Choose your attacker")
	assert.Contains(t, out, "Match abandoned")
	assert.Equal(t, combat.PhaseAbandoned, f.store.only(t).Phase)
	assert.Equal(t, 0, f.engine.Len(), "match must be dropped from the engine")
}

func TestDuel_Forfeit(t *testing.T) {
	f := newFixture(t, 0)
	s := newScriptSession("new", "0", "quit")
	require.NoError(t, f.handler(t, f.store, config.MatchConfig{}).Run(context.Background(), s))

	out := s.output()
	assert.Contains(t, out, "Enter a number from 1 to")
	assert.Contains(t, out, "You forfeit the duel.")
	assert.Equal(t, combat.PhaseAbandoned, f.store.only(t).Phase)
}

func TestDuel_PlaysToCompletion(t *testing.T) {
	f := newFixture(t, time.Second)
	s := newScriptSession("new")
	s.auto = "1"
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	require.NoError(t, f.handler(t, f.store, config.MatchConfig{MaxTurns: 500}).Run(ctx, s))

	out := s.output()
	ended := strings.Contains(out, "Victory!") || strings.Contains(out, "Defeat.") ||
		strings.Contains(out, "Draw.") || strings.Contains(out, "Turn limit reached")
	assert.True(t, ended, "duel must end: %s", out[max(0, len(out)-500):])
	assert.Contains(t, out, "Your squad:")
	assert.Greater(t, f.store.saves, 0)
	if !strings.Contains(out, "Turn limit reached") {
		assert.Equal(t, 0, f.store.len(), "a decided match is removed from the store")
	}
}

func TestDuel_SeededSessionsReplay(t *testing.T) {
	cfg := config.MatchConfig{Seed: 99, MaxTurns: 6}
	run := func() (combat.MatchSnapshot, string) {
		f := newFixture(t, time.Second)
		s := newScriptSession("new")
		s.auto = "1"
		require.NoError(t, f.handler(t, f.store, cfg).Run(context.Background(), s))
		snap := f.store.only(t)
		return snap, strings.ReplaceAll(s.output(), snap.ID.String(), "<id>")
	}

	var (
		wg         sync.WaitGroup
		snaps      [2]combat.MatchSnapshot
		transcript [2]string
	)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snaps[i], transcript[i] = run()
		}()
	}
	wg.Wait()

	assert.Equal(t, snaps[0].Teams, snaps[1].Teams)
	assert.Equal(t, snaps[0].Turn, snaps[1].Turn)
	assert.Equal(t, transcript[0], transcript[1])
}

func TestDuel_List(t *testing.T) {
	f := newFixture(t, 0)
	m, err := f.engine.StartMatch(combat.Draft(dice.NewSeededSource(3)), combat.Draft(dice.NewSeededSource(4)))
	require.NoError(t, err)
	require.NoError(t, f.store.Save(context.Background(), m.Snapshot()))
	f.engine.End(m.ID)
	done, err := f.engine.StartMatch(combat.Draft(dice.NewSeededSource(5)), combat.Draft(dice.NewSeededSource(6)))
	require.NoError(t, err)
	done.Abandon()
	require.NoError(t, f.store.Save(context.Background(), done.Snapshot()))
	f.engine.End(done.ID)

	s := newScriptSession("list", "quit")
	require.NoError(t, f.handler(t, f.store, config.MatchConfig{}).Run(context.Background(), s))

	out := s.output()
	assert.Contains(t, out, "Saved duels:")
	assert.Contains(t, out, m.ID.String())
	assert.NotContains(t, out, done.ID.String(), "abandoned matches are not resumable")
}

func TestDuel_ListEmptyAndWithoutStore(t *testing.T) {
	f := newFixture(t, 0)
	s := newScriptSession("list", "quit")
	require.NoError(t, f.handler(t, f.store, config.MatchConfig{}).Run(context.Background(), s))
	assert.Contains(t, s.output(), "No saved duels.")

	s = newScriptSession("list", "quit")
	require.NoError(t, f.handler(t, nil, config.MatchConfig{}).Run(context.Background(), s))
	assert.Contains(t, s.output(), "No match store configured.")
}

func TestDuel_TurnLimit(t *testing.T) {
	f := newFixture(t, time.Second)
	s := newScriptSession("new")
	s.auto = "1"
	require.NoError(t, f.handler(t, nil, config.MatchConfig{MaxTurns: 1}).Run(context.Background(), s))

	out := s.output()
	if !strings.Contains(out, "Victory!") && !strings.Contains(out, "Defeat.") && !strings.Contains(out, "Draw.") {
		assert.Contains(t, out, "Turn limit reached")
	}
}

func TestDuel_Resume(t *testing.T) {
	f := newFixture(t, 0)
	m, err := f.engine.StartMatch(combat.Draft(dice.NewSeededSource(3)), combat.Draft(dice.NewSeededSource(4)))
	require.NoError(t, err)
	snap := m.Snapshot()
	f.engine.End(m.ID)
	require.NoError(t, f.store.Save(context.Background(), snap))

	s := newScriptSession("resume not-an-id", "resume "+m.ID.String(), "quit")
	require.NoError(t, f.handler(t, f.store, config.MatchConfig{}).Run(context.Background(), s))

	out := s.output()
	assert.Contains(t, out, "Cannot resume: invalid match id")
	assert.Contains(t, out, "Match "+m.ID.String())
	assert.Contains(t, out, "You forfeit the duel.")
}

func TestDuel_ResumeWithoutStore(t *testing.T) {
	f := newFixture(t, 0)
	s := newScriptSession("resume "+uuid.NewString(), "quit")
	require.NoError(t, f.handler(t, nil, config.MatchConfig{}).Run(context.Background(), s))

	out := s.output()
	assert.Contains(t, out, "Cannot resume: no match store configured")
	assert.Contains(t, out, "Farewell.")
}

func TestDuel_OverTelnet(t *testing.T) {
	f := newFixture(t, 0)
	h := f.handler(t, nil, config.MatchConfig{})
	acc := telnet.NewAcceptor(config.TelnetConfig{Host: "127.0.0.1", Port: 0, WriteTimeout: 2 * time.Second}, h, zaptest.NewLogger(t))
	go func() { _ = acc.ListenAndServe() }()
	t.Cleanup(acc.Stop)
	require.Eventually(t, func() bool { return acc.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	client := testutil.NewTelnetClient(t, acc.Addr())
	client.ReadUntil("Welcome to the Pantheon.", 2*time.Second)
	client.Send("new")
	client.ReadUntil("Choose your attacker", 2*time.Second)
	client.Send("quit")
	client.ReadUntil("You forfeit the duel.", 2*time.Second)
}
