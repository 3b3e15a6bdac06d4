package ai

import (
	"context"
	"errors"
	"math"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pantheon/internal/game/combat"
	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/game/effect"
	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// ScriptCaller evaluates Lua hooks. The scripting Manager implements it.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given scope's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(scopeID, hook string, args ...lua.LValue) (lua.LValue, error)
}

// ErrNoCandidates is returned when a request offers nothing to pick.
var ErrNoCandidates = errors.New("no candidates offered")

const epsilon = 1e-9

// Bot picks attackers, targets and chain allies for one side of one match.
// Its only state is the damage computed for the last chosen attacker, which
// the next target decision consumes and clears.
// It is safe for concurrent use, though the turn protocol calls it serially.
type Bot struct {
	persona *Persona
	src     dice.Source
	caller  ScriptCaller
	logger  *zap.Logger

	mu         sync.Mutex
	lastDamage int
	hasLast    bool
}

// NewBot creates a Bot for persona.
//
// Precondition: persona and src must be non-nil. caller may be nil, which
// disables the persona's script hook. logger may be nil.
func NewBot(persona *Persona, src dice.Source, caller ScriptCaller, logger *zap.Logger) *Bot {
	if persona == nil {
		panic("ai.NewBot: persona must not be nil")
	}
	if src == nil {
		panic("ai.NewBot: src must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{persona: persona, src: src, caller: caller, logger: logger}
}

// Persona returns the bot's persona.
func (b *Bot) Persona() *Persona { return b.persona }

// Choose implements combat.Chooser. It never blocks and never returns a
// character outside req.Candidates.
func (b *Bot) Choose(_ context.Context, req combat.ChoiceRequest) (*god.Character, error) {
	if len(req.Candidates) == 0 {
		return nil, ErrNoCandidates
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch req.Role {
	case combat.RoleTarget:
		dmg := b.consumeDamage(req.Attacker)
		if b.persona.Unweighted() {
			return b.uniform(req.Candidates), nil
		}
		return b.pickTarget(req, dmg), nil
	default:
		var chosen *god.Character
		if b.persona.Unweighted() {
			chosen = b.uniform(req.Candidates)
		} else {
			chosen = b.pickActor(req)
		}
		if req.Role == combat.RoleAttacker {
			b.lastDamage, b.hasLast = chosen.PreviewDamage(), true
		}
		return chosen, nil
	}
}

// consumeDamage returns the stored attacker damage and clears it, falling
// back to the attacker's current preview.
func (b *Bot) consumeDamage(attacker *god.Character) int {
	dmg, ok := b.lastDamage, b.hasLast
	b.lastDamage, b.hasLast = 0, false
	if ok {
		return dmg
	}
	if attacker != nil {
		return attacker.PreviewDamage()
	}
	return 0
}

func (b *Bot) uniform(cands []*god.Character) *god.Character {
	return cands[dice.Pick(b.src, len(cands))]
}

// pickActor scores each candidate by damage plus weighted ability value and
// takes the extreme implied by the damage weight's sign. Ties are narrowed by
// reload readiness, then broken uniformly.
func (b *Bot) pickActor(req combat.ChoiceRequest) *god.Character {
	sit := NewSituation(req.Allies, req.Enemies)
	wAbility := b.persona.Weight(FactorAbility)
	scores := make([]float64, len(req.Candidates))
	for i, c := range req.Candidates {
		s := float64(c.PreviewDamage()) + wAbility*Heuristic(c, sit)
		scores[i] = b.adjust(c, req.Role, s)
	}
	best := extreme(req.Candidates, scores, b.persona.Weight(FactorDamage) >= 0)
	best = b.reloadFilter(best)
	return b.uniform(best)
}

// reloadFilter narrows tied candidates to the ready ones, or to the
// not-ready ones for a persona with a negative reload weight. An empty
// result falls back to the full tie set.
func (b *Bot) reloadFilter(tied []*god.Character) []*god.Character {
	if len(tied) < 2 {
		return tied
	}
	wantReady := b.persona.Weight(FactorReload) >= 0
	var kept []*god.Character
	for _, c := range tied {
		if wantReady == c.Ready() {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return tied
	}
	return kept
}

// pickTarget implements the lethal-first target policy.
func (b *Bot) pickTarget(req combat.ChoiceRequest, dmg int) *god.Character {
	wHP := b.persona.Weight(FactorHP)
	wDamage := b.persona.Weight(FactorDamage)
	wAbility := b.persona.Weight(FactorAbility)

	n := len(req.Candidates)
	projected := make([]int, n)
	composite := make([]float64, n)
	for i, c := range req.Candidates {
		projected[i] = c.HP + c.Effects.ShieldTotal() - (dmg + c.Effects.Sum(effect.Vulnerability))
		composite[i] = wHP*float64(projected[i]) + wDamage*float64(c.PreviewDamage()) + b.reloadTerm(c)
		composite[i] = b.adjust(c, req.Role, composite[i])
	}

	if wDamage < 0 {
		return b.uniform(extreme(req.Candidates, composite, false))
	}

	var lethal []*god.Character
	var lethalScores []float64
	for i, c := range req.Candidates {
		if projected[i] <= 0 {
			lethal = append(lethal, c)
			lethalScores = append(lethalScores, composite[i])
		}
	}
	if len(lethal) > 0 {
		return b.uniform(extreme(lethal, lethalScores, true))
	}

	// Heuristics are scored from the candidate's own side.
	sit := NewSituation(req.Enemies, req.Allies)
	scores := make([]float64, n)
	for i, c := range req.Candidates {
		s := wHP*float64(bucket(projected[i], c.EffectiveMaxHP())) +
			wDamage*float64(c.PreviewDamage()) +
			wAbility*Heuristic(c, sit) +
			b.reloadTerm(c)
		scores[i] = b.adjust(c, req.Role, s)
	}
	return b.uniform(extreme(req.Candidates, scores, true))
}

// reloadTerm rewards near-ready candidates for a positive reload weight and
// far-from-ready ones for a negative weight.
func (b *Bot) reloadTerm(c *god.Character) float64 {
	w := b.persona.Weight(FactorReload)
	r := float64(c.Reload)
	switch {
	case w > 0:
		return w / (1 + r)
	case w < 0:
		return -w * r / (1 + r)
	}
	return 0
}

// bucket maps projected hp to 0 (untouched) .. 7 (dead).
func bucket(projected, effMax int) int {
	if effMax <= 0 {
		return 7
	}
	v := 7 - int(math.Floor(7*float64(projected)/float64(effMax)))
	return max(0, min(7, v))
}

// adjust lets the persona's Lua hook rewrite a score. Any fault or a non
// numeric result leaves the score unchanged.
func (b *Bot) adjust(c *god.Character, role combat.Role, score float64) float64 {
	if b.caller == nil || b.persona.ScriptHook == "" {
		return score
	}
	ret, err := b.caller.CallHook(b.persona.ID, b.persona.ScriptHook,
		lua.LString(c.Kind.String()), lua.LString(role.String()), lua.LNumber(score))
	if err != nil {
		b.logger.Debug("persona hook failed", zap.String("hook", b.persona.ScriptHook), zap.Error(err))
		return score
	}
	if n, ok := ret.(lua.LNumber); ok {
		return float64(n)
	}
	return score
}

// extreme returns the candidates whose score is the max (or min).
func extreme(cands []*god.Character, scores []float64, maximize bool) []*god.Character {
	best := scores[0]
	for _, s := range scores[1:] {
		if (maximize && s > best) || (!maximize && s < best) {
			best = s
		}
	}
	var out []*god.Character
	for i, c := range cands {
		if math.Abs(scores[i]-best) < epsilon {
			out = append(out, c)
		}
	}
	return out
}
