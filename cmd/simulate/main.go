// Package main runs bot-versus-bot matches concurrently and reports how each
// persona fared.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pantheon/internal/config"
	"github.com/cory-johannsen/pantheon/internal/game/ai"
	"github.com/cory-johannsen/pantheon/internal/game/combat"
	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/gamedata"
	"github.com/cory-johannsen/pantheon/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file (empty = defaults)")
	matches := flag.Int("matches", 100, "number of matches to play")
	personaA := flag.String("persona-a", "tactician", "persona for side A")
	personaB := flag.String("persona-b", "random", "persona for side B")
	seed := flag.Uint64("seed", 0, "seed for reproducible runs (0 = crypto randomness)")
	parallel := flag.Int("parallel", 8, "matches run at once")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	if *seed == 0 {
		*seed = cfg.Match.Seed
	}
	// Lua scripts draw from one stream shared by every match.
	data, err := gamedata.Load(cfg.Content, dice.Derive(*seed, uint64(*matches)), logger)
	if err != nil {
		logger.Fatal("loading game data", zap.Error(err))
	}
	defer data.Close()

	pa, ok := data.Personas.Get(*personaA)
	if !ok {
		logger.Fatal("unknown persona", zap.String("persona", *personaA), zap.Strings("available", data.Personas.IDs()))
	}
	pb, ok := data.Personas.Get(*personaB)
	if !ok {
		logger.Fatal("unknown persona", zap.String("persona", *personaB), zap.Strings("available", data.Personas.IDs()))
	}

	engine := combat.NewEngine(data.Catalog, combat.Options{Logger: logger})

	maxTurns := cfg.Match.MaxTurns
	if maxTurns == 0 {
		maxTurns = 1000
	}

	sim := simulation{
		engine:   engine,
		personas: [2]*ai.Persona{combat.SideA: pa, combat.SideB: pb},
		scripts:  data.Scripts,
		seed:     *seed,
		maxTurns: maxTurns,
		parallel: *parallel,
		logger:   logger,
	}
	results, err := sim.run(context.Background(), *matches)
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
	var t tally
	for _, r := range results {
		t.record(r)
	}

	avg := 0.0
	if *matches > 0 {
		avg = float64(t.turns) / float64(*matches)
	}
	logger.Info("simulation complete",
		zap.Int("matches", *matches),
		zap.String("persona_a", pa.ID),
		zap.String("persona_b", pb.ID),
		zap.Int("wins_a", t.wins[combat.SideA]),
		zap.Int("wins_b", t.wins[combat.SideB]),
		zap.Int("draws", t.draws),
		zap.Int("unsettled", t.unsettled),
		zap.Float64("avg_turns", avg),
		zap.Duration("elapsed", time.Since(start)),
	)
}
