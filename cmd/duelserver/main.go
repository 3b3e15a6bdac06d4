// Package main provides the duel server: a Telnet front-end where a human
// commands one squad against a persona-driven bot.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pantheon/internal/config"
	"github.com/cory-johannsen/pantheon/internal/frontend/handlers"
	"github.com/cory-johannsen/pantheon/internal/frontend/telnet"
	"github.com/cory-johannsen/pantheon/internal/game/combat"
	"github.com/cory-johannsen/pantheon/internal/game/dice"
	"github.com/cory-johannsen/pantheon/internal/gamedata"
	"github.com/cory-johannsen/pantheon/internal/observability"
	"github.com/cory-johannsen/pantheon/internal/server"
	"github.com/cory-johannsen/pantheon/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Stream 0 feeds the Lua scripts; sessions draw from streams 1, 2, ...
	data, err := gamedata.Load(cfg.Content, dice.Derive(cfg.Match.Seed, 0), logger)
	if err != nil {
		logger.Fatal("loading game data", zap.Error(err))
	}
	defer data.Close()

	var store handlers.MatchStore
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		store = pool.Matches()
	} else {
		logger.Info("database disabled; matches will not be saved")
	}

	engine := combat.NewEngine(data.Catalog, combat.Options{
		Logger:        logger,
		ChoiceTimeout: cfg.Match.ChoiceTimeout,
	})

	duel, err := handlers.NewDuelHandler(engine, data.Personas, data.Scripts, store, cfg.Match, logger)
	if err != nil {
		logger.Fatal("creating duel handler", zap.Error(err))
	}

	acceptor := telnet.NewAcceptor(cfg.Telnet, duel, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("duel server initialized",
		zap.String("addr", cfg.Telnet.Addr()),
		zap.String("bot_persona", cfg.Match.BotPersona),
		zap.Duration("choice_timeout", cfg.Match.ChoiceTimeout),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("duel server stopped with error",
			zap.Error(err),
			zap.Int("live_matches", engine.Len()),
		)
	}
}
