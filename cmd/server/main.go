// Package main provides the session server binary: REST API plus the
// WebSocket hub for the live table.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ashfall-games/wasteland/internal/config"
	"github.com/ashfall-games/wasteland/internal/game/dice"
	"github.com/ashfall-games/wasteland/internal/game/service"
	"github.com/ashfall-games/wasteland/internal/httpapi"
	"github.com/ashfall-games/wasteland/internal/hub"
	"github.com/ashfall-games/wasteland/internal/observability"
	"github.com/ashfall-games/wasteland/internal/rules"
	"github.com/ashfall-games/wasteland/internal/server"
	"github.com/ashfall-games/wasteland/internal/session"
	"github.com/ashfall-games/wasteland/internal/storage"
	"github.com/ashfall-games/wasteland/internal/storage/postgres"
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

	rulesStart := time.Now()
	ruleset := rules.Load(cfg.Content.RulesDir, logger)
	logger.Info("rules loaded",
		zap.String("dir", cfg.Content.RulesDir),
		zap.Int("skills", len(ruleset.Skills)),
		zap.Int("races", len(ruleset.Races)),
		zap.Duration("elapsed", time.Since(rulesStart)),
	)

	diceRoller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	registry := session.NewRegistry(cfg.Session.DMKeyHash, logger)

	lifecycle := server.NewLifecycle(logger)

	var charStore storage.CharacterStore
	var shopStore storage.ShopStore
	if cfg.Database.Enabled() {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		charStore = postgres.NewCharacterRepository(pool.Pool)
		shopStore = postgres.NewShopRepository(pool.Pool)

		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				for {
					time.Sleep(30 * time.Second)
					if err := pool.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			},
			StopFn: func() {
				pool.Close()
			},
		})
	} else {
		logger.Info("no database configured, using in-memory stores")
		charStore = storage.NewMemoryCharacterStore()
		shopStore = storage.NewMemoryShopStore()
	}

	svc := service.New(charStore, shopStore, ruleset, registry, diceRoller, logger)
	wsHub := hub.New(svc, registry, cfg.Session.CookieName, logger)
	api := httpapi.New(svc, registry, ruleset, wsHub, cfg.Session.CookieName, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	lifecycle.Add("http", server.NewHTTPService(srv, cfg.Server.ShutdownTimeout, logger))

	logger.Info("session server initialized",
		zap.String("addr", cfg.Server.Addr()),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
