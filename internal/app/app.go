package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stakequest/stakequest-backend/internal/db"
	"github.com/stakequest/stakequest-backend/internal/logger"
	"github.com/stakequest/stakequest-backend/internal/observability"
	"github.com/stakequest/stakequest-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services

	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "stakequest",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	var strategyCfg *services.StrategyConfig
	if cfg.StrategyConfigPath != "" {
		strategyCfg, err = services.LoadStrategyConfig(cfg.StrategyConfigPath)
		if err != nil {
			log.Sync()
			return nil, err
		}
	}

	reposet := wireRepos(theDB, log)

	if err := reposet.Pool.EnsureAccounts(context.Background(), nil); err != nil {
		log.Sync()
		return nil, fmt.Errorf("seed pool accounts: %w", err)
	}
	if err := reposet.YieldStats.Ensure(context.Background(), nil, initialAPYBp(strategyCfg)); err != nil {
		log.Sync()
		return nil, fmt.Errorf("seed yield stats: %w", err)
	}

	serviceset := wireServices(theDB, log, cfg, reposet, strategyCfg)

	handlerset := wireHandlers(log, serviceset)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(cfg, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Services.Events != nil {
		if err := a.Services.Events.Close(); err != nil && a.Log != nil {
			a.Log.Warn("event publisher close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
