package app

import (
	"gorm.io/gorm"

	"github.com/stakequest/stakequest-backend/internal/logger"
	"github.com/stakequest/stakequest-backend/internal/services"
)

type Services struct {
	Auth    services.AuthService
	Yield   services.YieldService
	Payment services.PaymentService
	Quest   services.QuestService
	Events  services.EventPublisher
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, strategyCfg *services.StrategyConfig) Services {
	log.Info("Wiring services...")

	authService := services.NewAuthService(db, log, reposet.User, reposet.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	selector := services.SelectorFromConfig(strategyCfg)
	yieldService := services.NewYieldService(db, log, reposet.Position, reposet.YieldStats, selector)

	paymentService := services.NewPaymentService(db, log, reposet.Transfer)

	events, err := services.NewRedisEventPublisher(log)
	if err != nil {
		log.Warn("redis event publisher unavailable, events disabled", "error", err)
		events = services.NoopEventPublisher{}
	}

	questService := services.NewQuestService(db, log, reposet.Quest, reposet.DailyLog, reposet.Pool, yieldService, paymentService, events)

	return Services{
		Auth:    authService,
		Yield:   yieldService,
		Payment: paymentService,
		Quest:   questService,
		Events:  events,
	}
}

// initialAPYBp resolves the APY the stats row is seeded with: the strategy
// config wins when present, otherwise the built-in default.
func initialAPYBp(strategyCfg *services.StrategyConfig) int {
	if strategyCfg != nil && strategyCfg.CurrentAPYBp > 0 {
		return strategyCfg.CurrentAPYBp
	}
	return services.DefaultAPYBp
}
