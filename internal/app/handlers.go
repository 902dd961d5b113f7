package app

import (
	"github.com/stakequest/stakequest-backend/internal/handlers"
	"github.com/stakequest/stakequest-backend/internal/logger"
)

type Handlers struct {
	Auth  *handlers.AuthHandler
	Quest *handlers.QuestHandler
	Yield *handlers.YieldHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:  handlers.NewAuthHandler(services.Auth),
		Quest: handlers.NewQuestHandler(services.Quest, services.Payment),
		Yield: handlers.NewYieldHandler(services.Yield),
	}
}
