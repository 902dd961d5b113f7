package app

import (
	"github.com/gin-gonic/gin"
	"github.com/stakequest/stakequest-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:    "stakequest",
		AllowedOrigins: cfg.AllowedOrigins,
		AuthHandler:    handlers.Auth,
		AuthMiddleware: middleware.Auth,
		QuestHandler:   handlers.Quest,
		YieldHandler:   handlers.Yield,
	})
}
