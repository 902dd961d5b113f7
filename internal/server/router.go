package server

import (
  "strings"
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
  "github.com/stakequest/stakequest-backend/internal/handlers"
  "github.com/stakequest/stakequest-backend/internal/middleware"
)

type RouterConfig struct {
  ServiceName    string
  AllowedOrigins []string
  AuthHandler    *handlers.AuthHandler
  AuthMiddleware *middleware.AuthMiddleware
  QuestHandler   *handlers.QuestHandler
  YieldHandler   *handlers.YieldHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  serviceName := strings.TrimSpace(cfg.ServiceName)
  if serviceName == "" {
    serviceName = "stakequest"
  }
  router.Use(otelgin.Middleware(serviceName))

  origins := cfg.AllowedOrigins
  if len(origins) == 0 {
    origins = []string{"http://localhost:3000"}
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  // Public
  router.GET("/healthcheck", handlers.HealthCheck)
  router.POST("/register", cfg.AuthHandler.Register)
  router.POST("/login", cfg.AuthHandler.Login)
  router.POST("/refresh", cfg.AuthHandler.Refresh)

  // Protected
  api := router.Group("/api")
  api.Use(cfg.AuthMiddleware.RequireAuth())

  api.POST("/logout", cfg.AuthHandler.Logout)

  // Quests
  api.POST("/quests", cfg.QuestHandler.Create)
  api.GET("/quests", cfg.QuestHandler.ListMine)
  api.GET("/quests/:id", cfg.QuestHandler.Get)
  api.POST("/quests/:id/logs", cfg.QuestHandler.LogActivity)
  api.GET("/quests/:id/logs", cfg.QuestHandler.ListLogs)
  api.GET("/quests/:id/logs/:day", cfg.QuestHandler.GetDailyLog)
  api.POST("/quests/:id/complete", cfg.QuestHandler.Complete)
  api.POST("/quests/:id/cancel", cfg.QuestHandler.Cancel)
  api.GET("/quests/:id/transfers", cfg.QuestHandler.ListTransfers)
  api.GET("/pools", cfg.QuestHandler.GetPoolStats)

  // Yield
  api.GET("/yield/stats", cfg.YieldHandler.GetPoolStats)
  api.GET("/yield/estimate", cfg.YieldHandler.EstimateYield)
  api.GET("/yield/positions", cfg.YieldHandler.ListPositions)
  api.GET("/yield/positions/:id", cfg.YieldHandler.GetPosition)
  api.POST("/yield/positions/:id/update", cfg.YieldHandler.UpdatePosition)

  return router
}
