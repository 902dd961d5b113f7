package app

import (
	"strings"
	"time"

	"github.com/stakequest/stakequest-backend/internal/logger"
	"github.com/stakequest/stakequest-backend/internal/utils"
)

type Config struct {
	JWTSecretKey       string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Port               string
	AllowedOrigins     []string
	StrategyConfigPath string
	Environment        string
	Version            string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	port := utils.GetEnv("PORT", "8080", log)
	rawOrigins := utils.GetEnv("ALLOWED_ORIGINS", "http://localhost:3000", log)
	strategyConfigPath := utils.GetEnv("STRATEGY_CONFIG_PATH", "", log)
	environment := utils.GetEnv("APP_ENV", "development", log)
	version := utils.GetEnv("APP_VERSION", "dev", log)

	var origins []string
	for _, origin := range strings.Split(rawOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	return Config{
		JWTSecretKey:       jwtSecretKey,
		AccessTokenTTL:     time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL:    time.Duration(refreshTokenTTLSeconds) * time.Second,
		Port:               port,
		AllowedOrigins:     origins,
		StrategyConfigPath: strategyConfigPath,
		Environment:        environment,
		Version:            version,
	}
}
