package app

import (
	"gorm.io/gorm"
	"github.com/stakequest/stakequest-backend/internal/logger"
	"github.com/stakequest/stakequest-backend/internal/repos"
)

type Repos struct {
	User       repos.UserRepo
	UserToken  repos.UserTokenRepo
	Quest      repos.QuestRepo
	DailyLog   repos.DailyLogRepo
	Pool       repos.PoolRepo
	Position   repos.PositionRepo
	YieldStats repos.YieldStatsRepo
	Transfer   repos.TransferRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:       repos.NewUserRepo(db, log),
		UserToken:  repos.NewUserTokenRepo(db, log),
		Quest:      repos.NewQuestRepo(db, log),
		DailyLog:   repos.NewDailyLogRepo(db, log),
		Pool:       repos.NewPoolRepo(db, log),
		Position:   repos.NewPositionRepo(db, log),
		YieldStats: repos.NewYieldStatsRepo(db, log),
		Transfer:   repos.NewTransferRepo(db, log),
	}
}
