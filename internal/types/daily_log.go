package types

import "time"

// DailyLog is append-only: one row per (quest, elapsed day), never updated.
type DailyLog struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestID          int64     `gorm:"not null;index:idx_quest_day,unique" json:"quest_id"`
	Quest            *Quest    `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestID;references:ID" json:"quest,omitempty"`
	DayIndex         int       `gorm:"not null;index:idx_quest_day,unique;column:day_index" json:"day_index"`
	ActivitiesLogged int       `gorm:"not null;column:activities_logged" json:"activities_logged"`
	VerificationRef  string    `gorm:"column:verification_ref" json:"verification_ref"`
	LoggedAt         time.Time `gorm:"not null;column:logged_at" json:"logged_at"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
}

func (DailyLog) TableName() string { return "daily_logs" }
