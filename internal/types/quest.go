package types

import (
	"time"

	"github.com/google/uuid"
)

type QuestCategory string

const (
	QuestJobApplications QuestCategory = "job_applications"
	QuestInterviewPrep   QuestCategory = "interview_prep"
	QuestNetworking      QuestCategory = "networking"
	QuestSkillBuilding   QuestCategory = "skill_building"
)

func (c QuestCategory) Valid() bool {
	switch c {
	case QuestJobApplications, QuestInterviewPrep, QuestNetworking, QuestSkillBuilding:
		return true
	}
	return false
}

type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
	QuestCancelled QuestStatus = "cancelled"
)

// StakeAmounts maps quest duration (days) to the required stake in the
// token's smallest unit (7 decimals).
var StakeAmounts = map[int]int64{
	7:  10_000_000,
	14: 20_000_000,
	30: 50_000_000,
	90: 100_000_000,
}

const (
	MinDailyTarget = 1
	MaxDailyTarget = 10
	MaxGraceDays   = 3
	SecondsPerDay  = 86400
)

type Quest struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User         `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Category      QuestCategory `gorm:"not null;column:category" json:"category"`
	DailyTarget   int           `gorm:"not null;column:daily_target" json:"daily_target"`
	DurationDays  int           `gorm:"not null;column:duration_days" json:"duration_days"`
	StakeAmount   int64         `gorm:"not null;column:stake_amount" json:"stake_amount"`
	GraceDays     int           `gorm:"not null;column:grace_days" json:"grace_days"`
	StartTime     time.Time     `gorm:"not null;column:start_time" json:"start_time"`
	EndTime       time.Time     `gorm:"not null;column:end_time" json:"end_time"`
	Status        QuestStatus   `gorm:"not null;column:status;index" json:"status"`
	DaysCompleted int           `gorm:"not null;column:days_completed" json:"days_completed"`
	GraceDaysUsed int           `gorm:"not null;column:grace_days_used" json:"grace_days_used"`
	YieldAccrued  int64         `gorm:"not null;column:yield_accrued" json:"yield_accrued"`
	PositionID    *int64        `gorm:"column:position_id" json:"position_id,omitempty"`
	CreatedAt     time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null" json:"updated_at"`
}

func (Quest) TableName() string { return "quests" }

// ElapsedDays is the 0-based day index for "now" relative to the quest start.
func (q *Quest) ElapsedDays(now time.Time) int {
	secs := now.Unix() - q.StartTime.Unix()
	if secs < 0 {
		return 0
	}
	return int(secs / SecondsPerDay)
}
