package types

import "time"

// YieldPoolStats is a singleton aggregate row, updated incrementally on every
// deposit and withdrawal.
type YieldPoolStats struct {
	ID               int       `gorm:"primaryKey" json:"-"`
	TotalDeposited   int64     `gorm:"not null;column:total_deposited" json:"total_deposited"`
	TotalInvested    int64     `gorm:"not null;column:total_invested" json:"total_invested"`
	TotalYieldEarned int64     `gorm:"not null;column:total_yield_earned" json:"total_yield_earned"`
	CurrentAPYBp     int       `gorm:"not null;column:current_apy_bp" json:"current_apy_bp"`
	ActivePositions  int       `gorm:"not null;column:active_positions" json:"active_positions"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (YieldPoolStats) TableName() string { return "yield_pool_stats" }
