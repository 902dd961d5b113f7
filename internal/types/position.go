package types

import "time"

type YieldStrategy string

const (
	StrategyLiquidityPool   YieldStrategy = "liquidity_pool"
	StrategyLendingProtocol YieldStrategy = "lending_protocol"
	StrategyStableSwap      YieldStrategy = "stable_swap"
	StrategyPathPayment     YieldStrategy = "path_payment"
)

func (s YieldStrategy) Valid() bool {
	switch s {
	case StrategyLiquidityPool, StrategyLendingProtocol, StrategyStableSwap, StrategyPathPayment:
		return true
	}
	return false
}

// Position is one strategy-tagged deposit. Rows are retained after withdrawal
// for audit; only Active is revoked.
type Position struct {
	ID             int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Strategy       YieldStrategy `gorm:"not null;column:strategy" json:"strategy"`
	AmountInvested int64         `gorm:"not null;column:amount_invested" json:"amount_invested"`
	CurrentValue   int64         `gorm:"not null;column:current_value" json:"current_value"`
	YieldEarned    int64         `gorm:"not null;column:yield_earned" json:"yield_earned"`
	Active         bool          `gorm:"not null;column:active;index" json:"active"`
	CreatedAt      time.Time     `gorm:"not null" json:"created_at"`
	LastUpdated    time.Time     `gorm:"not null;column:last_updated" json:"last_updated"`
}

func (Position) TableName() string { return "positions" }
