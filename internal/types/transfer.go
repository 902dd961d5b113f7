package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TransferStakeCollect = "stake_collect"
	TransferPayout       = "payout"
	TransferRefund       = "refund"

	TransferScheduled = "scheduled"
)

// TokenTransfer records a value movement the core has committed to. Actual
// execution on the payment rail is an external effect; the core only
// schedules it.
type TokenTransfer struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuestID   int64          `gorm:"not null;index" json:"quest_id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind      string         `gorm:"not null;column:kind" json:"kind"`
	Amount    int64          `gorm:"not null;column:amount" json:"amount"`
	Status    string         `gorm:"not null;column:status" json:"status"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (TokenTransfer) TableName() string { return "token_transfers" }
