package types

import "time"

const (
	PoolCommunity = "community"
	PoolYield     = "yield"
)

// PoolAccount is one of the two named process-wide balances. Balances are
// int64 in the token's smallest unit; every mutation happens inside the same
// transaction as the quest or position row it is paired with.
type PoolAccount struct {
	Name      string    `gorm:"primaryKey;column:name" json:"name"`
	Balance   int64     `gorm:"not null;column:balance" json:"balance"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PoolAccount) TableName() string { return "pool_accounts" }

type PoolStats struct {
	CommunityPool int64 `json:"community_pool"`
	YieldPool     int64 `json:"yield_pool"`
}
