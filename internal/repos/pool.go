package repos

import (
  "context"
  "fmt"
  "time"
  "gorm.io/gorm"
  "github.com/stakequest/stakequest-backend/internal/logger"
  "github.com/stakequest/stakequest-backend/internal/types"
)

// PoolRepo exposes the two mutating primitives of the pool ledger. Credit and
// Debit must run inside the same transaction as the quest or position row
// that motivates the balance change.
type PoolRepo interface {
  EnsureAccounts(ctx context.Context, tx *gorm.DB) error
  Get(ctx context.Context, tx *gorm.DB, name string) (*types.PoolAccount, error)
  Credit(ctx context.Context, tx *gorm.DB, name string, amount int64) error
  Debit(ctx context.Context, tx *gorm.DB, name string, amount int64) error
  Stats(ctx context.Context, tx *gorm.DB) (*types.PoolStats, error)
}

type poolRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPoolRepo(db *gorm.DB, baseLog *logger.Logger) PoolRepo {
  repoLog := baseLog.With("repo", "PoolRepo")
  return &poolRepo{db: db, log: repoLog}
}

func (r *poolRepo) EnsureAccounts(ctx context.Context, tx *gorm.DB) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  for _, name := range []string{types.PoolCommunity, types.PoolYield} {
    row := types.PoolAccount{Name: name, Balance: 0, UpdatedAt: time.Now()}
    if err := transaction.WithContext(ctx).
      Where("name = ?", name).
      FirstOrCreate(&row).Error; err != nil {
      return fmt.Errorf("ensure pool account %q: %w", name, err)
    }
  }
  return nil
}

func (r *poolRepo) Get(ctx context.Context, tx *gorm.DB, name string) (*types.PoolAccount, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.PoolAccount
  if err := transaction.WithContext(ctx).
    Where("name = ?", name).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *poolRepo) Credit(ctx context.Context, tx *gorm.DB, name string, amount int64) error {
  return r.adjust(ctx, tx, name, amount)
}

func (r *poolRepo) Debit(ctx context.Context, tx *gorm.DB, name string, amount int64) error {
  return r.adjust(ctx, tx, name, -amount)
}

func (r *poolRepo) adjust(ctx context.Context, tx *gorm.DB, name string, delta int64) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  result := transaction.WithContext(ctx).
    Model(&types.PoolAccount{}).
    Where("name = ?", name).
    Updates(map[string]interface{}{
      "balance":    gorm.Expr("balance + ?", delta),
      "updated_at": time.Now(),
    })
  if result.Error != nil {
    return result.Error
  }
  if result.RowsAffected == 0 {
    return fmt.Errorf("pool account %q not found", name)
  }
  return nil
}

func (r *poolRepo) Stats(ctx context.Context, tx *gorm.DB) (*types.PoolStats, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var accounts []*types.PoolAccount
  if err := transaction.WithContext(ctx).Find(&accounts).Error; err != nil {
    return nil, err
  }
  stats := &types.PoolStats{}
  for _, acct := range accounts {
    switch acct.Name {
    case types.PoolCommunity:
      stats.CommunityPool = acct.Balance
    case types.PoolYield:
      stats.YieldPool = acct.Balance
    }
  }
  return stats, nil
}
