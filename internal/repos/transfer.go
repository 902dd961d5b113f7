package repos

import (
  "context"
  "gorm.io/gorm"
  "github.com/stakequest/stakequest-backend/internal/logger"
  "github.com/stakequest/stakequest-backend/internal/types"
)

type TransferRepo interface {
  Create(ctx context.Context, tx *gorm.DB, row *types.TokenTransfer) (*types.TokenTransfer, error)
  ListByQuest(ctx context.Context, tx *gorm.DB, questID int64) ([]*types.TokenTransfer, error)
}

type transferRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewTransferRepo(db *gorm.DB, baseLog *logger.Logger) TransferRepo {
  repoLog := baseLog.With("repo", "TransferRepo")
  return &transferRepo{db: db, log: repoLog}
}

func (r *transferRepo) Create(ctx context.Context, tx *gorm.DB, row *types.TokenTransfer) (*types.TokenTransfer, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil, nil
  }

  if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
    return nil, err
  }
  return row, nil
}

func (r *transferRepo) ListByQuest(ctx context.Context, tx *gorm.DB, questID int64) ([]*types.TokenTransfer, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.TokenTransfer
  if err := transaction.WithContext(ctx).
    Where("quest_id = ?", questID).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
