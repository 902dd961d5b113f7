package repos

import (
  "context"
  "time"
  "gorm.io/gorm"
  "github.com/stakequest/stakequest-backend/internal/logger"
  "github.com/stakequest/stakequest-backend/internal/types"
)

const yieldStatsRowID = 1

type YieldStatsRepo interface {
  Ensure(ctx context.Context, tx *gorm.DB, initialAPYBp int) error
  Get(ctx context.Context, tx *gorm.DB) (*types.YieldPoolStats, error)
  Save(ctx context.Context, tx *gorm.DB, row *types.YieldPoolStats) error
}

type yieldStatsRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewYieldStatsRepo(db *gorm.DB, baseLog *logger.Logger) YieldStatsRepo {
  repoLog := baseLog.With("repo", "YieldStatsRepo")
  return &yieldStatsRepo{db: db, log: repoLog}
}

func (r *yieldStatsRepo) Ensure(ctx context.Context, tx *gorm.DB, initialAPYBp int) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  row := types.YieldPoolStats{
    ID:           yieldStatsRowID,
    CurrentAPYBp: initialAPYBp,
    UpdatedAt:    time.Now(),
  }
  if err := transaction.WithContext(ctx).
    Where("id = ?", yieldStatsRowID).
    FirstOrCreate(&row).Error; err != nil {
    return err
  }
  return nil
}

func (r *yieldStatsRepo) Get(ctx context.Context, tx *gorm.DB) (*types.YieldPoolStats, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.YieldPoolStats
  if err := transaction.WithContext(ctx).
    Where("id = ?", yieldStatsRowID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *yieldStatsRepo) Save(ctx context.Context, tx *gorm.DB, row *types.YieldPoolStats) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  row.ID = yieldStatsRowID
  row.UpdatedAt = time.Now()
  if err := transaction.WithContext(ctx).Save(row).Error; err != nil {
    return err
  }
  return nil
}
