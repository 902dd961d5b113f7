package repos

import (
  "context"
  "errors"
  "gorm.io/gorm"
  "github.com/stakequest/stakequest-backend/internal/logger"
  "github.com/stakequest/stakequest-backend/internal/types"
)

type DailyLogRepo interface {
  Create(ctx context.Context, tx *gorm.DB, row *types.DailyLog) (*types.DailyLog, error)
  Get(ctx context.Context, tx *gorm.DB, questID int64, dayIndex int) (*types.DailyLog, error)
  Exists(ctx context.Context, tx *gorm.DB, questID int64, dayIndex int) (bool, error)
  ListByQuest(ctx context.Context, tx *gorm.DB, questID int64) ([]*types.DailyLog, error)
}

type dailyLogRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewDailyLogRepo(db *gorm.DB, baseLog *logger.Logger) DailyLogRepo {
  repoLog := baseLog.With("repo", "DailyLogRepo")
  return &dailyLogRepo{db: db, log: repoLog}
}

func (r *dailyLogRepo) Create(ctx context.Context, tx *gorm.DB, row *types.DailyLog) (*types.DailyLog, error) {
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

func (r *dailyLogRepo) Get(ctx context.Context, tx *gorm.DB, questID int64, dayIndex int) (*types.DailyLog, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.DailyLog
  if err := transaction.WithContext(ctx).
    Where("quest_id = ? AND day_index = ?", questID, dayIndex).
    First(&result).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}

func (r *dailyLogRepo) Exists(ctx context.Context, tx *gorm.DB, questID int64, dayIndex int) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.DailyLog{}).
    Where("quest_id = ? AND day_index = ?", questID, dayIndex).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}

func (r *dailyLogRepo) ListByQuest(ctx context.Context, tx *gorm.DB, questID int64) ([]*types.DailyLog, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.DailyLog
  if err := transaction.WithContext(ctx).
    Where("quest_id = ?", questID).
    Order("day_index ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
