package repos

import (
  "context"
  "errors"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/stakequest/stakequest-backend/internal/logger"
  "github.com/stakequest/stakequest-backend/internal/types"
)

type QuestRepo interface {
  Create(ctx context.Context, tx *gorm.DB, row *types.Quest) (*types.Quest, error)
  GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Quest, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Quest, error)
  Save(ctx context.Context, tx *gorm.DB, row *types.Quest) error
}

type questRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewQuestRepo(db *gorm.DB, baseLog *logger.Logger) QuestRepo {
  repoLog := baseLog.With("repo", "QuestRepo")
  return &questRepo{db: db, log: repoLog}
}

func (r *questRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Quest) (*types.Quest, error) {
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

func (r *questRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Quest, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Quest
  if err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, types.ErrQuestNotFound
    }
    return nil, err
  }
  return &result, nil
}

func (r *questRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Quest, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Quest
  if userID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("id ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *questRepo) Save(ctx context.Context, tx *gorm.DB, row *types.Quest) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  if err := transaction.WithContext(ctx).Save(row).Error; err != nil {
    return err
  }
  return nil
}
