package repos

import (
  "context"
  "errors"
  "gorm.io/gorm"
  "github.com/stakequest/stakequest-backend/internal/logger"
  "github.com/stakequest/stakequest-backend/internal/types"
)

type PositionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, row *types.Position) (*types.Position, error)
  GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Position, error)
  Save(ctx context.Context, tx *gorm.DB, row *types.Position) error
  ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Position, error)
}

type positionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPositionRepo(db *gorm.DB, baseLog *logger.Logger) PositionRepo {
  repoLog := baseLog.With("repo", "PositionRepo")
  return &positionRepo{db: db, log: repoLog}
}

func (r *positionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Position) (*types.Position, error) {
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

func (r *positionRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Position, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Position
  if err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, types.ErrPositionNotFound
    }
    return nil, err
  }
  return &result, nil
}

func (r *positionRepo) Save(ctx context.Context, tx *gorm.DB, row *types.Position) error {
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

func (r *positionRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Position, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Position
  if err := transaction.WithContext(ctx).
    Where("active = ?", true).
    Order("id ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
