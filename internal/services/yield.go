package services

import (
  "context"
  "fmt"
  "time"
  "gorm.io/gorm"
  "github.com/stakequest/stakequest-backend/internal/logger"
  "github.com/stakequest/stakequest-backend/internal/repos"
  "github.com/stakequest/stakequest-backend/internal/types"
)

// YieldService manages strategy-tagged positions for staked funds. Deposit
// and Withdraw take the caller's transaction so that position rows and pool
// balances always move together.
type YieldService interface {
  Deposit(ctx context.Context, tx *gorm.DB, amount int64) (int64, error)
  Withdraw(ctx context.Context, tx *gorm.DB, positionID int64) (int64, int64, error)
  UpdatePosition(ctx context.Context, positionID int64) (*types.Position, error)
  GetPosition(ctx context.Context, positionID int64) (*types.Position, error)
  ListActivePositions(ctx context.Context) ([]*types.Position, error)
  GetPoolStats(ctx context.Context) (*types.YieldPoolStats, error)
  EstimateYield(ctx context.Context, amount int64, days int) (int64, error)
}

type yieldService struct {
  db           *gorm.DB
  log          *logger.Logger
  positionRepo repos.PositionRepo
  statsRepo    repos.YieldStatsRepo
  valuators    map[types.YieldStrategy]StrategyValuator
  selector     StrategySelector
  now          func() time.Time
}

func NewYieldService(
  db *gorm.DB,
  log *logger.Logger,
  positionRepo repos.PositionRepo,
  statsRepo repos.YieldStatsRepo,
  selector StrategySelector,
) YieldService {
  serviceLog := log.With("service", "YieldService")
  if selector == nil {
    selector = DefaultStrategySelector
  }
  return &yieldService{
    db:           db,
    log:          serviceLog,
    positionRepo: positionRepo,
    statsRepo:    statsRepo,
    valuators:    defaultValuators(),
    selector:     selector,
    now:          time.Now,
  }
}

func (ys *yieldService) Deposit(ctx context.Context, tx *gorm.DB, amount int64) (int64, error) {
  if amount <= 0 {
    return 0, fmt.Errorf("%w: deposit amount must be positive", types.ErrInvalidParameter)
  }
  transaction := tx
  if transaction == nil {
    transaction = ys.db
  }

  stats, err := ys.statsRepo.Get(ctx, transaction)
  if err != nil {
    return 0, fmt.Errorf("load yield stats: %w", err)
  }

  now := ys.now()
  position := &types.Position{
    Strategy:       ys.selector(stats),
    AmountInvested: amount,
    CurrentValue:   amount,
    YieldEarned:    0,
    Active:         true,
    CreatedAt:      now,
    LastUpdated:    now,
  }
  if _, err := ys.positionRepo.Create(ctx, transaction, position); err != nil {
    return 0, fmt.Errorf("create position: %w", err)
  }

  stats.TotalDeposited += amount
  stats.TotalInvested += amount
  stats.ActivePositions++
  if err := ys.statsRepo.Save(ctx, transaction, stats); err != nil {
    return 0, fmt.Errorf("save yield stats: %w", err)
  }

  ys.log.Debug("Opened yield position", "position_id", position.ID, "strategy", position.Strategy, "amount", amount)
  return position.ID, nil
}

func (ys *yieldService) Withdraw(ctx context.Context, tx *gorm.DB, positionID int64) (int64, int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = ys.db
  }

  position, err := ys.positionRepo.GetByID(ctx, transaction, positionID)
  if err != nil {
    return 0, 0, err
  }
  if !position.Active {
    return 0, 0, fmt.Errorf("%w: position %d already withdrawn", types.ErrPositionNotFound, positionID)
  }

  stats, err := ys.statsRepo.Get(ctx, transaction)
  if err != nil {
    return 0, 0, fmt.Errorf("load yield stats: %w", err)
  }

  ys.revalue(position, stats.CurrentAPYBp)
  principal := position.AmountInvested
  yieldEarned := position.YieldEarned

  position.Active = false
  if err := ys.positionRepo.Save(ctx, transaction, position); err != nil {
    return 0, 0, fmt.Errorf("close position: %w", err)
  }

  stats.TotalInvested -= principal
  stats.TotalYieldEarned += yieldEarned
  stats.ActivePositions--
  if err := ys.statsRepo.Save(ctx, transaction, stats); err != nil {
    return 0, 0, fmt.Errorf("save yield stats: %w", err)
  }

  ys.log.Debug("Withdrew yield position", "position_id", positionID, "principal", principal, "yield_earned", yieldEarned)
  return principal, yieldEarned, nil
}

func (ys *yieldService) UpdatePosition(ctx context.Context, positionID int64) (*types.Position, error) {
  position, err := ys.positionRepo.GetByID(ctx, nil, positionID)
  if err != nil {
    return nil, err
  }
  stats, err := ys.statsRepo.Get(ctx, nil)
  if err != nil {
    return nil, fmt.Errorf("load yield stats: %w", err)
  }
  ys.revalue(position, stats.CurrentAPYBp)
  if err := ys.positionRepo.Save(ctx, nil, position); err != nil {
    return nil, fmt.Errorf("save position: %w", err)
  }
  return position, nil
}

func (ys *yieldService) GetPosition(ctx context.Context, positionID int64) (*types.Position, error) {
  return ys.UpdatePosition(ctx, positionID)
}

// ListActivePositions returns open positions revalued as of now. The
// revaluation is a read-time snapshot; rows are not written back.
func (ys *yieldService) ListActivePositions(ctx context.Context) ([]*types.Position, error) {
  positions, err := ys.positionRepo.ListActive(ctx, nil)
  if err != nil {
    return nil, err
  }
  stats, err := ys.statsRepo.Get(ctx, nil)
  if err != nil {
    return nil, fmt.Errorf("load yield stats: %w", err)
  }
  for _, position := range positions {
    ys.revalue(position, stats.CurrentAPYBp)
  }
  return positions, nil
}

func (ys *yieldService) GetPoolStats(ctx context.Context) (*types.YieldPoolStats, error) {
  return ys.statsRepo.Get(ctx, nil)
}

// EstimateYield is a pure preview; it never mutates positions or stats.
func (ys *yieldService) EstimateYield(ctx context.Context, amount int64, days int) (int64, error) {
  if amount < 0 || days < 0 {
    return 0, fmt.Errorf("%w: amount and days must be non-negative", types.ErrInvalidParameter)
  }
  stats, err := ys.statsRepo.Get(ctx, nil)
  if err != nil {
    return 0, fmt.Errorf("load yield stats: %w", err)
  }
  dailyRateBp := int64(stats.CurrentAPYBp) * 100 / 36500
  return amount * dailyRateBp * int64(days) / 10000, nil
}

func (ys *yieldService) revalue(position *types.Position, apyBp int) {
  valuator, ok := ys.valuators[position.Strategy]
  if !ok {
    // Unknown tags fall back to the shared accrual rule.
    valuator = liquidityPoolValuator{}
  }
  daysElapsed := (ys.now().Unix() - position.CreatedAt.Unix()) / types.SecondsPerDay
  if daysElapsed < 0 {
    daysElapsed = 0
  }
  position.CurrentValue = valuator.Value(position.AmountInvested, apyBp, daysElapsed)
  position.YieldEarned = position.CurrentValue - position.AmountInvested
  position.LastUpdated = ys.now()
}
