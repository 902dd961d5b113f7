package services

import (
  "context"
  "errors"
  "testing"
  "time"
  "github.com/stakequest/stakequest-backend/internal/repos"
  "github.com/stakequest/stakequest-backend/internal/types"
)

func newYieldEnv(t *testing.T) (*yieldService, repos.YieldStatsRepo) {
  t.Helper()
  db := newTestDB(t)
  log := newTestLogger(t)
  statsRepo := repos.NewYieldStatsRepo(db, log)
  if err := statsRepo.Ensure(context.Background(), nil, DefaultAPYBp); err != nil {
    t.Fatalf("seed yield stats: %v", err)
  }
  ys := NewYieldService(db, log, repos.NewPositionRepo(db, log), statsRepo, nil).(*yieldService)
  return ys, statsRepo
}

func TestDepositWithdrawLifecycle(t *testing.T) {
  ys, statsRepo := newYieldEnv(t)
  ctx := context.Background()

  start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
  ys.now = func() time.Time { return start }

  positionID, err := ys.Deposit(ctx, nil, 10_000_000)
  if err != nil {
    t.Fatalf("Deposit: %v", err)
  }

  stats, err := statsRepo.Get(ctx, nil)
  if err != nil {
    t.Fatalf("stats: %v", err)
  }
  if stats.TotalDeposited != 10_000_000 || stats.TotalInvested != 10_000_000 || stats.ActivePositions != 1 {
    t.Fatalf("stats after deposit: %+v", stats)
  }

  // 500 bp APY truncates to 1 bp/day: 10_000_000 * 1 * 7 / 10000 = 7000.
  ys.now = func() time.Time { return start.Add(7 * 24 * time.Hour) }
  position, err := ys.UpdatePosition(ctx, positionID)
  if err != nil {
    t.Fatalf("UpdatePosition: %v", err)
  }
  if position.CurrentValue != 10_007_000 {
    t.Fatalf("current value: want=10007000 got=%d", position.CurrentValue)
  }
  if position.YieldEarned != 7_000 {
    t.Fatalf("yield earned: want=7000 got=%d", position.YieldEarned)
  }

  principal, yieldEarned, err := ys.Withdraw(ctx, nil, positionID)
  if err != nil {
    t.Fatalf("Withdraw: %v", err)
  }
  if principal != 10_000_000 || yieldEarned != 7_000 {
    t.Fatalf("withdraw: want=(10000000, 7000) got=(%d, %d)", principal, yieldEarned)
  }

  stats, err = statsRepo.Get(ctx, nil)
  if err != nil {
    t.Fatalf("stats: %v", err)
  }
  if stats.TotalInvested != 0 || stats.TotalYieldEarned != 7_000 || stats.ActivePositions != 0 {
    t.Fatalf("stats after withdraw: %+v", stats)
  }

  // A closed position cannot be withdrawn again.
  if _, _, err := ys.Withdraw(ctx, nil, positionID); !errors.Is(err, types.ErrPositionNotFound) {
    t.Fatalf("want ErrPositionNotFound on double withdraw, got %v", err)
  }
}

func TestListActivePositionsSkipsClosed(t *testing.T) {
  ys, _ := newYieldEnv(t)
  ctx := context.Background()

  first, err := ys.Deposit(ctx, nil, 1_000_000)
  if err != nil {
    t.Fatalf("Deposit: %v", err)
  }
  second, err := ys.Deposit(ctx, nil, 2_000_000)
  if err != nil {
    t.Fatalf("Deposit: %v", err)
  }
  if _, _, err := ys.Withdraw(ctx, nil, first); err != nil {
    t.Fatalf("Withdraw: %v", err)
  }

  positions, err := ys.ListActivePositions(ctx)
  if err != nil {
    t.Fatalf("ListActivePositions: %v", err)
  }
  if len(positions) != 1 || positions[0].ID != second {
    t.Fatalf("active positions: want only position %d, got %+v", second, positions)
  }
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
  ys, _ := newYieldEnv(t)
  for _, amount := range []int64{0, -1} {
    if _, err := ys.Deposit(context.Background(), nil, amount); !errors.Is(err, types.ErrInvalidParameter) {
      t.Fatalf("Deposit(%d): want ErrInvalidParameter, got %v", amount, err)
    }
  }
}

func TestWithdrawUnknownPosition(t *testing.T) {
  ys, _ := newYieldEnv(t)
  if _, _, err := ys.Withdraw(context.Background(), nil, 424242); !errors.Is(err, types.ErrPositionNotFound) {
    t.Fatalf("want ErrPositionNotFound, got %v", err)
  }
}

func TestEstimateYieldIsPure(t *testing.T) {
  ys, statsRepo := newYieldEnv(t)
  ctx := context.Background()

  estimate, err := ys.EstimateYield(ctx, 10_000_000, 30)
  if err != nil {
    t.Fatalf("EstimateYield: %v", err)
  }
  if estimate != 30_000 {
    t.Fatalf("estimate: want=30000 got=%d", estimate)
  }

  stats, err := statsRepo.Get(ctx, nil)
  if err != nil {
    t.Fatalf("stats: %v", err)
  }
  if stats.TotalDeposited != 0 || stats.ActivePositions != 0 {
    t.Fatalf("estimate must not mutate stats: %+v", stats)
  }

  if _, err := ys.EstimateYield(ctx, -1, 30); !errors.Is(err, types.ErrInvalidParameter) {
    t.Fatalf("want ErrInvalidParameter for negative amount, got %v", err)
  }
  if _, err := ys.EstimateYield(ctx, 10_000_000, -1); !errors.Is(err, types.ErrInvalidParameter) {
    t.Fatalf("want ErrInvalidParameter for negative days, got %v", err)
  }

  // Zero inputs estimate to zero, not an error.
  zero, err := ys.EstimateYield(ctx, 0, 0)
  if err != nil || zero != 0 {
    t.Fatalf("EstimateYield(0, 0): want=(0, nil) got=(%d, %v)", zero, err)
  }
}

func TestDailyAccrualTruncation(t *testing.T) {
  cases := []struct {
    amount int64
    apyBp  int
    days   int64
    want   int64
  }{
    // 500 bp -> 1 bp/day after truncation.
    {10_000_000, 500, 7, 10_007_000},
    // 300 bp -> 30000/36500 truncates to 0 bp/day, so no accrual at all.
    {10_000_000, 300, 365, 10_000_000},
    // 1000 * 1 * 365 / 10000 = 36.5, truncated to 36.
    {1_000, 500, 365, 1_036},
  }
  for _, tc := range cases {
    if got := dailyAccrualValue(tc.amount, tc.apyBp, tc.days); got != tc.want {
      t.Fatalf("dailyAccrualValue(%d, %d, %d): want=%d got=%d", tc.amount, tc.apyBp, tc.days, tc.want, got)
    }
  }
}

func TestDepositUsesConfiguredSelector(t *testing.T) {
  db := newTestDB(t)
  log := newTestLogger(t)
  statsRepo := repos.NewYieldStatsRepo(db, log)
  if err := statsRepo.Ensure(context.Background(), nil, DefaultAPYBp); err != nil {
    t.Fatalf("seed yield stats: %v", err)
  }
  selector := func(_ *types.YieldPoolStats) types.YieldStrategy { return types.StrategyStableSwap }
  positionRepo := repos.NewPositionRepo(db, log)
  ys := NewYieldService(db, log, positionRepo, statsRepo, selector)

  positionID, err := ys.Deposit(context.Background(), nil, 1_000_000)
  if err != nil {
    t.Fatalf("Deposit: %v", err)
  }
  position, err := ys.GetPosition(context.Background(), positionID)
  if err != nil {
    t.Fatalf("GetPosition: %v", err)
  }
  if position.Strategy != types.StrategyStableSwap {
    t.Fatalf("strategy: want=%s got=%s", types.StrategyStableSwap, position.Strategy)
  }
}
