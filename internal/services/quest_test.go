package services

import (
  "context"
  "errors"
  "fmt"
  "sync/atomic"
  "testing"
  "time"
  "github.com/google/uuid"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  gormlogger "gorm.io/gorm/logger"
  "github.com/stakequest/stakequest-backend/internal/logger"
  "github.com/stakequest/stakequest-backend/internal/repos"
  "github.com/stakequest/stakequest-backend/internal/requestdata"
  "github.com/stakequest/stakequest-backend/internal/types"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
  t.Helper()
  dsn := fmt.Sprintf("file:questtest%d?mode=memory&cache=shared", testDBSeq.Add(1))
  db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
    Logger: gormlogger.Default.LogMode(gormlogger.Silent),
  })
  if err != nil {
    t.Fatalf("open sqlite: %v", err)
  }
  if err := db.AutoMigrate(
    &types.User{},
    &types.UserToken{},
    &types.Quest{},
    &types.DailyLog{},
    &types.PoolAccount{},
    &types.Position{},
    &types.YieldPoolStats{},
    &types.TokenTransfer{},
  ); err != nil {
    t.Fatalf("automigrate: %v", err)
  }
  return db
}

func newTestLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger.New: %v", err)
  }
  t.Cleanup(func() { log.Sync() })
  return log
}

type questEnv struct {
  t         *testing.T
  db        *gorm.DB
  quests    *questService
  yield     *yieldService
  payments  PaymentService
  pools     repos.PoolRepo
  userID    uuid.UUID
  ctx       context.Context
  start     time.Time
}

func newQuestEnv(t *testing.T) *questEnv {
  t.Helper()
  db := newTestDB(t)
  log := newTestLogger(t)

  poolRepo := repos.NewPoolRepo(db, log)
  statsRepo := repos.NewYieldStatsRepo(db, log)
  if err := poolRepo.EnsureAccounts(context.Background(), nil); err != nil {
    t.Fatalf("seed pool accounts: %v", err)
  }
  if err := statsRepo.Ensure(context.Background(), nil, DefaultAPYBp); err != nil {
    t.Fatalf("seed yield stats: %v", err)
  }

  yield := NewYieldService(db, log, repos.NewPositionRepo(db, log), statsRepo, nil).(*yieldService)
  payments := NewPaymentService(db, log, repos.NewTransferRepo(db, log))
  quests := NewQuestService(db, log, repos.NewQuestRepo(db, log), repos.NewDailyLogRepo(db, log), poolRepo, yield, payments, NoopEventPublisher{}).(*questService)

  userID := uuid.New()
  env := &questEnv{
    t:        t,
    db:       db,
    quests:   quests,
    yield:    yield,
    payments: payments,
    pools:    poolRepo,
    userID:   userID,
    ctx: requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
      UserID: userID,
      Role:   types.RoleUser,
    }),
    start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
  }
  env.setNow(env.start)
  return env
}

func (e *questEnv) setNow(at time.Time) {
  e.quests.now = func() time.Time { return at }
  e.yield.now = e.quests.now
}

func (e *questEnv) adminCtx() context.Context {
  return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
    UserID: uuid.New(),
    Role:   types.RoleAdmin,
  })
}

func (e *questEnv) createQuest(dailyTarget, durationDays, graceDays int) *types.Quest {
  e.t.Helper()
  quest, err := e.quests.CreateQuest(e.ctx, types.QuestJobApplications, dailyTarget, durationDays, graceDays)
  if err != nil {
    e.t.Fatalf("CreateQuest: %v", err)
  }
  return quest
}

// logDay advances the clock to the given 0-based day and records one log.
func (e *questEnv) logDay(questID int64, day, count int) bool {
  e.t.Helper()
  e.setNow(e.start.Add(time.Duration(day) * 24 * time.Hour))
  met, err := e.quests.LogActivity(e.ctx, questID, count, "")
  if err != nil {
    e.t.Fatalf("LogActivity day %d: %v", day, err)
  }
  return met
}

func (e *questEnv) poolBalance(name string) int64 {
  e.t.Helper()
  acct, err := e.pools.Get(context.Background(), nil, name)
  if err != nil {
    e.t.Fatalf("pool %q: %v", name, err)
  }
  return acct.Balance
}

func TestCreateQuestStakesByDuration(t *testing.T) {
  cases := []struct {
    durationDays int
    wantStake    int64
  }{
    {7, 10_000_000},
    {14, 20_000_000},
    {30, 50_000_000},
    {90, 100_000_000},
  }
  for _, tc := range cases {
    t.Run(fmt.Sprintf("%dd", tc.durationDays), func(t *testing.T) {
      env := newQuestEnv(t)

      quest := env.createQuest(3, tc.durationDays, 1)
      if quest.StakeAmount != tc.wantStake {
        t.Fatalf("stake: want=%d got=%d", tc.wantStake, quest.StakeAmount)
      }
      if quest.Status != types.QuestActive {
        t.Fatalf("status: want=%s got=%s", types.QuestActive, quest.Status)
      }
      wantEnd := env.start.Add(time.Duration(tc.durationDays) * 24 * time.Hour)
      if !quest.EndTime.Equal(wantEnd) {
        t.Fatalf("end time: want=%s got=%s", wantEnd, quest.EndTime)
      }
      if quest.PositionID == nil {
        t.Fatalf("expected a yield position to be opened")
      }
      if got := env.poolBalance(types.PoolYield); got != tc.wantStake {
        t.Fatalf("yield pool: want=%d got=%d", tc.wantStake, got)
      }

      transfers, err := env.payments.ListQuestTransfers(env.ctx, quest.ID)
      if err != nil {
        t.Fatalf("ListQuestTransfers: %v", err)
      }
      if len(transfers) != 1 || transfers[0].Kind != types.TransferStakeCollect {
        t.Fatalf("expected one scheduled stake collection, got %+v", transfers)
      }
      if transfers[0].Amount != tc.wantStake {
        t.Fatalf("stake transfer amount: want=%d got=%d", tc.wantStake, transfers[0].Amount)
      }
    })
  }
}

func TestCreateQuestRejectsInvalidParameters(t *testing.T) {
  env := newQuestEnv(t)

  cases := []struct {
    name         string
    category     types.QuestCategory
    dailyTarget  int
    durationDays int
    graceDays    int
  }{
    {"unknown category", "couch_surfing", 3, 7, 1},
    {"target too low", types.QuestNetworking, 0, 7, 1},
    {"target too high", types.QuestNetworking, 11, 7, 1},
    {"unsupported duration", types.QuestNetworking, 3, 10, 1},
    {"negative grace", types.QuestNetworking, 3, 7, -1},
    {"grace too high", types.QuestNetworking, 3, 7, 4},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      _, err := env.quests.CreateQuest(env.ctx, tc.category, tc.dailyTarget, tc.durationDays, tc.graceDays)
      if !errors.Is(err, types.ErrInvalidParameter) {
        t.Fatalf("want ErrInvalidParameter, got %v", err)
      }
    })
  }

  // Rejected creations must leave the pools untouched.
  if got := env.poolBalance(types.PoolYield); got != 0 {
    t.Fatalf("yield pool after rejections: want=0 got=%d", got)
  }

  if _, err := env.quests.CreateQuest(context.Background(), types.QuestNetworking, 3, 7, 1); !errors.Is(err, types.ErrUnauthorized) {
    t.Fatalf("want ErrUnauthorized without caller identity, got %v", err)
  }
}

func TestLogActivityProgressAndDoubleLog(t *testing.T) {
  env := newQuestEnv(t)
  quest := env.createQuest(3, 7, 1)

  if met := env.logDay(quest.ID, 0, 5); !met {
    t.Fatalf("expected daily target met with 5 >= 3")
  }
  _, err := env.quests.LogActivity(env.ctx, quest.ID, 5, "")
  if !errors.Is(err, types.ErrAlreadyLogged) {
    t.Fatalf("want ErrAlreadyLogged on second log for day 0, got %v", err)
  }

  // Below-target logs are recorded but do not advance progress.
  if met := env.logDay(quest.ID, 1, 2); met {
    t.Fatalf("expected daily target missed with 2 < 3")
  }

  got, err := env.quests.GetQuest(env.ctx, quest.ID)
  if err != nil {
    t.Fatalf("GetQuest: %v", err)
  }
  if got.DaysCompleted != 1 {
    t.Fatalf("days completed: want=1 got=%d", got.DaysCompleted)
  }

  entry, err := env.quests.GetDailyLog(env.ctx, quest.ID, 1)
  if err != nil {
    t.Fatalf("GetDailyLog: %v", err)
  }
  if entry == nil || entry.ActivitiesLogged != 2 {
    t.Fatalf("day 1 log: want 2 activities, got %+v", entry)
  }
}

func TestLogActivityOutsideWindow(t *testing.T) {
  env := newQuestEnv(t)
  quest := env.createQuest(3, 7, 1)

  env.setNow(env.start.Add(7 * 24 * time.Hour))
  _, err := env.quests.LogActivity(env.ctx, quest.ID, 5, "")
  if !errors.Is(err, types.ErrQuestExpired) {
    t.Fatalf("want ErrQuestExpired on day 7 of a 7-day quest, got %v", err)
  }
}

func TestLogActivityWrongUser(t *testing.T) {
  env := newQuestEnv(t)
  quest := env.createQuest(3, 7, 1)

  strangerCtx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
    UserID: uuid.New(),
    Role:   types.RoleUser,
  })
  _, err := env.quests.LogActivity(strangerCtx, quest.ID, 5, "")
  if !errors.Is(err, types.ErrUnauthorized) {
    t.Fatalf("want ErrUnauthorized for another user's quest, got %v", err)
  }
}

func TestLogActivityUnknownQuest(t *testing.T) {
  env := newQuestEnv(t)
  _, err := env.quests.LogActivity(env.ctx, 9999, 5, "")
  if !errors.Is(err, types.ErrQuestNotFound) {
    t.Fatalf("want ErrQuestNotFound, got %v", err)
  }
}

func TestCompleteQuestBeforeEnd(t *testing.T) {
  env := newQuestEnv(t)
  quest := env.createQuest(3, 7, 1)

  env.setNow(env.start.Add(6 * 24 * time.Hour))
  _, err := env.quests.CompleteQuest(env.ctx, quest.ID)
  if !errors.Is(err, types.ErrQuestNotFinished) {
    t.Fatalf("want ErrQuestNotFinished before the end time, got %v", err)
  }
}

func TestCompleteQuestSuccessWithinGrace(t *testing.T) {
  env := newQuestEnv(t)
  quest := env.createQuest(3, 7, 2)

  // 5 of 7 days met; 2 missed days are exactly covered by the grace allowance.
  for day := 0; day < 5; day++ {
    env.logDay(quest.ID, day, 3)
  }

  env.setNow(env.start.Add(7 * 24 * time.Hour))
  settled, err := env.quests.CompleteQuest(env.ctx, quest.ID)
  if err != nil {
    t.Fatalf("CompleteQuest: %v", err)
  }
  if settled.Status != types.QuestCompleted {
    t.Fatalf("status: want=%s got=%s", types.QuestCompleted, settled.Status)
  }
  if settled.GraceDaysUsed != 2 {
    t.Fatalf("grace days used: want=2 got=%d", settled.GraceDaysUsed)
  }

  // 5% flat APY truncates to 1 bp/day: 10_000_000 * 1 * 7 / 10000.
  const wantYield = 7000
  if settled.YieldAccrued != wantYield {
    t.Fatalf("yield accrued: want=%d got=%d", wantYield, settled.YieldAccrued)
  }

  if got := env.poolBalance(types.PoolYield); got != -wantYield {
    t.Fatalf("yield pool: want=%d got=%d", -wantYield, got)
  }
  if got := env.poolBalance(types.PoolCommunity); got != 0 {
    t.Fatalf("community pool: want=0 got=%d", got)
  }

  transfers, err := env.payments.ListQuestTransfers(env.ctx, quest.ID)
  if err != nil {
    t.Fatalf("ListQuestTransfers: %v", err)
  }
  var payout *types.TokenTransfer
  for _, tr := range transfers {
    if tr.Kind == types.TransferPayout {
      payout = tr
    }
  }
  if payout == nil {
    t.Fatalf("expected a scheduled payout transfer")
  }
  if payout.Amount != quest.StakeAmount+wantYield {
    t.Fatalf("payout amount: want=%d got=%d", quest.StakeAmount+wantYield, payout.Amount)
  }

  var position types.Position
  if err := env.db.First(&position, *quest.PositionID).Error; err != nil {
    t.Fatalf("load position: %v", err)
  }
  if position.Active {
    t.Fatalf("expected the yield position to be closed at settlement")
  }
}

func TestCompleteQuestFailureForfeitsStake(t *testing.T) {
  env := newQuestEnv(t)
  quest := env.createQuest(3, 7, 0)

  env.setNow(env.start.Add(7 * 24 * time.Hour))
  settled, err := env.quests.CompleteQuest(env.ctx, quest.ID)
  if err != nil {
    t.Fatalf("CompleteQuest: %v", err)
  }
  if settled.Status != types.QuestFailed {
    t.Fatalf("status: want=%s got=%s", types.QuestFailed, settled.Status)
  }

  if got := env.poolBalance(types.PoolYield); got != 0 {
    t.Fatalf("yield pool: want=0 got=%d", got)
  }
  if got := env.poolBalance(types.PoolCommunity); got != quest.StakeAmount {
    t.Fatalf("community pool: want=%d got=%d", quest.StakeAmount, got)
  }

  transfers, err := env.payments.ListQuestTransfers(env.ctx, quest.ID)
  if err != nil {
    t.Fatalf("ListQuestTransfers: %v", err)
  }
  for _, tr := range transfers {
    if tr.Kind == types.TransferPayout {
      t.Fatalf("failed quest must not schedule a payout")
    }
  }
}

func TestCompleteQuestGraceBoundary(t *testing.T) {
  env := newQuestEnv(t)

  // One missed day more than the grace allowance fails the quest.
  quest := env.createQuest(1, 7, 2)
  for day := 0; day < 4; day++ {
    env.logDay(quest.ID, day, 1)
  }
  env.setNow(env.start.Add(7 * 24 * time.Hour))
  settled, err := env.quests.CompleteQuest(env.ctx, quest.ID)
  if err != nil {
    t.Fatalf("CompleteQuest: %v", err)
  }
  if settled.Status != types.QuestFailed {
    t.Fatalf("3 missed days against 2 grace days: want=%s got=%s", types.QuestFailed, settled.Status)
  }
}

func TestCompleteQuestExactlyOnce(t *testing.T) {
  env := newQuestEnv(t)
  quest := env.createQuest(3, 7, 0)

  env.setNow(env.start.Add(7 * 24 * time.Hour))
  if _, err := env.quests.CompleteQuest(env.ctx, quest.ID); err != nil {
    t.Fatalf("CompleteQuest: %v", err)
  }
  _, err := env.quests.CompleteQuest(env.ctx, quest.ID)
  if !errors.Is(err, types.ErrQuestNotActive) {
    t.Fatalf("want ErrQuestNotActive on repeated settlement, got %v", err)
  }

  // The second attempt must not move any balance.
  if got := env.poolBalance(types.PoolCommunity); got != quest.StakeAmount {
    t.Fatalf("community pool after retry: want=%d got=%d", quest.StakeAmount, got)
  }
}

func TestCompleteQuestCommunityBonus(t *testing.T) {
  env := newQuestEnv(t)

  // A forfeited stake funds the community pool first.
  failed := env.createQuest(3, 7, 0)
  env.setNow(env.start.Add(7 * 24 * time.Hour))
  if _, err := env.quests.CompleteQuest(env.ctx, failed.ID); err != nil {
    t.Fatalf("CompleteQuest (failure): %v", err)
  }
  community := env.poolBalance(types.PoolCommunity)
  if community != failed.StakeAmount {
    t.Fatalf("community pool seed: want=%d got=%d", failed.StakeAmount, community)
  }

  env.start = env.start.Add(7 * 24 * time.Hour)
  env.setNow(env.start)
  winner := env.createQuest(1, 7, 3)
  for day := 0; day < 7; day++ {
    env.logDay(winner.ID, day, 1)
  }
  env.setNow(env.start.Add(7 * 24 * time.Hour))
  settled, err := env.quests.CompleteQuest(env.ctx, winner.ID)
  if err != nil {
    t.Fatalf("CompleteQuest (success): %v", err)
  }
  if settled.Status != types.QuestCompleted {
    t.Fatalf("status: want=%s got=%s", types.QuestCompleted, settled.Status)
  }

  bonus := community / 100
  if got := env.poolBalance(types.PoolCommunity); got != community-bonus {
    t.Fatalf("community pool after bonus: want=%d got=%d", community-bonus, got)
  }

  transfers, err := env.payments.ListQuestTransfers(env.ctx, winner.ID)
  if err != nil {
    t.Fatalf("ListQuestTransfers: %v", err)
  }
  var payout *types.TokenTransfer
  for _, tr := range transfers {
    if tr.Kind == types.TransferPayout {
      payout = tr
    }
  }
  if payout == nil {
    t.Fatalf("expected a scheduled payout transfer")
  }
  wantPayout := winner.StakeAmount + settled.YieldAccrued + bonus
  if payout.Amount != wantPayout {
    t.Fatalf("payout amount: want=%d got=%d", wantPayout, payout.Amount)
  }
}

func TestCancelQuestRequiresAdmin(t *testing.T) {
  env := newQuestEnv(t)
  quest := env.createQuest(3, 7, 1)

  if _, err := env.quests.CancelQuest(env.ctx, quest.ID); !errors.Is(err, types.ErrUnauthorized) {
    t.Fatalf("want ErrUnauthorized for non-admin cancel, got %v", err)
  }

  cancelled, err := env.quests.CancelQuest(env.adminCtx(), quest.ID)
  if err != nil {
    t.Fatalf("CancelQuest as admin: %v", err)
  }
  if cancelled.Status != types.QuestCancelled {
    t.Fatalf("status: want=%s got=%s", types.QuestCancelled, cancelled.Status)
  }
  if got := env.poolBalance(types.PoolYield); got != 0 {
    t.Fatalf("yield pool after refund: want=0 got=%d", got)
  }

  transfers, err := env.payments.ListQuestTransfers(env.ctx, quest.ID)
  if err != nil {
    t.Fatalf("ListQuestTransfers: %v", err)
  }
  var refund *types.TokenTransfer
  for _, tr := range transfers {
    if tr.Kind == types.TransferRefund {
      refund = tr
    }
  }
  if refund == nil || refund.Amount != quest.StakeAmount {
    t.Fatalf("expected a full stake refund, got %+v", refund)
  }

  if _, err := env.quests.CancelQuest(env.adminCtx(), quest.ID); !errors.Is(err, types.ErrQuestNotActive) {
    t.Fatalf("want ErrQuestNotActive on repeated cancel, got %v", err)
  }
}

func TestGetUserQuestsDefaultsToCaller(t *testing.T) {
  env := newQuestEnv(t)
  env.createQuest(3, 7, 1)
  env.createQuest(3, 14, 1)

  quests, err := env.quests.GetUserQuests(env.ctx, uuid.Nil)
  if err != nil {
    t.Fatalf("GetUserQuests: %v", err)
  }
  if len(quests) != 2 {
    t.Fatalf("quests: want=2 got=%d", len(quests))
  }
  for _, q := range quests {
    if q.UserID != env.userID {
      t.Fatalf("quest %d belongs to %s, want %s", q.ID, q.UserID, env.userID)
    }
  }
}

func TestGetQuestLogsListsEntries(t *testing.T) {
  env := newQuestEnv(t)
  quest := env.createQuest(3, 7, 1)

  env.logDay(quest.ID, 0, 3)
  env.logDay(quest.ID, 1, 1)
  env.logDay(quest.ID, 2, 4)

  logs, err := env.quests.GetQuestLogs(env.ctx, quest.ID)
  if err != nil {
    t.Fatalf("GetQuestLogs: %v", err)
  }
  if len(logs) != 3 {
    t.Fatalf("logs: want=3 got=%d", len(logs))
  }
  for i, entry := range logs {
    if entry.DayIndex != i {
      t.Fatalf("log order: want day %d at index %d, got %d", i, i, entry.DayIndex)
    }
  }

  if _, err := env.quests.GetQuestLogs(env.ctx, 424242); !errors.Is(err, types.ErrQuestNotFound) {
    t.Fatalf("want ErrQuestNotFound, got %v", err)
  }
}

func TestGetQuestNotFound(t *testing.T) {
  env := newQuestEnv(t)
  _, err := env.quests.GetQuest(env.ctx, 424242)
  if !errors.Is(err, types.ErrQuestNotFound) {
    t.Fatalf("want ErrQuestNotFound, got %v", err)
  }
}

func TestSettlementYieldShare(t *testing.T) {
  cases := []struct {
    durationDays int
    stake        int64
    want         int64
  }{
    {7, 10_000_000, 7_000},
    {14, 20_000_000, 28_000},
    {30, 50_000_000, 150_000},
    {90, 100_000_000, 900_000},
  }
  for _, tc := range cases {
    if got := settlementYieldShare(tc.stake, tc.durationDays); got != tc.want {
      t.Fatalf("settlementYieldShare(%d, %d): want=%d got=%d", tc.stake, tc.durationDays, tc.want, got)
    }
  }
}
