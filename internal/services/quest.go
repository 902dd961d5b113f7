package services

import (
  "context"
  "fmt"
  "sync"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/stakequest/stakequest-backend/internal/logger"
  "github.com/stakequest/stakequest-backend/internal/repos"
  "github.com/stakequest/stakequest-backend/internal/requestdata"
  "github.com/stakequest/stakequest-backend/internal/types"
)

// Flat APY assumed by quest settlement, in percent. Deliberately independent
// from the yield manager's configurable APY; see DESIGN.md.
const settlementAPYPercent = 5

// settlementYieldShare prorates the flat settlement APY over the quest
// duration. The integer division truncates 5*100/365 to 1 basis point per
// day, matching the historical payout arithmetic exactly.
func settlementYieldShare(stakeAmount int64, durationDays int) int64 {
  dailyRateBp := int64(settlementAPYPercent) * 100 / 365
  return stakeAmount * dailyRateBp * int64(durationDays) / 10000
}

// QuestService owns the quest lifecycle: creation, daily logging and
// settlement. Every mutating operation is one exclusive transaction spanning
// the quest row, its daily logs, both pool balances and the yield position,
// so a failed precondition never leaves partial state.
type QuestService interface {
  CreateQuest(ctx context.Context, category types.QuestCategory, dailyTarget, durationDays, graceDays int) (*types.Quest, error)
  LogActivity(ctx context.Context, questID int64, activitiesCount int, verificationRef string) (bool, error)
  CompleteQuest(ctx context.Context, questID int64) (*types.Quest, error)
  CancelQuest(ctx context.Context, questID int64) (*types.Quest, error)
  GetQuest(ctx context.Context, questID int64) (*types.Quest, error)
  GetUserQuests(ctx context.Context, userID uuid.UUID) ([]*types.Quest, error)
  GetDailyLog(ctx context.Context, questID int64, dayIndex int) (*types.DailyLog, error)
  GetQuestLogs(ctx context.Context, questID int64) ([]*types.DailyLog, error)
  GetPoolStats(ctx context.Context) (*types.PoolStats, error)
}

type questService struct {
  db             *gorm.DB
  log            *logger.Logger
  questRepo      repos.QuestRepo
  dailyLogRepo   repos.DailyLogRepo
  poolRepo       repos.PoolRepo
  yieldService   YieldService
  paymentService PaymentService
  events         EventPublisher
  now            func() time.Time

  // Single-writer critical section: pool balances are the only cross-quest
  // shared state and must not see interleaved read-modify-write cycles.
  mu sync.Mutex
}

func NewQuestService(
  db *gorm.DB,
  log *logger.Logger,
  questRepo repos.QuestRepo,
  dailyLogRepo repos.DailyLogRepo,
  poolRepo repos.PoolRepo,
  yieldService YieldService,
  paymentService PaymentService,
  events EventPublisher,
) QuestService {
  serviceLog := log.With("service", "QuestService")
  if events == nil {
    events = NoopEventPublisher{}
  }
  return &questService{
    db:             db,
    log:            serviceLog,
    questRepo:      questRepo,
    dailyLogRepo:   dailyLogRepo,
    poolRepo:       poolRepo,
    yieldService:   yieldService,
    paymentService: paymentService,
    events:         events,
    now:            time.Now,
  }
}

func (qs *questService) CreateQuest(ctx context.Context, category types.QuestCategory, dailyTarget, durationDays, graceDays int) (*types.Quest, error) {
  rd, err := requireUser(ctx)
  if err != nil {
    return nil, err
  }

  if !category.Valid() {
    return nil, fmt.Errorf("%w: unknown quest category %q", types.ErrInvalidParameter, category)
  }
  if dailyTarget < types.MinDailyTarget || dailyTarget > types.MaxDailyTarget {
    return nil, fmt.Errorf("%w: daily target must be between %d and %d", types.ErrInvalidParameter, types.MinDailyTarget, types.MaxDailyTarget)
  }
  stakeAmount, ok := types.StakeAmounts[durationDays]
  if !ok {
    return nil, fmt.Errorf("%w: duration must be 7, 14, 30 or 90 days", types.ErrInvalidParameter)
  }
  if graceDays < 0 || graceDays > types.MaxGraceDays {
    return nil, fmt.Errorf("%w: at most %d grace days allowed", types.ErrInvalidParameter, types.MaxGraceDays)
  }

  qs.mu.Lock()
  defer qs.mu.Unlock()

  now := qs.now()
  quest := &types.Quest{
    UserID:       rd.UserID,
    Category:     category,
    DailyTarget:  dailyTarget,
    DurationDays: durationDays,
    StakeAmount:  stakeAmount,
    GraceDays:    graceDays,
    StartTime:    now,
    EndTime:      now.Add(time.Duration(durationDays) * types.SecondsPerDay * time.Second),
    Status:       types.QuestActive,
  }

  err = qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := qs.questRepo.Create(ctx, tx, quest); err != nil {
      return fmt.Errorf("create quest: %w", err)
    }
    // The stake is committed to the yield pool as if the rail transfer had
    // already happened; reconciliation against the actual transfer is the
    // rail executor's job.
    if err := qs.poolRepo.Credit(ctx, tx, types.PoolYield, stakeAmount); err != nil {
      return fmt.Errorf("credit yield pool: %w", err)
    }
    positionID, err := qs.yieldService.Deposit(ctx, tx, stakeAmount)
    if err != nil {
      return fmt.Errorf("open yield position: %w", err)
    }
    quest.PositionID = &positionID
    if err := qs.questRepo.Save(ctx, tx, quest); err != nil {
      return fmt.Errorf("attach position to quest: %w", err)
    }
    if _, err := qs.paymentService.ScheduleStakeCollection(ctx, tx, quest); err != nil {
      return err
    }
    return nil
  })
  if err != nil {
    return nil, err
  }

  qs.log.Info("Quest created", "quest_id", quest.ID, "user_id", quest.UserID, "duration_days", durationDays, "stake_amount", stakeAmount)
  qs.publish(ctx, EventQuestCreated, quest, stakeAmount)
  return quest, nil
}

func (qs *questService) LogActivity(ctx context.Context, questID int64, activitiesCount int, verificationRef string) (bool, error) {
  rd, err := requireUser(ctx)
  if err != nil {
    return false, err
  }
  if activitiesCount < 0 {
    return false, fmt.Errorf("%w: activities count must be non-negative", types.ErrInvalidParameter)
  }

  qs.mu.Lock()
  defer qs.mu.Unlock()

  targetMet := false
  err = qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    quest, err := qs.questRepo.GetByID(ctx, tx, questID)
    if err != nil {
      return err
    }
    if quest.UserID != rd.UserID {
      return fmt.Errorf("%w: quest %d belongs to another user", types.ErrUnauthorized, questID)
    }
    if quest.Status != types.QuestActive {
      return fmt.Errorf("%w: quest %d is %s", types.ErrQuestNotActive, questID, quest.Status)
    }

    now := qs.now()
    dayIndex := quest.ElapsedDays(now)
    if dayIndex >= quest.DurationDays {
      return fmt.Errorf("%w: day %d is past the %d-day window", types.ErrQuestExpired, dayIndex, quest.DurationDays)
    }
    exists, err := qs.dailyLogRepo.Exists(ctx, tx, questID, dayIndex)
    if err != nil {
      return fmt.Errorf("check daily log: %w", err)
    }
    if exists {
      return fmt.Errorf("%w: quest %d day %d", types.ErrAlreadyLogged, questID, dayIndex)
    }

    entry := &types.DailyLog{
      QuestID:          questID,
      DayIndex:         dayIndex,
      ActivitiesLogged: activitiesCount,
      VerificationRef:  verificationRef,
      LoggedAt:         now,
    }
    if _, err := qs.dailyLogRepo.Create(ctx, tx, entry); err != nil {
      return fmt.Errorf("create daily log: %w", err)
    }

    targetMet = activitiesCount >= quest.DailyTarget
    if targetMet {
      quest.DaysCompleted++
      if err := qs.questRepo.Save(ctx, tx, quest); err != nil {
        return fmt.Errorf("update quest progress: %w", err)
      }
    }
    return nil
  })
  if err != nil {
    return false, err
  }
  return targetMet, nil
}

func (qs *questService) CompleteQuest(ctx context.Context, questID int64) (*types.Quest, error) {
  rd, err := requireUser(ctx)
  if err != nil {
    return nil, err
  }

  qs.mu.Lock()
  defer qs.mu.Unlock()

  var settled *types.Quest
  var payout int64
  err = qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    quest, err := qs.questRepo.GetByID(ctx, tx, questID)
    if err != nil {
      return err
    }
    if quest.UserID != rd.UserID && rd.Role != types.RoleAdmin {
      return fmt.Errorf("%w: quest %d belongs to another user", types.ErrUnauthorized, questID)
    }
    if quest.Status != types.QuestActive {
      return fmt.Errorf("%w: quest %d is %s", types.ErrQuestNotActive, questID, quest.Status)
    }
    now := qs.now()
    if now.Before(quest.EndTime) {
      return fmt.Errorf("%w: quest %d ends at %s", types.ErrQuestNotFinished, questID, quest.EndTime.UTC().Format(time.RFC3339))
    }

    missedDays := quest.DurationDays - quest.DaysCompleted

    if missedDays <= quest.GraceDays {
      quest.Status = types.QuestCompleted
      quest.GraceDaysUsed = missedDays
      yieldShare := settlementYieldShare(quest.StakeAmount, quest.DurationDays)
      quest.YieldAccrued = yieldShare

      // 1% of the community pool per successful settlement, independent of
      // stake size.
      community, err := qs.poolRepo.Get(ctx, tx, types.PoolCommunity)
      if err != nil {
        return fmt.Errorf("read community pool: %w", err)
      }
      var bonus int64
      if community.Balance > 0 {
        bonus = community.Balance / 100
      }

      if err := qs.poolRepo.Debit(ctx, tx, types.PoolYield, quest.StakeAmount+yieldShare); err != nil {
        return fmt.Errorf("debit yield pool: %w", err)
      }
      if bonus > 0 {
        if err := qs.poolRepo.Debit(ctx, tx, types.PoolCommunity, bonus); err != nil {
          return fmt.Errorf("debit community pool: %w", err)
        }
      }

      payout = quest.StakeAmount + yieldShare + bonus
      if _, err := qs.paymentService.SchedulePayout(ctx, tx, quest, payout); err != nil {
        return err
      }
    } else {
      quest.Status = types.QuestFailed
      if err := qs.poolRepo.Debit(ctx, tx, types.PoolYield, quest.StakeAmount); err != nil {
        return fmt.Errorf("debit yield pool: %w", err)
      }
      if err := qs.poolRepo.Credit(ctx, tx, types.PoolCommunity, quest.StakeAmount); err != nil {
        return fmt.Errorf("credit community pool: %w", err)
      }
    }

    if quest.PositionID != nil {
      if _, _, err := qs.yieldService.Withdraw(ctx, tx, *quest.PositionID); err != nil {
        return fmt.Errorf("withdraw yield position: %w", err)
      }
    }

    if err := qs.questRepo.Save(ctx, tx, quest); err != nil {
      return fmt.Errorf("save settled quest: %w", err)
    }
    settled = quest
    return nil
  })
  if err != nil {
    return nil, err
  }

  if settled.Status == types.QuestCompleted {
    qs.log.Info("Quest completed", "quest_id", settled.ID, "payout", payout, "yield_accrued", settled.YieldAccrued)
    qs.publish(ctx, EventQuestCompleted, settled, payout)
  } else {
    qs.log.Info("Quest failed", "quest_id", settled.ID, "forfeited", settled.StakeAmount)
    qs.publish(ctx, EventQuestFailed, settled, settled.StakeAmount)
  }
  return settled, nil
}

func (qs *questService) CancelQuest(ctx context.Context, questID int64) (*types.Quest, error) {
  rd, err := requireUser(ctx)
  if err != nil {
    return nil, err
  }
  if rd.Role != types.RoleAdmin {
    return nil, fmt.Errorf("%w: cancellation requires the admin identity", types.ErrUnauthorized)
  }

  qs.mu.Lock()
  defer qs.mu.Unlock()

  var cancelled *types.Quest
  err = qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    quest, err := qs.questRepo.GetByID(ctx, tx, questID)
    if err != nil {
      return err
    }
    if quest.Status != types.QuestActive {
      return fmt.Errorf("%w: quest %d is %s", types.ErrQuestNotActive, questID, quest.Status)
    }

    quest.Status = types.QuestCancelled
    if err := qs.poolRepo.Debit(ctx, tx, types.PoolYield, quest.StakeAmount); err != nil {
      return fmt.Errorf("debit yield pool: %w", err)
    }
    if quest.PositionID != nil {
      if _, _, err := qs.yieldService.Withdraw(ctx, tx, *quest.PositionID); err != nil {
        return fmt.Errorf("withdraw yield position: %w", err)
      }
    }
    if _, err := qs.paymentService.ScheduleRefund(ctx, tx, quest); err != nil {
      return err
    }
    if err := qs.questRepo.Save(ctx, tx, quest); err != nil {
      return fmt.Errorf("save cancelled quest: %w", err)
    }
    cancelled = quest
    return nil
  })
  if err != nil {
    return nil, err
  }

  qs.log.Info("Quest cancelled", "quest_id", cancelled.ID, "refund", cancelled.StakeAmount)
  qs.publish(ctx, EventQuestCancelled, cancelled, cancelled.StakeAmount)
  return cancelled, nil
}

func (qs *questService) GetQuest(ctx context.Context, questID int64) (*types.Quest, error) {
  if _, err := requireUser(ctx); err != nil {
    return nil, err
  }
  return qs.questRepo.GetByID(ctx, nil, questID)
}

func (qs *questService) GetUserQuests(ctx context.Context, userID uuid.UUID) ([]*types.Quest, error) {
  rd, err := requireUser(ctx)
  if err != nil {
    return nil, err
  }
  if userID == uuid.Nil {
    userID = rd.UserID
  }
  return qs.questRepo.GetByUserID(ctx, nil, userID)
}

func (qs *questService) GetDailyLog(ctx context.Context, questID int64, dayIndex int) (*types.DailyLog, error) {
  if _, err := requireUser(ctx); err != nil {
    return nil, err
  }
  return qs.dailyLogRepo.Get(ctx, nil, questID, dayIndex)
}

func (qs *questService) GetQuestLogs(ctx context.Context, questID int64) ([]*types.DailyLog, error) {
  if _, err := requireUser(ctx); err != nil {
    return nil, err
  }
  if _, err := qs.questRepo.GetByID(ctx, nil, questID); err != nil {
    return nil, err
  }
  return qs.dailyLogRepo.ListByQuest(ctx, nil, questID)
}

func (qs *questService) GetPoolStats(ctx context.Context) (*types.PoolStats, error) {
  if _, err := requireUser(ctx); err != nil {
    return nil, err
  }
  return qs.poolRepo.Stats(ctx, nil)
}

func (qs *questService) publish(ctx context.Context, eventType string, quest *types.Quest, amount int64) {
  event := QuestEvent{
    Type:      eventType,
    QuestID:   quest.ID,
    UserID:    quest.UserID,
    Status:    quest.Status,
    Amount:    amount,
    Timestamp: qs.now(),
  }
  if err := qs.events.PublishQuestEvent(ctx, event); err != nil {
    qs.log.Warn("Quest event publish failed", "type", eventType, "quest_id", quest.ID, "error", err)
  }
}

func requireUser(ctx context.Context) (*requestdata.RequestData, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("%w: missing caller identity", types.ErrUnauthorized)
  }
  return rd, nil
}
