package services

import (
  "context"
  "encoding/json"
  "fmt"
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/stakequest/stakequest-backend/internal/logger"
  "github.com/stakequest/stakequest-backend/internal/repos"
  "github.com/stakequest/stakequest-backend/internal/types"
)

// PaymentService records value movements for the external payment rail.
// Nothing here moves tokens; rows in token_transfers are the contract between
// the accounting core and the rail executor.
type PaymentService interface {
  ScheduleStakeCollection(ctx context.Context, tx *gorm.DB, quest *types.Quest) (*types.TokenTransfer, error)
  SchedulePayout(ctx context.Context, tx *gorm.DB, quest *types.Quest, amount int64) (*types.TokenTransfer, error)
  ScheduleRefund(ctx context.Context, tx *gorm.DB, quest *types.Quest) (*types.TokenTransfer, error)
  ListQuestTransfers(ctx context.Context, questID int64) ([]*types.TokenTransfer, error)
}

type paymentService struct {
  db           *gorm.DB
  log          *logger.Logger
  transferRepo repos.TransferRepo
  now          func() time.Time
}

func NewPaymentService(db *gorm.DB, log *logger.Logger, transferRepo repos.TransferRepo) PaymentService {
  serviceLog := log.With("service", "PaymentService")
  return &paymentService{
    db:           db,
    log:          serviceLog,
    transferRepo: transferRepo,
    now:          time.Now,
  }
}

func (ps *paymentService) ScheduleStakeCollection(ctx context.Context, tx *gorm.DB, quest *types.Quest) (*types.TokenTransfer, error) {
  return ps.schedule(ctx, tx, quest, types.TransferStakeCollect, quest.StakeAmount)
}

func (ps *paymentService) SchedulePayout(ctx context.Context, tx *gorm.DB, quest *types.Quest, amount int64) (*types.TokenTransfer, error) {
  return ps.schedule(ctx, tx, quest, types.TransferPayout, amount)
}

func (ps *paymentService) ScheduleRefund(ctx context.Context, tx *gorm.DB, quest *types.Quest) (*types.TokenTransfer, error) {
  return ps.schedule(ctx, tx, quest, types.TransferRefund, quest.StakeAmount)
}

func (ps *paymentService) ListQuestTransfers(ctx context.Context, questID int64) ([]*types.TokenTransfer, error) {
  return ps.transferRepo.ListByQuest(ctx, nil, questID)
}

func (ps *paymentService) schedule(ctx context.Context, tx *gorm.DB, quest *types.Quest, kind string, amount int64) (*types.TokenTransfer, error) {
  if quest == nil {
    return nil, fmt.Errorf("%w: quest required", types.ErrInvalidParameter)
  }
  if amount <= 0 {
    return nil, fmt.Errorf("%w: transfer amount must be positive", types.ErrInvalidParameter)
  }

  meta, err := json.Marshal(map[string]interface{}{
    "category":      quest.Category,
    "duration_days": quest.DurationDays,
  })
  if err != nil {
    return nil, fmt.Errorf("marshal transfer metadata: %w", err)
  }

  transfer := &types.TokenTransfer{
    ID:        uuid.New(),
    QuestID:   quest.ID,
    UserID:    quest.UserID,
    Kind:      kind,
    Amount:    amount,
    Status:    types.TransferScheduled,
    Metadata:  datatypes.JSON(meta),
    CreatedAt: ps.now(),
  }
  if _, err := ps.transferRepo.Create(ctx, tx, transfer); err != nil {
    return nil, fmt.Errorf("schedule %s transfer: %w", kind, err)
  }
  ps.log.Debug("Scheduled transfer", "kind", kind, "quest_id", quest.ID, "amount", amount)
  return transfer, nil
}
