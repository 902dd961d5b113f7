package services

import (
  "context"
  "encoding/json"
  "fmt"
  "os"
  "strings"
  "time"
  goredis "github.com/redis/go-redis/v9"
  "github.com/google/uuid"
  "github.com/stakequest/stakequest-backend/internal/logger"
  "github.com/stakequest/stakequest-backend/internal/types"
)

const (
  EventQuestCreated   = "quest.created"
  EventQuestCompleted = "quest.completed"
  EventQuestFailed    = "quest.failed"
  EventQuestCancelled = "quest.cancelled"
)

// QuestEvent is the message consumed by downstream collaborators (badge
// issuance, notifications). The core only publishes; it never waits on
// consumers.
type QuestEvent struct {
  Type      string            `json:"type"`
  QuestID   int64             `json:"quest_id"`
  UserID    uuid.UUID         `json:"user_id"`
  Status    types.QuestStatus `json:"status"`
  Amount    int64             `json:"amount,omitempty"`
  Timestamp time.Time         `json:"timestamp"`
}

type EventPublisher interface {
  PublishQuestEvent(ctx context.Context, event QuestEvent) error
  Close() error
}

type redisEventPublisher struct {
  log     *logger.Logger
  rdb     *goredis.Client
  channel string
}

func NewRedisEventPublisher(log *logger.Logger) (EventPublisher, error) {
  if log == nil {
    return nil, fmt.Errorf("logger required")
  }

  addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
  if addr == "" {
    return nil, fmt.Errorf("missing REDIS_ADDR")
  }
  ch := strings.TrimSpace(os.Getenv("QUEST_EVENTS_CHANNEL"))
  if ch == "" {
    ch = "quest.events"
  }

  rdb := goredis.NewClient(&goredis.Options{
    Addr:        addr,
    DialTimeout: 5 * time.Second,
  })

  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    _ = rdb.Close()
    return nil, fmt.Errorf("redis ping: %w", err)
  }

  return &redisEventPublisher{
    log:     log.With("service", "RedisEventPublisher"),
    rdb:     rdb,
    channel: ch,
  }, nil
}

func (p *redisEventPublisher) PublishQuestEvent(ctx context.Context, event QuestEvent) error {
  if p == nil || p.rdb == nil {
    return fmt.Errorf("event publisher not initialized")
  }
  raw, err := json.Marshal(event)
  if err != nil {
    return fmt.Errorf("marshal quest event: %w", err)
  }
  if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
    return fmt.Errorf("publish quest event: %w", err)
  }
  return nil
}

func (p *redisEventPublisher) Close() error {
  if p == nil || p.rdb == nil {
    return nil
  }
  return p.rdb.Close()
}

// NoopEventPublisher keeps the core functional when Redis is not configured
// (local development, tests).
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishQuestEvent(ctx context.Context, event QuestEvent) error { return nil }
func (NoopEventPublisher) Close() error                                                  { return nil }
