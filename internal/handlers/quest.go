package handlers

import (
  "net/http"
  "strconv"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/stakequest/stakequest-backend/internal/services"
  "github.com/stakequest/stakequest-backend/internal/types"
)

type QuestHandler struct {
  questService   services.QuestService
  paymentService services.PaymentService
}

func NewQuestHandler(questService services.QuestService, paymentService services.PaymentService) *QuestHandler {
  return &QuestHandler{questService: questService, paymentService: paymentService}
}

func (qh *QuestHandler) Create(c *gin.Context) {
  var req struct {
    Category     string `json:"category"`
    DailyTarget  int    `json:"daily_target"`
    DurationDays int    `json:"duration_days"`
    GraceDays    int    `json:"grace_days"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  quest, err := qh.questService.CreateQuest(c.Request.Context(), types.QuestCategory(req.Category), req.DailyTarget, req.DurationDays, req.GraceDays)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{"quest": quest})
}

func (qh *QuestHandler) LogActivity(c *gin.Context) {
  questID, ok := questIDParam(c)
  if !ok {
    return
  }
  var req struct {
    ActivitiesCount int    `json:"activities_count"`
    VerificationRef string `json:"verification_ref"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  targetMet, err := qh.questService.LogActivity(c.Request.Context(), questID, req.ActivitiesCount, req.VerificationRef)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"target_met": targetMet})
}

func (qh *QuestHandler) Complete(c *gin.Context) {
  questID, ok := questIDParam(c)
  if !ok {
    return
  }
  quest, err := qh.questService.CompleteQuest(c.Request.Context(), questID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"quest": quest})
}

func (qh *QuestHandler) Cancel(c *gin.Context) {
  questID, ok := questIDParam(c)
  if !ok {
    return
  }
  quest, err := qh.questService.CancelQuest(c.Request.Context(), questID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"quest": quest})
}

func (qh *QuestHandler) Get(c *gin.Context) {
  questID, ok := questIDParam(c)
  if !ok {
    return
  }
  quest, err := qh.questService.GetQuest(c.Request.Context(), questID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"quest": quest})
}

func (qh *QuestHandler) ListMine(c *gin.Context) {
  userID := uuid.Nil
  if raw := c.Query("user_id"); raw != "" {
    parsed, err := uuid.Parse(raw)
    if err != nil {
      c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
      return
    }
    userID = parsed
  }
  quests, err := qh.questService.GetUserQuests(c.Request.Context(), userID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"quests": quests})
}

func (qh *QuestHandler) GetDailyLog(c *gin.Context) {
  questID, ok := questIDParam(c)
  if !ok {
    return
  }
  dayIndex, err := strconv.Atoi(c.Param("day"))
  if err != nil || dayIndex < 0 {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day index"})
    return
  }
  entry, err := qh.questService.GetDailyLog(c.Request.Context(), questID, dayIndex)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  if entry == nil {
    c.JSON(http.StatusNotFound, gin.H{"error": "no log for that day"})
    return
  }
  RespondOK(c, gin.H{"log": entry})
}

func (qh *QuestHandler) ListLogs(c *gin.Context) {
  questID, ok := questIDParam(c)
  if !ok {
    return
  }
  logs, err := qh.questService.GetQuestLogs(c.Request.Context(), questID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"logs": logs})
}

func (qh *QuestHandler) GetPoolStats(c *gin.Context) {
  stats, err := qh.questService.GetPoolStats(c.Request.Context())
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"pools": stats})
}

func (qh *QuestHandler) ListTransfers(c *gin.Context) {
  questID, ok := questIDParam(c)
  if !ok {
    return
  }
  transfers, err := qh.paymentService.ListQuestTransfers(c.Request.Context(), questID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"transfers": transfers})
}

func questIDParam(c *gin.Context) (int64, bool) {
  questID, err := strconv.ParseInt(c.Param("id"), 10, 64)
  if err != nil || questID <= 0 {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest id"})
    return 0, false
  }
  return questID, true
}
