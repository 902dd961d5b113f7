package handlers

import (
  "net/http"
  "strconv"
  "github.com/gin-gonic/gin"
  "github.com/stakequest/stakequest-backend/internal/services"
)

type YieldHandler struct {
  yieldService services.YieldService
}

func NewYieldHandler(yieldService services.YieldService) *YieldHandler {
  return &YieldHandler{yieldService: yieldService}
}

func (yh *YieldHandler) GetPosition(c *gin.Context) {
  positionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
  if err != nil || positionID <= 0 {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position id"})
    return
  }
  position, err := yh.yieldService.GetPosition(c.Request.Context(), positionID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"position": position})
}

func (yh *YieldHandler) UpdatePosition(c *gin.Context) {
  positionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
  if err != nil || positionID <= 0 {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position id"})
    return
  }
  position, err := yh.yieldService.UpdatePosition(c.Request.Context(), positionID)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"position": position})
}

func (yh *YieldHandler) ListPositions(c *gin.Context) {
  positions, err := yh.yieldService.ListActivePositions(c.Request.Context())
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"positions": positions})
}

func (yh *YieldHandler) GetPoolStats(c *gin.Context) {
  stats, err := yh.yieldService.GetPoolStats(c.Request.Context())
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"stats": stats})
}

func (yh *YieldHandler) EstimateYield(c *gin.Context) {
  amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
    return
  }
  days, err := strconv.Atoi(c.Query("days"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
    return
  }
  estimate, err := yh.yieldService.EstimateYield(c.Request.Context(), amount, days)
  if err != nil {
    RespondDomainError(c, err)
    return
  }
  RespondOK(c, gin.H{"estimated_yield": estimate})
}
