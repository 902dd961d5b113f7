package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/stakequest/stakequest-backend/internal/apierr"
  "github.com/stakequest/stakequest-backend/internal/types"
)

type APIError struct {
  Message string `json:"message"`
  Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

// RespondDomainError maps the domain failure taxonomy onto HTTP statuses.
func RespondDomainError(c *gin.Context, err error) {
  mapped := toAPIError(err)
  RespondError(c, mapped.Status, mapped.Code, err)
}

func toAPIError(err error) *apierr.Error {
  switch {
  case errors.Is(err, types.ErrInvalidParameter):
    return apierr.New(http.StatusBadRequest, "invalid_parameter", err)
  case errors.Is(err, types.ErrUnauthorized):
    return apierr.New(http.StatusForbidden, "unauthorized", err)
  case errors.Is(err, types.ErrQuestNotFound):
    return apierr.New(http.StatusNotFound, "quest_not_found", err)
  case errors.Is(err, types.ErrPositionNotFound):
    return apierr.New(http.StatusNotFound, "position_not_found", err)
  case errors.Is(err, types.ErrQuestNotActive):
    return apierr.New(http.StatusConflict, "quest_not_active", err)
  case errors.Is(err, types.ErrQuestExpired):
    return apierr.New(http.StatusConflict, "quest_expired", err)
  case errors.Is(err, types.ErrAlreadyLogged):
    return apierr.New(http.StatusConflict, "already_logged", err)
  case errors.Is(err, types.ErrQuestNotFinished):
    return apierr.New(http.StatusConflict, "quest_not_finished", err)
  default:
    return apierr.New(http.StatusInternalServerError, "internal_error", err)
  }
}
