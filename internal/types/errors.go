package types

import "errors"

// Caller-visible failure taxonomy. Services wrap these with context via
// fmt.Errorf("...: %w", ...); handlers map them to HTTP status codes.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrQuestNotFound    = errors.New("quest not found")
	ErrQuestNotActive   = errors.New("quest not active")
	ErrQuestExpired     = errors.New("quest expired")
	ErrAlreadyLogged    = errors.New("already logged for today")
	ErrQuestNotFinished = errors.New("quest not finished yet")
	ErrPositionNotFound = errors.New("position not found")
)
