package api

import (
	"errors"
	"net/http"

	"stakeduel/service"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error            string `json:"error"`
	RemainingSeconds int    `json:"remainingSeconds,omitempty"`
}

// respondError maps service errors to statuses. Anything unrecognised is
// logged through the context and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var cooldown *service.CancelCooldownError
	if errors.As(err, &cooldown) {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:            cooldown.Error(),
			RemainingSeconds: cooldown.RemainingSeconds,
		})
		return
	}

	status, message := classifyError(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, ErrorResponse{Error: message})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden, "You are not a participant in this match"
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "Insufficient balance"
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest, "Invalid stake amount"
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, service.ErrOwnMatch):
		return http.StatusBadRequest, "You cannot join your own match"
	case errors.Is(err, service.ErrGameUnavailable):
		return http.StatusBadRequest, "Game is not available"
	case errors.Is(err, service.ErrRequestAlreadyProcessed):
		return http.StatusConflict, "Join request was already processed"
	case errors.Is(err, service.ErrMatchNotAvailable):
		return http.StatusConflict, "Match is no longer available"
	case errors.Is(err, service.ErrCountdownRunning):
		return http.StatusConflict, "Countdown has not finished"
	case errors.Is(err, service.ErrResultAlreadySubmitted):
		return http.StatusConflict, "Result already submitted"
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict, "Action not allowed in the current match state"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
