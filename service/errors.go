package service

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrRequestAlreadyProcessed = errors.New("join request already processed")
	ErrMatchNotAvailable       = errors.New("match is no longer available")
	ErrNotAuthorized           = errors.New("not authorized for this match")
	ErrNotFound                = errors.New("not found")
	ErrInvalidState            = errors.New("operation not allowed in the current match state")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidInput            = errors.New("invalid input")
	ErrOwnMatch                = errors.New("cannot join your own match")
	ErrGameUnavailable         = errors.New("game is not available")
	ErrCountdownRunning        = errors.New("countdown has not finished")
	ErrResultAlreadySubmitted  = errors.New("result already submitted")
	ErrSeedMissing             = errors.New("match has no game seed")
)

// CancelCooldownError rejects a cancel issued too soon after creation
type CancelCooldownError struct {
	RemainingSeconds int
}

func (e *CancelCooldownError) Error() string {
	return fmt.Sprintf("must wait %d seconds before cancelling", e.RemainingSeconds)
}
