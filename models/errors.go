package models

import (
	"errors"
	"fmt"
)

// Business failures callers are expected to handle. Everything else is an
// infrastructure error and propagates unchanged.
var (
	ErrNoSubscription = errors.New("tenant has no subscription")
	ErrConflict       = errors.New("entity was moved to another status concurrently")
	ErrUnknownAction  = errors.New("unknown billable action")
)

type SubscriptionInactiveError struct {
	Status SubscriptionStatus
}

func (e SubscriptionInactiveError) Error() string {
	return fmt.Sprintf("subscription is not active (status %s)", e.Status)
}

type InsufficientPointsError struct {
	Required  int64
	Available int64
}

func (e InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: required %d, available %d", e.Required, e.Available)
}

type DuplicateSessionError struct {
	SessionID string
}

func (e DuplicateSessionError) Error() string {
	return fmt.Sprintf("an open session already exists (id %s)", e.SessionID)
}

// ErrorCode returns a stable code for business failures and an empty string
// for everything else.
func ErrorCode(err error) string {
	var inactive SubscriptionInactiveError
	var insufficient InsufficientPointsError
	var duplicate DuplicateSessionError

	switch {
	case errors.Is(err, ErrNoSubscription):
		return "no_subscription"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnknownAction):
		return "unknown_action"
	case errors.As(err, &inactive):
		return "subscription_inactive"
	case errors.As(err, &insufficient):
		return "insufficient_points"
	case errors.As(err, &duplicate):
		return "duplicate_session"
	}

	return ""
}
