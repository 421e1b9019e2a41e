// Package apperr defines the error kinds shared by the workflow services.
// Callers match on them with errors.As.
package apperr

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError reports a missing or malformed caller-supplied field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation is shorthand for building a *ValidationError.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity string, id uuid.UUID) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InvalidStateTransitionError means the requested action is not allowed from
// the entity's current state. It indicates a caller bug.
type InvalidStateTransitionError struct {
	Entity string
	ID     uuid.UUID
	Action string
	From   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot %s from %s", e.Entity, e.ID, e.Action, e.From)
}

func InvalidTransition(entity string, id uuid.UUID, action string, from fmt.Stringer) error {
	return &InvalidStateTransitionError{Entity: entity, ID: id, Action: action, From: from.String()}
}

// InsufficientFundsError is returned when the ledger refuses a reservation.
type InsufficientFundsError struct {
	CycleID   uuid.UUID
	Requested int64
	Remaining int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("grant cycle %s: requested %d cents but only %d remain", e.CycleID, e.Requested, e.Remaining)
}

// ConcurrencyConflictError signals a stale version on an entity update. The
// caller should re-fetch and retry.
type ConcurrencyConflictError struct {
	Entity string
	ID     uuid.UUID
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Entity, e.ID)
}

func Conflict(entity string, id uuid.UUID) error {
	return &ConcurrencyConflictError{Entity: entity, ID: id}
}
