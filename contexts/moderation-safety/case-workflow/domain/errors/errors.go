package errors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("case input is invalid")
	ErrInvalidTransition      = errors.New("case status transition is not allowed")
	ErrAlreadyAssigned        = errors.New("case already has an active assignee")
	ErrNotAssigned            = errors.New("case has no active assignee")
	ErrAppealAlreadySubmitted = errors.New("appeal was already submitted for this case")
	ErrAppealNotSubmitted     = errors.New("no appeal has been submitted for this case")
	ErrAppealAlreadyReviewed  = errors.New("appeal was already reviewed for this case")
	ErrConcurrentModification = errors.New("case was modified concurrently")
	ErrCaseNotFound           = errors.New("case not found")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key already used with different payload")
)

// TransitionError carries the current and attempted statuses so callers
// can inspect state without re-reading. It matches ErrInvalidTransition
// under errors.Is.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("case status transition from %q to %q is not allowed", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func NewTransitionError(from, to string) error {
	return &TransitionError{From: from, To: to}
}
