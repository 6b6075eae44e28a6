package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is matched by every TransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports an event that is not allowed from the current
// status of a record.
type TransitionError struct {
	Entity string
	From   string
	Event  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %s", e.Event, e.Entity, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
