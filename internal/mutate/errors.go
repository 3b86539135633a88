package mutate

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected matches every RejectedError.
	ErrRejected = errors.New("mutation rejected")
	// ErrEntityNotFound is the cause of a rejected removal of an unknown entity.
	ErrEntityNotFound = errors.New("entity not found")
)

// RejectedError reports a mutation refused before anything was written.
type RejectedError struct {
	Reason string
	Err    error
}

func (e *RejectedError) Error() string {
	return "mutation rejected: " + e.Reason
}

// Is makes errors.Is(err, ErrRejected) true for every rejection.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

func rejectf(format string, args ...any) error {
	return &RejectedError{Reason: fmt.Sprintf(format, args...)}
}
