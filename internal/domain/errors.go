package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

var (
	// ErrUnauthenticated is returned for a missing, malformed or expired credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnknownSession is returned for chunks or ends addressed to a capture that is not open.
	ErrUnknownSession = errors.New("unknown capture session")
	// ErrPersistence matches every PersistenceError.
	ErrPersistence = errors.New("persistence failure")
	// ErrInvalidInput is returned for requests that cannot be acted on.
	ErrInvalidInput = errors.New("invalid input")
)

// PersistenceError wraps a failed durable write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
