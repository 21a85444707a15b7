package domain

import (
	"errors"
	"fmt"
)

// ErrProgramNotFound is returned when a loader has no program for a path (yet).
var ErrProgramNotFound = errors.New("program not found")

// ErrNodeNotFound is returned when a program has no node with the requested name.
var ErrNodeNotFound = errors.New("node not found")

// ErrInvalidSelection is returned for out-of-range or disabled choice indices.
var ErrInvalidSelection = errors.New("invalid choice selection")

// ErrNoSelection is returned when confirming without a selected choice.
var ErrNoSelection = errors.New("no choice selected")

// ErrNoSession is returned by operations that need an active dialogue.
var ErrNoSession = errors.New("no active dialogue")

// ErrBusy is returned by choice operations while a run sequence is executing.
var ErrBusy = errors.New("run sequence in progress")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// NotFoundError describes an unresolved start target.
type NotFoundError struct {
	Path string
	Node string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s / %s: %v", e.Path, e.Node, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// ErrLockAcquire is returned when a distributed session lock cannot be taken.
var ErrLockAcquire = errors.New("failed to acquire session lock")
