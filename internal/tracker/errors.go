package tracker

import "errors"

var (
	ErrNilTracker         = errors.New("tracker function is nil")
	ErrNoElement          = errors.New("no element")
	ErrNoEvents           = errors.New("no events to bind")
	ErrNoAction           = errors.New("no action to bind")
	ErrClosed             = errors.New("tracker is closed")
	ErrAlreadyInitialized = errors.New("tracker already initialized")
)
