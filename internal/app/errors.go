package service

import "errors"

var (
	// ErrConflict is returned when a judge submits a score outside their
	// role or for an event they are not assigned to.
	ErrConflict = errors.New("conflict")
	// ErrNotStarted is returned by submissions made before Start.
	ErrNotStarted = errors.New("service not started")
)
