package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the sentinel kind matched by every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrInUse reports a record that others still reference.
	ErrInUse = errors.New("in use")
)

// NotFoundError reports a referenced record that the store does not hold.
type NotFoundError struct {
	Kind string // "event", "athlete", "judge"
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d %s", e.Kind, e.ID, ErrNotFound)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(kind string, id int) error {
	return &NotFoundError{Kind: kind, ID: id}
}
