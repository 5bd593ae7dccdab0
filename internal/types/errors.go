package types

import (
	"errors"
	"fmt"
)

// Errors returned by the sync client and the store adapters.
//
// Check them with errors.Is:
//
//	if errors.Is(err, types.ErrUnauthenticated) {
//	    // prompt for login
//	}
var (
	// ErrUnauthenticated is returned when an operation needs a valid
	// session and there is none. No request is sent.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNoMatch is returned when an update or delete matched no row,
	// either because the id is unknown or the row belongs to someone else.
	ErrNoMatch = errors.New("no application matched the given id for this user")
)

// RemoteError reports a request the store rejected or could not complete.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// ParseError reports structurally invalid CSV input.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("CSV parsing error on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("CSV parsing error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsRemote reports whether err came from the store.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
