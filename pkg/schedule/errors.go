package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is reported when the log file does not exist.
	ErrNotFound = errors.New("log file not found")

	// ErrIO is reported when the log file exists but cannot be read.
	ErrIO = errors.New("error reading log file")
)

// LogError describes a failure to access the log. It matches ErrNotFound or
// ErrIO with errors.Is, as well as the underlying cause.
type LogError struct {
	Path  string
	Kind  error
	Cause error
}

// Error implements the error interface.
func (e *LogError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%v %s: %v", e.Kind, e.Path, e.Cause)
}

// Unwrap returns the error kind and, if present, the underlying cause.
func (e *LogError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func notFound(path string) error {
	return &LogError{Path: path, Kind: ErrNotFound}
}

func ioFailure(path string, cause error) error {
	return &LogError{Path: path, Kind: ErrIO, Cause: cause}
}
