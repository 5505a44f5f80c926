package jellyfin

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured is returned when the server URL or API key is missing.
	ErrNotConfigured = errors.New("jellyfin not configured")

	// ErrEmptyTitle is returned by SearchItem for an empty title.
	ErrEmptyTitle = errors.New("empty title")

	// ErrInvalidID is returned for empty or malformed item IDs.
	ErrInvalidID = errors.New("invalid item id")

	// ErrInvalidImageType is returned by Image for an unknown image type.
	ErrInvalidImageType = errors.New("invalid image type")

	// ErrNotFound is returned when a search has no results or the server
	// answers 404.
	ErrNotFound = errors.New("item not found")
)

// StatusError is a non-2xx response from Jellyfin.
type StatusError struct {
	// Op is the client operation, e.g. "search".
	Op string

	// StatusCode is the HTTP status.
	StatusCode int

	// Body is the start of the response body.
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("jellyfin %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("jellyfin %s failed: status %d", e.Op, e.StatusCode)
}

// Is makes a 404 match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
