package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a provider that has no value for a name.
var ErrNotFound = errors.New("secret not found")

// Provider looks up secret values by name.
type Provider interface {
	// Get returns the value of the named secret or an error matching
	// ErrNotFound.
	Get(ctx context.Context, name string) (string, error)

	// Name identifies the provider in errors and logs.
	Name() string
}
