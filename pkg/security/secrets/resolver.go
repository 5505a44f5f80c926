package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// referencePattern matches ${secret:name}.
var referencePattern = regexp.MustCompile(`\$\{secret:([^}]*)\}`)

// Resolver substitutes secret references using its providers in order.
type Resolver struct {
	providers []Provider
	logger    *slog.Logger
}

// NewResolver creates a resolver that consults providers in the given order.
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{
		providers: providers,
		logger:    slog.Default().With("component", "secrets"),
	}
}

// IsReference reports whether s contains a secret reference.
func IsReference(s string) bool {
	return referencePattern.MatchString(s)
}

// Get returns the value of name from the first provider that has it.
func (r *Resolver) Get(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("empty secret name")
	}

	var failures []error
	for _, p := range r.providers {
		value, err := p.Get(ctx, name)
		if err == nil {
			r.logger.Debug("secret resolved", "name", redactName(name), "provider", p.Name())
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			// A provider that has the secret but cannot read it must not be
			// skipped in favour of a later one.
			return "", fmt.Errorf("secret %q from %s: %w", name, p.Name(), err)
		}
		failures = append(failures, err)
	}
	if len(failures) == 0 {
		return "", fmt.Errorf("%w: %s (no providers)", ErrNotFound, name)
	}
	return "", fmt.Errorf("secret %q: %w", name, errors.Join(failures...))
}

// Resolve replaces every ${secret:name} in value. Values without references
// are returned as is. All unresolved names are reported together.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	if !IsReference(value) {
		return value, nil
	}

	var errs []error
	out := referencePattern.ReplaceAllStringFunc(value, func(match string) string {
		name := referencePattern.FindStringSubmatch(match)[1]
		secret, err := r.Get(ctx, name)
		if err != nil {
			errs = append(errs, err)
			return match
		}
		return secret
	})
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return out, nil
}

// redactName shortens a secret name for logs.
func redactName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
