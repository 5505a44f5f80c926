package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials is returned when a username or password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDisabled is returned by an authenticator whose login method is off.
	ErrDisabled = errors.New("authentication method disabled")

	// ErrUnavailable is returned when the directory cannot be reached.
	ErrUnavailable = errors.New("authentication backend unavailable")
)

// Identity is an authenticated user.
type Identity struct {
	Username string `json:"username"`
	Admin    bool   `json:"is_admin"`
	Method   string `json:"method"`
}

type identityKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by RequireSession.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
