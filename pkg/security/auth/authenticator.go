package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"janitorr-hq/overseer/pkg/config"

	"golang.org/x/crypto/bcrypt"
)

// Authentication method names reported in Identity.Method.
const (
	MethodNone   = "none"
	MethodLegacy = "legacy"
	MethodLDAP   = "ldap"
)

// Authenticator verifies a username and password.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (Identity, error)
	Name() string
}

// NewAuthenticator builds the authenticator for the configured mode.
func NewAuthenticator(cfg config.AuthConfig, logger *slog.Logger) (Authenticator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	switch cfg.Mode {
	case config.AuthModeNone, "":
		return NoneAuthenticator{}, nil
	case config.AuthModeLegacy:
		return NewStaticAuthenticator(cfg.Legacy), nil
	case config.AuthModeLDAP:
		return NewLDAPAuthenticator(cfg.LDAP, logger), nil
	case config.AuthModeBoth:
		return NewChain(logger, NewLDAPAuthenticator(cfg.LDAP, logger), NewStaticAuthenticator(cfg.Legacy)), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// NoneAuthenticator accepts every login as an administrator. An empty
// username becomes "admin".
type NoneAuthenticator struct{}

// Name implements Authenticator.
func (NoneAuthenticator) Name() string { return MethodNone }

// Authenticate implements Authenticator.
func (NoneAuthenticator) Authenticate(_ context.Context, username, _ string) (Identity, error) {
	if username == "" {
		username = config.DefaultLegacyUsername
	}
	return Identity{Username: username, Admin: true, Method: MethodNone}, nil
}

// StaticAuthenticator checks the single legacy account. The account is an
// administrator.
type StaticAuthenticator struct {
	enabled  bool
	username string
	password string
}

// NewStaticAuthenticator creates the legacy authenticator.
func NewStaticAuthenticator(cfg config.LegacyAuthConfig) *StaticAuthenticator {
	return &StaticAuthenticator{
		enabled:  cfg.Enabled,
		username: cfg.Username,
		password: cfg.Password,
	}
}

// Name implements Authenticator.
func (a *StaticAuthenticator) Name() string { return MethodLegacy }

// Authenticate implements Authenticator. An account with no password never
// authenticates.
func (a *StaticAuthenticator) Authenticate(_ context.Context, username, password string) (Identity, error) {
	if !a.enabled {
		return Identity{}, ErrDisabled
	}
	if a.password == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := checkPassword(a.password, password)
	if !userOK || !passOK {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Username: username, Admin: true, Method: MethodLegacy}, nil
}

// checkPassword compares against a bcrypt hash, or in constant time against
// a plain-text password.
func checkPassword(stored, given string) bool {
	if IsPasswordHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// IsPasswordHash reports whether s looks like a bcrypt hash.
func IsPasswordHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// HashPassword returns a bcrypt hash suitable for auth.legacy.password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Chain tries each authenticator in order and returns the first success.
type Chain struct {
	authenticators []Authenticator
	logger         *slog.Logger
}

// NewChain creates a Chain.
func NewChain(logger *slog.Logger, authenticators ...Authenticator) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{authenticators: authenticators, logger: logger}
}

// Name implements Authenticator.
func (c *Chain) Name() string {
	names := make([]string, len(c.authenticators))
	for i, a := range c.authenticators {
		names[i] = a.Name()
	}
	return strings.Join(names, "+")
}

// Authenticate implements Authenticator. When every authenticator fails the
// error wraps ErrInvalidCredentials and each individual failure.
func (c *Chain) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	var errs []error
	for i, a := range c.authenticators {
		id, err := a.Authenticate(ctx, username, password)
		if err == nil {
			return id, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
		if i < len(c.authenticators)-1 {
			c.logger.Info("login failed, trying next method",
				"method", a.Name(),
				"next", c.authenticators[i+1].Name(),
				"error", err,
			)
		}
	}
	return Identity{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, errors.Join(errs...))
}
