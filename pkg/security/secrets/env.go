package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider reads secrets from environment variables.
//
// A name is upper-cased, hyphens and dots become underscores and the prefix
// is prepended: "ldap-bind-password" -> "OVERSEER_SECRET_LDAP_BIND_PASSWORD".
type EnvProvider struct {
	Prefix string
}

// NewEnvProvider creates an environment provider with the given prefix.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{Prefix: prefix}
}

// Get returns the variable's value. An empty variable counts as missing.
func (p *EnvProvider) Get(_ context.Context, name string) (string, error) {
	key := p.Variable(name)
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%w: %s (env %s)", ErrNotFound, name, key)
	}
	return value, nil
}

// Name returns "env".
func (p *EnvProvider) Name() string { return "env" }

// Variable returns the environment variable consulted for name.
func (p *EnvProvider) Variable(name string) string {
	key := strings.NewReplacer("-", "_", ".", "_").Replace(strings.ToUpper(name))
	return p.Prefix + key
}
