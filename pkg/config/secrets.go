package config

import (
	"context"
	"fmt"
	"os"

	"janitorr-hq/overseer/pkg/security/secrets"
)

// resolveSecrets replaces ${secret:name} references in the credential
// fields. The secrets directory is only consulted when it exists.
func resolveSecrets(cfg *Config) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"auth.session.secret_key", &cfg.Auth.Session.SecretKey},
		{"auth.legacy.password", &cfg.Auth.Legacy.Password},
		{"auth.ldap.bind_dn", &cfg.Auth.LDAP.BindDN},
		{"auth.ldap.bind_password", &cfg.Auth.LDAP.BindPassword},
	}

	var resolver *secrets.Resolver
	var errs []FieldError
	for _, f := range fields {
		if !secrets.IsReference(*f.value) {
			continue
		}
		if resolver == nil {
			resolver = newSecretResolver(cfg.Secrets)
		}
		value, err := resolver.Resolve(context.Background(), *f.value)
		if err != nil {
			errs = append(errs, FieldError{Field: f.name, Message: err.Error()})
			continue
		}
		*f.value = value
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to resolve secrets: %w", ValidationError{Errors: errs})
	}
	return nil
}

func newSecretResolver(cfg SecretsConfig) *secrets.Resolver {
	var providers []secrets.Provider
	if info, err := os.Stat(cfg.Directory); err == nil && info.IsDir() {
		providers = append(providers, secrets.NewDirProvider(cfg.Directory))
	}
	providers = append(providers, secrets.NewEnvProvider(cfg.EnvPrefix))
	return secrets.NewResolver(providers...)
}
