/*
Package secrets resolves ${secret:name} references in credential settings.

Credentials such as the session secret, the legacy password and the LDAP
bind password can be written into the settings file as references instead
of literal values:

	auth:
	  ldap:
	    bind_password: ${secret:ldap-bind-password}

A Resolver asks its providers in order. Two are available:

  - DirProvider reads one file per secret from a directory, the layout
    Docker and Kubernetes use when mounting secrets (/run/secrets/<name>).
  - EnvProvider reads an environment variable derived from the name, so
    "ldap-bind-password" with prefix "OVERSEER_SECRET_" is read from
    OVERSEER_SECRET_LDAP_BIND_PASSWORD.

# Usage

	resolver := secrets.NewResolver(
		secrets.NewDirProvider("/run/secrets"),
		secrets.NewEnvProvider("OVERSEER_SECRET_"),
	)
	password, err := resolver.Resolve(ctx, cfg.Auth.LDAP.BindPassword)

Values without a reference are returned unchanged. Secret values are never
logged; names are shortened in debug output.
*/
package secrets
