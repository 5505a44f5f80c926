// Package config provides configuration management for Overseer.
//
// Overseer's own settings live in a small YAML file, separate from the
// Janitorr application.yml it observes. This package loads that file, applies
// defaults and environment overrides, validates the result, and keeps a
// process-wide copy that can be reloaded when the file changes.
//
// LoadConfig reads the file alone, LoadConfigWithEnvOverrides layers the
// environment on top, and LoadOrDefault also accepts a missing file, which is
// the usual case in containers.
//
// # Environment Variable Overrides
//
// Variables keep the names existing Janitorr dashboard deployments use:
//
//   - JANITORR_CONFIG_PATH overrides janitorr.config_path
//   - JANITORR_LOG_PATH overrides janitorr.log_path
//   - GUI_AUTH_MODE overrides auth.mode
//   - GUI_LDAP_SERVER overrides auth.ldap.server
//
// Environment variables always take precedence over file-based configuration.
// When auth.mode is not set anywhere it is derived from which login methods
// are enabled.
//
// # Secrets
//
// The session secret, the legacy password and the LDAP bind credentials may
// be written as ${secret:name}. They are resolved at load time from
// secrets.directory (default /run/secrets) and then from environment
// variables prefixed with secrets.env_prefix. The file on disk keeps the
// reference.
//
// # Process-wide configuration
//
// Initialize loads the file once; GetConfig returns the current copy.
// A Watcher calls ReloadConfig after the file changes on disk. Settings edited
// from the dashboard go through UpdateSettings, which keeps a backup of the
// previous file.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:5000"
//
//	janitorr:
//	  config_path: /opt/janitorr/application.yml
//	  log_path: /var/log/janitorr/janitorr.log
//
//	auth:
//	  legacy:
//	    enabled: true
//	    password: ${secret:overseer-password}
package config
