package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateJanitorr(&cfg.Janitorr)...)
	errs = append(errs, validateUI(&cfg.UI)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if cfg.Jellyfin.RequestTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "jellyfin.request_timeout",
			Message: "request timeout must be positive",
		})
	}
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "watch.debounce",
			Message: "debounce must be non-negative",
		})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.request_timeout",
			Message: "request timeout must be positive",
		})
	}

	if cfg.MaxHeaderBytes < 0 || cfg.MaxHeaderBytes > 10*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be between 0 and 10MB",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.cert_file",
				Message: "certificate file is required when TLS is enabled",
			})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls.key_file",
				Message: "key file is required when TLS is enabled",
			})
		}
	}
	if v := cfg.TLS.MinVersion; v != "" && v != "1.2" && v != "1.3" {
		errs = append(errs, FieldError{
			Field:   "server.tls.min_version",
			Message: fmt.Sprintf("invalid TLS version %q: must be '1.2' or '1.3'", v),
		})
	}

	return errs
}

func validateJanitorr(cfg *JanitorrConfig) []FieldError {
	var errs []FieldError

	if cfg.ConfigPath == "" {
		errs = append(errs, FieldError{
			Field:   "janitorr.config_path",
			Message: "config path is required",
		})
	}
	if cfg.LogPath == "" {
		errs = append(errs, FieldError{
			Field:   "janitorr.log_path",
			Message: "log path is required",
		})
	}
	if cfg.TailLines < 0 {
		errs = append(errs, FieldError{
			Field:   "janitorr.tail_lines",
			Message: "tail lines must be non-negative",
		})
	}
	for i, name := range cfg.ServiceNames {
		if !validServiceName(name) {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("janitorr.service_names[%d]", i),
				Message: fmt.Sprintf("invalid systemd unit name %q", name),
			})
		}
	}

	return errs
}

// validServiceName accepts letters, digits, '-', '_', '.' and '@'.
func validServiceName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == '@':
		default:
			return false
		}
	}
	return true
}

func validateUI(cfg *UIConfig) []FieldError {
	var errs []FieldError

	if cfg.AutoRefreshInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "ui.auto_refresh_interval",
			Message: "auto refresh interval must be non-negative",
		})
	}
	if cfg.Theme != "dark" && cfg.Theme != "light" {
		errs = append(errs, FieldError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme %q: must be 'dark' or 'light'", cfg.Theme),
		})
	}

	return errs
}

func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	if !isAuthMode(cfg.Mode) {
		errs = append(errs, FieldError{
			Field:   "auth.mode",
			Message: fmt.Sprintf("invalid auth mode %q: must be 'none', 'legacy', 'ldap', or 'both'", cfg.Mode),
		})
	}

	usesLegacy := cfg.Mode == AuthModeLegacy || cfg.Mode == AuthModeBoth
	usesLDAP := cfg.Mode == AuthModeLDAP || cfg.Mode == AuthModeBoth

	if usesLegacy && cfg.Legacy.Password == "" {
		errs = append(errs, FieldError{
			Field:   "auth.legacy.password",
			Message: "password is required when legacy authentication is used",
		})
	}

	if usesLDAP {
		if cfg.LDAP.Server == "" {
			errs = append(errs, FieldError{
				Field:   "auth.ldap.server",
				Message: "server is required when LDAP authentication is used",
			})
		}
		if cfg.LDAP.BaseDN == "" {
			errs = append(errs, FieldError{
				Field:   "auth.ldap.base_dn",
				Message: "base DN is required when LDAP authentication is used",
			})
		}
	}
	if cfg.LDAP.Port <= 0 || cfg.LDAP.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "auth.ldap.port",
			Message: "port must be between 1 and 65535",
		})
	}
	switch cfg.LDAP.GroupStrategy {
	case "auto", "posix", "groupOfNames", "groupOfUniqueNames":
	default:
		errs = append(errs, FieldError{
			Field:   "auth.ldap.group_strategy",
			Message: fmt.Sprintf("invalid group strategy %q", cfg.LDAP.GroupStrategy),
		})
	}

	if cfg.Session.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "auth.session.timeout",
			Message: "session timeout must be positive",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}
	if cfg.Metrics.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Metrics.RefreshSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.refresh_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must be positive",
		})
	}

	return errs
}
