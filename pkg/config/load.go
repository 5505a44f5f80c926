package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. The variable names are the ones Janitorr
// deployments already use (JANITORR_CONFIG_PATH, GUI_AUTH_MODE, ...).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Start from defaults
// 2. Load YAML from file
// 3. Apply environment variable overrides
// 4. Fill remaining zero values and derive the auth mode
// 5. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

// LoadOrDefault is LoadConfigWithEnvOverrides that tolerates a missing file:
// defaults and environment overrides alone are then used. An empty path means
// no file.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = ""
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := resolveSecrets(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// decodeFile reads path over a default configuration so that keys absent
// from the file keep their defaults.
func decodeFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := NewDefaultConfig()
	// Derived later so that env overrides to the enabled flags take effect.
	cfg.Auth.Mode = ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	setString(&cfg.Server.ListenAddress, "GUI_LISTEN_ADDRESS")
	setBool(&cfg.Server.TLS.Enabled, "GUI_TLS_ENABLED")
	setString(&cfg.Server.TLS.CertFile, "GUI_TLS_CERT_FILE")
	setString(&cfg.Server.TLS.KeyFile, "GUI_TLS_KEY_FILE")

	// Janitorr overrides
	setString(&cfg.Janitorr.ConfigPath, "JANITORR_CONFIG_PATH")
	setString(&cfg.Janitorr.LogPath, "JANITORR_LOG_PATH")
	setString(&cfg.Janitorr.WorkingDirectory, "JANITORR_WORKING_DIR")
	if val := os.Getenv("JANITORR_SERVICE_NAMES"); val != "" {
		cfg.Janitorr.ServiceNames = splitList(val)
	}

	// UI overrides
	setInt(&cfg.UI.AutoRefreshInterval, "GUI_AUTO_REFRESH")
	setString(&cfg.UI.Theme, "GUI_THEME")

	// Auth overrides
	if val := strings.ToLower(os.Getenv("GUI_AUTH_MODE")); isAuthMode(val) {
		cfg.Auth.Mode = val
	}
	setString(&cfg.Auth.Session.SecretKey, "GUI_SESSION_SECRET_KEY")
	setSeconds(&cfg.Auth.Session.Timeout, "GUI_SESSION_TIMEOUT")
	setBool(&cfg.Auth.Session.SecureCookies, "GUI_SESSION_SECURE_COOKIES")
	setBool(&cfg.Auth.Session.RememberMe, "GUI_SESSION_REMEMBER_ME")

	setBool(&cfg.Auth.Legacy.Enabled, "GUI_LEGACY_AUTH_ENABLED")
	setString(&cfg.Auth.Legacy.Username, "GUI_LEGACY_AUTH_USERNAME")
	setString(&cfg.Auth.Legacy.Password, "GUI_LEGACY_AUTH_PASSWORD")

	setBool(&cfg.Auth.LDAP.Enabled, "GUI_LDAP_ENABLED")
	setString(&cfg.Auth.LDAP.Server, "GUI_LDAP_SERVER")
	setInt(&cfg.Auth.LDAP.Port, "GUI_LDAP_PORT")
	setString(&cfg.Auth.LDAP.BaseDN, "GUI_LDAP_BASE_DN")
	setString(&cfg.Auth.LDAP.UserFilter, "GUI_LDAP_USER_FILTER")
	setString(&cfg.Auth.LDAP.BindDN, "GUI_LDAP_BIND_DN")
	setString(&cfg.Auth.LDAP.BindPassword, "GUI_LDAP_BIND_PASSWORD")
	setString(&cfg.Auth.LDAP.AdminGroup, "GUI_LDAP_ADMIN_GROUP")
	setString(&cfg.Auth.LDAP.GroupStrategy, "GUI_LDAP_GROUP_STRATEGY")
	setBool(&cfg.Auth.LDAP.UseSSL, "GUI_LDAP_USE_SSL")
	setBool(&cfg.Auth.LDAP.VerifySSL, "GUI_LDAP_VERIFY_SSL")

	// Telemetry overrides
	setString(&cfg.Telemetry.Logging.Level, "GUI_LOG_LEVEL")
	setString(&cfg.Telemetry.Logging.Format, "GUI_LOG_FORMAT")
	setBool(&cfg.Telemetry.Metrics.Enabled, "GUI_METRICS_ENABLED")
	setBool(&cfg.Telemetry.Tracing.Enabled, "GUI_TRACING_ENABLED")
	setString(&cfg.Telemetry.Tracing.Endpoint, "GUI_TRACING_ENDPOINT")

	setString(&cfg.Secrets.Directory, "OVERSEER_SECRETS_DIR")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setBool(dst *bool, key string) {
	if val := os.Getenv(key); val != "" {
		if b, ok := parseBool(val); ok {
			*dst = b
		}
	}
}

// setSeconds accepts either a bare number of seconds or a Go duration.
func setSeconds(dst *time.Duration, key string) {
	val := os.Getenv(key)
	if val == "" {
		return
	}
	if i, err := strconv.Atoi(val); err == nil {
		*dst = time.Duration(i) * time.Second
		return
	}
	if d, err := time.ParseDuration(val); err == nil {
		*dst = d
	}
}

// parseBool accepts strconv.ParseBool values plus the checkbox spellings
// "on", "off", "checked" and "unchecked".
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "checked", "yes":
		return true, true
	case "off", "unchecked", "no":
		return false, true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, false
	}
	return b, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isAuthMode(s string) bool {
	switch s {
	case AuthModeNone, AuthModeLegacy, AuthModeLDAP, AuthModeBoth:
		return true
	}
	return false
}
