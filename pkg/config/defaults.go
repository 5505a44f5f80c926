package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "0.0.0.0:5000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRequestTimeout  = 20 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = 1048576 // 1MB
	DefaultTLSMinVersion   = "1.2"
	DefaultTLSReload       = 5 * time.Minute

	// Janitorr defaults
	DefaultJanitorrConfigPath = "/opt/janitorr/application.yml"
	DefaultJanitorrLogPath    = "/var/log/janitorr/janitorr.log"
	DefaultJanitorrWorkingDir = "/opt/janitorr"
	DefaultTailLines          = 100

	// UI defaults
	DefaultAutoRefreshInterval = 30
	DefaultTheme               = "dark"

	// Auth defaults
	DefaultSessionTimeout     = time.Hour
	DefaultRememberMe         = true
	DefaultRememberMeDuration = 30 * 24 * time.Hour
	DefaultCookieName         = "overseer_session"
	DefaultLegacyUsername     = "admin"
	DefaultLDAPPort           = 389
	DefaultLDAPUserFilter     = "uid={}"
	DefaultLDAPGroupStrategy  = "auto"
	DefaultLDAPVerifySSL      = true
	DefaultLDAPTimeout        = 10 * time.Second

	// Jellyfin defaults
	DefaultJellyfinRequestTimeout = 10 * time.Second
	DefaultMaxMediaLookups        = 50

	// Telemetry defaults
	DefaultLoggingLevel           = "info"
	DefaultLoggingFormat          = "json"
	DefaultLoggingRedact          = true
	DefaultMetricsEnabled         = true
	DefaultMetricsPath            = "/metrics"
	DefaultMetricsNamespace       = "janitorr"
	DefaultMetricsSubsystem       = "overseer"
	DefaultMetricsRefreshSchedule = "*/5 * * * *"
	DefaultTracingEnabled         = false
	DefaultTracingSampler         = "ratio"
	DefaultTracingSampleRatio     = 0.1
	DefaultTracingServiceName     = "janitorr-overseer"
	DefaultOTLPInsecure           = true
	DefaultOTLPTimeout            = 10 * time.Second
	DefaultHealthCheckTimeout     = 5 * time.Second

	// Watch defaults
	DefaultWatchEnabled  = true
	DefaultWatchDebounce = 500 * time.Millisecond

	// Secrets defaults
	DefaultSecretsDirectory = "/run/secrets"
	DefaultSecretsEnvPrefix = "OVERSEER_SECRET_"
)

// Auth modes.
const (
	AuthModeNone   = "none"
	AuthModeLegacy = "legacy"
	AuthModeLDAP   = "ldap"
	AuthModeBoth   = "both"
)

// DefaultServiceNames are the systemd units Janitorr is usually installed as.
var DefaultServiceNames = []string{"janitorr", "janitorr.service"}

// NewDefaultConfig returns a Config with every default applied, including the
// boolean defaults that ApplyDefaults cannot infer from zero values.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Auth.Session.RememberMe = DefaultRememberMe
	cfg.Auth.LDAP.VerifySSL = DefaultLDAPVerifySSL
	cfg.Telemetry.Logging.Redact = DefaultLoggingRedact
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Metrics.RefreshSchedule = DefaultMetricsRefreshSchedule
	cfg.Telemetry.Tracing.Enabled = DefaultTracingEnabled
	cfg.Telemetry.Tracing.OTLP.Insecure = DefaultOTLPInsecure
	cfg.Watch.Enabled = DefaultWatchEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.TLS.ReloadInterval == 0 {
		cfg.Server.TLS.ReloadInterval = DefaultTLSReload
	}

	// Janitorr defaults
	if cfg.Janitorr.ConfigPath == "" {
		cfg.Janitorr.ConfigPath = DefaultJanitorrConfigPath
	}
	if cfg.Janitorr.LogPath == "" {
		cfg.Janitorr.LogPath = DefaultJanitorrLogPath
	}
	if cfg.Janitorr.WorkingDirectory == "" {
		cfg.Janitorr.WorkingDirectory = DefaultJanitorrWorkingDir
	}
	if len(cfg.Janitorr.ServiceNames) == 0 {
		cfg.Janitorr.ServiceNames = append([]string(nil), DefaultServiceNames...)
	}
	if cfg.Janitorr.TailLines == 0 {
		cfg.Janitorr.TailLines = DefaultTailLines
	}

	// UI defaults
	if cfg.UI.AutoRefreshInterval == 0 {
		cfg.UI.AutoRefreshInterval = DefaultAutoRefreshInterval
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = DefaultTheme
	}

	// Auth defaults
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = DeriveAuthMode(cfg.Auth.Legacy.Enabled, cfg.Auth.LDAP.Enabled)
	}
	if cfg.Auth.Session.Timeout == 0 {
		cfg.Auth.Session.Timeout = DefaultSessionTimeout
	}
	if cfg.Auth.Session.RememberMeDuration == 0 {
		cfg.Auth.Session.RememberMeDuration = DefaultRememberMeDuration
	}
	if cfg.Auth.Session.CookieName == "" {
		cfg.Auth.Session.CookieName = DefaultCookieName
	}
	if cfg.Auth.Legacy.Username == "" {
		cfg.Auth.Legacy.Username = DefaultLegacyUsername
	}
	if cfg.Auth.LDAP.Port == 0 {
		cfg.Auth.LDAP.Port = DefaultLDAPPort
	}
	if cfg.Auth.LDAP.UserFilter == "" {
		cfg.Auth.LDAP.UserFilter = DefaultLDAPUserFilter
	}
	if cfg.Auth.LDAP.GroupStrategy == "" {
		cfg.Auth.LDAP.GroupStrategy = DefaultLDAPGroupStrategy
	}
	if cfg.Auth.LDAP.Timeout == 0 {
		cfg.Auth.LDAP.Timeout = DefaultLDAPTimeout
	}

	// Jellyfin defaults
	if cfg.Jellyfin.RequestTimeout == 0 {
		cfg.Jellyfin.RequestTimeout = DefaultJellyfinRequestTimeout
	}
	if cfg.Jellyfin.MaxMediaLookups == 0 {
		cfg.Jellyfin.MaxMediaLookups = DefaultMaxMediaLookups
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}

	// Secrets defaults
	if cfg.Secrets.Directory == "" {
		cfg.Secrets.Directory = DefaultSecretsDirectory
	}
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}
}

// DeriveAuthMode picks the auth mode implied by which login methods are
// enabled.
func DeriveAuthMode(legacyEnabled, ldapEnabled bool) string {
	switch {
	case legacyEnabled && ldapEnabled:
		return AuthModeBoth
	case ldapEnabled:
		return AuthModeLDAP
	case legacyEnabled:
		return AuthModeLegacy
	default:
		return AuthModeNone
	}
}
