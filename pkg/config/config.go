package config

import "time"

// Config is the root configuration structure for Overseer.
// It contains the dashboard's HTTP server settings, the location of the
// Janitorr installation it observes, authentication, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Janitorr locates the observed Janitorr installation: its configuration
	// file, its log file and the systemd units it runs as.
	Janitorr JanitorrConfig `yaml:"janitorr"`

	// UI contains presentation settings passed through to the web client.
	UI UIConfig `yaml:"ui"`

	// Auth contains login, session and directory settings.
	Auth AuthConfig `yaml:"auth"`

	// Jellyfin contains client tuning for the media library. The server
	// address and API key are read from Janitorr's own configuration.
	Jellyfin JellyfinConfig `yaml:"jellyfin"`

	// Telemetry contains configuration for logging, metrics, tracing and
	// health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Watch controls hot reloading of this file.
	Watch WatchConfig `yaml:"watch"`

	// Secrets locates the values of ${secret:name} references.
	Secrets SecretsConfig `yaml:"secrets"`
}

// ServerConfig contains configuration for the dashboard HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "0.0.0.0:5000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout bounds the handling of a single request.
	// Default: 20s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits request bodies such as configuration uploads.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// TLS serves the dashboard over HTTPS.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig enables HTTPS on the dashboard listener.
type TLSConfig struct {
	Enabled bool `yaml:"enabled"`

	// CertFile and KeyFile are PEM files. Both are required when Enabled.
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often the files are checked for renewal.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// JanitorrConfig locates the Janitorr installation.
type JanitorrConfig struct {
	// ConfigPath is Janitorr's application.yml.
	// Env: JANITORR_CONFIG_PATH
	// Default: "/opt/janitorr/application.yml"
	ConfigPath string `yaml:"config_path"`

	// LogPath is Janitorr's activity log.
	// Env: JANITORR_LOG_PATH
	// Default: "/var/log/janitorr/janitorr.log"
	LogPath string `yaml:"log_path"`

	// WorkingDirectory is Janitorr's installation directory.
	// Env: JANITORR_WORKING_DIR
	// Default: "/opt/janitorr"
	WorkingDirectory string `yaml:"working_directory"`

	// ServiceNames are the systemd units checked for a running service.
	// Default: ["janitorr", "janitorr.service"]
	ServiceNames []string `yaml:"service_names"`

	// TailLines is the number of log lines shown on the dashboard.
	// Default: 100
	TailLines int `yaml:"tail_lines"`
}

// UIConfig holds settings for the web client.
type UIConfig struct {
	// AutoRefreshInterval is how often the dashboard reloads, in seconds.
	// Env: GUI_AUTO_REFRESH
	// Default: 30
	AutoRefreshInterval int `yaml:"auto_refresh_interval"`

	// Theme is "dark" or "light".
	// Env: GUI_THEME
	// Default: "dark"
	Theme string `yaml:"theme"`
}

// AuthConfig contains authentication configuration.
type AuthConfig struct {
	// Mode selects the login method.
	// Options: "none", "legacy", "ldap", "both"
	// Env: GUI_AUTH_MODE
	// Default: derived from Legacy.Enabled and LDAP.Enabled
	Mode string `yaml:"mode"`

	// Session contains session cookie settings.
	Session SessionConfig `yaml:"session"`

	// Legacy is the single built-in account.
	Legacy LegacyAuthConfig `yaml:"legacy"`

	// LDAP contains directory authentication settings.
	LDAP LDAPConfig `yaml:"ldap"`
}

// SessionConfig contains session settings.
type SessionConfig struct {
	// SecretKey signs session cookies. Generate one with "overseer keygen".
	// Env: GUI_SESSION_SECRET_KEY
	SecretKey string `yaml:"secret_key"`

	// Timeout is the idle lifetime of a session.
	// Env: GUI_SESSION_TIMEOUT (seconds)
	// Default: 1h
	Timeout time.Duration `yaml:"timeout"`

	// SecureCookies marks the session cookie Secure.
	// Env: GUI_SESSION_SECURE_COOKIES
	// Default: false
	SecureCookies bool `yaml:"secure_cookies"`

	// RememberMe lets a login ask for a longer session.
	// Env: GUI_SESSION_REMEMBER_ME
	// Default: true
	RememberMe bool `yaml:"remember_me"`

	// RememberMeDuration is the lifetime of a remembered session.
	// Default: 720h (30 days)
	RememberMeDuration time.Duration `yaml:"remember_me_duration"`

	// CookieName is the session cookie name.
	// Default: "overseer_session"
	CookieName string `yaml:"cookie_name"`
}

// LegacyAuthConfig is the single built-in account.
type LegacyAuthConfig struct {
	// Enabled turns on username/password login against this account.
	// Env: GUI_LEGACY_AUTH_ENABLED
	Enabled bool `yaml:"enabled"`

	// Username defaults to "admin".
	// Env: GUI_LEGACY_AUTH_USERNAME
	Username string `yaml:"username"`

	// Password must be set when Enabled is true.
	// Env: GUI_LEGACY_AUTH_PASSWORD
	Password string `yaml:"password"`
}

// LDAPConfig contains directory authentication settings.
type LDAPConfig struct {
	// Env: GUI_LDAP_ENABLED
	Enabled bool `yaml:"enabled"`

	// Env: GUI_LDAP_SERVER
	Server string `yaml:"server"`

	// Env: GUI_LDAP_PORT
	// Default: 389
	Port int `yaml:"port"`

	// Env: GUI_LDAP_BASE_DN
	BaseDN string `yaml:"base_dn"`

	// UserFilter is the RDN template for a user; "{}" is replaced with the
	// login name.
	// Env: GUI_LDAP_USER_FILTER
	// Default: "uid={}"
	UserFilter string `yaml:"user_filter"`

	// BindDN and BindPassword are an optional service account used to look
	// up the user's DN before binding as the user.
	// Env: GUI_LDAP_BIND_DN, GUI_LDAP_BIND_PASSWORD
	BindDN       string `yaml:"bind_dn"`
	BindPassword string `yaml:"bind_password"`

	// AdminGroup is the DN of the group whose members are administrators.
	// Env: GUI_LDAP_ADMIN_GROUP
	AdminGroup string `yaml:"admin_group"`

	// GroupStrategy selects how group membership is checked.
	// Options: "auto", "posix", "groupOfNames", "groupOfUniqueNames"
	// Env: GUI_LDAP_GROUP_STRATEGY
	// Default: "auto"
	GroupStrategy string `yaml:"group_strategy"`

	// Env: GUI_LDAP_USE_SSL
	UseSSL bool `yaml:"use_ssl"`

	// Env: GUI_LDAP_VERIFY_SSL
	// Default: true
	VerifySSL bool `yaml:"verify_ssl"`

	// Timeout bounds connection and operations.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// JellyfinConfig tunes the Jellyfin client.
type JellyfinConfig struct {
	// RequestTimeout bounds each Jellyfin API call.
	// Default: 10s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxMediaLookups caps how many titles the dashboard resolves against
	// Jellyfin per request.
	// Default: 50
	MaxMediaLookups int `yaml:"max_media_lookups"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Env: GUI_LOG_LEVEL
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact masks passwords, API keys and tokens in log attributes.
	// Default: true
	Redact bool `yaml:"redact"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "janitorr"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "overseer"
	Subsystem string `yaml:"subsystem"`

	// RefreshSchedule is the cron expression on which the schedule gauges
	// are recomputed. Empty disables background refresh.
	// Default: "*/5 * * * *"
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// TracingConfig contains tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "janitorr-overseer"
	ServiceName string `yaml:"service_name"`

	// OTLP contains exporter settings.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter settings.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the export timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check configuration.
type HealthConfig struct {
	// CheckTimeout bounds each dependency check.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// WatchConfig controls hot reload of the configuration file.
type WatchConfig struct {
	// Enabled reloads the configuration when the file changes.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Debounce coalesces bursts of file events.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce"`
}

// SecretsConfig configures resolution of ${secret:name} references in the
// session secret, the legacy password and the LDAP bind credentials.
type SecretsConfig struct {
	// Directory holds one file per secret.
	// Default: "/run/secrets"
	Directory string `yaml:"directory"`

	// EnvPrefix is prepended to the environment variable derived from a
	// secret name.
	// Default: "OVERSEER_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`
}
