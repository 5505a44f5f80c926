package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"janitorr-hq/overseer/pkg/jellyfin"
	"janitorr-hq/overseer/pkg/policystore"
)

// Names of the Janitorr dependency checks.
const (
	CheckConfig   = "config"
	CheckLogs     = "logs"
	CheckJellyfin = "jellyfin"
	CheckService  = "service"
)

// ErrNotRunning is reported when Janitorr is configured but none of its
// systemd units is active.
var ErrNotRunning = errors.New("configured, not running")

// CommandRunner runs a command and returns its trimmed standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	return strings.TrimSpace(string(out)), err
}

// Sources locate the Janitorr installation being checked.
type Sources struct {
	ConfigPath   string
	LogPath      string
	ServiceNames []string

	// JellyfinTimeout bounds the connectivity probe. Zero uses the client
	// default.
	JellyfinTimeout time.Duration

	// Runner runs systemctl. Nil uses ExecRunner.
	Runner CommandRunner
}

// RegisterJanitorrChecks registers the config, logs, jellyfin and service
// checks as optional checks on c.
func RegisterJanitorrChecks(c *Checker, src Sources) {
	c.RegisterCheck(CheckConfig, FileCheck(src.ConfigPath, "configuration"), Optional())
	c.RegisterCheck(CheckLogs, FileCheck(src.LogPath, "log"), Optional())
	c.RegisterCheck(CheckJellyfin, JellyfinCheck(src.ConfigPath, src.JellyfinTimeout), Optional())
	c.RegisterCheck(CheckService, ServiceCheck(src, src.Runner), Optional())
}

// FileCheck passes when path exists. What names the file in messages.
func FileCheck(path, what string) CheckFunc {
	return func(ctx context.Context) error {
		if path == "" {
			return fmt.Errorf("%s path not set", what)
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%s file not found", what)
			}
			return fmt.Errorf("error checking %s: %w", what, err)
		}
		return nil
	}
}

// JellyfinCheck reads the clients.jellyfin section of Janitorr's
// configuration and probes the server's public info endpoint.
func JellyfinCheck(configPath string, timeout time.Duration) CheckFunc {
	return func(ctx context.Context) error {
		if configPath == "" {
			return errors.New("configuration not available")
		}
		doc, err := policystore.NewStore(configPath).Read()
		if err != nil {
			return fmt.Errorf("error checking jellyfin configuration: %w", err)
		}
		if _, ok := doc.Get("clients.jellyfin"); !ok {
			return errors.New("jellyfin configuration not found")
		}

		settings := doc.Jellyfin()
		if !settings.Enabled {
			return errors.New("jellyfin is disabled in configuration")
		}
		if settings.URL == "" || settings.APIKey == "" {
			return errors.New("jellyfin url or api key not configured")
		}

		client, err := jellyfin.FromSettings(settings, jellyfin.WithTimeout(timeout))
		if err != nil {
			return err
		}
		if _, err := client.Ping(ctx); err != nil {
			var se *jellyfin.StatusError
			if errors.As(err, &se) {
				return fmt.Errorf("jellyfin returned status %d", se.StatusCode)
			}
			return fmt.Errorf("could not connect to jellyfin: %w", err)
		}
		return nil
	}
}

// ServiceCheck passes when Janitorr's configuration loads and
// "systemctl is-active" reports one of the service names active.
func ServiceCheck(src Sources, run CommandRunner) CheckFunc {
	if run == nil {
		run = ExecRunner
	}
	return func(ctx context.Context) error {
		if src.ConfigPath == "" || src.LogPath == "" {
			return errors.New("configuration required in dashboard settings")
		}

		store := policystore.NewStore(src.ConfigPath)
		if !store.Exists() {
			return fmt.Errorf("janitorr config file not found: %s", src.ConfigPath)
		}
		if _, err := store.Read(); err != nil {
			return fmt.Errorf("could not load janitorr configuration: %w", err)
		}

		for _, name := range src.ServiceNames {
			out, err := run(ctx, "systemctl", "is-active", name)
			if err == nil && out == "active" {
				return nil
			}
		}
		return ErrNotRunning
	}
}

// SystemStatus is the status panel view of the Janitorr checks. A check that
// was not run reports unavailable with no error.
type SystemStatus struct {
	ConfigAvailable   bool   `json:"config_available"`
	ConfigError       string `json:"config_error,omitempty"`
	LogsAvailable     bool   `json:"logs_available"`
	LogsError         string `json:"logs_error,omitempty"`
	JellyfinAvailable bool   `json:"jellyfin_available"`
	JellyfinError     string `json:"jellyfin_error,omitempty"`
	ServiceRunning    bool   `json:"service_running"`
	ServiceError      string `json:"service_error,omitempty"`
}

// SystemStatusFrom extracts the Janitorr checks from a readiness result.
func SystemStatusFrom(status HealthStatus) SystemStatus {
	var s SystemStatus
	s.ConfigAvailable, s.ConfigError = resultOf(status, CheckConfig)
	s.LogsAvailable, s.LogsError = resultOf(status, CheckLogs)
	s.JellyfinAvailable, s.JellyfinError = resultOf(status, CheckJellyfin)
	s.ServiceRunning, s.ServiceError = resultOf(status, CheckService)
	return s
}

func resultOf(status HealthStatus, name string) (bool, string) {
	r, ok := status.Checks[name]
	if !ok {
		return false, ""
	}
	return r.OK(), r.Message
}
