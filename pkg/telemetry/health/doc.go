// Package health checks the dashboard's dependencies and serves the probe
// endpoints.
//
// A Checker runs named checks concurrently, each bounded by a timeout.
// RegisterJanitorrChecks adds the checks the dashboard shows on its status
// panel:
//
//   - config: Janitorr's application.yml exists
//   - logs: Janitorr's log file exists
//   - jellyfin: the Jellyfin client is enabled, configured and reachable
//   - service: Janitorr is configured and one of its systemd units is active
//
// Only required checks affect readiness. The Janitorr checks are optional:
// the dashboard still serves when Janitorr is stopped or Jellyfin is down,
// and reports the problem in the status panel instead.
//
// # Endpoints
//
//   - /health: liveness, always 200 while the process runs
//   - /ready: readiness, 503 when a required check fails
//   - /version: build information
//
// # Usage
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	health.RegisterJanitorrChecks(checker, health.Sources{
//	    ConfigPath:   cfg.Janitorr.ConfigPath,
//	    LogPath:      cfg.Janitorr.LogPath,
//	    ServiceNames: cfg.Janitorr.ServiceNames,
//	})
//	status := health.SystemStatusFrom(checker.CheckReadiness(ctx))
package health
