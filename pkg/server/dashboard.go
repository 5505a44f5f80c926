package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"janitorr-hq/overseer/pkg/policystore"
	"janitorr-hq/overseer/pkg/retention"
	"janitorr-hq/overseer/pkg/schedule"
	"janitorr-hq/overseer/pkg/telemetry/health"
)

// MaxLogLines caps the lines parameter of the recent logs endpoint.
const MaxLogLines = 5000

const timeLayout = time.RFC3339

type uiSettings struct {
	AutoRefreshInterval int    `json:"auto_refresh_interval"`
	Theme               string `json:"theme"`
}

type dashboardResponse struct {
	Deletions         schedule.Schedule     `json:"deletions"`
	Summary           schedule.Summary      `json:"summary"`
	RetentionDays     retention.Days        `json:"retention_days"`
	MediaInfo         map[string]mediaEntry `json:"media_info"`
	RecentLogs        []string              `json:"recent_logs"`
	SystemStatus      health.SystemStatus   `json:"system_status"`
	JellyfinEnabled   bool                  `json:"jellyfin_enabled"`
	JellyfinAvailable bool                  `json:"jellyfin_available"`
	DeletionConfig    any                   `json:"deletion_config"`
	Errors            map[string]string     `json:"errors,omitempty"`
	UI                uiSettings            `json:"ui"`
}

type scheduleResponse struct {
	Deletions     schedule.Schedule `json:"deletions"`
	Summary       schedule.Summary  `json:"summary"`
	RetentionDays retention.Days    `json:"retention_days"`
	Error         string            `json:"error,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := s.config()

	status := health.SystemStatusFrom(s.opts.Checker.CheckReadiness(ctx))
	snap, logErr := s.opts.Source.Load(ctx)

	resp := dashboardResponse{
		Deletions:         nonNil(snap.Schedule),
		Summary:           snap.Summary,
		RetentionDays:     snap.Retention,
		MediaInfo:         map[string]mediaEntry{},
		RecentLogs:        []string{},
		SystemStatus:      status,
		JellyfinAvailable: status.JellyfinAvailable,
		UI: uiSettings{
			AutoRefreshInterval: cfg.UI.AutoRefreshInterval,
			Theme:               cfg.UI.Theme,
		},
	}

	errs := map[string]string{}
	if snap.PolicyErr != nil {
		errs["config"] = snap.PolicyErr.Error()
	}
	if logErr != nil {
		errs["logs"] = logErr.Error()
	}

	if snap.Policy != nil {
		resp.DeletionConfig = policystore.JSONValue(snap.Policy.DeletionRules())
		resp.JellyfinEnabled = snap.Policy.Jellyfin().Configured()
	}

	if status.LogsAvailable {
		lines, err := s.opts.Source.Tail(ctx, cfg.Janitorr.TailLines)
		if err != nil {
			errs["recent_logs"] = err.Error()
		} else {
			resp.RecentLogs = lines
		}
	}

	if status.JellyfinAvailable && snap.Policy != nil {
		resp.MediaInfo = s.lookupMedia(ctx, snap.Policy, snap.Schedule)
	}

	if len(errs) > 0 {
		resp.Errors = errs
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	snap, err := s.opts.Source.Load(r.Context())
	resp := scheduleResponse{
		Deletions:     nonNil(snap.Schedule),
		Summary:       snap.Summary,
		RetentionDays: snap.Retention,
	}

	switch {
	case err == nil:
	case errors.Is(err, schedule.ErrNotFound):
		resp.Error = err.Error()
	default:
		s.logger.ErrorContext(r.Context(), "schedule reconstruction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read janitorr log")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecentLogs(w http.ResponseWriter, r *http.Request) {
	n := s.config().Janitorr.TailLines
	if raw := r.URL.Query().Get("lines"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "lines must be a non-negative integer")
			return
		}
		n = min(v, MaxLogLines)
	}

	lines, err := s.opts.Source.Tail(r.Context(), n)
	if err != nil && !errors.Is(err, schedule.ErrNotFound) {
		s.logger.ErrorContext(r.Context(), "failed to tail janitorr log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read janitorr log")
		return
	}
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"logs": lines})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, health.SystemStatusFrom(s.opts.Checker.CheckReadiness(r.Context())))
}

func nonNil(s schedule.Schedule) schedule.Schedule {
	if s == nil {
		return schedule.Schedule{}
	}
	return s
}
