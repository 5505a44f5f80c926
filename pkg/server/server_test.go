package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"janitorr-hq/overseer/pkg/config"
	"janitorr-hq/overseer/pkg/policystore"
	"janitorr-hq/overseer/pkg/refresh"
	"janitorr-hq/overseer/pkg/schedule"
	"janitorr-hq/overseer/pkg/security/auth"
	"janitorr-hq/overseer/pkg/telemetry/health"
	"janitorr-hq/overseer/pkg/telemetry/metrics"
)

const (
	testItemID = "0123456789abcdef0123456789abcdef"

	policyYAML = `application:
  media-deletion:
    enabled: true
    movie-expiration:
      5: 30d
      10: 30d
`
)

func logLine(date, title string, age int) string {
	return fmt.Sprintf("%sT03:00:01.123Z  INFO 1 --- [scheduling-1] c.g.s.j.s.RadarrRestService : Deleting %s [%d}]", date, title, age)
}

var testLog = strings.Join([]string{
	"2024-01-10T03:00:00.000Z  INFO 1 --- [main] c.g.s.j.JanitorrApplication : Started",
	logLine("2024-01-10", "Movie A", 5),
	logLine("2024-01-10", "Movie B", 40),
}, "\n") + "\n"

type harness struct {
	t        *testing.T
	cfg      *config.Config
	dir      string
	policy   string
	logPath  string
	settings string
	sessions *auth.SessionStore
	server   *Server
	handler  http.Handler
	registry *prometheus.Registry
	changed  int
}

type harnessOption func(*harness, *Options)

func withPolicy(content string) harnessOption {
	return func(h *harness, _ *Options) {
		writeFile(h.t, h.policy, content)
	}
}

func withoutLog() harnessOption {
	return func(h *harness, _ *Options) {
		if err := os.Remove(h.logPath); err != nil {
			h.t.Fatal(err)
		}
	}
}

func withAuthenticator(a auth.Authenticator) harnessOption {
	return func(_ *harness, o *Options) {
		o.Authenticator = a
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	dir := t.TempDir()
	h := &harness{
		t:        t,
		dir:      dir,
		policy:   filepath.Join(dir, "application.yml"),
		logPath:  filepath.Join(dir, "janitorr.log"),
		settings: filepath.Join(dir, "overseer.yaml"),
	}
	writeFile(t, h.policy, policyYAML)
	writeFile(t, h.logPath, testLog)

	cfg := config.NewDefaultConfig()
	cfg.Janitorr.ConfigPath = h.policy
	cfg.Janitorr.LogPath = h.logPath
	cfg.Auth.Mode = config.AuthModeLegacy
	cfg.Auth.Legacy.Enabled = true
	cfg.Auth.Legacy.Username = "admin"
	cfg.Auth.Legacy.Password = "secret"
	cfg.Auth.Session.SecretKey = "test-secret-key-0123456789abcdef"
	h.cfg = cfg

	sessions, err := auth.NewSessionStore(cfg.Auth.Session)
	if err != nil {
		t.Fatalf("NewSessionStore() error = %v", err)
	}
	h.sessions = sessions

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.registry = prometheus.NewRegistry()
	collector := metrics.NewCollector(cfg.Telemetry.Metrics, h.registry)

	checker := health.New(2 * time.Second)
	health.RegisterJanitorrChecks(checker, health.Sources{
		ConfigPath:   h.policy,
		LogPath:      h.logPath,
		ServiceNames: []string{"janitorr"},
		Runner: func(context.Context, string, ...string) (string, error) {
			return "inactive", errors.New("exit status 3")
		},
	})

	today, _ := schedule.ParseDate("2024-01-10")
	o := Options{
		Config:            func() *config.Config { return h.cfg },
		SettingsPath:      h.settings,
		Checker:           checker,
		Sessions:          sessions,
		Metrics:           collector,
		OnSettingsChanged: func() { h.changed++ },
		Version:           "test",
		Logger:            logger,
	}
	for _, opt := range opts {
		opt(h, &o)
	}

	o.Source = refresh.NewSource(
		policystore.NewStore(h.policy),
		schedule.NewReader(h.logPath),
		refresh.WithMetrics(collector),
		refresh.WithToday(func() schedule.Date { return today }),
		refresh.WithLogger(logger),
	)

	srv, err := New(o)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.server = srv
	h.handler = srv.Handler()
	return h
}

// login returns a session cookie for a user.
func (h *harness) login(admin bool) *http.Cookie {
	h.t.Helper()
	id := auth.Identity{Username: "alice", Admin: admin, Method: auth.MethodLegacy}
	sess, token, err := h.sessions.Create(id, false)
	if err != nil {
		h.t.Fatalf("Create() error = %v", err)
	}
	return h.sessions.Cookie(token, sess)
}

func (h *harness) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	h.t.Helper()
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return h.do(httptest.NewRequest(http.MethodGet, path, nil), cookie)
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// fakeJellyfin serves the Jellyfin endpoints the dashboard calls.
func fakeJellyfin(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /System/Info/Public", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Id":"srv","ServerName":"jellyfin","Version":"10.9.0"}`)
	})
	mux.HandleFunc("GET /Items", func(w http.ResponseWriter, r *http.Request) {
		term := r.URL.Query().Get("SearchTerm")
		if term == "Movie B" {
			fmt.Fprint(w, `{"Items":[]}`)
			return
		}
		fmt.Fprintf(w, `{"Items":[{"Id":%q,"Name":%q,"Type":"Movie","ImageTags":{"Primary":"tag"}}]}`, testItemID, term)
	})
	mux.HandleFunc("GET /Items/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != testItemID {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"Id":%q,"Name":"Movie A","Type":"Movie"}`, testItemID)
	})
	mux.HandleFunc("GET /Items/{id}/Images/{type}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != testItemID {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func jellyfinPolicy(url string) string {
	return policyYAML + fmt.Sprintf(`clients:
  jellyfin:
    enabled: true
    url: %s
    api-key: test-key
`, url)
}

func TestNewRequiresDependencies(t *testing.T) {
	src := refresh.NewSource(policystore.NewStore("x"), schedule.NewReader("y"))
	sessions, err := auth.NewSessionStore(config.SessionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	cfg := func() *config.Config { return config.NewDefaultConfig() }

	tests := []struct {
		name string
		opts Options
	}{
		{"no source", Options{Config: cfg, Checker: health.New(time.Second), Sessions: sessions}},
		{"no checker", Options{Config: cfg, Source: src, Sessions: sessions}},
		{"no sessions", Options{Config: cfg, Source: src, Checker: health.New(time.Second)}},
		{"no config", Options{
			Config:   func() *config.Config { return nil },
			Source:   src,
			Checker:  health.New(time.Second),
			Sessions: sessions,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantCookie  bool
	}{
		{
			name:        "json",
			contentType: "application/json",
			body:        `{"username":"admin","password":"secret"}`,
			wantStatus:  http.StatusOK,
			wantCookie:  true,
		},
		{
			name:        "form with remember",
			contentType: "application/x-www-form-urlencoded",
			body:        "username=admin&password=secret&remember=on",
			wantStatus:  http.StatusOK,
			wantCookie:  true,
		},
		{
			name:        "wrong password",
			contentType: "application/json",
			body:        `{"username":"admin","password":"nope"}`,
			wantStatus:  http.StatusUnauthorized,
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			body:        `{"username":`,
			wantStatus:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := h.do(req, nil)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			var cookie *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == h.sessions.CookieName() {
					cookie = c
				}
			}
			if (cookie != nil) != tt.wantCookie {
				t.Fatalf("session cookie set = %v, want %v", cookie != nil, tt.wantCookie)
			}
			if cookie == nil {
				return
			}

			rec = h.get("/api/session", cookie)
			if rec.Code != http.StatusOK {
				t.Fatalf("/api/session status = %d, want 200", rec.Code)
			}
			var got sessionResponse
			decode(t, rec, &got)
			if got.Username != "admin" || !got.Admin {
				t.Errorf("session = %+v, want admin", got)
			}
		})
	}
}

type unavailableAuthenticator struct{}

func (unavailableAuthenticator) Name() string { return "ldap" }

func (unavailableAuthenticator) Authenticate(context.Context, string, string) (auth.Identity, error) {
	return auth.Identity{}, fmt.Errorf("%w: connection refused", auth.ErrUnavailable)
}

func TestLoginUnavailable(t *testing.T) {
	h := newHarness(t, withAuthenticator(unavailableAuthenticator{}))
	rec := h.do(postForm("/login", url.Values{"username": {"bob"}, "password": {"pw"}}), nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(false)

	rec := h.do(httptest.NewRequest(http.MethodPost, "/logout", nil), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if h.sessions.Len() != 0 {
		t.Errorf("sessions = %d after logout, want 0", h.sessions.Len())
	}
	if rec := h.get("/api/dashboard", cookie); rec.Code != http.StatusUnauthorized {
		t.Errorf("dashboard after logout status = %d, want 401", rec.Code)
	}
}

func TestRoutesRequireSession(t *testing.T) {
	h := newHarness(t)
	paths := []string{
		"/api/session",
		"/api/dashboard",
		"/api/schedule",
		"/api/logs/recent",
		"/api/status",
		"/api/media/" + testItemID + "/info",
		"/jellyfin/Items/" + testItemID + "/Images/Primary",
		"/api/config",
	}
	for _, path := range paths {
		if rec := h.get(path, nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, rec.Code)
		}
	}
}

func TestAdminRoutes(t *testing.T) {
	h := newHarness(t)
	user := h.login(false)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/config"},
		{http.MethodPut, "/api/config"},
		{http.MethodPost, "/api/config/section"},
		{http.MethodPost, "/api/config/preview"},
	}
	for _, tt := range tests {
		rec := h.do(httptest.NewRequest(tt.method, tt.path, strings.NewReader("a: 1")), user)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s status = %d, want 403", tt.method, tt.path, rec.Code)
		}
	}
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	rec := h.get("/api/dashboard", h.login(false))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Deletions map[string][]struct {
			Title             string `json:"title"`
			DaysUntilDeletion *int   `json:"days_until_deletion"`
			DeletionDate      string `json:"deletion_date"`
		} `json:"deletions"`
		Summary         schedule.Summary       `json:"summary"`
		RetentionDays   *int                   `json:"retention_days"`
		MediaInfo       map[string]any         `json:"media_info"`
		RecentLogs      []string               `json:"recent_logs"`
		SystemStatus    health.SystemStatus    `json:"system_status"`
		JellyfinEnabled bool                   `json:"jellyfin_enabled"`
		DeletionConfig  map[string]any         `json:"deletion_config"`
		Errors          map[string]string      `json:"errors"`
		UI              map[string]interface{} `json:"ui"`
	}
	decode(t, rec, &got)

	records := got.Deletions["2024-01-10"]
	if len(records) != 2 {
		t.Fatalf("deletions = %+v, want 2 records on 2024-01-10", got.Deletions)
	}
	// Newest line first.
	if records[0].Title != "Movie B" || records[1].Title != "Movie A" {
		t.Errorf("titles = %q, %q; want Movie B, Movie A", records[0].Title, records[1].Title)
	}
	if records[1].DaysUntilDeletion == nil || *records[1].DaysUntilDeletion != 25 {
		t.Errorf("Movie A days until deletion = %v, want 25", records[1].DaysUntilDeletion)
	}
	if records[1].DeletionDate != "2024-02-04" {
		t.Errorf("Movie A deletion date = %q, want 2024-02-04", records[1].DeletionDate)
	}
	if got.RetentionDays == nil || *got.RetentionDays != 30 {
		t.Errorf("retention_days = %v, want 30", got.RetentionDays)
	}
	if got.Summary.Total != 2 || got.Summary.Overdue != 1 {
		t.Errorf("summary = %+v, want 2 total and 1 overdue", got.Summary)
	}
	if len(got.RecentLogs) != 3 {
		t.Errorf("recent_logs = %d lines, want 3", len(got.RecentLogs))
	}
	if !got.SystemStatus.ConfigAvailable || !got.SystemStatus.LogsAvailable {
		t.Errorf("system_status = %+v, want config and logs available", got.SystemStatus)
	}
	if got.SystemStatus.JellyfinAvailable || got.JellyfinEnabled {
		t.Error("jellyfin reported available without configuration")
	}
	if len(got.MediaInfo) != 0 {
		t.Errorf("media_info = %v, want empty", got.MediaInfo)
	}
	if _, ok := got.DeletionConfig["media_deletion"]; !ok {
		t.Errorf("deletion_config = %v, want media_deletion", got.DeletionConfig)
	}
	if len(got.Errors) != 0 {
		t.Errorf("errors = %v, want none", got.Errors)
	}
}

func TestDashboardMediaInfo(t *testing.T) {
	jf := fakeJellyfin(t)
	h := newHarness(t, withPolicy(jellyfinPolicy(jf.URL)))

	rec := h.get("/api/dashboard", h.login(false))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		MediaInfo map[string]struct {
			Info struct {
				ID   string `json:"Id"`
				Name string `json:"Name"`
			} `json:"info"`
			ImagePath *string `json:"image_path"`
		} `json:"media_info"`
		JellyfinEnabled   bool `json:"jellyfin_enabled"`
		JellyfinAvailable bool `json:"jellyfin_available"`
	}
	decode(t, rec, &got)

	if !got.JellyfinEnabled || !got.JellyfinAvailable {
		t.Fatalf("jellyfin enabled = %v, available = %v; want both", got.JellyfinEnabled, got.JellyfinAvailable)
	}
	if len(got.MediaInfo) != 1 {
		t.Fatalf("media_info = %+v, want only Movie A", got.MediaInfo)
	}
	entry := got.MediaInfo["Movie A"]
	if entry.Info.ID != testItemID {
		t.Errorf("Movie A id = %q, want %q", entry.Info.ID, testItemID)
	}
	wantPath := "/jellyfin/Items/" + testItemID + "/Images/Primary"
	if entry.ImagePath == nil || *entry.ImagePath != wantPath {
		t.Errorf("image_path = %v, want %s", entry.ImagePath, wantPath)
	}
}

func TestDashboardWithoutPolicy(t *testing.T) {
	h := newHarness(t)
	if err := os.Remove(h.policy); err != nil {
		t.Fatal(err)
	}

	rec := h.get("/api/dashboard", h.login(false))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got struct {
		RetentionDays *int              `json:"retention_days"`
		Errors        map[string]string `json:"errors"`
		Summary       schedule.Summary  `json:"summary"`
	}
	decode(t, rec, &got)

	if got.RetentionDays != nil {
		t.Errorf("retention_days = %d, want null", *got.RetentionDays)
	}
	if got.Errors["config"] == "" {
		t.Errorf("errors = %v, want a config error", got.Errors)
	}
	if got.Summary.Total != 2 || got.Summary.Unscheduled != 2 {
		t.Errorf("summary = %+v, want 2 unscheduled", got.Summary)
	}
}

func TestSchedule(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		h := newHarness(t)
		rec := h.get("/api/schedule", h.login(false))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var got scheduleResponse
		decode(t, rec, &got)
		if got.Deletions.Len() != 2 || got.Error != "" {
			t.Errorf("schedule = %+v, want 2 records and no error", got)
		}
	})

	t.Run("missing log", func(t *testing.T) {
		h := newHarness(t, withoutLog())
		rec := h.get("/api/schedule", h.login(false))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var got scheduleResponse
		decode(t, rec, &got)
		if got.Deletions.Len() != 0 {
			t.Errorf("deletions = %v, want empty", got.Deletions)
		}
		if !strings.Contains(got.Error, "not found") {
			t.Errorf("error = %q, want not found", got.Error)
		}
	})
}

func TestRecentLogs(t *testing.T) {
	tests := []struct {
		query      string
		wantStatus int
		wantLines  int
	}{
		{"", http.StatusOK, 3},
		{"?lines=1", http.StatusOK, 1},
		{"?lines=0", http.StatusOK, 0},
		{"?lines=abc", http.StatusBadRequest, 0},
		{"?lines=-2", http.StatusBadRequest, 0},
	}

	h := newHarness(t)
	cookie := h.login(false)
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := h.get("/api/logs/recent"+tt.query, cookie)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got map[string][]string
			decode(t, rec, &got)
			if len(got["logs"]) != tt.wantLines {
				t.Errorf("logs = %d lines, want %d", len(got["logs"]), tt.wantLines)
			}
		})
	}

	t.Run("last line", func(t *testing.T) {
		rec := h.get("/api/logs/recent?lines=1", cookie)
		var got map[string][]string
		decode(t, rec, &got)
		if diff := cmp.Diff([]string{logLine("2024-01-10", "Movie B", 40)}, got["logs"]); diff != "" {
			t.Errorf("logs mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	rec := h.get("/api/status", h.login(false))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got health.SystemStatus
	decode(t, rec, &got)
	if !got.ConfigAvailable || !got.LogsAvailable || got.ServiceRunning {
		t.Errorf("status = %+v, want config and logs available, service not running", got)
	}
}

func TestMediaInfo(t *testing.T) {
	jf := fakeJellyfin(t)

	tests := []struct {
		name       string
		policy     string
		id         string
		wantStatus int
	}{
		{"found", jellyfinPolicy(jf.URL), testItemID, http.StatusOK},
		{"missing", jellyfinPolicy(jf.URL), "ffffffffffffffffffffffffffffffff", http.StatusNotFound},
		{"undefined", jellyfinPolicy(jf.URL), "undefined", http.StatusBadRequest},
		{"not configured", policyYAML, testItemID, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, withPolicy(tt.policy))
			rec := h.get("/api/media/"+tt.id+"/info", h.login(false))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var item map[string]any
			decode(t, rec, &item)
			if item["Id"] != testItemID {
				t.Errorf("Id = %v, want %s", item["Id"], testItemID)
			}
		})
	}
}

func TestImageProxy(t *testing.T) {
	jf := fakeJellyfin(t)

	tests := []struct {
		name       string
		policy     string
		path       string
		wantStatus int
	}{
		{"image", jellyfinPolicy(jf.URL), testItemID + "/Images/Primary", http.StatusOK},
		{"short id", jellyfinPolicy(jf.URL), "abc/Images/Primary", http.StatusBadRequest},
		{"bad type", jellyfinPolicy(jf.URL), testItemID + "/Images/Poster", http.StatusBadRequest},
		{"missing", jellyfinPolicy(jf.URL), "ffffffffffffffffffffffffffffffff/Images/Primary", http.StatusNotFound},
		{"not configured", policyYAML, testItemID + "/Images/Primary", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, withPolicy(tt.policy))
			rec := h.get("/jellyfin/Items/"+tt.path, h.login(false))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("Content-Type = %q, want image/png", ct)
			}
			if rec.Body.String() != "png-bytes" {
				t.Errorf("body = %q, want png-bytes", rec.Body.String())
			}
		})
	}
}

func TestGetConfig(t *testing.T) {
	h := newHarness(t)
	rec := h.get("/api/config", h.login(true))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got configResponse
	decode(t, rec, &got)
	if got.Path != h.policy || !got.Exists {
		t.Errorf("path = %q exists = %v, want %q and true", got.Path, got.Exists, h.policy)
	}
	if got.YAML != policyYAML {
		t.Errorf("yaml = %q, want file contents", got.YAML)
	}
	cfg, ok := got.Config.(map[string]any)
	if !ok || cfg["application"] == nil {
		t.Errorf("config = %v, want parsed document", got.Config)
	}
}

func TestPutConfig(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		form       bool
		wantStatus int
		wantFile   string
	}{
		{
			name:       "raw yaml",
			body:       "application:\n  dry-run: true\n",
			wantStatus: http.StatusOK,
			wantFile:   "application:\n  dry-run: true\n",
		},
		{
			name:       "form field",
			body:       url.Values{"config": {"a: 1\n"}}.Encode(),
			form:       true,
			wantStatus: http.StatusOK,
			wantFile:   "a: 1\n",
		},
		{
			name:       "malformed",
			body:       "a: [1, 2",
			wantStatus: http.StatusBadRequest,
			wantFile:   policyYAML,
		},
		{
			name:       "empty",
			body:       "  \n",
			wantStatus: http.StatusBadRequest,
			wantFile:   policyYAML,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := httptest.NewRequest(http.MethodPut, "/api/config", strings.NewReader(tt.body))
			if tt.form {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			} else {
				req.Header.Set("Content-Type", "application/yaml")
			}
			rec := h.do(req, h.login(true))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			data, err := os.ReadFile(h.policy)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.wantFile {
				t.Errorf("file = %q, want %q", data, tt.wantFile)
			}
		})
	}
}

func TestConfigSection(t *testing.T) {
	h := newHarness(t)
	form := url.Values{
		"section": {"media-deletion"},
		"application.media-deletion.movie-expiration.default": {"60d"},
		"application.dry-run": {"true"},
		"gui.theme":           {"light"},
	}
	rec := h.do(postForm("/api/config/section", form), h.login(true))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	doc, err := policystore.NewStore(h.policy).Read()
	if err != nil {
		t.Fatal(err)
	}
	if days, ok := doc.Retention().Get(); !ok || days != 60 {
		t.Errorf("retention after save = %v, want 60", doc.Retention())
	}
	if v, _ := doc.Get("application.dry-run"); v != true {
		t.Errorf("dry-run = %v, want true", v)
	}
	if _, ok := doc.Get("gui"); ok {
		t.Error("dashboard keys written to janitorr configuration")
	}
	if _, err := os.Stat(policystore.NewStore(h.policy).BackupPath()); err != nil {
		t.Errorf("backup not kept: %v", err)
	}
}

func TestConfigSectionSettings(t *testing.T) {
	h := newHarness(t)
	form := url.Values{
		"section":                   {SettingsSection},
		"gui.theme":                 {"light"},
		"gui.auto_refresh_interval": {"60"},
		"gui.legacy_auth.enabled":   {"on"},
		"gui.legacy_auth.password":  {"secret"},
	}
	rec := h.do(postForm("/api/config/section", form), h.login(true))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if h.changed != 1 {
		t.Errorf("OnSettingsChanged called %d times, want 1", h.changed)
	}

	cfg, err := config.LoadConfig(h.settings)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.UI.Theme != "light" || cfg.UI.AutoRefreshInterval != 60 {
		t.Errorf("ui = %+v, want light theme every 60s", cfg.UI)
	}
	if !cfg.Auth.Legacy.Enabled || cfg.Auth.LDAP.Enabled {
		t.Errorf("legacy = %v ldap = %v, want legacy only", cfg.Auth.Legacy.Enabled, cfg.Auth.LDAP.Enabled)
	}
	if cfg.Auth.Session.SecureCookies {
		t.Error("unchecked secure_cookies saved as true")
	}

	data, err := os.ReadFile(h.policy)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != policyYAML {
		t.Error("janitorr configuration modified by dashboard settings")
	}
}

func TestConfigPreview(t *testing.T) {
	t.Run("yaml diff", func(t *testing.T) {
		h := newHarness(t)
		next := strings.Replace(policyYAML, "30d", "45d", 1)
		req := httptest.NewRequest(http.MethodPost, "/api/config/preview", strings.NewReader(next))
		req.Header.Set("Content-Type", "application/yaml")
		rec := h.do(req, h.login(true))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}

		var got policystore.Preview
		decode(t, rec, &got)
		joined := strings.Join(got.Diff, "\n")
		for _, want := range []string{"--- Current", "+++ New", "-      5: 30d", "+      5: 45d"} {
			if !strings.Contains(joined, want) {
				t.Errorf("diff missing %q:\n%s", want, joined)
			}
		}

		data, _ := os.ReadFile(h.policy)
		if string(data) != policyYAML {
			t.Error("preview modified the configuration")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		h := newHarness(t)
		req := httptest.NewRequest(http.MethodPost, "/api/config/preview", strings.NewReader("a: [1"))
		rec := h.do(req, h.login(true))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("section form", func(t *testing.T) {
		h := newHarness(t)
		form := url.Values{
			"section": {"media-deletion"},
			"application.media-deletion.season-expiration.default": {"14d"},
		}
		rec := h.do(postForm("/api/config/preview", form), h.login(true))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var got previewResponse
		decode(t, rec, &got)
		if !strings.Contains(got.YAML, "season-expiration:") || !strings.Contains(got.YAML, "20: 14d") {
			t.Errorf("yaml = %q, want season tiers", got.YAML)
		}
		data, _ := os.ReadFile(h.policy)
		if string(data) != policyYAML {
			t.Error("preview modified the configuration")
		}
	})

	t.Run("settings form", func(t *testing.T) {
		h := newHarness(t)
		form := url.Values{"section": {SettingsSection}, "gui.theme": {"light"}}
		rec := h.do(postForm("/api/config/preview", form), h.login(true))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var got previewResponse
		decode(t, rec, &got)
		if !strings.Contains(got.YAML, "theme: light") {
			t.Errorf("yaml = %q, want theme: light", got.YAML)
		}
		if _, err := os.Stat(h.settings); !os.IsNotExist(err) {
			t.Error("settings preview wrote the settings file")
		}
	})
}

func TestPublicEndpoints(t *testing.T) {
	h := newHarness(t)

	if rec := h.get("/health", nil); rec.Code != http.StatusOK {
		t.Errorf("/health status = %d, want 200", rec.Code)
	}
	if rec := h.get("/version", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"test"`) {
		t.Errorf("/version = %d %s", rec.Code, rec.Body.String())
	}

	h.get("/api/schedule", h.login(false))
	rec := h.get("/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `janitorr_overseer_http_requests_total{method="GET",route="GET /api/schedule",status="200"} 1`) {
		t.Errorf("metrics missing schedule request:\n%s", rec.Body.String())
	}
}

func TestStartShutdown(t *testing.T) {
	h := newHarness(t)
	h.cfg.Server.ListenAddress = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.server.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for h.server.Addr() == "" {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !h.server.IsRunning() {
		t.Error("IsRunning() = false after start")
	}

	resp, err := http.Get("http://" + h.server.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if h.server.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

func TestStop(t *testing.T) {
	h := newHarness(t)
	h.cfg.Server.ListenAddress = "127.0.0.1:0"

	done := make(chan error, 1)
	go func() { done <- h.server.Start(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for h.server.Addr() == "" {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.server.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
