package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"janitorr-hq/overseer/pkg/cli"
	"janitorr-hq/overseer/pkg/schedule"
	"janitorr-hq/overseer/pkg/telemetry/health"
)

const testPolicy = `application:
  media-deletion:
    enabled: true
    movie-expiration:
      5: 30d
      10: 30d
`

func testLogLine(date, title string, age int) string {
	return fmt.Sprintf("%sT03:00:01.123Z  INFO 1 --- [scheduling-1] c.g.s.j.s.RadarrRestService : Deleting %s [%d}]", date, title, age)
}

type fixture struct {
	settings string
	policy   string
	log      string
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newFixture writes a settings file pointing at a Janitorr configuration and
// log in a temporary directory.
func newFixture(t *testing.T, extra string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		settings: filepath.Join(dir, "overseer.yaml"),
		policy:   filepath.Join(dir, "application.yml"),
		log:      filepath.Join(dir, "janitorr.log"),
	}
	writeTestFile(t, f.policy, testPolicy)
	writeTestFile(t, f.log, strings.Join([]string{
		"2024-01-10T03:00:00.000Z  INFO 1 --- [main] c.g.s.j.JanitorrApplication : Started",
		testLogLine("2024-01-10", "Movie A", 5),
		testLogLine("2024-01-10", "Movie B", 40),
	}, "\n")+"\n")
	writeTestFile(t, f.settings, fmt.Sprintf(`janitorr:
  config_path: %s
  log_path: %s
  service_names: [janitorr-test-unit]
telemetry:
  logging:
    level: error
%s`, f.policy, f.log, extra))
	return f
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	scheduleFlags.logPath, scheduleFlags.policyPath = "", ""
	scheduleFlags.output, scheduleFlags.today, scheduleFlags.jellyfin = "text", "", false
	tailFlags.logPath, tailFlags.lines = "", 0
	statusFlags.output = "text"
	keygenFlags.bytes = 32
	passwordFlags.password = ""
	verbose = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScheduleCommand(t *testing.T) {
	f := newFixture(t, "")

	out, err := execute(t, "", "schedule", "--config", f.settings)
	if err != nil {
		t.Fatalf("schedule error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("schedule printed %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "TITLE") {
		t.Errorf("header = %q", lines[0])
	}
	if fields := strings.Fields(lines[1]); fields[0] != "Movie" || fields[1] != "B" {
		t.Errorf("first row = %q, want Movie B", lines[1])
	}
	if !strings.Contains(lines[2], "2024-02-04") || !strings.Contains(lines[2], "25d") {
		t.Errorf("Movie A row = %q, want deletion 2024-02-04 in 25d", lines[2])
	}
}

func TestScheduleCommandJSON(t *testing.T) {
	f := newFixture(t, "")

	out, err := execute(t, "", "schedule", "--config", f.settings, "-o", "json", "--today", "2024-01-10")
	if err != nil {
		t.Fatalf("schedule error = %v", err)
	}

	var got struct {
		ScanDate  string            `json:"scan_date"`
		Retention *int              `json:"retention_days"`
		Summary   schedule.Summary  `json:"summary"`
		Records   []schedule.Record `json:"records"`
		MediaIDs  map[string]string `json:"media_ids"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.ScanDate != "2024-01-10" {
		t.Errorf("scan_date = %q", got.ScanDate)
	}
	if got.Retention == nil || *got.Retention != 30 {
		t.Errorf("retention_days = %v, want 30", got.Retention)
	}
	if got.Summary.Total != 2 || got.Summary.Overdue != 1 {
		t.Errorf("summary = %+v, want total 2 overdue 1", got.Summary)
	}
	if got.Summary.NextDeletion == nil || got.Summary.NextDeletion.String() != "2024-02-04" {
		t.Errorf("next_deletion = %v, want 2024-02-04", got.Summary.NextDeletion)
	}
	if len(got.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(got.Records))
	}
	if got.MediaIDs != nil {
		t.Errorf("media_ids = %v, want omitted", got.MediaIDs)
	}
}

func TestScheduleCommandCSV(t *testing.T) {
	f := newFixture(t, "")

	out, err := execute(t, "", "schedule", "--config", f.settings, "-o", "csv")
	if err != nil {
		t.Fatalf("schedule error = %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	want := [][]string{
		{"TITLE", "ADDED", "AGE", "DELETES", "IN"},
		{"Movie B", "2023-12-01", "40d", "2023-12-31", "-10d"},
		{"Movie A", "2024-01-05", "5d", "2024-02-04", "25d"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestScheduleCommandUnknownRetention(t *testing.T) {
	f := newFixture(t, "")
	missing := filepath.Join(t.TempDir(), "absent.yml")

	out, err := execute(t, "", "schedule", "--config", f.settings, "--policy", missing, "-o", "csv")
	if err != nil {
		t.Fatalf("schedule error = %v", err)
	}
	if !strings.Contains(out, "Movie A,2024-01-05,5d,unknown,-") {
		t.Errorf("output = %q, want unknown deletion date", out)
	}
}

func TestScheduleCommandErrors(t *testing.T) {
	f := newFixture(t, "")

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"bad output", []string{"-o", "xml"}, cli.ExitConfig},
		{"bad today", []string{"--today", "10/01/2024"}, cli.ExitConfig},
		{"missing log", []string{"--log", filepath.Join(t.TempDir(), "none.log")}, cli.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"schedule", "--config", f.settings}, tt.args...)
			_, err := execute(t, "", args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := cli.ExitCode(err); code != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d (%v)", code, tt.wantCode, err)
			}
		})
	}
}

func TestScheduleCommandMissingLogIsNotFound(t *testing.T) {
	f := newFixture(t, "")

	_, err := execute(t, "", "schedule", "--config", f.settings, "--log", filepath.Join(t.TempDir(), "none.log"))
	if !errors.Is(err, schedule.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestTailCommand(t *testing.T) {
	f := newFixture(t, "")

	out, err := execute(t, "", "tail", "--config", f.settings, "-n", "2")
	if err != nil {
		t.Fatalf("tail error = %v", err)
	}
	want := testLogLine("2024-01-10", "Movie A", 5) + "\n" + testLogLine("2024-01-10", "Movie B", 40) + "\n"
	if out != want {
		t.Errorf("tail output = %q, want %q", out, want)
	}

	if _, err := execute(t, "", "tail", "--config", f.settings, "-n", "-1"); err == nil {
		t.Error("negative line count should fail")
	}
}

func TestStatusCommand(t *testing.T) {
	f := newFixture(t, "")

	out, err := execute(t, "", "status", "--config", f.settings, "-o", "json")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}

	var got struct {
		Checks map[string]health.CheckResult `json:"checks"`
		System health.SystemStatus           `json:"system_status"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if !got.System.ConfigAvailable || !got.System.LogsAvailable {
		t.Errorf("system status = %+v, want config and logs available", got.System)
	}
	if got.System.JellyfinAvailable {
		t.Error("jellyfin should be unavailable without a clients.jellyfin section")
	}
	for _, name := range []string{health.CheckConfig, health.CheckLogs, health.CheckJellyfin, health.CheckService} {
		if _, ok := got.Checks[name]; !ok {
			t.Errorf("check %q missing", name)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f := newFixture(t, "")
		out, err := execute(t, "", "validate", "--config", f.settings)
		if err != nil {
			t.Fatalf("validate error = %v", err)
		}
		for _, want := range []string{"✓ Settings valid", "Retention: 30d", "Jellyfin: disabled"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("invalid settings", func(t *testing.T) {
		f := newFixture(t, "ui:\n  theme: purple\n")
		out, err := execute(t, "", "validate", "--config", f.settings)
		if cli.ExitCode(err) != cli.ExitConfig {
			t.Fatalf("ExitCode() = %d, want %d (%v)", cli.ExitCode(err), cli.ExitConfig, err)
		}
		if !strings.Contains(out, "ui.theme") {
			t.Errorf("output should name the failing field:\n%s", out)
		}
	})

	t.Run("missing janitorr config", func(t *testing.T) {
		f := newFixture(t, "")
		if err := os.Remove(f.policy); err != nil {
			t.Fatal(err)
		}
		out, err := execute(t, "", "validate", "--config", f.settings)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(out, "✗ Janitorr configuration") {
			t.Errorf("output = %q", out)
		}
	})
}

func TestKeygenCommand(t *testing.T) {
	first, err := execute(t, "", "keygen")
	if err != nil {
		t.Fatalf("keygen error = %v", err)
	}
	second, err := execute(t, "", "keygen")
	if err != nil {
		t.Fatalf("keygen error = %v", err)
	}
	first, second = strings.TrimSpace(first), strings.TrimSpace(second)
	if len(first) != 64 {
		t.Errorf("secret length = %d, want 64 hex characters", len(first))
	}
	if first == second {
		t.Error("secrets should differ")
	}

	if _, err := execute(t, "", "keygen", "--bytes", "8"); err == nil {
		t.Error("short secrets should be rejected")
	}
}

func TestHashPasswordCommand(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"stdin", "s3cret\n", nil},
		{"flag", "", []string{"--password", "s3cret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, append([]string{"hash-password"}, tt.args...)...)
			if err != nil {
				t.Fatalf("hash-password error = %v", err)
			}
			hashed := strings.TrimSpace(out)
			if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte("s3cret")); err != nil {
				t.Errorf("hash does not match password: %v", err)
			}
		})
	}

	if _, err := execute(t, "", "hash-password"); err == nil {
		t.Error("empty password should be rejected")
	}
}

func TestRunDryRun(t *testing.T) {
	f := newFixture(t, "")
	runFlags.listenAddress, runFlags.logLevel = "", ""

	out, err := execute(t, "", "run", "--config", f.settings, "--dry-run")
	if err != nil {
		t.Fatalf("run --dry-run error = %v", err)
	}
	if !strings.Contains(out, "✓ Configuration valid") {
		t.Errorf("output = %q", out)
	}
}
