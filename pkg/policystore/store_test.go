package policystore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"janitorr-hq/overseer/pkg/retention"
)

const sampleConfig = `
clients:
  jellyfin:
    enabled: true
    url: http://jellyfin:8096
    api-key: secret
application:
  dry-run: true
  media-deletion:
    enabled: true
    movie-expiration:
      5: 15d
      10: 30d
      20: 90d
    season-expiration:
      5: 15d
  tag-based-deletion:
    enabled: false
logging:
  level:
    com.github.schaka: INFO
`

func writeConfig(t *testing.T, content string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "application.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return NewStore(path)
}

func TestStore_Read(t *testing.T) {
	store := writeConfig(t, sampleConfig)

	doc, err := store.Read()
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}

	jf := doc.Jellyfin()
	if !jf.Enabled || jf.URL != "http://jellyfin:8096" || jf.APIKey != "secret" {
		t.Errorf("unexpected jellyfin settings: %+v", jf)
	}
	if !jf.Configured() {
		t.Error("expected jellyfin to be configured")
	}

	if got := doc.Retention(); got != retention.Known(90) {
		t.Errorf("expected retention 90d, got %v", got)
	}

	if got := doc.GetString("logging.level.com"); got != "" {
		t.Errorf("expected dotted leaf to be unreachable by split path, got %q", got)
	}
}

func TestStore_ReadMissing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.yml"))

	_, err := store.Read()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.Exists() {
		t.Error("expected Exists to be false")
	}
}

func TestStore_ReadMalformed(t *testing.T) {
	store := writeConfig(t, "clients: [unclosed")

	_, err := store.Read()
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestStore_ReadEmpty(t *testing.T) {
	store := writeConfig(t, "")

	doc, err := store.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc) != 0 {
		t.Errorf("expected empty document, got %v", doc)
	}
	rules := doc.DeletionRules()
	if len(rules) != 3 {
		t.Errorf("expected 3 rule entries, got %d", len(rules))
	}
	if doc.Retention().IsKnown() {
		t.Error("expected unknown retention")
	}
}

func TestStore_NoPath(t *testing.T) {
	store := NewStore("")
	if _, err := store.Read(); !errors.Is(err, ErrNoPath) {
		t.Errorf("expected ErrNoPath, got %v", err)
	}
	if err := store.Write(Document{}); !errors.Is(err, ErrNoPath) {
		t.Errorf("expected ErrNoPath, got %v", err)
	}
}

func TestStore_WriteKeepsBackup(t *testing.T) {
	store := writeConfig(t, sampleConfig)

	doc, err := store.Read()
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Set("application.dry-run", false); err != nil {
		t.Fatal(err)
	}
	if err := store.Write(doc); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	backup, err := os.ReadFile(store.BackupPath())
	if err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
	if string(backup) != sampleConfig {
		t.Error("backup does not hold the previous contents")
	}
	if !strings.HasSuffix(store.BackupPath(), "application.yml.backup") {
		t.Errorf("unexpected backup path %q", store.BackupPath())
	}

	reread, err := store.Read()
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := reread.Get("application.dry-run"); v != false {
		t.Errorf("expected dry-run false, got %v", v)
	}
	if got := reread.Retention(); got != retention.Known(90) {
		t.Errorf("expected tiers to survive a round trip, got %v", got)
	}
}

func TestStore_WriteRawRejectsInvalidYAML(t *testing.T) {
	store := writeConfig(t, sampleConfig)

	err := store.WriteRaw([]byte("a: [b"))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}

	data, err := store.ReadRaw()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != sampleConfig {
		t.Error("original file should be untouched")
	}
}

func TestStore_WriteRestoresBackupOnFailure(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	store := writeConfig(t, sampleConfig)
	dir := filepath.Dir(store.Path())

	// A read-only directory makes the backup rename fail.
	if err := os.Chmod(dir, 0555); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(dir, 0755)

	if err := store.WriteRaw([]byte("a: b\n")); err == nil {
		t.Fatal("expected write to fail")
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("original file missing: %v", err)
	}
	if string(data) != sampleConfig {
		t.Error("original contents were lost")
	}
}
