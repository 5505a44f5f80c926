package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestUpdateSettings(t *testing.T) {
	path := writeConfigFile(t, `
janitorr:
  log_path: /old.log
auth:
  legacy:
    enabled: true
    password: pw
`)

	err := UpdateSettings(path, map[string]string{
		"gui.janitorr_log_path":     "/new.log",
		"gui.auto_refresh_interval": "45",
		"gui.session.timeout_hours": "2",
		"gui.ldap.use_ssl":          "on",
		"gui.theme":                 "light",
	})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if cfg.Janitorr.LogPath != "/new.log" {
		t.Errorf("expected /new.log, got %q", cfg.Janitorr.LogPath)
	}
	if cfg.UI.AutoRefreshInterval != 45 {
		t.Errorf("expected refresh 45, got %d", cfg.UI.AutoRefreshInterval)
	}
	if cfg.Auth.Session.Timeout != 2*time.Hour {
		t.Errorf("expected 2h timeout, got %v", cfg.Auth.Session.Timeout)
	}
	if !cfg.Auth.LDAP.UseSSL {
		t.Error("expected use_ssl true")
	}
	if cfg.Auth.Legacy.Password != "pw" {
		t.Error("untouched settings must survive the update")
	}

	backup := filepath.Join(filepath.Dir(path), "overseer.yml.backup")
	if _, err := os.Stat(backup); err != nil {
		t.Errorf("expected backup file: %v", err)
	}
}

func TestUpdateSettings_AuthMode(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  mode: legacy
  legacy:
    password: pw
  ldap:
    server: ldap.local
    base_dn: dc=local
`)

	if err := UpdateSettings(path, map[string]string{"gui.auth_mode": "both"}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if !cfg.Auth.Legacy.Enabled || !cfg.Auth.LDAP.Enabled {
		t.Errorf("expected both methods enabled, got legacy=%v ldap=%v", cfg.Auth.Legacy.Enabled, cfg.Auth.LDAP.Enabled)
	}
	if cfg.Auth.Mode != AuthModeBoth {
		t.Errorf("expected derived mode both, got %q", cfg.Auth.Mode)
	}
}

func TestUpdateSettings_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{name: "unknown key", values: map[string]string{"gui.nope": "x"}},
		{name: "bad number", values: map[string]string{"gui.ldap.port": "many"}},
		{name: "bad bool", values: map[string]string{"gui.ldap.enabled": "maybe"}},
		{name: "bad mode", values: map[string]string{"gui.auth_mode": "root"}},
		{name: "invalid result", values: map[string]string{"gui.theme": "neon"}},
		{name: "ldap without server", values: map[string]string{"gui.ldap.enabled": "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := "ui:\n  theme: dark\n"
			path := writeConfigFile(t, original)

			if err := UpdateSettings(path, tt.values); err == nil {
				t.Fatal("expected an error")
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != original {
				t.Errorf("file must be unchanged, got %q", data)
			}
		})
	}
}

func TestUpdateSettings_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overseer.yaml")

	if err := UpdateSettings(path, map[string]string{"gui.theme": "light"}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("expected light theme, got %q", cfg.UI.Theme)
	}
}

func TestIsSetting(t *testing.T) {
	for _, key := range append([]string{SettingAuthMode, "gui.theme"}, CheckboxSettings...) {
		if !IsSetting(key) {
			t.Errorf("expected %s to be a setting", key)
		}
	}
	if IsSetting("clients.jellyfin.url") {
		t.Error("janitorr keys are not dashboard settings")
	}
}

func TestPreviewSettings(t *testing.T) {
	original := "ui:\n  theme: dark\n"
	path := writeConfigFile(t, original)

	data, err := PreviewSettings(path, map[string]string{"gui.theme": "light"})
	if err != nil {
		t.Fatalf("PreviewSettings failed: %v", err)
	}
	if !strings.Contains(string(data), "theme: light") {
		t.Errorf("preview missing new theme:\n%s", data)
	}

	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(onDisk)) != strings.TrimSpace(original) {
		t.Errorf("preview modified the file:\n%s", onDisk)
	}
}
