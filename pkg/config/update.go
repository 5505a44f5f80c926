package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"janitorr-hq/overseer/pkg/policystore"
)

// settingKind says how a form value is converted before it is stored.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindBool
	kindHours
)

type setting struct {
	path string
	kind settingKind
}

// settings maps the dashboard's form keys to YAML paths in this file.
var settings = map[string]setting{
	"gui.janitorr_config_path":       {"janitorr.config_path", kindString},
	"gui.janitorr_log_path":          {"janitorr.log_path", kindString},
	"gui.janitorr_working_directory": {"janitorr.working_directory", kindString},
	"gui.auto_refresh_interval":      {"ui.auto_refresh_interval", kindInt},
	"gui.theme":                      {"ui.theme", kindString},
	"gui.session.secret_key":         {"auth.session.secret_key", kindString},
	"gui.session.timeout_hours":      {"auth.session.timeout", kindHours},
	"gui.session.secure_cookies":     {"auth.session.secure_cookies", kindBool},
	"gui.session.remember_me":        {"auth.session.remember_me", kindBool},
	"gui.legacy_auth.enabled":        {"auth.legacy.enabled", kindBool},
	"gui.legacy_auth.username":       {"auth.legacy.username", kindString},
	"gui.legacy_auth.password":       {"auth.legacy.password", kindString},
	"gui.ldap.enabled":               {"auth.ldap.enabled", kindBool},
	"gui.ldap.server":                {"auth.ldap.server", kindString},
	"gui.ldap.port":                  {"auth.ldap.port", kindInt},
	"gui.ldap.base_dn":               {"auth.ldap.base_dn", kindString},
	"gui.ldap.user_filter":           {"auth.ldap.user_filter", kindString},
	"gui.ldap.bind_dn":               {"auth.ldap.bind_dn", kindString},
	"gui.ldap.bind_password":         {"auth.ldap.bind_password", kindString},
	"gui.ldap.admin_group":           {"auth.ldap.admin_group", kindString},
	"gui.ldap.group_strategy":        {"auth.ldap.group_strategy", kindString},
	"gui.ldap.use_ssl":               {"auth.ldap.use_ssl", kindBool},
	"gui.ldap.verify_ssl":            {"auth.ldap.verify_ssl", kindBool},
}

// SettingAuthMode switches the enabled login methods rather than being
// stored itself.
const SettingAuthMode = "gui.auth_mode"

// CheckboxSettings are the boolean settings an HTML form omits when they are
// unchecked. Callers set them to false when absent from a submission.
var CheckboxSettings = []string{
	"gui.legacy_auth.enabled",
	"gui.ldap.enabled",
	"gui.ldap.use_ssl",
	"gui.ldap.verify_ssl",
	"gui.session.secure_cookies",
	"gui.session.remember_me",
}

// IsSetting reports whether key is a dashboard setting UpdateSettings accepts.
func IsSetting(key string) bool {
	_, ok := settings[key]
	return ok || key == SettingAuthMode
}

// UpdateSettings applies dashboard settings to the YAML file at path and
// writes it back, keeping a backup of the previous file. Keys use the
// "gui." form names. The result must validate or nothing is written. A
// missing file is created.
func UpdateSettings(path string, values map[string]string) error {
	data, err := PreviewSettings(path, values)
	if err != nil {
		return err
	}
	return policystore.NewStore(path).WriteRaw(data)
}

// PreviewSettings returns the file at path as it would read after
// UpdateSettings, without writing it.
func PreviewSettings(path string, values map[string]string) ([]byte, error) {
	store := policystore.NewStore(path)

	doc, err := store.Read()
	if err != nil {
		if !errors.Is(err, policystore.ErrNotFound) {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		doc = policystore.Document{}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := applySetting(doc, key, values[key]); err != nil {
			return nil, err
		}
	}

	data, err := policystore.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if err := validateDocument(data); err != nil {
		return nil, err
	}
	return data, nil
}

func applySetting(doc policystore.Document, key, raw string) error {
	if key == SettingAuthMode {
		mode := strings.ToLower(strings.TrimSpace(raw))
		if !isAuthMode(mode) {
			return fmt.Errorf("invalid auth mode %q", raw)
		}
		legacy := mode == AuthModeLegacy || mode == AuthModeBoth
		ldap := mode == AuthModeLDAP || mode == AuthModeBoth
		if err := doc.Set("auth.legacy.enabled", legacy); err != nil {
			return err
		}
		if err := doc.Set("auth.ldap.enabled", ldap); err != nil {
			return err
		}
		// The mode is derived from the flags on the next load.
		if auth, ok := doc["auth"].(map[string]any); ok {
			delete(auth, "mode")
		}
		return nil
	}

	s, ok := settings[key]
	if !ok {
		return fmt.Errorf("unknown setting: %s", key)
	}

	var value any
	switch s.kind {
	case kindString:
		value = raw
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("setting %s: %q is not a number", key, raw)
		}
		value = n
	case kindBool:
		b, ok := parseBool(raw)
		if !ok {
			return fmt.Errorf("setting %s: %q is not a boolean", key, raw)
		}
		value = b
	case kindHours:
		h, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || h < 0 {
			return fmt.Errorf("setting %s: %q is not a number of hours", key, raw)
		}
		value = time.Duration(h * float64(time.Hour)).String()
	}

	return doc.Set(s.path, value)
}

func validateDocument(data []byte) error {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse updated configuration: %w", err)
	}
	ApplyDefaults(cfg)
	return Validate(cfg)
}
