package policystore

import (
	"fmt"
	"strconv"
	"strings"

	"janitorr-hq/overseer/pkg/retention"
)

// Top-level sections of Janitorr's configuration.
const (
	SectionApplication = "application"
	SectionClients     = "clients"
)

// Deletion rule keys as exposed to callers, and their spelling in the file.
var deletionRuleKeys = map[string]string{
	"media_deletion":     "media-deletion",
	"tag_based_deletion": "tag-based-deletion",
	"episode_deletion":   "episode-deletion",
}

// Document is a decoded configuration tree. Nested mappings are either
// map[string]any or, when YAML keys are not all strings, map[any]any.
type Document map[string]any

// Get returns the value at a dotted path such as "clients.jellyfin.url".
func (d Document) Get(path string) (any, bool) {
	var cur any = map[string]any(d)
	for _, key := range strings.Split(path, ".") {
		next, ok := lookup(cur, key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// GetString returns the value at path formatted as a string.
func (d Document) GetString(path string) string {
	v, ok := d.Get(path)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Set stores value at a dotted path, creating intermediate mappings. It fails
// if an intermediate value exists and is not a mapping.
func (d Document) Set(path string, value any) error {
	return d.SetKeys(strings.Split(path, "."), value)
}

// SetKeys is Set with the path already split. It allows keys that contain dots.
func (d Document) SetKeys(keys []string, value any) error {
	if len(keys) == 0 {
		return fmt.Errorf("empty key path")
	}

	var cur any = map[string]any(d)
	for i, key := range keys[:len(keys)-1] {
		next, ok := lookup(cur, key)
		if !ok || next == nil {
			next = map[string]any{}
			store(cur, key, next)
		}
		if !isMap(next) {
			return fmt.Errorf("cannot set %s: %s is not a mapping", strings.Join(keys, "."), strings.Join(keys[:i+1], "."))
		}
		cur = next
	}
	store(cur, keys[len(keys)-1], value)
	return nil
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	return cloneValue(map[string]any(d)).(map[string]any)
}

// JellyfinSettings are the Jellyfin client settings under clients.jellyfin.
type JellyfinSettings struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	APIKey  string `json:"-"`
}

// Configured reports whether the client is enabled with a URL and API key.
func (j JellyfinSettings) Configured() bool {
	return j.Enabled && j.URL != "" && j.APIKey != ""
}

// Jellyfin returns the Jellyfin client settings.
func (d Document) Jellyfin() JellyfinSettings {
	enabled, _ := d.Get("clients.jellyfin.enabled")
	b, _ := enabled.(bool)
	return JellyfinSettings{
		Enabled: b,
		URL:     d.GetString("clients.jellyfin.url"),
		APIKey:  d.GetString("clients.jellyfin.api-key"),
	}
}

// DeletionRules returns the deletion rule fragments keyed media_deletion,
// tag_based_deletion and episode_deletion. Missing fragments are empty maps.
func (d Document) DeletionRules() map[string]any {
	rules := make(map[string]any, len(deletionRuleKeys))
	for name, key := range deletionRuleKeys {
		v, ok := d.Get(SectionApplication + "." + key)
		if !ok || v == nil {
			v = map[string]any{}
		}
		rules[name] = v
	}
	return rules
}

// Retention resolves the effective retention from the media deletion rules.
func (d Document) Retention() retention.Days {
	return retention.FromRules(d.DeletionRules())
}

func isMap(v any) bool {
	switch v.(type) {
	case map[string]any, map[any]any:
		return true
	}
	return false
}

func lookup(m any, key string) (any, bool) {
	switch mm := m.(type) {
	case map[string]any:
		v, ok := mm[key]
		return v, ok
	case map[any]any:
		if k, ok := matchKey(mm, key); ok {
			return mm[k], true
		}
	}
	return nil, false
}

func store(m any, key string, value any) {
	switch mm := m.(type) {
	case map[string]any:
		mm[key] = value
	case map[any]any:
		if k, ok := matchKey(mm, key); ok {
			mm[k] = value
			return
		}
		if n, err := strconv.Atoi(key); err == nil {
			mm[n] = value
			return
		}
		mm[key] = value
	}
}

// matchKey finds the existing key of a generic map whose text form is key.
func matchKey(m map[any]any, key string) (any, bool) {
	if _, ok := m[key]; ok {
		return key, true
	}
	for k := range m {
		if fmt.Sprint(k) == key {
			return k, true
		}
	}
	return nil, false
}

func cloneValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[k] = cloneValue(val)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(vv))
		for k, val := range vv {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, val := range vv {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// JSONValue converts a decoded YAML value to one encoding/json accepts:
// generic maps become map[string]any with keys in their text form.
func JSONValue(v any) any {
	switch vv := v.(type) {
	case Document:
		return JSONValue(map[string]any(vv))
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[k] = JSONValue(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[fmt.Sprint(k)] = JSONValue(val)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, val := range vv {
			out[i] = JSONValue(val)
		}
		return out
	default:
		return v
	}
}
