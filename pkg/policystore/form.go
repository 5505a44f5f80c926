package policystore

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ExpirationTiers are the disk-usage thresholds, in percent, that a
// "default" expiration value is copied to.
var ExpirationTiers = []int{5, 10, 15, 20}

// FormSectionKey names the form field that carries the section name.
const FormSectionKey = "section"

const (
	movieExpirationDefault  = "movie-expiration.default"
	seasonExpirationDefault = "season-expiration.default"
	dashboardKeyPrefix      = "gui."
)

// literalLeafKeys are form keys whose final segment contains dots.
var literalLeafKeys = map[string][]string{
	"logging.level.com.github.schaka": {"logging", "level", "com.github.schaka"},
	"logging.threshold.file":          {"logging", "threshold", "file"},
}

// ApplyForm applies a flat form submission with dotted keys to doc.
//
// A key ending in movie-expiration.default or season-expiration.default sets
// every tier in ExpirationTiers under application.media-deletion. Keys that
// start with "gui." belong to the dashboard and are skipped, as is the section
// field. "on" and "true" become true and "false" becomes false; an empty value
// leaves the existing setting alone.
func ApplyForm(doc Document, form url.Values) error {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := form.Get(key)
		if key == FormSectionKey {
			continue
		}

		if strings.HasSuffix(key, "."+movieExpirationDefault) || strings.HasSuffix(key, "."+seasonExpirationDefault) {
			field := "movie-expiration"
			if strings.HasSuffix(key, seasonExpirationDefault) {
				field = "season-expiration"
			}
			if err := setTiers(doc, field, value); err != nil {
				return err
			}
			continue
		}

		if strings.HasPrefix(key, dashboardKeyPrefix) {
			continue
		}

		if path, ok := literalLeafKeys[key]; ok {
			if err := doc.SetKeys(path, value); err != nil {
				return err
			}
			continue
		}

		var v any
		switch strings.ToLower(value) {
		case "on", "true":
			v = true
		case "false":
			v = false
		case "":
			continue
		default:
			v = value
		}
		if err := doc.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

func setTiers(doc Document, field, value string) error {
	path := []string{SectionApplication, "media-deletion", field}
	existing, ok := doc.Get(strings.Join(path, "."))
	if !ok || existing == nil {
		if err := doc.SetKeys(path, map[any]any{}); err != nil {
			return err
		}
	}
	for _, tier := range ExpirationTiers {
		if err := doc.SetKeys(append(path, strconv.Itoa(tier)), value); err != nil {
			return err
		}
	}
	return nil
}
