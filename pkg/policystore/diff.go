package policystore

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Preview is the outcome of comparing the current configuration with a
// proposed one.
type Preview struct {
	CurrentYAML string   `json:"current_yaml"`
	NewYAML     string   `json:"new_yaml"`
	Diff        []string `json:"diff"`
}

// Diff renders both documents as YAML and returns their unified diff. The
// diff lines carry no trailing newline.
func Diff(current, next Document) (Preview, error) {
	cur, err := Marshal(current)
	if err != nil {
		return Preview{}, err
	}
	nxt, err := Marshal(next)
	if err != nil {
		return Preview{}, err
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(cur)),
		B:        difflib.SplitLines(string(nxt)),
		FromFile: "Current",
		ToFile:   "New",
		Context:  3,
	})
	if err != nil {
		return Preview{}, fmt.Errorf("failed to compute diff: %w", err)
	}

	lines := []string{}
	if text != "" {
		lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	}
	return Preview{
		CurrentYAML: string(cur),
		NewYAML:     string(nxt),
		Diff:        lines,
	}, nil
}
