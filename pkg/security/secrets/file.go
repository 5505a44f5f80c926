package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirProvider reads secrets from files in a directory, one file per secret.
// Surrounding whitespace is trimmed from the value.
//
// Files writable by group or others are refused. Docker mounts secrets
// read-only for everyone (0444), which is accepted.
type DirProvider struct {
	Dir string
}

// NewDirProvider creates a provider for dir.
func NewDirProvider(dir string) *DirProvider {
	return &DirProvider{Dir: dir}
}

// Name returns "file".
func (p *DirProvider) Name() string { return "file" }

// Get reads the file named name inside the directory.
func (p *DirProvider) Get(_ context.Context, name string) (string, error) {
	path, err := p.path(name)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s (file %s)", ErrNotFound, name, path)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret %s is not a regular file", name)
	}
	if info.Mode().Perm()&0o022 != 0 {
		return "", fmt.Errorf("insecure permissions on %s: %o (must not be group or world writable)", path, info.Mode().Perm())
	}

	// #nosec G304 - path is confined to Dir by p.path
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// path joins name to the directory, rejecting names that would escape it.
func (p *DirProvider) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid secret name %q", name)
	}
	return filepath.Join(p.Dir, name), nil
}
