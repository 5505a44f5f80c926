package policystore

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoPath is returned when the store has no file path configured.
	ErrNoPath = errors.New("no configuration path provided")

	// ErrNotFound is returned when the configuration file does not exist.
	ErrNotFound = errors.New("configuration file not found")

	// ErrMalformed is returned when the file is not valid YAML.
	ErrMalformed = errors.New("invalid YAML in configuration")
)

// BackupSuffix replaces the file extension of the backup copy.
const BackupSuffix = ".yml.backup"

// Store is Janitorr's configuration file on disk.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore returns a Store for the file at path.
func NewStore(path string) *Store {
	return &Store{
		path:   path,
		logger: slog.Default().With("component", "policystore"),
	}
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns where the previous version is kept during a write.
func (s *Store) BackupPath() string {
	return strings.TrimSuffix(s.path, filepath.Ext(s.path)) + BackupSuffix
}

// Exists reports whether the configuration file is present.
func (s *Store) Exists() bool {
	if s.path == "" {
		return false
	}
	_, err := os.Stat(s.path)
	return err == nil
}

// ReadRaw returns the file contents unmodified.
func (s *Store) ReadRaw() ([]byte, error) {
	if s.path == "" {
		return nil, ErrNoPath
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("error reading configuration: %w", err)
	}
	return data, nil
}

// Read decodes the configuration file. An empty file yields an empty Document.
func (s *Store) Read() (Document, error) {
	data, err := s.ReadRaw()
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML into a Document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Write encodes doc and replaces the configuration file with it.
func (s *Store) Write(doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	return s.WriteRaw(data)
}

// WriteRaw replaces the configuration file with data after checking that data
// is valid YAML. The previous file is renamed to BackupPath first and renamed
// back if writing fails.
func (s *Store) WriteRaw(data []byte) error {
	if s.path == "" {
		return ErrNoPath
	}
	if _, err := Parse(data); err != nil {
		return err
	}

	backup := ""
	if s.Exists() {
		backup = s.BackupPath()
		if err := os.Rename(s.path, backup); err != nil {
			return fmt.Errorf("could not create backup: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		if backup != "" {
			if rerr := os.Rename(backup, s.path); rerr != nil {
				return fmt.Errorf("write failed and could not restore backup: %w", errors.Join(err, rerr))
			}
		}
		return fmt.Errorf("could not write configuration: %w", err)
	}

	s.logger.Info("configuration written",
		"path", s.path,
		"backup", backup,
		"bytes", len(data),
	)
	return nil
}

// Marshal encodes doc as block-style YAML with two-space indentation.
func Marshal(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any(doc)); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return buf.Bytes(), nil
}
