package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nerrad567/smarthome-core/internal/automation"
	"github.com/nerrad567/smarthome-core/internal/home"
)

const (
	dataDirPermissions  = 0750
	dataFilePermissions = 0600
)

// FileStore keeps the snapshot and the rule list in two JSON files.
// Writes go to a temporary file that is renamed into place, so a crash
// never leaves a half-written file behind.
type FileStore struct {
	dataPath  string
	rulesPath string
}

// NewFileStore creates a store over dataPath (users and devices) and
// rulesPath (automation rules).
func NewFileStore(dataPath, rulesPath string) *FileStore {
	return &FileStore{dataPath: dataPath, rulesPath: rulesPath}
}

// Load reads the snapshot. A missing file is a first run: it returns an
// empty snapshot and nil error.
func (f *FileStore) Load(_ context.Context) (*home.Snapshot, error) {
	data, err := os.ReadFile(f.dataPath)
	if errors.Is(err, os.ErrNotExist) {
		return emptySnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.dataPath, err)
	}

	if err := validateDocument(data, snapshotSchemaURL); err != nil {
		return nil, fmt.Errorf("%s: %w", f.dataPath, err)
	}
	var s home.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, f.dataPath, err)
	}
	return &s, nil
}

// Save writes the snapshot.
func (f *FileStore) Save(_ context.Context, s *home.Snapshot) error {
	if s == nil {
		s = emptySnapshot()
	}
	data, err := indentJSON(s)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return writeFileAtomic(f.dataPath, data)
}

// LoadRules reads the rule records. A missing file yields none.
func (f *FileStore) LoadRules(_ context.Context) ([]automation.Record, error) {
	data, err := os.ReadFile(f.rulesPath)
	if errors.Is(err, os.ErrNotExist) {
		return []automation.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.rulesPath, err)
	}

	if err := validateDocument(data, rulesSchemaURL); err != nil {
		return nil, fmt.Errorf("%s: %w", f.rulesPath, err)
	}
	var records []automation.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, f.rulesPath, err)
	}
	if records == nil {
		records = []automation.Record{}
	}
	return records, nil
}

// SaveRules writes the rule records.
func (f *FileStore) SaveRules(_ context.Context, records []automation.Record) error {
	if records == nil {
		records = []automation.Record{}
	}
	data, err := indentJSON(records)
	if err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}
	return writeFileAtomic(f.rulesPath, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dataDirPermissions); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck,gosec // sync error takes precedence
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, dataFilePermissions); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
