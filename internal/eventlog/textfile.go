package eventlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	logDirPermissions  = 0750
	logFilePermissions = 0640
)

// TextFile appends one line per entry to a plain text log.
type TextFile struct {
	mu   sync.Mutex
	path string
}

// NewTextFile returns a sink appending to path. The file and its directory
// are created on first write.
func NewTextFile(path string) *TextFile {
	return &TextFile{path: path}
}

// Path returns the log file path.
func (t *TextFile) Path() string { return t.path }

// WriteEntry appends e.String() and a newline.
func (t *TextFile) WriteEntry(_ context.Context, e Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, logDirPermissions); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePermissions)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	if _, err := f.WriteString(e.String() + "\n"); err != nil {
		f.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("writing event log: %w", err)
	}
	return f.Close()
}

// Recent returns up to n of the most recent lines, oldest first. A missing
// file yields no lines and no error.
func (t *TextFile) Recent(n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	ring := make([]string, 0, n)
	start := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if len(ring) < n {
			ring = append(ring, sc.Text())
			continue
		}
		ring[start] = sc.Text()
		start = (start + 1) % n
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading event log: %w", err)
	}
	return append(ring[start:], ring[:start]...), nil
}
