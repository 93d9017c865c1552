package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes an export file at a fixed path, replacing it atomically.
type FileSink struct {
	path string
}

// NewFileSink creates a sink for path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the file the sink writes.
func (s *FileSink) Path() string {
	return s.path
}

// Write replaces the file with data. Readers see either the old or the new
// content, never a partial file.
func (s *FileSink) Write(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return &ExportError{Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &ExportError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ExportError{Path: s.path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &ExportError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &ExportError{Path: s.path, Err: fmt.Errorf("failed to replace file: %w", err)}
	}
	return nil
}

// Exists reports whether the file has been written.
func (s *FileSink) Exists() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// Open opens the current file for reading. It returns an error wrapping
// os.ErrNotExist when no export has been written yet.
func (s *FileSink) Open() (*os.File, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	return f, nil
}
