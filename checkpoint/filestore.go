package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore persists a single JSON document at a configured path. Writes go
// to a temporary sibling file and are renamed into place, so a reader never
// observes a half-written document: the file on disk is always either absent
// or complete. Two stores pointed at different paths are independent;
// callers serialize writes to the same path themselves.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) FileStoreOption {
	return func(f *FileStore) { f.logger = l }
}

// NewFileStore creates a store for the given file path. The path's directory
// is created on first write.
func NewFileStore(path string, opts ...FileStoreOption) *FileStore {
	f := &FileStore{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the configured file path.
func (f *FileStore) Path() string { return f.path }

// WriteState atomically replaces the stored document with serialized, which
// must be valid JSON. Invalid input is rejected before any file is touched.
func (f *FileStore) WriteState(serialized string) error {
	if !json.Valid([]byte(serialized)) {
		return ErrInvalidJSON
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp := f.path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := file.WriteString(serialized); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("write state: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync state: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit state file: %w", err)
	}
	return nil
}

// ReadState returns the stored document. The second return is false when no
// usable state exists: the file is missing, is a directory, is unreadable,
// or does not parse as JSON. None of those conditions is an error.
func (f *FileStore) ReadState() (string, bool) {
	info, err := os.Stat(f.path)
	if err != nil || info.IsDir() {
		return "", false
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		f.logger.Warn("state file unreadable", "path", f.path, "error", err)
		return "", false
	}
	if !json.Valid(data) {
		f.logger.Warn("state file is not valid JSON, ignoring", "path", f.path)
		return "", false
	}
	return string(data), true
}

// StateExists reports whether a regular file exists at the configured path.
func (f *FileStore) StateExists() bool {
	info, err := os.Stat(f.path)
	return err == nil && info.Mode().IsRegular()
}

// ClearState deletes the stored document. Clearing an absent file is a
// no-op; genuine filesystem failures (e.g. permissions) are returned.
func (f *FileStore) ClearState() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}
