package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/MrWong99/hillhouse/internal/game"
)

// Compile-time interface assertion.
var _ Store = (*FileStore)(nil)

const docExt = ".json"

// FileStore keeps each session as <dir>/<id>.json.
//
// Documents are written to a temporary file in the same directory first and
// then moved into place, so a reader never sees a partial document. Create
// uses a hard link so that two concurrent creates of the same id cannot both
// succeed.
type FileStore struct {
	dir string

	// mu serialises writers. Readers go straight to the filesystem.
	mu sync.Mutex
}

// NewFileStore returns a store rooted at dir, creating the directory if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("session: file store: directory is required")
	}
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: file store: create dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+docExt)
}

// Create implements [Store].
func (s *FileStore) Create(_ context.Context, d *game.Document) error {
	id := d.Meta.SessionID
	if !ValidID(id) {
		return fmt.Errorf("session: create: invalid session id %q", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := s.writeTemp(d)
	if err != nil {
		return fmt.Errorf("session: create %s: %w", id, err)
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, s.path(id)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("session: create %s: %w", id, err)
	}
	return nil
}

// Load implements [Store].
func (s *FileStore) Load(_ context.Context, id string) (*game.Document, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	return s.read(s.path(id))
}

// Save implements [Store].
func (s *FileStore) Save(_ context.Context, d *game.Document) error {
	id := d.Meta.SessionID
	if !ValidID(id) {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("session: save %s: %w", id, err)
	}

	prev := d.Meta.LastUpdated
	Touch(d)
	tmp, err := s.writeTemp(d)
	if err != nil {
		d.Meta.LastUpdated = prev
		return fmt.Errorf("session: save %s: %w", id, err)
	}
	if err := os.Rename(tmp, s.path(id)); err != nil {
		_ = os.Remove(tmp)
		d.Meta.LastUpdated = prev
		return fmt.Errorf("session: save %s: %w", id, err)
	}
	return nil
}

// Delete implements [Store].
func (s *FileStore) Delete(_ context.Context, id string) error {
	if !ValidID(id) {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}

// List implements [Store]. Files that cannot be decoded are skipped with a
// warning.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}

	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, docExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("session: list: %w", err)
		}
		d, err := s.read(filepath.Join(s.dir, name))
		if err != nil {
			slog.Warn("session: skipping unreadable session file", "file", name, "err", err)
			continue
		}
		out = append(out, Summarize(d))
	}
	SortSummaries(out)
	return out, nil
}

// Ping implements [Store]. It checks that the directory is still present.
func (s *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("session: ping: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("session: ping: %s is not a directory", s.dir)
	}
	return nil
}

// Close implements [Store]. The file store holds no resources.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) read(path string) (*game.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: read: %w", err)
	}
	var d game.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", filepath.Base(path), err)
	}
	return &d, nil
}

// writeTemp encodes d into a hidden temporary file next to the final
// location and returns its path.
func (s *FileStore) writeTemp(d *game.Document) (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	f, err := os.CreateTemp(s.dir, "."+d.Meta.SessionID+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write temp: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("sync temp: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close temp: %w", err)
	}
	return name, nil
}
