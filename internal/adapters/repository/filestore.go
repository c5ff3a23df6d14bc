package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
	"github.com/okian/epvprep/internal/domain/model"
)

const (
	matchExt        = ".json"
	defaultLockName = ".epvprep.lock"
)

// FileStore is a Store over a local directory.
type FileStore struct {
	dir      string
	fileMode os.FileMode
	indent   string
	lockName string
}

// NewFileStore creates a store rooted at dir. The directory is created on
// the first write or lock.
func NewFileStore(dir string, opts ...Option) *FileStore {
	s := &FileStore{
		dir:      dir,
		fileMode: 0o644,
		indent:   "  ",
		lockName: defaultLockName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory backing the store.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file path of a match.
func (s *FileStore) Path(matchID string) string {
	return filepath.Join(s.dir, matchID+matchExt)
}

// ListMatches returns the stems of the *.json files in the directory,
// sorted. Hidden files are ignored.
func (s *FileStore) ListMatches(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s", ErrMissingInput, s.dir)
		}
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != matchExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, matchExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists reports whether the match file is present.
func (s *FileStore) Exists(_ context.Context, matchID string) bool {
	if validateMatchID(matchID) != nil {
		return false
	}
	info, err := os.Stat(s.Path(matchID))
	return err == nil && info.Mode().IsRegular()
}

// ReadEvents loads a match's events.
func (s *FileStore) ReadEvents(ctx context.Context, matchID string) ([]model.Event, error) {
	return readArray[model.Event](ctx, s, matchID)
}

// ReadFrames loads a match's 360 frames.
func (s *FileStore) ReadFrames(ctx context.Context, matchID string) ([]model.TrackingFrame, error) {
	return readArray[model.TrackingFrame](ctx, s, matchID)
}

func readArray[T any](ctx context.Context, s *FileStore, matchID string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateMatchID(matchID); err != nil {
		return nil, err
	}
	path := s.Path(matchID)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var out []T
	dec := json.NewDecoder(bufio.NewReader(f))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedInput, path, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: %s: trailing data after array", ErrMalformedInput, path)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %s: expected array, got null", ErrMalformedInput, path)
	}
	return out, nil
}

// WriteEvents writes the events to a temp file in the directory and renames
// it over the match file, so readers see the old or the new file only.
func (s *FileStore) WriteEvents(ctx context.Context, matchID string, events []model.Event) error {
	return writeArray(ctx, s, matchID, events)
}

// WriteFrames writes a match's 360 frames the same way WriteEvents does.
func (s *FileStore) WriteFrames(ctx context.Context, matchID string, frames []model.TrackingFrame) error {
	return writeArray(ctx, s, matchID, frames)
}

func writeArray[T any](ctx context.Context, s *FileStore, matchID string, items []T) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateMatchID(matchID); err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+matchID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if s.indent != "" {
		enc.SetIndent("", s.indent)
	}
	if err = enc.Encode(items); err != nil {
		return fmt.Errorf("encode %s: %w", matchID, err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Chmod(s.fileMode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.Path(matchID)); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Lock takes an exclusive advisory lock on the directory's lock file.
func (s *FileStore) Lock(ctx context.Context) (Unlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, s.lockName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return lock.Unlock, nil
}

func validateMatchID(id string) error {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidMatchID, id)
	}
	return nil
}
