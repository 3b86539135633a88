// Package canon guards reads and writes of the canonical architecture file.
//
// Reads may run concurrently with each other. An update holds the exclusive
// lock for its whole read-modify-write window, both in-process and across
// processes through an advisory lock file.
package canon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aidanlsb/arbor/internal/atomicfile"
	"github.com/aidanlsb/arbor/internal/filelock"
	"github.com/aidanlsb/arbor/internal/parser"
)

// ErrNotFound is returned when the canonical file does not exist.
var ErrNotFound = errors.New("canonical source not found")

// Store reads and rewrites one canonical file.
type Store struct {
	path     string
	lockPath string
	mu       sync.RWMutex
}

// NewStore creates a store for path. lockPath is the advisory lock file; it
// is created on first use.
func NewStore(path, lockPath string) *Store {
	return &Store{path: path, lockPath: lockPath}
}

// Path returns the canonical file path.
func (s *Store) Path() string {
	return s.path
}

// Read returns the file content under the shared lock.
func (s *Store) Read() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	release, err := s.lock(true)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.readFile()
}

// Version identifies one on-disk revision of the canonical file.
type Version struct {
	ModTime time.Time
	Size    int64
}

// Equal reports whether v and o describe the same revision.
func (v Version) Equal(o Version) bool {
	return v.Size == o.Size && v.ModTime.Equal(o.ModTime)
}

// Stat returns the current version without reading the content.
func (s *Store) Stat() (Version, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Version{}, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return Version{}, fmt.Errorf("stat canonical source: %w", err)
	}
	return Version{ModTime: info.ModTime(), Size: info.Size()}, nil
}

// ReadVersion returns the content together with the version it was read at,
// both taken under the shared lock.
func (s *Store) ReadVersion() ([]byte, Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	release, err := s.lock(true)
	if err != nil {
		return nil, Version{}, err
	}
	defer release()

	v, err := s.Stat()
	if err != nil {
		return nil, Version{}, err
	}
	data, err := s.readFile()
	if err != nil {
		return nil, Version{}, err
	}
	return data, v, nil
}

// ReadLines returns the file split into lines under the shared lock.
func (s *Store) ReadLines() ([]string, error) {
	data, err := s.Read()
	if err != nil {
		return nil, err
	}
	return parser.SplitLines(data), nil
}

// Update runs fn on the current lines and atomically writes the result, all
// under the exclusive lock. If fn fails nothing is written.
func (s *Store) Update(fn func(lines []string) ([]string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	release, err := s.lock(false)
	if err != nil {
		return err
	}
	defer release()

	data, err := s.readFile()
	if err != nil {
		return err
	}

	updated, err := fn(parser.SplitLines(data))
	if err != nil {
		return err
	}

	return atomicfile.WriteFile(s.path, parser.JoinLines(updated), 0o644)
}

// Write replaces the whole file under the exclusive lock.
func (s *Store) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	release, err := s.lock(false)
	if err != nil {
		return err
	}
	defer release()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create canonical directory: %w", err)
	}
	return atomicfile.WriteFile(s.path, data, 0o644)
}

func (s *Store) readFile() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("read canonical source: %w", err)
	}
	return data, nil
}

func (s *Store) lock(shared bool) (func(), error) {
	if s.lockPath == "" {
		return func() {}, nil
	}
	l, err := filelock.Acquire(s.lockPath, shared)
	if err != nil {
		return nil, fmt.Errorf("canonical lock: %w", err)
	}
	return func() { _ = l.Release() }, nil
}
