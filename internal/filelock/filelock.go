// Package filelock takes advisory locks on files under .arbor so separate
// arb processes (a running watch, an MCP server, a one-off command) do not
// interleave writes.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrWouldBlock is returned by TryAcquire when another process holds the lock.
var ErrWouldBlock = errors.New("lock held by another process")

// Lock is a held advisory lock.
type Lock struct {
	file *os.File
}

// Acquire blocks until it holds the lock at path, creating the file and its
// directory if needed. Shared locks may be held by several processes at once.
func Acquire(path string, shared bool) (*Lock, error) {
	return acquire(path, shared, true)
}

// TryAcquire takes an exclusive lock without waiting.
func TryAcquire(path string) (*Lock, error) {
	return acquire(path, false, false)
}

func acquire(path string, shared, wait bool) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock %s: %w", filepath.Base(path), err)
	}
	if err := lockFile(f, shared, wait); err != nil {
		_ = f.Close()
		if isWouldBlock(err) {
			return nil, ErrWouldBlock
		}
		return nil, fmt.Errorf("acquire lock %s: %w", filepath.Base(path), err)
	}
	return &Lock{file: f}, nil
}

// Release unlocks and closes the lock file. Releasing a nil lock is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
