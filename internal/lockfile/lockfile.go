// Package lockfile guards against two notification loops watching the same
// timer record. The lock is an flock held for the life of the process, so it
// is released even if the process is killed.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Lock is an acquired exclusive lock.
type Lock struct {
	file *os.File
	path string
}

const maxAttempts = 5

// LockError reports that another process holds the lock.
type LockError struct {
	LockPath     string
	ExistingInfo string
	Cause        error
}

func (e *LockError) Error() string {
	msg := fmt.Sprintf("another notify loop is already running for this timer (lock file: %s)", e.LockPath)
	if e.ExistingInfo != "" {
		msg += ": " + e.ExistingInfo
	}
	return msg
}

func (e *LockError) Unwrap() error {
	return e.Cause
}

// Acquire takes an exclusive non-blocking lock on path, creating its
// directory if needed, and records the current pid in it.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open lock file: %w", err)
		}
		if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
			_ = file.Close()
			return nil, &LockError{LockPath: path, ExistingInfo: readExistingInfo(path), Cause: err}
		}
		// A releasing holder may have unlinked the file between open and flock.
		if !isCurrent(file, path) {
			_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
			_ = file.Close()
			continue
		}
		if err := file.Truncate(0); err != nil {
			_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
			_ = file.Close()
			return nil, fmt.Errorf("failed to truncate lock file: %w", err)
		}
		if _, err := file.WriteAt([]byte(fmt.Sprintf("pid=%d\n", os.Getpid())), 0); err != nil {
			_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
			_ = file.Close()
			return nil, fmt.Errorf("failed to write lock file: %w", err)
		}
		return &Lock{file: file, path: path}, nil
	}
	return nil, fmt.Errorf("failed to acquire lock %s: file kept changing", path)
}

// isCurrent reports whether file is still the one linked at path.
func isCurrent(file *os.File, path string) bool {
	held, err := file.Stat()
	if err != nil {
		return false
	}
	linked, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, linked)
}

// Release unlocks and removes the lock file. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	// Removed while still held.
	rerr := os.Remove(l.path)
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		_ = l.file.Close()
		l.file = nil
		return fmt.Errorf("failed to unlock: %w", err)
	}
	cerr := l.file.Close()
	l.file = nil
	if rerr != nil && !os.IsNotExist(rerr) {
		return fmt.Errorf("failed to remove lock file: %w", rerr)
	}
	return cerr
}

func readExistingInfo(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	content := strings.TrimSpace(string(data))
	pidStr, ok := strings.CutPrefix(content, "pid=")
	if !ok {
		return ""
	}
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return ""
	}
	if unix.Kill(pid, 0) == nil {
		return fmt.Sprintf("held by pid %d", pid)
	}
	return fmt.Sprintf("held by pid %d (not running)", pid)
}
