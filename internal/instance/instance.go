// Package instance keeps a single NoReveal process per user
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrAlreadyRunning is returned when another process holds the lock
var ErrAlreadyRunning = errors.New("NoReveal is already running")

// LockFileName is created in the directory passed to Acquire
const LockFileName = "noreveal.lock"

// Lock is an exclusive advisory lock held for the life of the process
type Lock struct {
	path string
	f    *os.File
}

// Acquire takes the lock in dir and records our PID in it
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	path := filepath.Join(dir, LockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := tryLock(f); err != nil {
		f.Close()
		if pid, perr := ReadPID(dir); perr == nil {
			return nil, fmt.Errorf("%w (pid %d): %v", ErrAlreadyRunning, pid, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrAlreadyRunning, err)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d", os.Getpid()); err != nil {
		f.Close()
		return nil, fmt.Errorf("write lock file: %w", err)
	}

	return &Lock{path: path, f: f}, nil
}

// Release drops the lock and removes the file
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	_ = os.Remove(l.path)
	return err
}

// ReadPID returns the PID recorded by the current lock holder
func ReadPID(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, LockFileName))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// Running reports whether another process holds the lock in dir, and its
// PID when known
func Running(dir string) (int, bool) {
	l, err := Acquire(dir)
	if err == nil {
		_ = l.Release()
		return 0, false
	}
	if !errors.Is(err, ErrAlreadyRunning) {
		return 0, false
	}
	pid, _ := ReadPID(dir)
	return pid, true
}
