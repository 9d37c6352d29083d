// Package lockfile provides directory-based locking to prevent multiple
// Baseer instances from sharing one state directory.
//
// The whatsmeow session database and the SQLite application database live in
// the state directory and tolerate exactly one writer, so the lock uses a
// syscall-level flock that the kernel releases automatically when the process
// exits, gracefully or not.
package lockfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// LockFileName is the name of the lock file created in the state directory
const LockFileName = "baseer.lock"

// Lock represents an active directory lock
type Lock struct {
	file     *os.File
	path     string
	acquired bool
}

// AcquireLock attempts to acquire an exclusive lock on the state directory.
// When the lock is already held it returns a LockError describing the
// conflicting process.
func AcquireLock(stateDir string) (*Lock, error) {
	lockPath := filepath.Join(stateDir, LockFileName)
	slog.Debug("lockfile.AcquireLock: attempting to acquire lock", "lock_path", lockPath)

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", stateDir, err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", lockPath, err)
	}

	// Fails immediately if another process holds the lock.
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		info := readExistingLockInfo(lockPath)
		slog.Error("lockfile.AcquireLock: state directory already locked", "lock_path", lockPath, "existing_lock_info", info)
		return nil, &LockError{LockPath: lockPath, ExistingInfo: info, Cause: err}
	}

	if _, err := file.WriteString(fmt.Sprintf("pid=%d\n", os.Getpid())); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return nil, fmt.Errorf("failed to write lock information to %s: %w", lockPath, err)
	}
	if err := file.Sync(); err != nil {
		slog.Warn("lockfile.AcquireLock: failed to sync lock file", "error", err, "lock_path", lockPath)
	}

	slog.Info("lockfile.AcquireLock: state directory lock acquired", "lock_path", lockPath, "pid", os.Getpid())
	return &Lock{file: file, path: lockPath, acquired: true}, nil
}

// Release releases the lock and removes the lock file.
// Safe to call multiple times.
func (l *Lock) Release() error {
	if !l.acquired || l.file == nil {
		return nil
	}

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		slog.Error("lockfile.Release: failed to release flock", "error", err, "lock_path", l.path)
	}
	if err := l.file.Close(); err != nil {
		slog.Error("lockfile.Release: failed to close lock file", "error", err, "lock_path", l.path)
	}
	if err := os.Remove(l.path); err != nil {
		// Not critical, the flock itself is gone.
		slog.Error("lockfile.Release: failed to remove lock file", "error", err, "lock_path", l.path)
	}

	l.acquired = false
	l.file = nil
	slog.Info("lockfile.Release: state directory lock released", "lock_path", l.path)
	return nil
}

// LockError reports a lock held by another process.
type LockError struct {
	LockPath     string
	ExistingInfo string
	Cause        error
}

func (e *LockError) Error() string {
	msg := fmt.Sprintf("another Baseer instance is already using this state directory (lock file: %s)", e.LockPath)
	if e.ExistingInfo != "" {
		msg += fmt.Sprintf(", existing process: %s", e.ExistingInfo)
	}
	msg += fmt.Sprintf("; if no other instance is running the lock is stale and can be removed with: rm %s", e.LockPath)
	return msg
}

func (e *LockError) Unwrap() error {
	return e.Cause
}

// readExistingLockInfo reads an existing lock file for error reporting.
func readExistingLockInfo(lockPath string) string {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return "unable to read lock file information"
	}
	content := string(data)
	if content == "" {
		return "lock file exists but contains no process information"
	}
	if pid := extractPIDFromLockInfo(content); pid > 0 {
		if isProcessRunning(pid) {
			return fmt.Sprintf("PID %d (running)", pid)
		}
		return fmt.Sprintf("PID %d (not running - stale lock)", pid)
	}
	return fmt.Sprintf("process information: %s", strings.TrimSpace(content))
}

// extractPIDFromLockInfo pulls the "pid=NNNN" value out of lock file content.
func extractPIDFromLockInfo(content string) int {
	const pidPrefix = "pid="
	idx := strings.Index(content, pidPrefix)
	if idx == -1 {
		return 0
	}
	start := idx + len(pidPrefix)
	end := start
	for end < len(content) && content[end] >= '0' && content[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	pid, err := strconv.Atoi(content[start:end])
	if err != nil {
		return 0
	}
	return pid
}

// isProcessRunning checks whether a process with the given PID exists.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything.
	return process.Signal(syscall.Signal(0)) == nil
}
