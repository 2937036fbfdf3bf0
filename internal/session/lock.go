package session

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
)

// Lock is the advisory session lock: owning pid plus acquisition timestamp.
// A lock whose pid is not running is stale; stale locks are reclaimed, never
// treated as blocking.
type Lock struct {
	PID       int
	Timestamp time.Time
}

// formatLock serializes a lock as "<pid> <RFC3339>\n".
func formatLock(l Lock) []byte {
	return []byte(fmt.Sprintf("%d %s\n", l.PID, l.Timestamp.UTC().Format(time.RFC3339)))
}

// parseLock parses lock file contents. The timestamp is informational; a
// lock with a live pid is valid even when its timestamp fails to parse.
func parseLock(data []byte) (*Lock, error) {
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty lock file")
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("invalid lock pid %q", fields[0])
	}
	l := &Lock{PID: pid}
	if len(fields) > 1 {
		if ts, err := time.Parse(time.RFC3339, fields[1]); err == nil {
			l.Timestamp = ts
		}
	}
	return l, nil
}

// readLock returns the lock at path, or nil if no lock file exists. An
// unparseable lock reads as pid 0, which is always stale.
func readLock(fs afero.Fs, path string) (*Lock, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil || !exists {
		return nil, err
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	l, err := parseLock(data)
	if err != nil {
		return &Lock{PID: 0}, nil
	}
	return l, nil
}

// processAlive checks whether a process with the given pid is running.
// Sending signal 0 probes existence without affecting the process.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
