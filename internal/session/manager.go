package session

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"tribunal/internal/backend"
	"tribunal/internal/errors"
	"tribunal/internal/logging"
)

// Manager enforces the single-active-session constraint and is the sole
// reader/writer of the lock, the state record, and the round counter file.
type Manager struct {
	fs     afero.Fs
	dir    string
	prefix string
	term   backend.Terminal
	logger *logging.Logger

	// Swappable in tests.
	alive func(int) bool
	pid   func() int
	now   func() time.Time
}

// NewManager creates a Manager rooted at dir (normally "review").
func NewManager(fs afero.Fs, dir, prefix string, term backend.Terminal, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Manager{
		fs:     fs,
		dir:    dir,
		prefix: prefix,
		term:   term,
		logger: logger,
		alive:  processAlive,
		pid:    os.Getpid,
		now:    time.Now,
	}
}

// Dir returns the workspace directory.
func (m *Manager) Dir() string { return m.dir }

// RoundDir returns the artifact directory for round n.
func (m *Manager) RoundDir(n int) string { return RoundDir(m.dir, n) }

func (m *Manager) lockPath() string  { return m.dir + "/" + lockFileName }
func (m *Manager) roundPath() string { return m.dir + "/" + roundFileName }
func (m *Manager) statePath() string { return m.dir + "/" + stateFileName }

// ActiveLock returns the current lock and whether its owner is alive.
func (m *Manager) ActiveLock() (*Lock, bool) {
	l, err := readLock(m.fs, m.lockPath())
	if err != nil || l == nil {
		return nil, false
	}
	return l, m.alive(l.PID)
}

// Create starts a new session for the project. It fails with a
// ConcurrencyError only when the lock file exists and its pid is running; a
// present-but-dead-pid lock is silently reclaimed.
func (m *Manager) Create(project, backendKind string) (*State, error) {
	if err := m.fs.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	if l, live := m.ActiveLock(); l != nil {
		if live {
			return nil, errors.NewConcurrencyError(project, l.PID, errors.ErrSessionActive)
		}
		m.logger.Warn("reclaiming stale session lock", "old_pid", l.PID)
		if err := m.fs.Remove(m.lockPath()); err != nil {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}

	lock := Lock{PID: m.pid(), Timestamp: m.now()}
	if err := writeAtomic(m.fs, m.lockPath(), formatLock(lock)); err != nil {
		return nil, fmt.Errorf("write lock: %w", err)
	}

	st := &State{
		Project:      project,
		Backend:      backendKind,
		SessionName:  sessionNameFor(m.prefix, project),
		CurrentRound: 1,
		CreatedAt:    m.now(),
	}
	if err := m.Save(st); err != nil {
		_ = m.fs.Remove(m.lockPath())
		return nil, err
	}

	m.logger.Info("session created", "project", project, "backend", backendKind, "pid", lock.PID)
	return st, nil
}

// Attach returns the active session's state, failing with a
// PreconditionError when no live session exists.
func (m *Manager) Attach() (*State, error) {
	noSession := func(cause error) error {
		return errors.NewPreconditionError("attach", cause,
			"run 'tribunal start' to begin a review session")
	}

	_, live := m.ActiveLock()
	if !live {
		return nil, noSession(errors.ErrNoActiveSession)
	}

	data, err := afero.ReadFile(m.fs, m.statePath())
	if err != nil {
		return nil, noSession(fmt.Errorf("%w: state file unreadable", errors.ErrNoActiveSession))
	}
	st, err := unmarshalState(data)
	if err != nil {
		return nil, noSession(err)
	}
	return st, nil
}

// Save persists the state record and the round counter file atomically.
func (m *Manager) Save(st *State) error {
	st.UpdatedAt = m.now()

	data, err := marshalState(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := writeAtomic(m.fs, m.statePath(), data); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	round := []byte(strconv.Itoa(st.CurrentRound) + "\n")
	if err := writeAtomic(m.fs, m.roundPath(), round); err != nil {
		return fmt.Errorf("write round file: %w", err)
	}
	return nil
}

// CurrentRound reads the round counter file. Returns 0 when absent.
func (m *Manager) CurrentRound() int {
	data, err := afero.ReadFile(m.fs, m.roundPath())
	if err != nil {
		return 0
	}
	n, err := parseRound(data)
	if err != nil {
		return 0
	}
	return n
}

// SetRound persists a round transition.
func (m *Manager) SetRound(st *State, n int) error {
	st.CurrentRound = n
	return m.Save(st)
}

// Terminate tears down the session's viewports and unconditionally removes
// the lock. Idempotent: terminating an already-terminated session is a no-op.
func (m *Manager) Terminate(st *State) error {
	if st != nil && st.SessionName != "" && m.term != nil {
		if err := m.term.Destroy(st.SessionName); err != nil {
			m.logger.Warn("backend destroy failed", "session", st.SessionName, "error", err)
		}
	}

	if err := m.fs.Remove(m.lockPath()); err != nil {
		if exists, _ := afero.Exists(m.fs, m.lockPath()); exists {
			return fmt.Errorf("remove lock: %w", err)
		}
	}
	m.logger.Info("session terminated")
	return nil
}

// Reset terminates the session and clears the round counter and state so the
// next start begins at round 1.
func (m *Manager) Reset(st *State) error {
	if err := m.Terminate(st); err != nil {
		return err
	}
	for _, p := range []string{m.roundPath(), m.statePath()} {
		if err := m.fs.Remove(p); err != nil {
			if exists, _ := afero.Exists(m.fs, p); exists {
				return fmt.Errorf("remove %s: %w", p, err)
			}
		}
	}
	return nil
}
