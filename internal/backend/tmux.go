package backend

import (
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"tribunal/internal/errors"
)

// Tmux-specific errors
var (
	// ErrNoServer indicates no tmux server is running.
	ErrNoServer = errors.New("no tmux server running")
	// ErrSessionNotFound indicates the tmux session does not exist.
	ErrSessionNotFound = errors.New("tmux session not found")
	// ErrInvalidSessionName indicates a session name tmux would mangle.
	ErrInvalidSessionName = errors.New("invalid session name")
)

// validSessionNameRe validates session names to prevent shell injection and
// tmux target parsing surprises (dots and colons are target separators).
var validSessionNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Default pane grid for detached sessions. Agent CLIs render badly in the
// 80x24 tmux falls back to without a client attached.
const (
	defaultWidth  = 220
	defaultHeight = 50
)

// Tmux implements Terminal over a tmux server via subprocess, one window per
// session with a tiled pane per viewport.
type Tmux struct {
	runner CmdRunner
}

// NewTmux creates a tmux backend using the given runner.
func NewTmux(runner CmdRunner) *Tmux {
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Tmux{runner: runner}
}

// Kind returns "tmux".
func (t *Tmux) Kind() string { return KindTmux }

// run executes a tmux command and returns stdout, wrapping known stderr
// patterns into sentinel errors.
func (t *Tmux) run(args ...string) (string, error) {
	out, err := t.runner.Run("tmux", args...)
	if err != nil {
		return "", t.wrapError(err, args)
	}
	return out, nil
}

// wrapError maps tmux stderr text onto sentinel errors.
func (t *Tmux) wrapError(err error, args []string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no server running"),
		strings.Contains(msg, "error connecting to"),
		strings.Contains(msg, "server exited unexpectedly"):
		return ErrNoServer
	case strings.Contains(msg, "session not found"),
		strings.Contains(msg, "can't find session"),
		strings.Contains(msg, "can't find pane"):
		return ErrSessionNotFound
	}
	return fmt.Errorf("tmux %s: %w", args[0], err)
}

// Available checks that the tmux binary is on PATH.
func (t *Tmux) Available() error {
	if _, err := exec.LookPath("tmux"); err != nil {
		return fmt.Errorf("%w: tmux binary not found in PATH", errors.ErrBackendUnavailable)
	}
	return nil
}

// hasSession reports whether the named session exists.
func (t *Tmux) hasSession(session string) bool {
	_, err := t.run("has-session", "-t", session)
	return err == nil
}

// AllocateLayout creates a fresh detached session with one tiled pane per
// title. Panes map to titles in pane-index order, so the layout is
// deterministic for a given roster.
func (t *Tmux) AllocateLayout(session string, titles []string) ([]Viewport, error) {
	if !validSessionNameRe.MatchString(session) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionName, session)
	}
	if len(titles) == 0 {
		return nil, errors.New("allocate: no viewports requested")
	}

	// Replace any leftover session from a previous run.
	if t.hasSession(session) {
		_ = t.Destroy(session)
	}

	if _, err := t.run("new-session", "-d", "-s", session, "-n", "review",
		"-x", strconv.Itoa(defaultWidth), "-y", strconv.Itoa(defaultHeight)); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	window := session + ":0"
	for i := 1; i < len(titles); i++ {
		if _, err := t.run("split-window", "-t", window); err != nil {
			_ = t.Destroy(session)
			return nil, fmt.Errorf("split pane %d: %w", i, err)
		}
		// Re-tile after every split so the next split never hits
		// "pane too small".
		if _, err := t.run("select-layout", "-t", window, "tiled"); err != nil {
			_ = t.Destroy(session)
			return nil, fmt.Errorf("tile layout: %w", err)
		}
	}

	panes, err := t.listPanes(session)
	if err != nil {
		_ = t.Destroy(session)
		return nil, err
	}
	if len(panes) != len(titles) {
		_ = t.Destroy(session)
		return nil, fmt.Errorf("allocated %d panes, want %d", len(panes), len(titles))
	}

	for i := range panes {
		panes[i].Title = titles[i]
		// Title is cosmetic; failure to set it is not fatal.
		_, _ = t.run("select-pane", "-t", panes[i].ID, "-T", titles[i])
	}
	return panes, nil
}

// listPanes returns the session's panes sorted by pane index.
func (t *Tmux) listPanes(session string) ([]Viewport, error) {
	out, err := t.run("list-panes", "-t", session+":0", "-F", "#{pane_index} #{pane_id}")
	if err != nil {
		return nil, fmt.Errorf("list panes: %w", err)
	}

	var panes []Viewport
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		panes = append(panes, Viewport{ID: fields[1], Index: idx})
	}
	sort.Slice(panes, func(i, j int) bool { return panes[i].Index < panes[j].Index })
	return panes, nil
}

// Launch tees the pane's output to logPath, then types and submits the agent
// command line. The log capture starts before the process so startup output
// is not lost.
func (t *Tmux) Launch(session string, vp Viewport, argv []string, logPath string) error {
	if len(argv) == 0 {
		return errors.New("launch: empty command")
	}

	if logPath != "" {
		if err := t.RetargetLog(vp.ID, logPath); err != nil {
			return err
		}
	}

	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = shellQuote(a)
	}
	if err := t.SendText(vp.ID, strings.Join(quoted, " ")); err != nil {
		return err
	}
	return t.Submit(vp.ID)
}

// RetargetLog pipes the pane's output to logPath. Calling pipe-pane again
// replaces any existing pipe, so this both starts and re-points capture.
func (t *Tmux) RetargetLog(target, logPath string) error {
	pipe := fmt.Sprintf("cat >> %s", shellQuote(logPath))
	if _, err := t.run("pipe-pane", "-t", target, "-o", pipe); err != nil {
		return fmt.Errorf("pipe output: %w", err)
	}
	return nil
}

// SendText delivers literal text into the pane's input without submitting.
func (t *Tmux) SendText(target, text string) error {
	_, err := t.run("send-keys", "-t", target, "-l", "--", text)
	return err
}

// Submit presses Enter in the pane.
func (t *Tmux) Submit(target string) error {
	_, err := t.run("send-keys", "-t", target, "Enter")
	return err
}

// Interrupt sends Ctrl-C to the pane.
func (t *Tmux) Interrupt(target string) error {
	_, err := t.run("send-keys", "-t", target, "C-c")
	return err
}

// ClearInput sends Ctrl-U to discard any pending input line.
func (t *Tmux) ClearInput(target string) error {
	_, err := t.run("send-keys", "-t", target, "C-u")
	return err
}

// ListViewports returns the session's panes in index order.
func (t *Tmux) ListViewports(session string) ([]Viewport, error) {
	return t.listPanes(session)
}

// AttachCommand returns the command an operator runs to view the session.
func (t *Tmux) AttachCommand(session string) string {
	return fmt.Sprintf("tmux attach -t %s", session)
}

// Destroy kills the session. A session that is already gone is not an error.
func (t *Tmux) Destroy(session string) error {
	_, err := t.run("kill-session", "-t", session)
	if err != nil && (errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer)) {
		return nil
	}
	return err
}

// shellQuote wraps s in single quotes, escaping embedded single quotes, so
// the text survives the pane's shell untouched.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Verify interface implementation at compile time.
var _ Terminal = (*Tmux)(nil)
