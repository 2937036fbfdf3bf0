// Package backend abstracts the terminal multiplexer driving the review
// session. A Terminal owns one multiplexed workspace per session name, hands
// out viewports (one per agent plus one control viewport), and delivers raw
// text into them.
//
// Delivery is keystroke simulation: there is no acknowledgment channel and no
// read-back. Callers that need pacing layer it on top (see internal/inject).
package backend

import (
	"fmt"

	"tribunal/internal/errors"
)

// Backend kinds selectable via session.backend
const (
	KindTmux = "tmux"
	KindPty  = "pty"
)

// Viewport is a logical terminal pane bound to one agent (or the control
// loop). ID is the backend-specific target handle.
type Viewport struct {
	ID    string
	Index int
	Title string
}

// Terminal is the interface over interchangeable multiplexer backends.
type Terminal interface {
	// Kind returns the backend kind string.
	Kind() string

	// Available verifies the backend's external requirements (binary on
	// PATH, server reachable). Returns ErrBackendUnavailable-wrapping
	// errors when unmet.
	Available() error

	// AllocateLayout creates the session workspace with one viewport per
	// title, in deterministic title order. An existing session of the same
	// name is replaced.
	AllocateLayout(session string, titles []string) ([]Viewport, error)

	// Launch starts argv inside the viewport and tees its output to logPath.
	Launch(session string, vp Viewport, argv []string, logPath string) error

	// RetargetLog re-points the viewport's output capture at a new file,
	// used on round transitions so each round gets its own transcript.
	RetargetLog(target, logPath string) error

	// SendText delivers literal text to the viewport without submitting it.
	SendText(target, text string) error

	// Submit sends the submit action (Enter) to the viewport.
	Submit(target string) error

	// Interrupt forcibly interrupts the process in the viewport (Ctrl-C).
	Interrupt(target string) error

	// ClearInput discards any pending input line in the viewport (Ctrl-U).
	ClearInput(target string) error

	// ListViewports returns the session's current viewports in index order.
	ListViewports(session string) ([]Viewport, error)

	// AttachCommand returns the shell command an operator runs to view the
	// session, or "" if the backend has no visual surface.
	AttachCommand(session string) string

	// Destroy tears down the session workspace. Destroying a session that
	// does not exist is not an error.
	Destroy(session string) error
}

// For returns the Terminal implementation for the given kind.
func For(kind string, runner CmdRunner) (Terminal, error) {
	switch kind {
	case KindTmux:
		return NewTmux(runner), nil
	case KindPty:
		return NewPty(), nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownBackend, kind)
	}
}
