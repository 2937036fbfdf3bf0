// Package inject delivers text payloads into viewports by line-paced
// keystroke simulation.
//
// Delivery contract: at-most-once, no acknowledgment. The receiving process
// never confirms it consumed a line; the fixed inter-line delay is the only
// synchronization, a best-effort heuristic rather than a guarantee. A
// receiver slower than the pacing assumption can silently truncate, drop, or
// interleave lines. This is an accepted soft-failure mode: there is no retry
// and no read-back.
package inject

import (
	"fmt"
	"strings"
	"time"

	"tribunal/internal/backend"
	"tribunal/internal/logging"
	"tribunal/internal/util"
)

// Injector paces text into viewports over a Terminal backend.
type Injector struct {
	term   backend.Terminal
	delay  time.Duration
	logger *logging.Logger

	// sleep overrides time.Sleep in tests.
	sleep func(time.Duration)
}

// Option configures an Injector.
type Option func(*Injector)

// WithSleeper overrides the sleep function, removing real delays in tests.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(i *Injector) { i.sleep = sleep }
}

// New creates an Injector with the given inter-line pacing delay.
func New(term backend.Terminal, delay time.Duration, logger *logging.Logger, opts ...Option) *Injector {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	inj := &Injector{
		term:   term,
		delay:  delay,
		logger: logger,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(inj)
	}
	return inj
}

// Deliver splits text into lines and emits each line followed by a submit
// action and the pacing delay, then one trailing blank submit so the
// receiving REPL flushes the final line. Fire-and-forget: a nil return means
// every keystroke was handed to the backend, not that the agent consumed it.
func (i *Injector) Deliver(target, text string) error {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	for n, line := range lines {
		if err := i.term.SendText(target, line); err != nil {
			return fmt.Errorf("line %d/%d: %w", n+1, len(lines), err)
		}
		if err := i.term.Submit(target); err != nil {
			return fmt.Errorf("submit line %d/%d: %w", n+1, len(lines), err)
		}
		i.sleep(i.delay)
	}

	// Trailing blank submit forces the receiver to execute the final line.
	if err := i.term.Submit(target); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	i.logger.Debug("payload delivered",
		"target", target,
		"lines", len(lines),
		"bytes", len(text),
		"first_line", util.TruncateString(lines[0], 80))
	return nil
}

// Pause sleeps for d. Round delivery uses it for the launch and persona
// handshake waits, keeping all timing behavior overridable in tests through
// one seam.
func (i *Injector) Pause(d time.Duration) {
	i.sleep(d)
}
