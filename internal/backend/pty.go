package backend

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"

	"tribunal/internal/errors"
)

// Pty implements Terminal without a visual multiplexer: each agent CLI runs
// on an orchestrator-owned pseudo-terminal, payload text is written straight
// to the pty, and output is teed to the round log file. The CLI sees an
// interactive terminal; the operator sees nothing live and follows the logs
// instead.
//
// This is the direct-pipe delivery path for environments with no tmux: the
// same at-most-once, no-acknowledgment contract applies, but writes cannot be
// dropped by a slow renderer the way simulated keystrokes can.
type Pty struct {
	mu       sync.Mutex
	sessions map[string]*ptySession
}

type ptySession struct {
	viewports []Viewport
	procs     map[string]*ptyProc
}

type ptyProc struct {
	cmd *exec.Cmd
	tty *os.File
	out *logSwitch
}

// logSwitch is a writer whose destination file can be swapped between
// rounds while the pty copy goroutine keeps running.
type logSwitch struct {
	mu sync.Mutex
	f  *os.File
}

func (s *logSwitch) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return len(p), nil
	}
	return s.f.Write(p)
}

// set swaps the destination, closing the previous file.
func (s *logSwitch) set(f *os.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f != nil {
		_ = s.f.Close()
	}
	s.f = f
}

// NewPty creates a pty backend.
func NewPty() *Pty {
	return &Pty{sessions: make(map[string]*ptySession)}
}

// Kind returns "pty".
func (p *Pty) Kind() string { return KindPty }

// Available always succeeds; ptys need no external binary.
func (p *Pty) Available() error { return nil }

// AllocateLayout registers logical viewports for the session. No process
// starts until Launch.
func (p *Pty) AllocateLayout(session string, titles []string) ([]Viewport, error) {
	if len(titles) == 0 {
		return nil, errors.New("allocate: no viewports requested")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.sessions[session]; ok {
		destroyProcs(old)
	}

	viewports := make([]Viewport, len(titles))
	for i, title := range titles {
		viewports[i] = Viewport{
			ID:    fmt.Sprintf("%s/%d", session, i),
			Index: i,
			Title: title,
		}
	}
	p.sessions[session] = &ptySession{
		viewports: viewports,
		procs:     make(map[string]*ptyProc),
	}
	return viewports, nil
}

// Launch starts argv on a fresh pty bound to the viewport and tees its
// output to logPath.
func (p *Pty) Launch(session string, vp Viewport, argv []string, logPath string) error {
	if len(argv) == 0 {
		return errors.New("launch: empty command")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sess, ok := p.sessions[session]
	if !ok {
		return fmt.Errorf("%w: session %s not allocated", errors.ErrViewportNotFound, session)
	}
	if old, ok := sess.procs[vp.ID]; ok {
		killProc(old)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	tty, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 50, Cols: 220})
	if err != nil {
		return fmt.Errorf("start %s on pty: %w", argv[0], err)
	}

	proc := &ptyProc{cmd: cmd, tty: tty, out: &logSwitch{}}
	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			killProc(proc)
			return fmt.Errorf("open log: %w", err)
		}
		proc.out.set(logFile)
	}
	go func() {
		_, _ = io.Copy(proc.out, tty)
		proc.out.set(nil)
	}()

	sess.procs[vp.ID] = proc
	return nil
}

// RetargetLog swaps the viewport's transcript destination to a new file.
func (p *Pty) RetargetLog(target, logPath string) error {
	p.mu.Lock()
	proc := p.findProc(target)
	p.mu.Unlock()

	if proc == nil {
		return fmt.Errorf("%w: %s", errors.ErrViewportNotFound, target)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	proc.out.set(logFile)
	return nil
}

// SendText writes literal text to the viewport's pty without submitting.
func (p *Pty) SendText(target, text string) error {
	return p.write(target, []byte(text))
}

// Submit writes a carriage return, the interactive-CLI submit action.
func (p *Pty) Submit(target string) error {
	return p.write(target, []byte("\r"))
}

// Interrupt writes ETX (Ctrl-C) to the pty.
func (p *Pty) Interrupt(target string) error {
	return p.write(target, []byte{0x03})
}

// ClearInput writes NAK (Ctrl-U) to discard the pending input line.
func (p *Pty) ClearInput(target string) error {
	return p.write(target, []byte{0x15})
}

func (p *Pty) write(target string, data []byte) error {
	p.mu.Lock()
	proc := p.findProc(target)
	p.mu.Unlock()

	if proc == nil {
		return fmt.Errorf("%w: %s", errors.ErrViewportNotFound, target)
	}
	_, err := proc.tty.Write(data)
	return err
}

// findProc locates the running process for a target. Caller holds p.mu.
func (p *Pty) findProc(target string) *ptyProc {
	for _, sess := range p.sessions {
		if proc, ok := sess.procs[target]; ok {
			return proc
		}
	}
	return nil
}

// ListViewports returns the session's registered viewports.
func (p *Pty) ListViewports(session string) ([]Viewport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sess, ok := p.sessions[session]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", errors.ErrViewportNotFound, session)
	}
	out := make([]Viewport, len(sess.viewports))
	copy(out, sess.viewports)
	return out, nil
}

// AttachCommand returns "" — there is nothing visual to attach to.
func (p *Pty) AttachCommand(string) string { return "" }

// Destroy kills all session processes and closes their ptys. Idempotent.
func (p *Pty) Destroy(session string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	sess, ok := p.sessions[session]
	if !ok {
		return nil
	}
	destroyProcs(sess)
	delete(p.sessions, session)
	return nil
}

func destroyProcs(sess *ptySession) {
	for _, proc := range sess.procs {
		killProc(proc)
	}
	sess.procs = make(map[string]*ptyProc)
}

func killProc(proc *ptyProc) {
	if proc.cmd != nil && proc.cmd.Process != nil {
		_ = proc.cmd.Process.Kill()
		// Reap so the child does not linger as a zombie.
		go func(cmd *exec.Cmd) { _ = cmd.Wait() }(proc.cmd)
	}
	if proc.tty != nil {
		_ = proc.tty.Close()
	}
	if proc.out != nil {
		proc.out.set(nil)
	}
}

// Verify interface implementation at compile time.
var _ Terminal = (*Pty)(nil)
