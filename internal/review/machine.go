package review

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"tribunal/internal/agent"
	"tribunal/internal/backend"
	"tribunal/internal/config"
	"tribunal/internal/errors"
	"tribunal/internal/inject"
	"tribunal/internal/logging"
	"tribunal/internal/session"
	"tribunal/internal/template"
)

// interruptSettle is how long round-advance waits between interrupting an
// agent and clearing its input line.
const interruptSettle = time.Second

// Machine drives round transitions: it builds the round context, renders and
// delivers persona+prompt per agent, and owns the template/focus overrides
// the command router can apply.
type Machine struct {
	fs      afero.Fs
	term    backend.Terminal
	inj     *inject.Injector
	mgr     *session.Manager
	cfg     *config.Config
	builder *Builder
	logger  *logging.Logger

	agents  []*agent.Agent
	state   *session.State
	control backend.Viewport
	watcher *LogWatcher

	// templateOverride applies to the next round only; focusOverride applies
	// to the current round only. Both are cleared by Advance.
	templateOverride string
	focusOverride    string

	lastDoc  *Document
	lastGaps int
}

// NewMachine wires a Machine for the given roster.
func NewMachine(fs afero.Fs, term backend.Terminal, inj *inject.Injector, mgr *session.Manager, cfg *config.Config, agents []*agent.Agent, logger *logging.Logger) *Machine {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Machine{
		fs:      fs,
		term:    term,
		inj:     inj,
		mgr:     mgr,
		cfg:     cfg,
		builder: NewBuilder(fs, ".", cfg.Review.FilePatterns, cfg.Review.MaxFiles, cfg.Review.RequirementsFile, logger),
		logger:  logger,
		agents:  agents,
	}
}

// Bind attaches the machine to a session state record.
func (m *Machine) Bind(st *session.State) { m.state = st }

// Agents returns the roster.
func (m *Machine) Agents() []*agent.Agent { return m.agents }

// Control returns the control viewport allocated by Setup.
func (m *Machine) Control() backend.Viewport { return m.control }

// Setup allocates the session layout (one viewport per agent plus the
// control viewport), binds agents to viewports, and launches every agent CLI
// with its round-1 transcript log. It then waits the configured startup
// window before any delivery.
func (m *Machine) Setup() error {
	if m.state == nil {
		return errors.New("machine not bound to a session")
	}

	titles := append(agent.Names(m.agents), "control")
	vps, err := m.term.AllocateLayout(m.state.SessionName, titles)
	if err != nil {
		return fmt.Errorf("allocate viewports: %w", err)
	}

	roundDir := m.mgr.RoundDir(1)
	if err := m.fs.MkdirAll(roundDir, 0o755); err != nil {
		return fmt.Errorf("create round dir: %w", err)
	}

	bindings := make([]session.AgentBinding, len(m.agents))
	for i, a := range m.agents {
		a.Viewport = vps[i]
		bindings[i] = session.AgentBinding{Name: a.Name, Role: a.Role, ViewportID: a.Viewport.ID}

		logPath := filepath.Join(roundDir, a.LogName())
		if err := m.term.Launch(m.state.SessionName, a.Viewport, a.Command, logPath); err != nil {
			return fmt.Errorf("launch %s: %w", a.Name, err)
		}
	}
	m.control = vps[len(vps)-1]
	m.state.Agents = bindings
	if err := m.mgr.Save(m.state); err != nil {
		return err
	}

	m.logger.Info("agents launched", "count", len(m.agents), "startup_wait", m.cfg.Inject.LLMStartTimeout())
	m.inj.Pause(m.cfg.Inject.LLMStartTimeout())
	return nil
}

// Rebind restores viewport bindings from persisted state, for commands that
// attach to an already-running session.
func (m *Machine) Rebind(st *session.State) error {
	m.state = st
	for _, b := range st.Agents {
		a := agent.ByName(m.agents, b.Name)
		if a == nil {
			return fmt.Errorf("persisted agent %q not in configured roster", b.Name)
		}
		a.Viewport = backend.Viewport{ID: b.ViewportID, Title: b.Name}
	}
	return nil
}

// Current describes the round in progress, with any focus override applied.
func (m *Machine) Current() Round {
	n := m.mgr.CurrentRound()
	if n < 1 {
		n = 1
	}
	return m.describeRound(n)
}

func (m *Machine) describeRound(n int) Round {
	focus := FocusForRound(n, m.cfg.Review.SeverityOverrides())
	if m.focusOverride != "" {
		focus = m.focusOverride
	}
	tmpl := TemplateForRound(n, m.cfg.Review.MaxRounds)
	if m.templateOverride != "" {
		tmpl = m.templateOverride
	}
	return Round{Number: n, Focus: focus, TemplateID: tmpl, Dir: m.mgr.RoundDir(n)}
}

// SetTemplateOverride switches the template for the next round only. The id
// must resolve to an operator-authored or embedded template.
func (m *Machine) SetTemplateOverride(id string) error {
	if _, err := template.Load(m.fs, m.cfg.Review.TemplateDir, id); err != nil {
		return err
	}
	m.templateOverride = id
	return nil
}

// SetFocusOverride replaces the current round's severity focus without
// changing the round number.
func (m *Machine) SetFocusOverride(level string) { m.focusOverride = level }

// AttachWatcher wires a log watcher that follows the active round directory
// across Advance calls.
func (m *Machine) AttachWatcher(w *LogWatcher) { m.watcher = w }

// Activity reports last-write times per agent transcript, or nil when no
// watcher is attached.
func (m *Machine) Activity() map[string]time.Time {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Activity()
}

// LastDocument returns the most recently built context document, or nil.
func (m *Machine) LastDocument() *Document { return m.lastDoc }

// Save snapshots the bound session state to disk.
func (m *Machine) Save() error {
	if m.state == nil {
		return errors.New("machine not bound to a session")
	}
	return m.mgr.Save(m.state)
}

// UnresolvedPlaceholders reports how many placeholders collapsed to empty in
// the last delivery — lenient substitution never fails, but drift should be
// visible.
func (m *Machine) UnresolvedPlaceholders() int { return m.lastGaps }

// StartRound builds the context for round n, writes the round artifacts, and
// delivers persona then prompt to every agent in roster order. Delivery is
// fire-and-forget; agents execute concurrently and unordered relative to
// each other.
func (m *Machine) StartRound(n int) error {
	round := m.describeRound(n)
	m.templateOverride = ""

	if err := m.fs.MkdirAll(round.Dir, 0o755); err != nil {
		return fmt.Errorf("create round dir: %w", err)
	}

	prevDir := ""
	if n > 1 {
		prevDir = m.mgr.RoundDir(n - 1)
	}
	doc, err := m.builder.Build(n, prevDir, agent.Names(m.agents))
	if err != nil {
		return err
	}
	m.lastDoc = doc

	if err := m.writeArtifacts(round, doc); err != nil {
		return err
	}

	body, err := template.Load(m.fs, m.cfg.Review.TemplateDir, round.TemplateID)
	if err != nil {
		return err
	}

	finalDirective := ""
	if round.TemplateID == template.IDFinal {
		finalDirective = FinalDirective
	}

	m.lastGaps = 0
	log := m.logger.WithRound(n)
	for _, a := range m.agents {
		vars := template.Vars{
			Round:           n,
			Role:            a.Role,
			Severity:        round.Focus,
			Context:         doc.Source,
			Requirements:    doc.Requirements,
			Focus:           FocusPhrase(n),
			PreviousReviews: doc.PreviousReviews,
			FinalDirective:  finalDirective,
		}
		rendered, gaps := template.Render(body, vars)
		m.lastGaps += gaps
		if gaps > 0 {
			log.Warn("unresolved template placeholders", "agent", a.Name, "count", gaps)
		}

		persona := template.LoadPersona(m.fs, m.cfg.Review.PersonaDir, a.Name, a.Role)
		full := template.WithPersona(persona, rendered)
		promptPath := filepath.Join(round.Dir, a.PromptName())
		if err := afero.WriteFile(m.fs, promptPath, []byte(full), 0o644); err != nil {
			return fmt.Errorf("write prompt for %s: %w", a.Name, err)
		}

		// Role priming first, then the task body after the handshake pause.
		// The channel is ack-less: the pause is the handshake.
		if err := m.inj.Deliver(a.Viewport.ID, persona); err != nil {
			return fmt.Errorf("deliver persona to %s: %w", a.Name, err)
		}
		m.inj.Pause(m.cfg.Inject.PersonaAckTimeout())
		if err := m.inj.Deliver(a.Viewport.ID, rendered); err != nil {
			return fmt.Errorf("deliver prompt to %s: %w", a.Name, err)
		}
		log.Info("round payload delivered", "agent", a.Name, "template", round.TemplateID, "focus", round.Focus)
	}
	return nil
}

// writeArtifacts persists context.md and, for later rounds,
// previous-reviews.md into the round directory.
func (m *Machine) writeArtifacts(round Round, doc *Document) error {
	ctx := doc.Source
	if doc.Requirements != "" {
		ctx += "\n## Requirements\n\n" + doc.Requirements
	}
	if err := afero.WriteFile(m.fs, filepath.Join(round.Dir, "context.md"), []byte(ctx), 0o644); err != nil {
		return fmt.Errorf("write context: %w", err)
	}
	if doc.PreviousReviews != "" {
		prev := filepath.Join(round.Dir, "previous-reviews.md")
		if err := afero.WriteFile(m.fs, prev, []byte(doc.PreviousReviews), 0o644); err != nil {
			return fmt.Errorf("write previous reviews: %w", err)
		}
	}
	return nil
}

// Advance moves the session to round n+1: the prior round's artifacts become
// immutable input, every agent viewport is interrupted and cleared, logs are
// re-pointed at the new round directory, and persona+prompt are redelivered
// from scratch. Agents are stateless across rounds — context is always
// rebuilt whole, never patched.
func (m *Machine) Advance() error {
	if m.state == nil {
		return errors.New("machine not bound to a session")
	}
	n := m.state.CurrentRound
	if n < 1 {
		return errors.New("no round in progress")
	}

	next := n + 1
	nextDir := m.mgr.RoundDir(next)
	if err := m.fs.MkdirAll(nextDir, 0o755); err != nil {
		return fmt.Errorf("create round dir: %w", err)
	}
	if m.watcher != nil {
		if err := m.watcher.Retarget(nextDir); err != nil {
			m.logger.Warn("log watcher retarget failed", "dir", nextDir, "error", err)
		}
	}

	for _, a := range m.agents {
		if err := m.term.Interrupt(a.Viewport.ID); err != nil {
			m.logger.Warn("interrupt failed", "agent", a.Name, "error", err)
		}
	}
	m.inj.Pause(interruptSettle)
	for _, a := range m.agents {
		if err := m.term.ClearInput(a.Viewport.ID); err != nil {
			m.logger.Warn("clear input failed", "agent", a.Name, "error", err)
		}
		if err := m.term.RetargetLog(a.Viewport.ID, filepath.Join(nextDir, a.LogName())); err != nil {
			m.logger.Warn("log retarget failed", "agent", a.Name, "error", err)
		}
	}

	m.focusOverride = ""
	if err := m.mgr.SetRound(m.state, next); err != nil {
		return err
	}
	m.logger.Info("round advanced", "from", n, "to", next)
	return m.StartRound(next)
}
