// Package router implements the interactive control loop: it parses operator
// input line by line and dispatches text to one or all agents, or adjusts the
// round in progress.
package router

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tribunal/internal/agent"
	"tribunal/internal/inject"
	"tribunal/internal/logging"
	"tribunal/internal/review"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Router reads operator commands and dispatches them. Malformed input is
// reported and the loop continues; only `exit` leaves the loop, and doing so
// never terminates the session.
type Router struct {
	machine *review.Machine
	inj     *inject.Injector
	agents  []*agent.Agent
	in      io.Reader
	out     io.Writer
	logger  *logging.Logger
}

// New creates a Router over the given input and output streams.
func New(machine *review.Machine, inj *inject.Injector, agents []*agent.Agent, in io.Reader, out io.Writer, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Router{
		machine: machine,
		inj:     inj,
		agents:  agents,
		in:      in,
		out:     out,
		logger:  logger,
	}
}

// Run processes commands until `exit` or EOF. The session stays alive either
// way; `tribunal next` and `tribunal reset` manage its lifecycle.
func (r *Router) Run() error {
	fmt.Fprintln(r.out, dimStyle.Render("type 'help' for commands, 'exit' to leave (session keeps running)"))

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	r.printPrompt()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			r.printPrompt()
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Fprintln(r.out, dimStyle.Render("leaving control loop; session still active"))
			return nil
		}
		if err := r.dispatch(line); err != nil {
			fmt.Fprintln(r.out, errorStyle.Render("error: "+err.Error()))
		}
		r.printPrompt()
	}
	return scanner.Err()
}

func (r *Router) printPrompt() {
	round := r.machine.Current()
	fmt.Fprint(r.out, promptStyle.Render(fmt.Sprintf("tribunal[round %d]> ", round.Number)))
}

func (r *Router) dispatch(line string) error {
	// Message forms first: `all:<text>` and `<agent>:<text>`.
	if target, text, ok := strings.Cut(line, ":"); ok && !strings.Contains(target, " ") {
		return r.send(target, strings.TrimSpace(text))
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "round":
		r.showRound()
		return nil
	case "context":
		if len(fields) == 2 && fields[1] == "show" {
			r.showContext()
			return nil
		}
		return fmt.Errorf("usage: context show")
	case "template":
		if len(fields) != 2 {
			return fmt.Errorf("usage: template <name>")
		}
		if err := r.machine.SetTemplateOverride(fields[1]); err != nil {
			return fmt.Errorf("template %q: %w", fields[1], err)
		}
		fmt.Fprintln(r.out, labelStyle.Render("template for next round: ")+fields[1])
		return nil
	case "focus":
		if len(fields) < 2 {
			return fmt.Errorf("usage: focus <level>")
		}
		level := strings.TrimSpace(strings.TrimPrefix(line, "focus"))
		r.machine.SetFocusOverride(level)
		fmt.Fprintln(r.out, labelStyle.Render("focus for current round: ")+level)
		return nil
	case "save":
		if err := r.machine.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
		fmt.Fprintln(r.out, dimStyle.Render("state saved"))
		return nil
	case "help":
		r.showHelp()
		return nil
	default:
		return fmt.Errorf("unknown command %q (try 'help')", fields[0])
	}
}

// send delivers text to one agent, or broadcasts with the `all` pseudo-target.
func (r *Router) send(target, text string) error {
	if text == "" {
		return fmt.Errorf("empty message for %q", target)
	}

	if target == "all" {
		for _, a := range r.agents {
			if err := r.inj.Deliver(a.Viewport.ID, text); err != nil {
				return fmt.Errorf("broadcast to %s: %w", a.Name, err)
			}
		}
		r.logger.Info("broadcast delivered", "agents", len(r.agents), "bytes", len(text))
		return nil
	}

	a := agent.ByName(r.agents, target)
	if a == nil {
		return fmt.Errorf("no agent named %q (agents: %s)", target, strings.Join(agent.Names(r.agents), ", "))
	}
	if err := r.inj.Deliver(a.Viewport.ID, text); err != nil {
		return fmt.Errorf("deliver to %s: %w", a.Name, err)
	}
	r.logger.Info("message delivered", "agent", a.Name, "bytes", len(text))
	return nil
}

func (r *Router) showRound() {
	round := r.machine.Current()
	fmt.Fprintln(r.out, labelStyle.Render("round:    ")+fmt.Sprintf("%d", round.Number))
	fmt.Fprintln(r.out, labelStyle.Render("focus:    ")+round.Focus)
	fmt.Fprintln(r.out, labelStyle.Render("template: ")+round.TemplateID)
	fmt.Fprintln(r.out, labelStyle.Render("artifacts:")+" "+round.Dir)

	activity := r.machine.Activity()
	if len(activity) == 0 {
		return
	}
	names := make([]string, 0, len(activity))
	for name := range activity {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ago := time.Since(activity[name]).Round(time.Second)
		fmt.Fprintln(r.out, dimStyle.Render(fmt.Sprintf("  %s last wrote %s ago", name, ago)))
	}
}

func (r *Router) showContext() {
	doc := r.machine.LastDocument()
	if doc == nil {
		fmt.Fprintln(r.out, dimStyle.Render("no context built yet"))
		return
	}
	fmt.Fprintln(r.out, labelStyle.Render("files included: ")+fmt.Sprintf("%d", doc.FilesIncluded))
	fmt.Fprintln(r.out, labelStyle.Render("files omitted:  ")+fmt.Sprintf("%d", doc.FilesOmitted))
	fmt.Fprintln(r.out, labelStyle.Render("requirements:   ")+presence(doc.Requirements != ""))
	fmt.Fprintln(r.out, labelStyle.Render("prev reviews:   ")+presence(doc.PreviousReviews != ""))
	if gaps := r.machine.UnresolvedPlaceholders(); gaps > 0 {
		fmt.Fprintln(r.out, errorStyle.Render(fmt.Sprintf("unresolved template placeholders: %d", gaps)))
	}
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}

func (r *Router) showHelp() {
	rows := [][2]string{
		{"all:<text>", "broadcast text to every agent"},
		{"<agent>:<text>", "send text to one agent"},
		{"round", "show current round number, focus, and template"},
		{"context show", "summarize the current context document"},
		{"template <name>", "switch template for the next round only"},
		{"focus <level>", "override this round's severity focus"},
		{"save", "snapshot session state to disk"},
		{"help", "show this help"},
		{"exit", "leave the control loop (session keeps running)"},
	}
	for _, row := range rows {
		fmt.Fprintln(r.out, labelStyle.Render(fmt.Sprintf("  %-16s", row[0]))+dimStyle.Render(row[1]))
	}
}
