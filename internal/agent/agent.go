// Package agent models the externally supplied reviewer CLIs: their
// identities, launch commands, and viewport bindings for a session.
package agent

import (
	"fmt"
	"strings"

	"tribunal/internal/backend"
	"tribunal/internal/config"
	"tribunal/internal/errors"
)

// Agent is one interactive reviewer process. The zero Viewport means the
// agent is not bound to a live session; rebinding happens on every round
// reset.
type Agent struct {
	Name     string
	Role     string
	Command  []string
	Viewport backend.Viewport
}

// Roster builds the agent set from configuration. Names must be unique,
// non-empty, and usable in filenames and router addressing.
func Roster(cfgs []config.AgentConfig) ([]*Agent, error) {
	if len(cfgs) == 0 {
		return nil, errors.New("no agents configured")
	}

	seen := make(map[string]bool, len(cfgs))
	agents := make([]*Agent, 0, len(cfgs))
	for _, c := range cfgs {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, errors.New("agent with empty name")
		}
		if strings.ContainsAny(name, "/:. ") {
			return nil, fmt.Errorf("agent name %q: must be filename- and router-safe", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate agent name %q", name)
		}
		if len(c.Command) == 0 {
			return nil, fmt.Errorf("agent %q has no command", name)
		}
		seen[name] = true

		role := c.Role
		if role == "" {
			role = "Code Reviewer"
		}
		agents = append(agents, &Agent{Name: name, Role: role, Command: c.Command})
	}
	return agents, nil
}

// Names returns the roster's agent names in order.
func Names(agents []*Agent) []string {
	out := make([]string, len(agents))
	for i, a := range agents {
		out[i] = a.Name
	}
	return out
}

// ByName finds an agent in the roster, or nil.
func ByName(agents []*Agent, name string) *Agent {
	for _, a := range agents {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// LogName returns the agent's per-round transcript filename.
func (a *Agent) LogName() string { return a.Name + ".log" }

// PromptName returns the agent's per-round prompt artifact filename.
func (a *Agent) PromptName() string { return a.Name + "-prompt.md" }
