package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault_Roster(t *testing.T) {
	cfg := Default()

	if len(cfg.Agents) != 3 {
		t.Fatalf("default roster has %d agents, want 3", len(cfg.Agents))
	}
	names := map[string]bool{}
	for _, a := range cfg.Agents {
		names[a.Name] = true
		if len(a.Command) == 0 {
			t.Errorf("agent %s has empty command", a.Name)
		}
	}
	for _, want := range []string{"claude", "codex", "gemini"} {
		if !names[want] {
			t.Errorf("default roster missing %s", want)
		}
	}
}

func TestGet_AppliesViperValues(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.Set("review.max_files", 7)
	viper.Set("session.backend", "pty")

	cfg := Get()
	if cfg.Review.MaxFiles != 7 {
		t.Errorf("MaxFiles = %d, want 7", cfg.Review.MaxFiles)
	}
	if cfg.Session.Backend != "pty" {
		t.Errorf("Backend = %q, want pty", cfg.Session.Backend)
	}
	if cfg.Review.MaxRounds != 4 {
		t.Errorf("MaxRounds = %d, want default 4", cfg.Review.MaxRounds)
	}
}

func TestSeverityOverrides(t *testing.T) {
	r := ReviewConfig{SeverityByRound: map[string]string{
		"2":   "Critical Only",
		"bad": "ignored",
		"0":   "ignored",
	}}

	got := r.SeverityOverrides()
	if len(got) != 1 {
		t.Fatalf("got %d overrides, want 1", len(got))
	}
	if got[2] != "Critical Only" {
		t.Errorf("override[2] = %q, want Critical Only", got[2])
	}
}

func TestSeverityOverrides_Empty(t *testing.T) {
	if got := (ReviewConfig{}).SeverityOverrides(); got != nil {
		t.Errorf("expected nil for empty map, got %v", got)
	}
}

func TestInjectDurations(t *testing.T) {
	i := InjectConfig{LineDelayMs: 250, PersonaAckTimeoutSeconds: 3, LLMStartTimeoutSeconds: 10}

	if i.LineDelay() != 250*time.Millisecond {
		t.Errorf("LineDelay = %v", i.LineDelay())
	}
	if i.PersonaAckTimeout() != 3*time.Second {
		t.Errorf("PersonaAckTimeout = %v", i.PersonaAckTimeout())
	}
	if i.LLMStartTimeout() != 10*time.Second {
		t.Errorf("LLMStartTimeout = %v", i.LLMStartTimeout())
	}
}

func TestAgentProbe(t *testing.T) {
	a := AgentConfig{Name: "claude", Command: []string{"claude", "--continue"}}
	probe := a.Probe()
	if len(probe) != 2 || probe[0] != "claude" || probe[1] != "--version" {
		t.Errorf("Probe = %v, want [claude --version]", probe)
	}

	a.ProbeArgs = []string{"auth", "status"}
	probe = a.Probe()
	if len(probe) != 3 || probe[1] != "auth" {
		t.Errorf("Probe = %v, want [claude auth status]", probe)
	}

	if got := (AgentConfig{}).Probe(); got != nil {
		t.Errorf("Probe on empty command = %v, want nil", got)
	}
}
