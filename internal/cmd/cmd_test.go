package cmd

import (
	"strings"
	"testing"
)

func TestRootCommand_Subcommands(t *testing.T) {
	if rootCmd.Use != "tribunal" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "tribunal")
	}

	expected := []string{"setup", "check", "start", "next", "status", "attach", "reset"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestResetCommand_ForceFlag(t *testing.T) {
	f := resetCmd.Flags().Lookup("force")
	if f == nil {
		t.Fatal("reset --force flag missing")
	}
	if f.Shorthand != "f" {
		t.Errorf("force shorthand = %q, want f", f.Shorthand)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	f := rootCmd.PersistentFlags().Lookup("config")
	if f == nil {
		t.Fatal("persistent --config flag missing")
	}
	if !strings.Contains(f.Usage, "tribunal") {
		t.Errorf("config flag usage = %q", f.Usage)
	}
}

func TestSampleConfig_MentionsEveryAgent(t *testing.T) {
	for _, name := range []string{"claude", "codex", "gemini"} {
		if !strings.Contains(sampleConfig, name) {
			t.Errorf("sample config missing agent %q", name)
		}
	}
	for _, key := range []string{"max_rounds", "line_delay_ms", "backend"} {
		if !strings.Contains(sampleConfig, key) {
			t.Errorf("sample config missing key %q", key)
		}
	}
}
