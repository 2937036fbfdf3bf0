package agent

import (
	"fmt"
	"strings"
	"testing"

	"tribunal/internal/config"
	"tribunal/internal/errors"
)

type probeRunner struct {
	fail map[string]bool
	ran  [][]string
}

func (r *probeRunner) Run(name string, args ...string) (string, error) {
	r.ran = append(r.ran, append([]string{name}, args...))
	if r.fail[name] {
		return "", fmt.Errorf("exit status 1")
	}
	return "1.0.0", nil
}

func stubLookPath(t *testing.T, missing ...string) {
	t.Helper()
	orig := lookPath
	lookPath = func(bin string) (string, error) {
		for _, m := range missing {
			if bin == m {
				return "", fmt.Errorf("executable file not found in $PATH")
			}
		}
		return "/usr/local/bin/" + bin, nil
	}
	t.Cleanup(func() { lookPath = orig })
}

func TestCheck_Passes(t *testing.T) {
	stubLookPath(t)
	runner := &probeRunner{}

	err := Check(runner, config.AgentConfig{Name: "claude", Command: []string{"claude"}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(runner.ran) != 1 || runner.ran[0][1] != "--version" {
		t.Errorf("probe = %v, want claude --version", runner.ran)
	}
}

func TestCheck_MissingBinary(t *testing.T) {
	stubLookPath(t, "gemini")
	runner := &probeRunner{}

	err := Check(runner, config.AgentConfig{Name: "gemini", Command: []string{"gemini"}})
	if !errors.Is(err, errors.ErrAgentUnavailable) {
		t.Fatalf("err = %v, want ErrAgentUnavailable", err)
	}
	if !strings.Contains(errors.Remediation(err), "install") {
		t.Errorf("remediation = %q, want install hint", errors.Remediation(err))
	}
}

func TestCheck_ProbeFailure(t *testing.T) {
	stubLookPath(t)
	runner := &probeRunner{fail: map[string]bool{"codex": true}}

	err := Check(runner, config.AgentConfig{Name: "codex", Command: []string{"codex"}})
	if !errors.Is(err, errors.ErrAgentUnavailable) {
		t.Fatalf("err = %v, want ErrAgentUnavailable", err)
	}
	if !strings.Contains(errors.Remediation(err), "authentication") {
		t.Errorf("remediation = %q, want authentication hint", errors.Remediation(err))
	}
}

func TestCheckAll_ReportsEveryFailure(t *testing.T) {
	stubLookPath(t, "claude", "gemini")
	runner := &probeRunner{}

	err := CheckAll(runner, []config.AgentConfig{
		{Name: "claude", Command: []string{"claude"}},
		{Name: "codex", Command: []string{"codex"}},
		{Name: "gemini", Command: []string{"gemini"}},
	})
	if err == nil {
		t.Fatal("expected aggregated failure")
	}
	msg := err.Error()
	if !strings.Contains(msg, "claude") || !strings.Contains(msg, "gemini") {
		t.Errorf("aggregated error %q should name both missing CLIs", msg)
	}
	if strings.Contains(msg, "check agent codex") {
		t.Errorf("codex should have passed: %q", msg)
	}
}
