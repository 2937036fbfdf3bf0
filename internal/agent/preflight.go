package agent

import (
	"fmt"
	"os/exec"

	"tribunal/internal/backend"
	"tribunal/internal/config"
	"tribunal/internal/errors"
)

// lookPath is swappable in tests.
var lookPath = exec.LookPath

// Check verifies that the agent's CLI is installed and responsive. It first
// looks for the binary on PATH, then runs the configured probe (default
// `<cli> --version`); a probe that exits non-zero usually means the CLI is
// present but unauthenticated.
func Check(runner backend.CmdRunner, cfg config.AgentConfig) error {
	if len(cfg.Command) == 0 {
		return errors.NewPreconditionError(
			fmt.Sprintf("check agent %s", cfg.Name),
			errors.ErrAgentUnavailable,
			fmt.Sprintf("configure a command for agent %q in tribunal.yaml", cfg.Name),
		)
	}

	bin := cfg.Command[0]
	if _, err := lookPath(bin); err != nil {
		return errors.NewPreconditionError(
			fmt.Sprintf("check agent %s", cfg.Name),
			fmt.Errorf("%w: %s not found in PATH", errors.ErrAgentUnavailable, bin),
			fmt.Sprintf("install the %s CLI and ensure it is on PATH", bin),
		)
	}

	probe := cfg.Probe()
	if _, err := runner.Run(probe[0], probe[1:]...); err != nil {
		return errors.NewPreconditionError(
			fmt.Sprintf("check agent %s", cfg.Name),
			fmt.Errorf("%w: probe %v failed: %v", errors.ErrAgentUnavailable, probe, err),
			fmt.Sprintf("run %q manually; the CLI may need authentication", bin),
		)
	}
	return nil
}

// CheckAll runs Check for every configured agent and joins the failures so
// the operator sees every missing CLI at once rather than one per run.
func CheckAll(runner backend.CmdRunner, cfgs []config.AgentConfig) error {
	var errs []error
	for _, c := range cfgs {
		if err := Check(runner, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
