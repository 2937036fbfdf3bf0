package backend

import (
	"bytes"
	"os/exec"
	"strings"
)

// CmdRunner abstracts subprocess execution for testability.
type CmdRunner interface {
	// Run executes a command and returns trimmed stdout. On failure the
	// error includes stderr when the process produced any.
	Run(name string, args ...string) (string, error)
}

// ExecRunner implements CmdRunner using os/exec.
type ExecRunner struct{}

// Run executes a command and returns its trimmed stdout.
func (e *ExecRunner) Run(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", &runError{args: append([]string{name}, args...), msg: msg, cause: err}
		}
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

// runError carries stderr text alongside the exec error.
type runError struct {
	args  []string
	msg   string
	cause error
}

func (e *runError) Error() string {
	return strings.Join(e.args[:min(len(e.args), 2)], " ") + ": " + e.msg
}

func (e *runError) Unwrap() error { return e.cause }
