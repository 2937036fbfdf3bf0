// Package session owns the review workspace lifecycle: the advisory session
// lock, the persisted session state, and the round-directory tree under
// review/.
//
// The round counter and lock are the only global mutable state in the
// system. Both live here and nowhere else; every other component receives
// values, never file paths.
package session

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Workspace layout under the working directory
const (
	DirName       = "review"
	lockFileName  = "session.lock"
	roundFileName = "current-round.txt"
	stateFileName = "state.json"
)

// AgentBinding records one agent's viewport binding for the active session.
type AgentBinding struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	ViewportID string `json:"viewport_id"`
}

// State is the persisted session record. It is written only by the Manager,
// always via atomic write-replace.
type State struct {
	Project      string         `json:"project"`
	Backend      string         `json:"backend"`
	SessionName  string         `json:"session_name"`
	CurrentRound int            `json:"current_round"`
	Agents       []AgentBinding `json:"agents"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// RoundDir returns the artifact directory for round n, relative to dir.
func RoundDir(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("round-%d", n))
}

// writeAtomic writes data to path via a temp file and rename, so readers
// never observe a partial file.
func writeAtomic(fs afero.Fs, path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return err
	}
	return fs.Rename(tmp, path)
}

func marshalState(st *State) ([]byte, error) {
	return json.MarshalIndent(st, "", "  ")
}

func unmarshalState(data []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("corrupt state file: %w", err)
	}
	return &st, nil
}

// sessionNameFor derives a backend-safe session name from prefix + project.
func sessionNameFor(prefix, project string) string {
	name := prefix + "-" + project
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// parseRound parses the bare-integer round file contents.
func parseRound(data []byte) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid round file contents %q", strings.TrimSpace(string(data)))
	}
	return n, nil
}
