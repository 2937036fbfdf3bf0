package review

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"tribunal/internal/errors"
)

// Full session lifecycle against a fake backend: start, advance, reset.
func TestLifecycle_StartNextReset(t *testing.T) {
	m, _, fs, mgr := testMachine(t)

	// start: round file at 1, live lock, one prompt per agent.
	if err := m.Setup(); err != nil {
		t.Fatal(err)
	}
	if err := m.StartRound(1); err != nil {
		t.Fatal(err)
	}

	roundFile, err := afero.ReadFile(fs, "review/current-round.txt")
	if err != nil {
		t.Fatalf("current-round.txt: %v", err)
	}
	if strings.TrimSpace(string(roundFile)) != "1" {
		t.Errorf("current-round.txt = %q, want 1", roundFile)
	}
	if ok, _ := afero.Exists(fs, "review/session.lock"); !ok {
		t.Fatal("session.lock missing after start")
	}
	for _, name := range []string{"claude", "codex", "gemini"} {
		if ok, _ := afero.Exists(fs, "review/round-1/"+name+"-prompt.md"); !ok {
			t.Errorf("round-1/%s-prompt.md missing", name)
		}
	}

	// A second start while the lock is live must fail.
	if _, err := mgr.Create("proj", "tmux"); !errors.IsConcurrency(err) {
		t.Errorf("second start error = %v, want ConcurrencyError", err)
	}

	// next: round file at 2, previous reviews carry round-1 transcripts.
	transcript := "finding: lock file is world writable"
	if err := afero.WriteFile(fs, "review/round-1/gemini.log", []byte(transcript), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Advance(); err != nil {
		t.Fatal(err)
	}
	roundFile, _ = afero.ReadFile(fs, "review/current-round.txt")
	if strings.TrimSpace(string(roundFile)) != "2" {
		t.Errorf("current-round.txt = %q, want 2", roundFile)
	}
	prev, err := afero.ReadFile(fs, "review/round-2/previous-reviews.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(prev), transcript) {
		t.Error("round-2 previous reviews missing the literal round-1 transcript")
	}

	// reset: lock and round counter gone; a fresh start begins at round 1.
	if err := mgr.Reset(mustState(t, m)); err != nil {
		t.Fatal(err)
	}
	if ok, _ := afero.Exists(fs, "review/session.lock"); ok {
		t.Error("session.lock still present after reset")
	}
	if ok, _ := afero.Exists(fs, "review/current-round.txt"); ok {
		t.Error("current-round.txt still present after reset")
	}

	st, err := mgr.Create("proj", "tmux")
	if err != nil {
		t.Fatalf("start after reset: %v", err)
	}
	if st.CurrentRound != 1 {
		t.Errorf("fresh session round = %d, want 1", st.CurrentRound)
	}
}
