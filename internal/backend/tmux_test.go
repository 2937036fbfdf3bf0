package backend

import (
	"fmt"
	"strings"
	"testing"

	"tribunal/internal/errors"
)

// fakeRunner records tmux invocations and returns scripted responses keyed by
// the tmux subcommand (first argument).
type fakeRunner struct {
	calls     [][]string
	responses map[string]string
	failures  map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

func (f *fakeRunner) Run(name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if len(args) == 0 {
		return "", nil
	}
	if err, ok := f.failures[args[0]]; ok {
		return "", err
	}
	return f.responses[args[0]], nil
}

func (f *fakeRunner) callsFor(sub string) [][]string {
	var out [][]string
	for _, c := range f.calls {
		if len(c) > 1 && c[1] == sub {
			out = append(out, c)
		}
	}
	return out
}

func TestAllocateLayout_PaneCountAndOrder(t *testing.T) {
	runner := newFakeRunner()
	// Unsorted on purpose: AllocateLayout must order panes by index.
	runner.responses["list-panes"] = "2 %12\n0 %10\n1 %11"
	runner.failures["has-session"] = fmt.Errorf("can't find session: rev")
	tmux := NewTmux(runner)

	vps, err := tmux.AllocateLayout("tribunal-proj", []string{"claude", "codex", "control"})
	if err != nil {
		t.Fatalf("AllocateLayout: %v", err)
	}

	if len(vps) != 3 {
		t.Fatalf("got %d viewports, want 3", len(vps))
	}
	wantIDs := []string{"%10", "%11", "%12"}
	wantTitles := []string{"claude", "codex", "control"}
	for i, vp := range vps {
		if vp.ID != wantIDs[i] {
			t.Errorf("viewport %d ID = %s, want %s", i, vp.ID, wantIDs[i])
		}
		if vp.Title != wantTitles[i] {
			t.Errorf("viewport %d Title = %s, want %s", i, vp.Title, wantTitles[i])
		}
	}

	// 3 viewports need exactly 2 splits, each followed by a re-tile.
	if got := len(runner.callsFor("split-window")); got != 2 {
		t.Errorf("split-window called %d times, want 2", got)
	}
	if got := len(runner.callsFor("select-layout")); got != 2 {
		t.Errorf("select-layout called %d times, want 2", got)
	}
	if got := len(runner.callsFor("new-session")); got != 1 {
		t.Errorf("new-session called %d times, want 1", got)
	}
}

func TestAllocateLayout_ReplacesExistingSession(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["list-panes"] = "0 %0"
	tmux := NewTmux(runner)

	// has-session succeeds (fake default), so the old session must be killed.
	if _, err := tmux.AllocateLayout("tribunal-proj", []string{"control"}); err != nil {
		t.Fatalf("AllocateLayout: %v", err)
	}
	if got := len(runner.callsFor("kill-session")); got != 1 {
		t.Errorf("kill-session called %d times, want 1", got)
	}
}

func TestAllocateLayout_RejectsInvalidName(t *testing.T) {
	tmux := NewTmux(newFakeRunner())

	_, err := tmux.AllocateLayout("bad.name:0", []string{"control"})
	if !errors.Is(err, ErrInvalidSessionName) {
		t.Errorf("err = %v, want ErrInvalidSessionName", err)
	}
}

func TestSendText_LiteralFlag(t *testing.T) {
	runner := newFakeRunner()
	tmux := NewTmux(runner)

	if err := tmux.SendText("%3", "-rf all: the above"); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	call := runner.calls[0]
	want := []string{"tmux", "send-keys", "-t", "%3", "-l", "--", "-rf all: the above"}
	if strings.Join(call, "\x00") != strings.Join(want, "\x00") {
		t.Errorf("call = %v, want %v", call, want)
	}
}

func TestSubmitAndInterruptKeys(t *testing.T) {
	runner := newFakeRunner()
	tmux := NewTmux(runner)

	_ = tmux.Submit("%1")
	_ = tmux.Interrupt("%1")
	_ = tmux.ClearInput("%1")

	wantLast := [][]string{
		{"tmux", "send-keys", "-t", "%1", "Enter"},
		{"tmux", "send-keys", "-t", "%1", "C-c"},
		{"tmux", "send-keys", "-t", "%1", "C-u"},
	}
	for i, want := range wantLast {
		if strings.Join(runner.calls[i], " ") != strings.Join(want, " ") {
			t.Errorf("call %d = %v, want %v", i, runner.calls[i], want)
		}
	}
}

func TestLaunch_PipesLogBeforeCommand(t *testing.T) {
	runner := newFakeRunner()
	tmux := NewTmux(runner)

	vp := Viewport{ID: "%2", Index: 1, Title: "codex"}
	err := tmux.Launch("tribunal-proj", vp, []string{"codex", "--full-auto"}, "review/round-1/codex.log")
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	if runner.calls[0][1] != "pipe-pane" {
		t.Fatalf("first call = %v, want pipe-pane", runner.calls[0])
	}
	if !strings.Contains(strings.Join(runner.calls[0], " "), "codex.log") {
		t.Errorf("pipe-pane call missing log path: %v", runner.calls[0])
	}

	sent := strings.Join(runner.calls[1], " ")
	if !strings.Contains(sent, "'codex' '--full-auto'") {
		t.Errorf("launch command not quoted: %v", sent)
	}
	if runner.calls[2][len(runner.calls[2])-1] != "Enter" {
		t.Errorf("launch not submitted: %v", runner.calls[2])
	}
}

func TestDestroy_ToleratesMissingSession(t *testing.T) {
	runner := newFakeRunner()
	runner.failures["kill-session"] = fmt.Errorf("can't find session: gone")
	tmux := NewTmux(runner)

	if err := tmux.Destroy("gone"); err != nil {
		t.Errorf("Destroy on missing session = %v, want nil", err)
	}

	runner.failures["kill-session"] = fmt.Errorf("no server running on /tmp/tmux-0/default")
	if err := tmux.Destroy("gone"); err != nil {
		t.Errorf("Destroy with no server = %v, want nil", err)
	}
}

func TestWrapError_Sentinels(t *testing.T) {
	tmux := NewTmux(newFakeRunner())

	tests := []struct {
		stderr string
		want   error
	}{
		{"no server running on /tmp/tmux-1000/default", ErrNoServer},
		{"can't find session: rev", ErrSessionNotFound},
		{"can't find pane: %9", ErrSessionNotFound},
		{"something else entirely", nil},
	}
	for _, tt := range tests {
		got := tmux.wrapError(errors.New(tt.stderr), []string{"send-keys"})
		if tt.want != nil && !errors.Is(got, tt.want) {
			t.Errorf("wrapError(%q) = %v, want %v", tt.stderr, got, tt.want)
		}
		if tt.want == nil && (errors.Is(got, ErrNoServer) || errors.Is(got, ErrSessionNotFound)) {
			t.Errorf("wrapError(%q) = %v, want plain wrap", tt.stderr, got)
		}
	}
}

func TestShellQuote(t *testing.T) {
	got := shellQuote("it's a trap")
	want := `'it'\''s a trap'`
	if got != want {
		t.Errorf("shellQuote = %s, want %s", got, want)
	}
}
