package inject

import (
	"fmt"
	"testing"
	"time"

	"tribunal/internal/backend"
)

// fakeTerminal records SendText/Submit calls in order.
type fakeTerminal struct {
	backend.Terminal
	ops      []string
	failSend bool
}

func (f *fakeTerminal) SendText(target, text string) error {
	if f.failSend {
		return fmt.Errorf("send failed")
	}
	f.ops = append(f.ops, "text:"+text)
	return nil
}

func (f *fakeTerminal) Submit(target string) error {
	f.ops = append(f.ops, "submit")
	return nil
}

func newTestInjector(term backend.Terminal) (*Injector, *int) {
	inj := New(term, 100*time.Millisecond, nil)
	sleeps := 0
	inj.sleep = func(time.Duration) { sleeps++ }
	return inj, &sleeps
}

func TestDeliver_LinePacingAndTrailingFlush(t *testing.T) {
	term := &fakeTerminal{}
	inj, sleeps := newTestInjector(term)

	if err := inj.Deliver("%1", "first line\nsecond line"); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	want := []string{
		"text:first line", "submit",
		"text:second line", "submit",
		"submit", // trailing blank flush
	}
	if len(term.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", term.ops, want)
	}
	for i := range want {
		if term.ops[i] != want[i] {
			t.Errorf("op %d = %s, want %s", i, term.ops[i], want[i])
		}
	}
	if *sleeps != 2 {
		t.Errorf("paced %d times, want once per line (2)", *sleeps)
	}
}

func TestDeliver_TrailingNewlineDoesNotAddLine(t *testing.T) {
	term := &fakeTerminal{}
	inj, _ := newTestInjector(term)

	if err := inj.Deliver("%1", "only line\n"); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	// one line + submit + trailing flush
	if len(term.ops) != 3 {
		t.Errorf("ops = %v, want 3 ops for a single line", term.ops)
	}
}

func TestDeliver_EmptyPayloadStillFlushes(t *testing.T) {
	term := &fakeTerminal{}
	inj, _ := newTestInjector(term)

	if err := inj.Deliver("%1", ""); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	// Empty text is one empty line plus the trailing flush.
	want := []string{"text:", "submit", "submit"}
	if len(term.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", term.ops, want)
	}
}

func TestDeliver_SendFailureSurfaces(t *testing.T) {
	term := &fakeTerminal{failSend: true}
	inj, _ := newTestInjector(term)

	err := inj.Deliver("%1", "line")
	if err == nil {
		t.Fatal("expected error when SendText fails")
	}
}
