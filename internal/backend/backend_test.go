package backend

import (
	"testing"

	"tribunal/internal/errors"
)

func TestFor_KnownKinds(t *testing.T) {
	tm, err := For(KindTmux, newFakeRunner())
	if err != nil {
		t.Fatalf("For(tmux): %v", err)
	}
	if tm.Kind() != KindTmux {
		t.Errorf("Kind = %s, want tmux", tm.Kind())
	}

	pt, err := For(KindPty, nil)
	if err != nil {
		t.Fatalf("For(pty): %v", err)
	}
	if pt.Kind() != KindPty {
		t.Errorf("Kind = %s, want pty", pt.Kind())
	}
}

func TestFor_UnknownKind(t *testing.T) {
	_, err := For("screen", nil)
	if !errors.Is(err, errors.ErrUnknownBackend) {
		t.Errorf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestPty_AllocateAndList(t *testing.T) {
	p := NewPty()

	vps, err := p.AllocateLayout("rev", []string{"claude", "codex", "gemini", "control"})
	if err != nil {
		t.Fatalf("AllocateLayout: %v", err)
	}
	if len(vps) != 4 {
		t.Fatalf("got %d viewports, want 4", len(vps))
	}
	if vps[0].ID != "rev/0" || vps[3].ID != "rev/3" {
		t.Errorf("viewport IDs = %s..%s, want rev/0..rev/3", vps[0].ID, vps[3].ID)
	}

	listed, err := p.ListViewports("rev")
	if err != nil {
		t.Fatalf("ListViewports: %v", err)
	}
	if len(listed) != 4 || listed[1].Title != "codex" {
		t.Errorf("listed = %v", listed)
	}
}

func TestPty_SendToUnlaunchedViewport(t *testing.T) {
	p := NewPty()
	_, _ = p.AllocateLayout("rev", []string{"claude"})

	err := p.SendText("rev/0", "hello")
	if !errors.Is(err, errors.ErrViewportNotFound) {
		t.Errorf("err = %v, want ErrViewportNotFound", err)
	}
}

func TestPty_DestroyIdempotent(t *testing.T) {
	p := NewPty()
	_, _ = p.AllocateLayout("rev", []string{"claude"})

	if err := p.Destroy("rev"); err != nil {
		t.Errorf("Destroy: %v", err)
	}
	if err := p.Destroy("rev"); err != nil {
		t.Errorf("second Destroy: %v", err)
	}
	if _, err := p.ListViewports("rev"); err == nil {
		t.Error("expected ListViewports to fail after Destroy")
	}
}

func TestPty_NoVisualAttach(t *testing.T) {
	p := NewPty()
	if got := p.AttachCommand("rev"); got != "" {
		t.Errorf("AttachCommand = %q, want empty", got)
	}
	if err := p.Available(); err != nil {
		t.Errorf("Available = %v, want nil", err)
	}
}
