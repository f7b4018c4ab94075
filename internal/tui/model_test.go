package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/pomo/internal/model"
)

type fakeController struct {
	status  model.Status
	toggles int
	starts  int
	stops   int
	err     error
}

func (f *fakeController) Status() model.Status {
	return f.status
}

func (f *fakeController) Start() error {
	f.starts++
	f.status = model.Status{Phase: model.PhaseWork, Remaining: 1500, Length: 1500}
	return f.err
}

func (f *fakeController) Stop() error {
	f.stops++
	f.status = model.Status{Stopped: true}
	return f.err
}

func (f *fakeController) Toggle() (model.RecordState, error) {
	f.toggles++
	f.status.Paused = !f.status.Paused
	return model.RecordRunning, f.err
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestViewShowsClock(t *testing.T) {
	ctl := &fakeController{status: model.Status{Phase: model.PhaseBreak, Remaining: 235, Length: 300}}
	m := NewModel(ctl)
	out := m.View()
	for _, want := range []string{"B03:55", "break", "pause/resume"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q: %s", want, out)
		}
	}
}

func TestViewStopped(t *testing.T) {
	m := NewModel(&fakeController{status: model.Status{Stopped: true}})
	out := m.View()
	if !strings.Contains(out, "--:--") || !strings.Contains(out, "stopped") {
		t.Fatalf("unexpected stopped view: %s", out)
	}
}

func TestKeysDriveController(t *testing.T) {
	ctl := &fakeController{status: model.Status{Stopped: true}}
	m := NewModel(ctl)

	m.Update(runeKey('s'))
	if ctl.starts != 1 || m.status.Stopped {
		t.Fatalf("start key not handled: %+v", ctl)
	}
	m.Update(runeKey('p'))
	if ctl.toggles != 1 || !m.status.Paused {
		t.Fatalf("toggle key not handled: %+v", ctl)
	}
	if !strings.Contains(m.View(), "PW25:00") {
		t.Fatalf("expected paused clock: %s", m.View())
	}
	m.Update(runeKey('x'))
	if ctl.stops != 1 || !m.status.Stopped {
		t.Fatalf("stop key not handled: %+v", ctl)
	}

	_, cmd := m.Update(runeKey('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

func TestActionErrorShown(t *testing.T) {
	ctl := &fakeController{status: model.Status{Stopped: true}, err: errors.New("disk on fire")}
	m := NewModel(ctl)
	m.Update(runeKey('s'))
	if !strings.Contains(m.View(), "disk on fire") {
		t.Fatalf("expected error in view: %s", m.View())
	}
}

func TestPhaseProgress(t *testing.T) {
	cases := []struct {
		status model.Status
		want   float64
	}{
		{model.Status{Stopped: true}, 0},
		{model.Status{Remaining: 1500, Length: 1500}, 0},
		{model.Status{Remaining: 75, Length: 300}, 0.75},
	}
	for _, tc := range cases {
		if got := phaseProgress(tc.status); got != tc.want {
			t.Fatalf("status %+v: expected %v, got %v", tc.status, tc.want, got)
		}
	}
}
