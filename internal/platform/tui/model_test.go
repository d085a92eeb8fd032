package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-flappy/internal/clock"
	"github.com/vovakirdan/tui-flappy/internal/core"
)

type fakeController struct {
	jumps, resets int
	err           error
}

func (f *fakeController) Jump(context.Context) error  { f.jumps++; return f.err }
func (f *fakeController) Reset(context.Context) error { f.resets++; return f.err }

func newTestModel(ctl Controller, readOnly bool) Model {
	return NewModel(context.Background(), ctl, nil, Options{Width: 82, Height: 61, ReadOnly: readOnly})
}

// press runs the key through Update and executes the resulting command.
func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	var out tea.Msg
	if cmd != nil {
		out = cmd()
	}
	return next.(Model), out
}

func TestModelForwardsCommands(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(ctl, false)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m, _ = press(t, m, runeKey('w'))
	_, _ = press(t, m, runeKey('r'))

	if ctl.jumps != 2 || ctl.resets != 1 {
		t.Errorf("jumps=%d resets=%d, expected 2 and 1", ctl.jumps, ctl.resets)
	}
}

func TestModelReadOnly(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(ctl, true)

	m, _ = press(t, m, runeKey('w'))
	_, _ = press(t, m, runeKey('r'))

	if ctl.jumps != 0 || ctl.resets != 0 {
		t.Errorf("read-only model forwarded commands: %+v", ctl)
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(&fakeController{}, false)

	m, msg := press(t, m, runeKey('q'))
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Errorf("q should quit, got %T", msg)
	}
	if m.View() != "" {
		t.Error("quitting model should render nothing")
	}
}

func TestModelQuitsWhenLoopStops(t *testing.T) {
	ctl := &fakeController{err: clock.ErrStopped}
	m := newTestModel(ctl, false)

	m, msg := press(t, m, runeKey('w'))
	next, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("a stopped loop should end the program")
	}
	if !next.(Model).quitting {
		t.Error("model should be quitting")
	}
}

func TestModelReceivesSnapshots(t *testing.T) {
	observe, snaps := clock.Latest()
	m := NewModel(context.Background(), &fakeController{}, snaps, Options{Width: 82, Height: 61})

	s := runningSnapshot()
	s.Score = 12
	observe(s)

	msg := m.Init()()
	next, cmd := m.Update(msg)
	if cmd == nil {
		t.Error("model should keep listening after a snapshot")
	}
	m = next.(Model)
	if m.Snapshot().Score != 12 {
		t.Errorf("Snapshot().Score = %d, expected 12", m.Snapshot().Score)
	}

	view := m.View()
	if !strings.Contains(view, "Score: 12") {
		t.Errorf("view missing score:\n%s", view)
	}
	if !strings.Contains(view, "flap") {
		t.Error("view should end with the key help")
	}
}

func TestModelStopsListeningOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, snaps := clock.Latest()
	m := NewModel(ctx, &fakeController{}, snaps, Options{})

	if msg := m.Init()(); msg != nil {
		t.Errorf("cancelled model should stop waiting, got %T", msg)
	}
}

func TestModelResize(t *testing.T) {
	m := newTestModel(&fakeController{}, false)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	m = next.(Model)
	m.View()

	if m.screen.Width() != 40 || m.screen.Height() != 19 {
		t.Errorf("screen = %dx%d, expected 40x19", m.screen.Width(), m.screen.Height())
	}

	m.help.ShowAll = true
	m.View()
	if m.screen.Height() >= 19 {
		t.Errorf("full help should take rows from the playfield, height=%d", m.screen.Height())
	}
}

func TestWriteScreenshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	frame := core.NewScreen(20, 5)
	Draw(frame, runningSnapshot())

	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	path, err := writeScreenshot(dir, frame, at)
	if err != nil {
		t.Fatalf("writeScreenshot failed: %v", err)
	}
	if filepath.Base(path) != "flappy_20240501_123000.txt" {
		t.Errorf("unexpected screenshot name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Score: 0") {
		t.Errorf("screenshot should hold the frame text:\n%s", data)
	}
}
