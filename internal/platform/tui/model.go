// Package tui provides the Bubble Tea front end for the game.
// It renders snapshots published by the clock loop and turns key presses
// into loop commands; it never touches the game directly.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-flappy/internal/clock"
	"github.com/vovakirdan/tui-flappy/internal/core"
	"github.com/vovakirdan/tui-flappy/internal/sim"
)

// commandTimeout bounds how long a key press may wait for the loop.
const commandTimeout = 250 * time.Millisecond

// Controller accepts game commands. *clock.Loop satisfies it.
type Controller interface {
	Jump(ctx context.Context) error
	Reset(ctx context.Context) error
}

// SnapshotMsg carries a new game snapshot into the Bubble Tea loop.
type SnapshotMsg sim.Snapshot

type commandErrMsg struct{ err error }

type screenshotMsg struct {
	path string
	err  error
}

// Options configures the game screen.
type Options struct {
	Width, Height int

	// ReadOnly ignores jump and reset keys, for watching the autopilot.
	ReadOnly bool

	// ScreenshotDir receives ctrl+s captures. Empty disables screenshots.
	ScreenshotDir string

	Logger *log.Logger
}

// Model is the Bubble Tea model for the game screen.
type Model struct {
	ctx    context.Context
	ctl    Controller
	snaps  <-chan sim.Snapshot
	snap   sim.Snapshot
	screen *core.Screen
	keys   KeyMap
	help   help.Model
	opts   Options
	logger *log.Logger
	status string

	width, height int
	quitting      bool
}

// NewModel creates the game screen. Snapshots arrive on snaps; key presses
// are forwarded to ctl.
func NewModel(ctx context.Context, ctl Controller, snaps <-chan sim.Snapshot, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	h := help.New()
	h.ShowAll = false

	return Model{
		ctx:    ctx,
		ctl:    ctl,
		snaps:  snaps,
		screen: core.NewScreen(opts.Width, max(opts.Height-1, 0)),
		keys:   DefaultKeyMap(),
		help:   h,
		opts:   opts,
		logger: logger,
		width:  opts.Width,
		height: opts.Height,
	}
}

// Init starts listening for snapshots.
func (m Model) Init() tea.Cmd {
	return m.waitForSnapshot()
}

// waitForSnapshot returns a command that waits for the next snapshot.
func (m Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.snaps:
			return SnapshotMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.snap = sim.Snapshot(msg)
		return m, m.waitForSnapshot()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case commandErrMsg:
		if errors.Is(msg.err, clock.ErrStopped) {
			m.quitting = true
			return m, tea.Quit
		}
		m.logger.Warn("command dropped", "err", msg.err)
		return m, nil

	case screenshotMsg:
		if msg.err != nil {
			m.status = "screenshot failed"
			m.logger.Error("screenshot", "err", msg.err)
		} else {
			m.status = "saved " + msg.path
		}
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Screenshot):
		return m, m.saveScreenshot()
	}

	switch m.keys.Action(msg) {
	case core.ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case core.ActionJump:
		if !m.opts.ReadOnly {
			return m, m.post(m.ctl.Jump)
		}
	case core.ActionReset:
		if !m.opts.ReadOnly {
			m.status = ""
			return m, m.post(m.ctl.Reset)
		}
	}
	return m, nil
}

// post sends a command to the loop off the Bubble Tea goroutine.
func (m Model) post(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, commandTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return commandErrMsg{err: err}
		}
		return nil
	}
}

// saveScreenshot writes the current frame as plain text.
func (m Model) saveScreenshot() tea.Cmd {
	if m.opts.ScreenshotDir == "" {
		return nil
	}
	frame := core.NewScreen(m.screen.Width(), m.screen.Height())
	Draw(frame, m.snap)
	dir := m.opts.ScreenshotDir

	return func() tea.Msg {
		path, err := writeScreenshot(dir, frame, time.Now())
		return screenshotMsg{path: path, err: err}
	}
}

func writeScreenshot(dir string, frame *core.Screen, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("flappy_%s.txt", at.Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(frame.String()+"\n"), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// Snapshot returns the last snapshot the model received.
func (m Model) Snapshot() sim.Snapshot {
	return m.snap
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	footer := m.help.View(m.keys)
	if m.status != "" {
		footer += "  " + m.status
	}

	// The playfield takes whatever rows the footer leaves
	rows := strings.Count(footer, "\n") + 1
	m.screen.Resize(m.width, max(m.height-rows, 0))
	Draw(m.screen, m.snap)

	var sb strings.Builder
	sb.WriteString(RenderScreen(m.screen))
	sb.WriteByte('\n')
	sb.WriteString(footer)
	return sb.String()
}

// Run starts the Bubble Tea program and blocks until the player quits or
// ctx is cancelled.
func Run(ctx context.Context, ctl Controller, snaps <-chan sim.Snapshot, opts Options) error {
	model := NewModel(ctx, ctl, snaps, opts)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
