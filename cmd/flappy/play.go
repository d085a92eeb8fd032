package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-flappy/internal/autopilot"
	"github.com/vovakirdan/tui-flappy/internal/clock"
	"github.com/vovakirdan/tui-flappy/internal/platform/tui"
	"github.com/vovakirdan/tui-flappy/internal/sim"
)

// demoPause is how long the autopilot lingers on the game over screen.
const demoPause = 2 * time.Second

var (
	flagLogFile   string
	flagAutopilot bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Start an interactive game.

Controls:
  Space/Up/W - Flap (the first flap starts the session)
  R          - Reset to the start screen
  Ctrl+S     - Save a text screenshot to ~/.flappy/screenshots
  ?          - Toggle help
  Q/Ctrl+C   - Quit

Examples:
  flappy play
  flappy play --seed 42
  flappy play --autopilot
  flappy play --log-file /tmp/flappy.log --verbose`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (the terminal is busy with the game)")
	playCmd.Flags().BoolVar(&flagAutopilot, "autopilot", false, "Let the autopilot play; keys other than quit are ignored")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logOut := io.Discard
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut)

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	s := seed()
	logger.Info("starting", "seed", s, "autopilot", flagAutopilot)

	loop := clock.New(sim.New(cfg, sim.NewRand(s)), clock.Options{
		TickInterval:  cfg.TickInterval(),
		SpawnInterval: cfg.SpawnInterval(),
		Logger:        logger,
	})
	observe, snaps := clock.Latest()
	loop.Subscribe(observe)

	var pilotSnaps <-chan sim.Snapshot
	if flagAutopilot {
		var pilotObserve func(sim.Snapshot)
		pilotObserve, pilotSnaps = clock.Latest()
		loop.Subscribe(pilotObserve)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(ctx)
	})

	if flagAutopilot {
		g.Go(func() error {
			return demo(ctx, loop, autopilot.New(cfg.Physics.Gravity), pilotSnaps)
		})
	}

	g.Go(func() error {
		defer cancel()
		return tui.Run(ctx, loop, snaps, tui.Options{
			Width:         width,
			Height:        height,
			ReadOnly:      flagAutopilot,
			ScreenshotDir: screenshotDir(),
			Logger:        logger,
		})
	})

	return g.Wait()
}

// demo lets the pilot play session after session until ctx is cancelled.
func demo(ctx context.Context, loop *clock.Loop, pilot autopilot.Pilot, snaps <-chan sim.Snapshot) error {
	for {
		if _, err := pilot.Fly(ctx, loop, snaps); err != nil {
			if ctx.Err() != nil || errors.Is(err, clock.ErrStopped) {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(demoPause):
		}

		if err := loop.Reset(ctx); err != nil {
			if ctx.Err() != nil || errors.Is(err, clock.ErrStopped) {
				return nil
			}
			return err
		}
	}
}

func screenshotDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".flappy", "screenshots")
}
