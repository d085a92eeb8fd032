package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-flappy/internal/autopilot"
	"github.com/vovakirdan/tui-flappy/internal/clock"
	"github.com/vovakirdan/tui-flappy/internal/config"
	"github.com/vovakirdan/tui-flappy/internal/core"
	"github.com/vovakirdan/tui-flappy/internal/platform/tui"
	"github.com/vovakirdan/tui-flappy/internal/sim"
)

var (
	flagRuns     int
	flagParallel int
	flagSpeed    float64
	flagMaxTicks uint64
	flagTimeout  time.Duration
	flagRender   bool
)

var headerStyle = lipgloss.NewStyle().Bold(true)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run headless autopilot sessions",
	Long: `Run the game without a terminal UI, flown by the autopilot.

Each run uses its own seed (--seed plus the run index) and real timers
sped up by --speed. A run ends when the bird crashes or after --max-ticks
world ticks. Logs go to stderr, results to stdout.

Examples:
  flappy sim
  flappy sim --runs 8 --parallel 4 --speed 50
  flappy sim --seed 7 --max-ticks 600 --render`,
	Args: cobra.NoArgs,
	RunE: runSim,
}

func init() {
	simCmd.Flags().IntVar(&flagRuns, "runs", 1, "Number of sessions to run")
	simCmd.Flags().IntVar(&flagParallel, "parallel", 1, "Sessions to run at the same time")
	simCmd.Flags().Float64Var(&flagSpeed, "speed", 10, "Clock speed multiplier")
	simCmd.Flags().Uint64Var(&flagMaxTicks, "max-ticks", 3600, "Stop a session after this many ticks (0 = until it crashes)")
	simCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "Abort all sessions after this long (0 = no limit)")
	simCmd.Flags().BoolVar(&flagRender, "render", false, "Print the final frame of each session")
}

// runResult is the outcome of one headless session.
type runResult struct {
	Seed     int64
	Final    sim.Snapshot
	Capped   bool
	Duration time.Duration
}

func runSim(cmd *cobra.Command, _ []string) error {
	if flagRuns < 1 {
		return fmt.Errorf("--runs must be at least 1, got %d", flagRuns)
	}
	if flagSpeed <= 0 {
		return fmt.Errorf("--speed must be positive, got %v", flagSpeed)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr)

	ctx := cmd.Context()
	if flagTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagTimeout)
		defer cancel()
	}

	base := seed()
	results := make([]runResult, flagRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(flagParallel, 1))
	for i := range results {
		i := i
		g.Go(func() error {
			res, err := runSession(ctx, cfg, base+int64(i), clock.Options{
				TickInterval:  scale(cfg.TickInterval(), flagSpeed),
				SpawnInterval: scale(cfg.SpawnInterval(), flagSpeed),
				Logger:        logger.With("run", i),
			})
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-4s %-20s %6s %7s  %s", "RUN", "SEED", "SCORE", "TICKS", "END")))
	best, total := 0, 0
	for i, r := range results {
		end := r.Final.Ended.String()
		if r.Capped {
			end = "tick limit"
		}
		fmt.Fprintf(out, "%-4d %-20d %6d %7d  %s\n", i, r.Seed, r.Final.Score, r.Final.Tick, end)
		best = max(best, r.Final.Score)
		total += r.Final.Score
	}
	fmt.Fprintf(out, "best %d, mean %.1f over %d runs\n", best, float64(total)/float64(len(results)), len(results))

	if flagRender {
		for i, r := range results {
			frame := core.NewScreen(60, 30)
			tui.Draw(frame, r.Final)
			fmt.Fprintf(out, "\nrun %d:\n%s\n", i, frame.String())
		}
	}
	return nil
}

// runSession plays one autopilot session on real timers.
func runSession(parent context.Context, cfg config.Config, seed int64, opts clock.Options) (runResult, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	res := runResult{Seed: seed}
	loop := clock.New(sim.New(cfg, sim.NewRand(seed)), opts)
	observe, snaps := clock.Latest()
	loop.Subscribe(observe)

	// Closed by the loop goroutine once the session reaches the tick limit
	capped := make(chan struct{})
	if flagMaxTicks > 0 {
		loop.Subscribe(func(s sim.Snapshot) {
			if s.Tick < flagMaxTicks || s.Phase != sim.PhaseRunning {
				return
			}
			select {
			case <-capped:
			default:
				close(capped)
				cancel()
			}
		})
	}

	started := time.Now()
	var final sim.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		var err error
		final, err = autopilot.New(cfg.Physics.Gravity).Fly(gctx, loop, snaps)
		return err
	})

	err := g.Wait()
	res.Duration = time.Since(started)

	select {
	case <-capped:
		res.Capped = true
		res.Final = loop.Snapshot()
		return res, nil
	default:
	}
	if err != nil {
		return res, err
	}
	res.Final = final
	opts.Logger.Debug("run finished", "seed", seed, "score", final.Score, "took", res.Duration.Round(time.Millisecond))
	return res, nil
}

// scale divides d by the speed multiplier, never below a millisecond.
func scale(d time.Duration, speed float64) time.Duration {
	return max(time.Duration(float64(d)/speed), time.Millisecond)
}
