// flappy is a terminal Flappy Bird built around a fixed-rate simulation.
//
// Usage:
//
//	flappy play              - Play in the terminal
//	flappy play --autopilot  - Watch the autopilot play
//	flappy sim               - Run headless autopilot sessions
//	flappy config            - Print the effective configuration
//
// Global flags:
//
//	--config <path>  - Custom config YAML
//	--seed <value>   - RNG seed for reproducible pipe layouts
//	--verbose        - Debug logging
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-flappy/internal/config"
)

var (
	// Global flags
	flagConfig  string
	flagSeed    int64
	flagVerbose bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flappy",
	Short: "Flappy Bird in your terminal",
	Long: `Flappy Bird in your terminal.

Flap through the gaps between pipes. Every pipe you clear scores a point;
touching a pipe or leaving the sky ends the session.

Available commands:
  play     - Play interactively (or watch the autopilot)
  sim      - Run headless autopilot sessions
  config   - Print the effective configuration

Examples:
  flappy play
  flappy play --seed 42
  flappy play --autopilot
  flappy sim --runs 10 --speed 20
  flappy config --default > ~/.flappy/config.yaml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom config YAML")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(simCmd)
	rootCmd.AddCommand(configCmd)
}

// newLogger creates the process logger writing to w.
func newLogger(w io.Writer) *log.Logger {
	level := log.InfoLevel
	if flagVerbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "flappy",
		Level:           level,
	})
}

// loadConfig loads the configuration from --config or the search path.
func loadConfig() (config.Config, error) {
	return config.Load(flagConfig)
}

// seed returns --seed, or a time-based seed when it is zero.
func seed() int64 {
	if flagSeed != 0 {
		return flagSeed
	}
	return time.Now().UnixNano()
}
