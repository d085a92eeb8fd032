// Package autopilot flies the bird without a player, for demos and
// headless runs.
package autopilot

import (
	"context"

	"github.com/vovakirdan/tui-flappy/internal/sim"
)

// DefaultSlack keeps the bird this far above the bottom of the gap.
const DefaultSlack = 24

// Controller accepts game commands. *clock.Loop satisfies it.
type Controller interface {
	Jump(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Pilot decides when to flap.
// Gravity must match the simulated game so predictions line up.
type Pilot struct {
	Gravity float64
	Slack   float64
}

// New creates a pilot for the given gravity.
func New(gravity float64) Pilot {
	return Pilot{Gravity: gravity, Slack: DefaultSlack}
}

// Decide reports whether to jump given the current snapshot.
// It aims to keep the bird's bottom edge just above the bottom of the next
// gap, flapping whenever the next tick would sink below that line.
// Outside PhaseRunning it never asks to jump.
func (p Pilot) Decide(s sim.Snapshot) bool {
	if s.Phase != sim.PhaseRunning {
		return false
	}
	return p.nextBottom(s) > p.Target(s)
}

// Target returns the line the bird's bottom edge should stay above.
func (p Pilot) Target(s sim.Snapshot) float64 {
	if pipe, ok := s.NextPipe(); ok {
		return pipe.GapCenterY + s.Geometry.GapHeight/2 - p.Slack
	}
	return s.Geometry.WorldH/2 + s.Bird.Size
}

func (p Pilot) nextBottom(s sim.Snapshot) float64 {
	v := s.Bird.Velocity + p.Gravity
	return s.Bird.Pos.Y + s.Bird.Size + v
}

// Fly plays one session: it starts the game on the first not-started
// snapshot, steers while running and returns the snapshot that ended the
// session. Snapshots from before the session started are ignored.
func (p Pilot) Fly(ctx context.Context, ctl Controller, snaps <-chan sim.Snapshot) (sim.Snapshot, error) {
	started := false
	for {
		select {
		case <-ctx.Done():
			return sim.Snapshot{}, ctx.Err()
		case s := <-snaps:
			switch s.Phase {
			case sim.PhaseNotStarted:
				if started {
					continue
				}
				if err := ctl.Jump(ctx); err != nil {
					return s, err
				}
				started = true
			case sim.PhaseRunning:
				started = true
				if p.Decide(s) {
					if err := ctl.Jump(ctx); err != nil {
						return s, err
					}
				}
			case sim.PhaseOver:
				if started {
					return s, nil
				}
			}
		}
	}
}
