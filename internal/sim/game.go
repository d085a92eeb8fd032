// Package sim implements the Flappy Bird simulation: a bird falling under
// gravity, scrolling pipes with random gaps, collision detection and scoring.
// It has no notion of wall-clock time; callers drive it with Tick and Spawn.
package sim

import (
	"math/rand"

	"github.com/vovakirdan/tui-flappy/internal/config"
	"github.com/vovakirdan/tui-flappy/internal/core"
)

// Phase is the session state.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseRunning
	PhaseOver
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseRunning:
		return "running"
	case PhaseOver:
		return "over"
	default:
		return "unknown"
	}
}

// EndReason tells why a session reached PhaseOver.
type EndReason int

const (
	EndNone EndReason = iota
	EndOutOfBounds
	EndCollision
)

// String returns a human-readable name for the reason.
func (r EndReason) String() string {
	switch r {
	case EndNone:
		return "none"
	case EndOutOfBounds:
		return "out_of_bounds"
	case EndCollision:
		return "collision"
	default:
		return "unknown"
	}
}

// StepResult is returned by Tick.
type StepResult struct {
	Scored int       // Pipes passed during this tick
	Ended  EndReason // Non-zero if this tick ended the session
}

// Game owns the bird, the pipe course and the score.
// It is not safe for concurrent use; the event loop serializes access.
type Game struct {
	cfg    config.Config
	bird   Bird
	course *Course
	score  int
	phase  Phase
	ended  EndReason
	ticks  uint64
}

// New creates a game in PhaseNotStarted. cfg must be valid.
func New(cfg config.Config, rng Rand) *Game {
	g := &Game{
		cfg:    cfg,
		course: NewCourse(cfg, rng),
	}
	g.Reset()
	return g
}

// NewRand returns a seeded random source for New.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Config returns the configuration the game was built with.
func (g *Game) Config() config.Config {
	return g.cfg
}

// Phase returns the current session phase.
func (g *Game) Phase() Phase {
	return g.phase
}

// Score returns the current score.
func (g *Game) Score() int {
	return g.score
}

// Jump starts the session when NotStarted, flaps when Running and is
// ignored when Over. Starting a session also applies the first flap.
func (g *Game) Jump() {
	switch g.phase {
	case PhaseNotStarted:
		g.phase = PhaseRunning
		g.bird.Impulse(g.cfg.Physics.JumpVelocity)
	case PhaseRunning:
		g.bird.Impulse(g.cfg.Physics.JumpVelocity)
	}
}

// Reset returns to PhaseNotStarted with the bird at its start position,
// zero velocity, no pipes and zero score. Valid in every phase.
func (g *Game) Reset() {
	g.bird = Bird{
		Pos:  birdStart(g.cfg),
		Size: g.cfg.Bird.Size,
	}
	g.course.Reset()
	g.score = 0
	g.phase = PhaseNotStarted
	g.ended = EndNone
	g.ticks = 0
}

// Spawn appends a pipe at the right edge. No-op unless Running.
// Returns whether a pipe was added.
func (g *Game) Spawn() bool {
	if g.phase != PhaseRunning {
		return false
	}
	g.course.Spawn()
	return true
}

// Tick advances the world by one fixed step. No-op unless Running.
func (g *Game) Tick() StepResult {
	if g.phase != PhaseRunning {
		return StepResult{}
	}
	g.ticks++

	g.bird.Integrate(g.cfg.Physics.Gravity)

	// Leaving the vertical bounds ends the session before pipes move
	if !g.bird.InBounds(g.cfg.World.Height) {
		return g.end(StepResult{}, EndOutOfBounds)
	}

	// Several pipes may score in the same tick; each scores at most once
	res := StepResult{Scored: g.course.Advance(g.cfg.Physics.ScrollSpeed, g.bird.Pos.X)}
	g.score += res.Scored

	if g.course.Collides(g.bird.Box()) {
		return g.end(res, EndCollision)
	}

	g.course.Prune()
	return res
}

func (g *Game) end(res StepResult, reason EndReason) StepResult {
	g.phase = PhaseOver
	g.ended = reason
	res.Ended = reason
	return res
}

func birdStart(cfg config.Config) core.Vec2 {
	return core.Vec2{X: cfg.Bird.X, Y: cfg.Bird.StartY}
}
