package sim

import (
	"github.com/vovakirdan/tui-flappy/internal/config"
	"github.com/vovakirdan/tui-flappy/internal/core"
)

// Rand is the random source used for gap placement.
// *math/rand.Rand satisfies it; tests inject fixed sequences.
type Rand interface {
	Float64() float64
}

// Pipe represents a vertical obstacle with a gap for the bird to pass through.
type Pipe struct {
	X          float64 // Horizontal position (left edge)
	GapCenterY float64 // Vertical center of the passable gap
	Passed     bool    // Whether the bird has passed this pipe (for scoring)
}

// TopBox returns the collision box for the top segment of the pipe.
func (p Pipe) TopBox(width, gapHeight float64) core.Box {
	return core.NewBox(p.X, 0, width, p.GapCenterY-gapHeight/2)
}

// BottomBox returns the collision box for the bottom segment of the pipe.
func (p Pipe) BottomBox(width, gapHeight, worldH float64) core.Box {
	bottomY := p.GapCenterY + gapHeight/2
	return core.NewBox(p.X, bottomY, width, worldH-bottomY)
}

// GapBox returns the passable region between the two segments.
func (p Pipe) GapBox(width, gapHeight float64) core.Box {
	return core.NewBox(p.X, p.GapCenterY-gapHeight/2, width, gapHeight)
}

// Course handles spawning, movement, scoring and removal of pipes.
// Pipes are kept in creation order, which is also left-to-right order
// because every pipe scrolls at the same speed.
type Course struct {
	pipes  []Pipe
	rng    Rand
	cfg    config.Pipes
	worldW float64
	worldH float64
}

// NewCourse creates an empty course for the given world.
func NewCourse(cfg config.Config, rng Rand) *Course {
	return &Course{
		pipes:  make([]Pipe, 0, 8),
		rng:    rng,
		cfg:    cfg.Pipes,
		worldW: cfg.World.Width,
		worldH: cfg.World.Height,
	}
}

// Reset removes all pipes.
func (c *Course) Reset() {
	c.pipes = c.pipes[:0]
}

// Spawn appends a new pipe at the right edge of the world with a uniformly
// random gap center in [minMargin, worldH-minMargin].
func (c *Course) Spawn() Pipe {
	span := c.worldH - 2*c.cfg.MinMargin
	pipe := Pipe{
		X:          c.worldW,
		GapCenterY: c.cfg.MinMargin + c.rng.Float64()*span,
	}
	c.pipes = append(c.pipes, pipe)
	return pipe
}

// Advance moves every pipe left by speed and marks pipes whose trailing
// edge is now strictly left of birdX as passed.
// Returns the number of pipes passed during this call.
func (c *Course) Advance(speed, birdX float64) int {
	passed := 0
	for i := range c.pipes {
		p := &c.pipes[i]
		p.X -= speed
		if !p.Passed && p.X+c.cfg.Width < birdX {
			p.Passed = true
			passed++
		}
	}
	return passed
}

// Collides tests if the given box overlaps any pipe segment.
func (c *Course) Collides(box core.Box) bool {
	for _, p := range c.pipes {
		if box.Intersects(p.TopBox(c.cfg.Width, c.cfg.GapHeight)) ||
			box.Intersects(p.BottomBox(c.cfg.Width, c.cfg.GapHeight, c.worldH)) {
			return true
		}
	}
	return false
}

// Prune drops pipes that have scrolled past the despawn line, keeping order.
func (c *Course) Prune() {
	kept := c.pipes[:0]
	for _, p := range c.pipes {
		if p.X >= c.cfg.DespawnX {
			kept = append(kept, p)
		}
	}
	c.pipes = kept
}

// Len returns the number of live pipes.
func (c *Course) Len() int {
	return len(c.pipes)
}

// Pipes returns a copy of the current pipes.
func (c *Course) Pipes() []Pipe {
	out := make([]Pipe, len(c.pipes))
	copy(out, c.pipes)
	return out
}
