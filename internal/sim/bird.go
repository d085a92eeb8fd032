package sim

import "github.com/vovakirdan/tui-flappy/internal/core"

// Bird is the player-controlled entity.
// Position is the top-left corner of its bounding square.
type Bird struct {
	Pos      core.Vec2
	Velocity float64 // Vertical velocity, positive = down
	Size     float64
}

// Integrate applies one tick of gravity, then moves the bird by its velocity.
// Ticks are uniform, so gravity is a per-tick constant rather than scaled by dt.
func (b *Bird) Integrate(gravity float64) {
	b.Velocity += gravity
	b.Pos.Y += b.Velocity
}

// Impulse replaces the current velocity with v.
func (b *Bird) Impulse(v float64) {
	b.Velocity = v
}

// Box returns the bird's collision box.
func (b Bird) Box() core.Box {
	return core.NewBox(b.Pos.X, b.Pos.Y, b.Size, b.Size)
}

// InBounds reports whether the bird lies within [0, worldH-size] vertically.
func (b Bird) InBounds(worldH float64) bool {
	return b.Pos.Y >= 0 && b.Pos.Y <= worldH-b.Size
}
