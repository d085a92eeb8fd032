// Package config provides YAML-based configuration loading and validation
// for the Flappy Bird simulation.
package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config contains all tunable parameters of the simulation.
type Config struct {
	World   World   `yaml:"world"`
	Bird    Bird    `yaml:"bird"`
	Physics Physics `yaml:"physics"`
	Pipes   Pipes   `yaml:"pipes"`
	Timing  Timing  `yaml:"timing"`
}

// World defines the playfield dimensions in world units.
type World struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Bird defines the player entity.
type Bird struct {
	X      float64 `yaml:"x"`       // Fixed horizontal position (left edge)
	StartY float64 `yaml:"start_y"` // Vertical position at session start (top edge)
	Size   float64 `yaml:"size"`    // Side of the bounding square
}

// Physics defines per-tick motion constants.
type Physics struct {
	Gravity      float64 `yaml:"gravity"`
	JumpVelocity float64 `yaml:"jump_velocity"`
	ScrollSpeed  float64 `yaml:"scroll_speed"`
}

// Pipes defines obstacle geometry shared by all pipes.
type Pipes struct {
	Width     float64 `yaml:"width"`
	GapHeight float64 `yaml:"gap_height"`
	MinMargin float64 `yaml:"min_margin"`
	DespawnX  float64 `yaml:"despawn_x"`
}

// Timing defines the clock cadences.
type Timing struct {
	TickRate      int      `yaml:"tick_rate"` // World updates per second
	SpawnInterval Duration `yaml:"spawn_interval"`
}

// Duration is a time.Duration that reads and writes YAML as "2.5s".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// TickInterval returns the wall-clock period of one world tick.
func (c Config) TickInterval() time.Duration {
	if c.Timing.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Timing.TickRate)
}

// SpawnInterval returns the wall-clock period between pipe spawns.
func (c Config) SpawnInterval() time.Duration {
	return time.Duration(c.Timing.SpawnInterval)
}

// Validate checks that the configuration describes a playable world.
// It is meant to run once at startup; the simulation assumes a valid config.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.World.Width > 0, "world.width must be positive, got %v", c.World.Width)
	check(c.World.Height > 0, "world.height must be positive, got %v", c.World.Height)

	check(c.Bird.Size > 0, "bird.size must be positive, got %v", c.Bird.Size)
	check(c.Bird.Size <= c.World.Height, "bird.size %v exceeds world.height %v", c.Bird.Size, c.World.Height)
	check(c.Bird.X >= 0 && c.Bird.X+c.Bird.Size <= c.World.Width,
		"bird.x %v must keep the bird inside world.width %v", c.Bird.X, c.World.Width)
	check(c.Bird.StartY >= 0 && c.Bird.StartY <= c.World.Height-c.Bird.Size,
		"bird.start_y %v must be within [0, %v]", c.Bird.StartY, c.World.Height-c.Bird.Size)

	check(c.Physics.Gravity >= 0, "physics.gravity must not be negative, got %v", c.Physics.Gravity)
	check(c.Physics.JumpVelocity < 0, "physics.jump_velocity must be negative (up), got %v", c.Physics.JumpVelocity)
	check(c.Physics.ScrollSpeed > 0, "physics.scroll_speed must be positive, got %v", c.Physics.ScrollSpeed)

	check(c.Pipes.Width > 0, "pipes.width must be positive, got %v", c.Pipes.Width)
	check(c.Pipes.GapHeight > 0, "pipes.gap_height must be positive, got %v", c.Pipes.GapHeight)
	check(c.Pipes.MinMargin >= c.Pipes.GapHeight/2,
		"pipes.min_margin %v must be at least half of gap_height %v", c.Pipes.MinMargin, c.Pipes.GapHeight)
	check(2*c.Pipes.MinMargin <= c.World.Height,
		"pipes.min_margin %v leaves no room for the gap in world.height %v", c.Pipes.MinMargin, c.World.Height)
	check(c.Pipes.DespawnX <= -c.Pipes.Width,
		"pipes.despawn_x %v must lie fully off screen (<= -%v)", c.Pipes.DespawnX, c.Pipes.Width)

	check(c.Timing.TickRate > 0, "timing.tick_rate must be positive, got %d", c.Timing.TickRate)
	check(c.Timing.SpawnInterval > 0, "timing.spawn_interval must be positive, got %v", time.Duration(c.Timing.SpawnInterval))

	return errors.Join(errs...)
}
