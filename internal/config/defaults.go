package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/flappy.yaml
var defaultYAML []byte

// Default returns the built-in configuration.
// It mirrors defaults/flappy.yaml and is used if the embedded file cannot be parsed.
func Default() Config {
	return Config{
		World: World{
			Width:  820,
			Height: 1180,
		},
		Bird: Bird{
			X:      200,
			StartY: 590,
			Size:   40,
		},
		Physics: Physics{
			Gravity:      0.8,
			JumpVelocity: -12,
			ScrollSpeed:  4,
		},
		Pipes: Pipes{
			Width:     80,
			GapHeight: 260,
			MinMargin: 200,
			DespawnX:  -100,
		},
		Timing: Timing{
			TickRate:      60,
			SpawnInterval: Duration(2500 * time.Millisecond),
		},
	}
}

// DefaultYAML returns the embedded default configuration document.
func DefaultYAML() []byte {
	return defaultYAML
}
