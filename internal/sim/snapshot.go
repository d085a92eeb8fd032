package sim

import "github.com/vovakirdan/tui-flappy/internal/core"

// Snapshot is an immutable copy of the game state, taken after an event.
// Presentation reads snapshots instead of touching the Game.
type Snapshot struct {
	Tick     uint64
	Phase    Phase
	Ended    EndReason
	Score    int
	Bird     Bird
	Pipes    []Pipe
	Geometry Geometry
}

// Geometry holds the fixed dimensions needed to interpret a snapshot.
type Geometry struct {
	WorldW    float64
	WorldH    float64
	PipeWidth float64
	GapHeight float64
}

// Snapshot returns the current game snapshot.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Tick:  g.ticks,
		Phase: g.phase,
		Ended: g.ended,
		Score: g.score,
		Bird:  g.bird,
		Pipes: g.course.Pipes(),
		Geometry: Geometry{
			WorldW:    g.cfg.World.Width,
			WorldH:    g.cfg.World.Height,
			PipeWidth: g.cfg.Pipes.Width,
			GapHeight: g.cfg.Pipes.GapHeight,
		},
	}
}

// BirdBox returns the bird's collision box.
func (s Snapshot) BirdBox() core.Box {
	return s.Bird.Box()
}

// NextPipe returns the first pipe the bird has not passed yet.
func (s Snapshot) NextPipe() (Pipe, bool) {
	for _, p := range s.Pipes {
		if !p.Passed {
			return p, true
		}
	}
	return Pipe{}, false
}
