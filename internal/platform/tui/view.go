package tui

import (
	"fmt"
	"math"

	"github.com/vovakirdan/tui-flappy/internal/core"
	"github.com/vovakirdan/tui-flappy/internal/sim"
)

// Rendering characters
const (
	BirdChar      = '●'
	BirdBeakChar  = '>'
	PipeChar      = '█'
	PipeCapTop    = '▀'
	PipeCapBottom = '▄'
	GroundChar    = '▔'
)

// Draw renders a snapshot onto dst, stretching the world to fill the screen.
// The bottom row is the ground and the top row carries the score.
func Draw(dst *core.Screen, s sim.Snapshot) {
	dst.Clear()
	if dst.Width() == 0 || dst.Height() < 2 || s.Geometry.WorldW <= 0 || s.Geometry.WorldH <= 0 {
		return
	}

	vp := newViewport(dst.Width(), dst.Height()-1, s.Geometry)

	dst.DrawHLine(0, dst.Height()-1, dst.Width(), GroundChar, core.ColorGreen)

	for _, p := range s.Pipes {
		drawPipe(dst, vp, s.Geometry, p)
	}

	drawBird(dst, vp, s)

	dst.DrawText(2, 0, fmt.Sprintf(" Score: %d ", s.Score), core.ColorYellow)

	switch s.Phase {
	case sim.PhaseNotStarted:
		drawCenteredMessage(dst, "FLAPPY", "Press Space to start", core.ColorCyan)
	case sim.PhaseOver:
		drawCenteredMessage(dst, "GAME OVER",
			fmt.Sprintf("%s  |  Score: %d  |  R to restart", endText(s.Ended), s.Score), core.ColorRed)
	}
}

// viewport maps world units to screen cells.
type viewport struct {
	sx, sy float64
}

func newViewport(w, h int, g sim.Geometry) viewport {
	return viewport{
		sx: float64(w) / g.WorldW,
		sy: float64(h) / g.WorldH,
	}
}

// project returns the cells covered by b. Any box with area covers at
// least one cell.
func (v viewport) project(b core.Box) core.Rect {
	x0 := int(math.Floor(b.Min.X * v.sx))
	y0 := int(math.Floor(b.Min.Y * v.sy))
	x1 := max(int(math.Ceil(b.Max.X*v.sx)), x0+1)
	y1 := max(int(math.Ceil(b.Max.Y*v.sy)), y0+1)
	return core.NewRect(x0, y0, x1-x0, y1-y0)
}

func drawPipe(dst *core.Screen, vp viewport, g sim.Geometry, p sim.Pipe) {
	top := vp.project(p.TopBox(g.PipeWidth, g.GapHeight))
	bottom := vp.project(p.BottomBox(g.PipeWidth, g.GapHeight, g.WorldH))

	color := core.ColorBrightGreen
	if p.Passed {
		color = core.ColorGray
	}

	if top.H > 0 {
		dst.DrawRect(top, PipeChar, color)
		dst.DrawHLine(top.X, top.Bottom()-1, top.W, PipeCapTop, color)
	}
	if bottom.H > 0 {
		dst.DrawRect(bottom, PipeChar, color)
		dst.DrawHLine(bottom.X, bottom.Y, bottom.W, PipeCapBottom, color)
	}
}

func drawBird(dst *core.Screen, vp viewport, s sim.Snapshot) {
	r := vp.project(s.BirdBox())
	color := core.ColorBrightYellow
	if s.Phase == sim.PhaseOver {
		color = core.ColorOrange
	}
	dst.DrawRect(r, BirdChar, color)
	if r.W > 1 {
		dst.SetColored(r.Right()-1, r.Y, BirdBeakChar, color)
	}
}

// drawCenteredMessage draws a message box in the center of the screen.
func drawCenteredMessage(dst *core.Screen, title, subtitle string, c core.Color) {
	boxW := max(len([]rune(title)), len([]rune(subtitle))) + 4
	boxH := 5
	box := core.NewRect((dst.Width()-boxW)/2, (dst.Height()-boxH)/2, boxW, boxH)

	dst.DrawRect(box, ' ', core.ColorDefault)
	dst.DrawBox(box, c)
	dst.DrawTextCentered(box.Y+1, title, c)
	dst.DrawTextCentered(box.Y+3, subtitle, core.ColorWhite)
}

func endText(r sim.EndReason) string {
	switch r {
	case sim.EndCollision:
		return "Hit a pipe"
	case sim.EndOutOfBounds:
		return "Left the sky"
	default:
		return "Over"
	}
}
