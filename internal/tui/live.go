package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/hysterlab/blash/internal/backlash"
)

const (
	liveWidth   = 70
	liveHeight  = 24
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer draws the u-x plane during a run: the two boundary lines,
// the growing hysteresis trail, and the current operating point.
type LiveRenderer struct {
	model     *backlash.Model
	frameRate int
	lastFrame time.Time
	canvas    [][]rune
	trail     []struct{ u, x float64 }
	scale     float64
}

// NewLiveRenderer creates a renderer for a model whose trajectory stays
// roughly within [-scale, scale] on both axes.
func NewLiveRenderer(model *backlash.Model, scale float64, frameRate int) *LiveRenderer {
	canvas := make([][]rune, liveHeight)
	for i := range canvas {
		canvas[i] = make([]rune, liveWidth)
	}
	if scale <= 0 {
		scale = 5.0
	}
	return &LiveRenderer{
		model:     model,
		frameRate: frameRate,
		canvas:    canvas,
		trail:     make([]struct{ u, x float64 }, 0, 400),
		scale:     scale,
	}
}

func (r *LiveRenderer) OnStep(u, x backlash.Vec, t float64) {
	r.trail = append(r.trail, struct{ u, x float64 }{u[0], x[0]})
	if len(r.trail) > 400 {
		r.trail = r.trail[1:]
	}

	elapsed := time.Since(r.lastFrame)
	if elapsed < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	r.clear()
	r.drawAxes()
	r.drawBoundaries()
	r.drawTrail()
	r.render(u[0], x[0], t)
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(cx, cy int, c rune) {
	if cx >= 0 && cx < liveWidth && cy >= 0 && cy < liveHeight {
		r.canvas[cy][cx] = c
	}
}

// toCell maps a (u, x) point to canvas coordinates, x axis up.
func (r *LiveRenderer) toCell(u, x float64) (int, int) {
	cx := int((u/r.scale + 1) / 2 * float64(liveWidth-1))
	cy := int((1 - x/r.scale) / 2 * float64(liveHeight-1))
	return cx, cy
}

func (r *LiveRenderer) drawAxes() {
	ox, oy := r.toCell(0, 0)
	for x := 0; x < liveWidth; x++ {
		r.set(x, oy, '-')
	}
	for y := 0; y < liveHeight; y++ {
		r.set(ox, y, '|')
	}
	r.set(ox, oy, '+')
}

func (r *LiveRenderer) drawBoundaries() {
	mLo := r.model.LowerSlope()[0]
	mUp := r.model.UpperSlope()[0]
	cLo := r.model.LowerOffset()[0]
	cUp := r.model.UpperOffset()[0]

	for cx := 0; cx < liveWidth; cx++ {
		u := (float64(cx)/float64(liveWidth-1)*2 - 1) * r.scale
		_, lo := r.toCell(u, mLo*(u+cLo))
		_, up := r.toCell(u, mUp*(u-cUp))
		r.set(cx, lo, '\\')
		r.set(cx, up, '/')
	}
}

func (r *LiveRenderer) drawTrail() {
	for i, pt := range r.trail {
		cx, cy := r.toCell(pt.u, pt.x)
		if i < len(r.trail)/2 {
			r.set(cx, cy, '.')
		} else {
			r.set(cx, cy, 'o')
		}
	}
	if n := len(r.trail); n > 0 {
		cx, cy := r.toCell(r.trail[n-1].u, r.trail[n-1].x)
		r.set(cx, cy, 'O')
	}
}

func (r *LiveRenderer) render(u, x, t float64) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  backlash  t=%.2fs\n", t))
	b.WriteString("  " + strings.Repeat("-", liveWidth) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", liveWidth) + "\n")

	zLo, zUp := r.model.ZLo()[0], r.model.ZUp()[0]
	b.WriteString(fmt.Sprintf("  u=%.2f x=%.2f z_lo=%.2f z_up=%.2f\n", u, x, zLo, zUp))

	fmt.Print(b.String())
}

func (r *LiveRenderer) Start() { fmt.Print(hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Print(showCursor) }
