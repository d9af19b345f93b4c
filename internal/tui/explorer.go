// Package tui contains the interactive terminal front ends: a parameter
// explorer with slider-style controls for the four boundary parameters, and
// a live renderer for the u-x hysteresis plane.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hysterlab/blash/internal/config"
	"github.com/hysterlab/blash/internal/metrics"
	"github.com/hysterlab/blash/internal/signal"
	"github.com/hysterlab/blash/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const (
	plotWidth  = 72
	plotHeight = 16
)

type state int

const (
	stateMenu state = iota
	stateExplore
)

// slider describes one adjustable value: its range, arrow-key step, and
// whether zero must be skipped (slopes) or used as a floor (offsets).
type slider struct {
	name     string
	min, max float64
	delta    float64
	skipZero bool
	floor    bool
}

var sliders = []slider{
	{name: "m_lo", min: -5, max: 5, delta: 0.1, skipZero: true},
	{name: "m_up", min: -5, max: 5, delta: 0.1, skipZero: true},
	{name: "c_lo", min: 0, max: 10, delta: 0.1, floor: true},
	{name: "c_up", min: 0, max: 10, delta: 0.1, floor: true},
	{name: "amp", min: 0.5, max: 10, delta: 0.5},
	{name: "freq", min: 0.1, max: 5, delta: 0.1},
}

type explorer struct {
	state   state
	cursor  int
	presets []string

	cfg         *config.Config
	preset      string
	paramCursor int
	editing     bool
	editBuf     string

	result *sim.Result
	errMsg string

	width  int
	height int
}

func NewExplorer() *explorer {
	return &explorer{
		state:   stateMenu,
		presets: config.ListPresets(),
		cfg:     config.DefaultConfig(),
		width:   80,
		height:  24,
	}
}

// RunExplorer starts the interactive parameter explorer.
func RunExplorer() error {
	p := tea.NewProgram(NewExplorer(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (e *explorer) Init() tea.Cmd { return nil }

func (e *explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return e.handleKey(msg)
	case tea.WindowSizeMsg:
		e.width = msg.Width
		e.height = msg.Height
	}
	return e, nil
}

func (e *explorer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch e.state {
	case stateMenu:
		return e.menuKey(msg)
	case stateExplore:
		return e.exploreKey(msg)
	}
	return e, nil
}

func (e *explorer) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return e, tea.Quit
	case "up", "k":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j":
		if e.cursor < len(e.presets)-1 {
			e.cursor++
		}
	case "enter", " ":
		e.preset = e.presets[e.cursor]
		e.cfg = clone(config.GetPreset(e.preset))
		e.state = stateExplore
		e.paramCursor = 0
		e.resimulate()
	}
	return e, nil
}

func (e *explorer) exploreKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if e.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(e.editBuf, "%f", &val); err == nil {
				e.setParam(e.paramCursor, val)
				e.resimulate()
			}
			e.editing = false
			e.editBuf = ""
		case "esc", "escape":
			e.editing = false
			e.editBuf = ""
		case "backspace":
			if len(e.editBuf) > 0 {
				e.editBuf = e.editBuf[:len(e.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					e.editBuf += string(c)
				}
			}
		}
		return e, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return e, tea.Quit
	case "esc", "escape":
		e.state = stateMenu
	case "up", "k":
		if e.paramCursor > 0 {
			e.paramCursor--
		}
	case "down", "j":
		if e.paramCursor < len(sliders)-1 {
			e.paramCursor++
		}
	case "left", "h":
		e.nudge(e.paramCursor, -1)
		e.resimulate()
	case "right", "l":
		e.nudge(e.paramCursor, +1)
		e.resimulate()
	case "enter":
		e.editing = true
		e.editBuf = fmt.Sprintf("%.2f", e.getParam(e.paramCursor))
	case "s":
		e.cycleSignal()
		e.resimulate()
	case "r":
		if e.preset != "" {
			e.cfg = clone(config.GetPreset(e.preset))
		} else {
			e.cfg = config.DefaultConfig()
		}
		e.resimulate()
	}
	return e, nil
}

func (e *explorer) getParam(i int) float64 {
	switch sliders[i].name {
	case "m_lo":
		return e.cfg.Model.MLo
	case "m_up":
		return e.cfg.Model.MUp
	case "c_lo":
		return e.cfg.Model.CLo
	case "c_up":
		return e.cfg.Model.CUp
	case "amp":
		return e.cfg.Signal.Amp
	case "freq":
		return e.cfg.Signal.Freq
	}
	return 0
}

func (e *explorer) setParam(i int, v float64) {
	s := sliders[i]
	v = math.Max(s.min, math.Min(s.max, v))
	if s.skipZero && v == 0 {
		v = s.delta
	}
	if s.floor && v < 0 {
		v = 0
	}
	switch s.name {
	case "m_lo":
		e.cfg.Model.MLo = v
	case "m_up":
		e.cfg.Model.MUp = v
	case "c_lo":
		e.cfg.Model.CLo = v
	case "c_up":
		e.cfg.Model.CUp = v
	case "amp":
		e.cfg.Signal.Amp = v
	case "freq":
		e.cfg.Signal.Freq = v
	}
}

// nudge moves a slider one step, skipping zero for slope parameters the way
// the reference demo snaps infeasible slider values off zero.
func (e *explorer) nudge(i int, dir float64) {
	s := sliders[i]
	v := e.getParam(i) + dir*s.delta
	if s.skipZero && math.Abs(v) < s.delta/2 {
		v += dir * s.delta
	}
	e.setParam(i, v)
}

func (e *explorer) cycleSignal() {
	names := signal.Names()
	for i, n := range names {
		if n == e.cfg.Signal.Name {
			e.cfg.Signal.Name = names[(i+1)%len(names)]
			return
		}
	}
	e.cfg.Signal.Name = names[0]
}

func (e *explorer) resimulate() {
	e.errMsg = ""
	e.result = nil

	model, err := e.cfg.NewModel()
	if err != nil {
		e.errMsg = err.Error()
		return
	}
	src, err := signal.New(e.cfg.Signal.Name, e.cfg.Signal.Amp, e.cfg.Signal.Freq, e.cfg.Duration)
	if err != nil {
		e.errMsg = err.Error()
		return
	}

	runner := sim.New(model, src)
	runner.AddMetric(metrics.NewLatchFraction())
	runner.AddMetric(metrics.NewPeakOutput())

	result, err := runner.Run(context.Background(), sim.Config{Dt: e.cfg.Dt, Duration: e.cfg.Duration})
	if err != nil {
		e.errMsg = err.Error()
		return
	}
	e.result = result
}

func (e *explorer) View() string {
	switch e.state {
	case stateMenu:
		return e.menuView()
	default:
		return e.exploreView()
	}
}

func (e *explorer) menuView() string {
	var b strings.Builder
	b.WriteString("\n  " + cyan.Render("blash") + white.Render(" · backlash explorer") + "\n\n")
	for i, name := range e.presets {
		cursor := "  "
		style := dim
		if i == e.cursor {
			cursor = green.Render("> ")
			style = white
		}
		b.WriteString("  " + cursor + style.Render(name) + "\n")
	}
	b.WriteString("\n  " + dim.Render("enter: select · q: quit") + "\n")
	return b.String()
}

func (e *explorer) exploreView() string {
	var b strings.Builder
	b.WriteString("\n  " + cyan.Render("blash") + dim.Render(" · "+e.preset+" · "+e.cfg.Signal.Name) + "\n\n")

	if e.errMsg != "" {
		b.WriteString("  " + magenta.Render(e.errMsg) + "\n\n")
	} else {
		b.WriteString(e.plotView())
	}

	b.WriteString("\n")
	for i, s := range sliders {
		cursor := "  "
		style := dim
		if i == e.paramCursor {
			cursor = green.Render("> ")
			style = white
		}
		val := fmt.Sprintf("%6.2f", e.getParam(i))
		if e.editing && i == e.paramCursor {
			val = yellow.Render(e.editBuf + "_")
		}
		b.WriteString(fmt.Sprintf("  %s%s %s %s\n",
			cursor, style.Render(fmt.Sprintf("%-5s", s.name)), val, e.sliderBar(i)))
	}

	if e.result != nil {
		b.WriteString(fmt.Sprintf("\n  %s %.1f%%   %s %.2f\n",
			dim.Render("latched:"), 100*e.result.Metrics["latch_fraction"],
			dim.Render("peak:"), e.result.Metrics["peak_output"]))
	}

	b.WriteString("\n  " + dim.Render("←/→: adjust · enter: type value · s: signal · r: reset · esc: back · q: quit") + "\n")
	return b.String()
}

func (e *explorer) sliderBar(i int) string {
	s := sliders[i]
	frac := (e.getParam(i) - s.min) / (s.max - s.min)
	width := 20
	filled := int(frac * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return dim.Render("[") +
		cyan.Render(strings.Repeat("=", filled)) +
		dim.Render(strings.Repeat("-", width-filled)+"]")
}

// plotView draws the input and output traces over time on a rune canvas.
func (e *explorer) plotView() string {
	if e.result == nil || len(e.result.Times) < 2 {
		return "  " + dim.Render("no data") + "\n"
	}

	canvas := make([][]rune, plotHeight)
	for i := range canvas {
		canvas[i] = make([]rune, plotWidth)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	lo, hi := seriesRange(e.result.Inputs, e.result.Outputs)
	if hi == lo {
		hi = lo + 1
	}

	n := len(e.result.Times)
	toCell := func(i int, v float64) (int, int) {
		cx := i * (plotWidth - 1) / (n - 1)
		cy := int((hi - v) / (hi - lo) * float64(plotHeight-1))
		return cx, cy
	}

	plot := func(series [][]float64, c rune) {
		for i := 0; i < n; i++ {
			cx, cy := toCell(i, series[i][0])
			if cx >= 0 && cx < plotWidth && cy >= 0 && cy < plotHeight {
				canvas[cy][cx] = c
			}
		}
	}

	plot(e.result.Inputs, '.')
	plot(e.result.Outputs, 'o')

	var b strings.Builder
	for _, row := range canvas {
		b.WriteString("  " + string(row) + "\n")
	}
	b.WriteString("  " + dim.Render(fmt.Sprintf("%.4g .. %.4g   .: input  o: output", lo, hi)) + "\n")
	return b.String()
}

func seriesRange(series ...[][]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, row := range s {
			for _, v := range row {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	return lo, hi
}

func clone(cfg *config.Config) *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	c := *cfg
	return &c
}
