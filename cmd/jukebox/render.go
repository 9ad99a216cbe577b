package jukebox

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/jukebox/cmd/jukebox/visual"
)

var (
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	waveFg  = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
)

var blocks = []rune(" ▁▂▃▄▅▆▇█")

// canvas is a fixed-size character grid, row 0 at the top.
type canvas struct {
	w, h  int
	cells [][]rune
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]rune, h)}
	for y := range c.cells {
		c.cells[y] = []rune(strings.Repeat(" ", w))
	}
	return c
}

func (c *canvas) set(x, y int, r rune) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y][x] = r
}

func (c *canvas) render(style lipgloss.Style) string {
	lines := make([]string, c.h)
	for y, row := range c.cells {
		lines[y] = style.Render(string(row))
	}
	return strings.Join(lines, "\n")
}

// columns reduces values to n columns by averaging over log-spaced ranges,
// so low frequencies are not squeezed into the first column.
func columns(values []float64, n int) []float64 {
	out := make([]float64, n)
	if len(values) == 0 || n <= 0 {
		return out
	}
	maxLog := math.Log(float64(len(values)) + 1)
	for i := range n {
		lo := int(math.Exp(maxLog*float64(i)/float64(n))) - 1
		hi := int(math.Exp(maxLog*float64(i+1)/float64(n))) - 1
		hi = max(hi, lo+1)
		hi = min(hi, len(values))
		lo = min(lo, hi-1)
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// resample picks n evenly spaced values.
func resample(values []float64, n int) []float64 {
	out := make([]float64, n)
	if len(values) == 0 || n <= 0 {
		return out
	}
	for i := range n {
		out[i] = values[i*len(values)/n]
	}
	return out
}

// renderVisual draws s into a width × height block of text.
func renderVisual(s visual.Samples, width, height int) string {
	if width < 4 || height < 2 {
		return ""
	}
	switch s.Mode {
	case visual.ModeLine:
		return renderLine(columns(s.Frequency, width), height)
	case visual.ModeWave:
		return renderWave(resample(s.Waveform, width), height)
	case visual.ModeCircle:
		return renderCircle(columns(s.Frequency, 64), width, height)
	case visual.ModeDots:
		return renderDots(columns(s.Frequency, width), height)
	default:
		return renderBars(columns(s.Frequency, width), height)
	}
}

func renderBars(cols []float64, height int) string {
	levels := len(blocks) - 1
	lines := make([]string, height)
	for y := range height {
		var b strings.Builder
		floor := float64(height-1-y) * float64(levels)
		for _, v := range cols {
			fill := int(v*float64(height*levels)) - int(floor)
			fill = max(0, min(levels, fill))
			b.WriteRune(blocks[fill])
		}
		style := barLow
		switch {
		case y < height/4:
			style = barHigh
		case y < height/2:
			style = barMid
		}
		lines[y] = style.Render(b.String())
	}
	return strings.Join(lines, "\n")
}

func renderLine(cols []float64, height int) string {
	c := newCanvas(len(cols), height)
	prev := -1
	for x, v := range cols {
		y := level(v, height)
		c.set(x, y, '•')
		if prev >= 0 {
			for fill := min(prev, y) + 1; fill < max(prev, y); fill++ {
				c.set(x, fill, '│')
			}
		}
		prev = y
	}
	return c.render(barMid)
}

func renderWave(points []float64, height int) string {
	c := newCanvas(len(points), height)
	for x, v := range points {
		// -1..1 to 0..1
		c.set(x, level((v+1)/2, height), '•')
	}
	return c.render(waveFg)
}

func renderDots(cols []float64, height int) string {
	c := newCanvas(len(cols), height)
	for x, v := range cols {
		top := level(v, height)
		for y := top; y < height; y += 2 {
			c.set(x, y, '·')
		}
		c.set(x, top, '●')
	}
	return c.render(barLow)
}

func renderCircle(spokes []float64, width, height int) string {
	c := newCanvas(width, height)
	cx, cy := float64(width-1)/2, float64(height-1)/2
	// terminal cells are roughly twice as tall as wide
	rx, ry := min(cx, cy*2), min(cy, cx/2)
	for i, v := range spokes {
		angle := 2 * math.Pi * float64(i) / float64(len(spokes))
		r := 0.4 + 0.6*v
		x := cx + math.Cos(angle)*rx*r
		y := cy + math.Sin(angle)*ry*r
		c.set(int(math.Round(x)), int(math.Round(y)), '*')
		c.set(int(math.Round(cx+math.Cos(angle)*rx*0.4)), int(math.Round(cy+math.Sin(angle)*ry*0.4)), '·')
	}
	return c.render(waveFg)
}

// level maps v in [0, 1] to a canvas row, 1 at the top.
func level(v float64, height int) int {
	v = max(0, min(1, v))
	return height - 1 - int(math.Round(v*float64(height-1)))
}

// renderGains draws one slider per equalizer band.
func renderGains(bands, gains []float64, focus int, maxDB float64) string {
	var b strings.Builder
	for i, g := range gains {
		label := bandLabel(bands[i])
		bar := gainBar(g, maxDB, 7)
		cell := label + " " + bar
		if i == focus {
			cell = selectedStyle.Render(cell)
		}
		b.WriteString(" " + cell)
	}
	return b.String()
}

func bandLabel(hz float64) string {
	if hz >= 1000 {
		return strconv.FormatFloat(hz/1000, 'f', -1, 64) + "k"
	}
	return strconv.FormatFloat(hz, 'f', -1, 64)
}

// gainBar draws a centered marker for g in [-maxDB, maxDB].
func gainBar(g, maxDB float64, width int) string {
	pos := int(math.Round((g + maxDB) / (2 * maxDB) * float64(width-1)))
	pos = max(0, min(width-1, pos))
	cells := []rune(strings.Repeat("─", width))
	cells[width/2] = '┼'
	cells[pos] = '●'
	return string(cells)
}
