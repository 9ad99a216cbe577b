// Package visual produces spectrum and waveform snapshots for renderers.
package visual

import (
	"fmt"
	"iter"
	"strings"
	"sync/atomic"
)

// Mode tells the renderer how to draw a snapshot. It never changes the data.
type Mode int32

const (
	ModeLine Mode = iota
	ModeBars
	ModeWave
	ModeCircle
	ModeDots
	modeCount
)

var modeNames = [...]string{"line", "bars", "wave", "circle", "dots"}

func (m Mode) String() string {
	if m < 0 || m >= modeCount {
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
	return modeNames[m]
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return ModeLine, fmt.Errorf("unknown visual mode %q", s)
}

// Samples is one snapshot of the analyser buffers.
type Samples struct {
	Mode      Mode
	Frequency []float64 // normalized magnitudes in [0, 1], fftSize/2 bins
	Waveform  []float64 // samples in [-1, 1], fftSize values
	Live      bool      // false when no chain is bound and the buffers are neutral
}

// Analyser is what the producer reads from. chain.Manager satisfies it.
type Analyser interface {
	FFTSize() int
	FrequencyData(dst []float64) bool
	TimeDomainData(dst []float64) bool
}

// Producer reads through to the analyser on every pull and keeps nothing
// between pulls except the externally chosen mode.
type Producer struct {
	source Analyser
	mode   atomic.Int32
}

func NewProducer(source Analyser) *Producer {
	return &Producer{source: source}
}

func (p *Producer) Mode() Mode { return Mode(p.mode.Load()) }

func (p *Producer) SetMode(m Mode) {
	if m >= 0 && m < modeCount {
		p.mode.Store(int32(m))
	}
}

// CycleMode advances to the next mode and returns it.
func (p *Producer) CycleMode() Mode {
	for {
		cur := p.mode.Load()
		next := (cur + 1) % int32(modeCount)
		if p.mode.CompareAndSwap(cur, next) {
			return Mode(next)
		}
	}
}

// Pull returns a fresh snapshot. With no chain bound it returns zeroed
// buffers of the same shape.
func (p *Producer) Pull() Samples {
	size := p.source.FFTSize()
	s := Samples{
		Mode:      p.Mode(),
		Frequency: make([]float64, size/2),
		Waveform:  make([]float64, size),
	}
	live := p.source.FrequencyData(s.Frequency)
	if live && p.source.TimeDomainData(s.Waveform) {
		s.Live = true
		return s
	}
	clear(s.Frequency)
	clear(s.Waveform)
	return s
}

// Seq is an endless sequence of snapshots, one per iteration. Each range over
// it starts over.
func (p *Producer) Seq() iter.Seq[Samples] {
	return func(yield func(Samples) bool) {
		for {
			if !yield(p.Pull()) {
				return
			}
		}
	}
}
