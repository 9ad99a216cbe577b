// Package chain builds and owns the signal graph between the media source and
// the output: a cascade of peaking filters followed by an analyser tap.
package chain

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/gopxl/beep/v2"
)

var (
	ErrUnavailable    = errors.New("audio effects unavailable")
	ErrAlreadyBound   = errors.New("chain already bound to another source")
	ErrBandOutOfRange = errors.New("equalizer band out of range")
)

const (
	MaxGainDB      = 24.0
	DefaultQ       = 1.0
	DefaultFFTSize = 2048
)

// DefaultBands are the equalizer center frequencies in Hz.
var DefaultBands = []float64{32, 64, 125, 250, 500, 1000, 2000, 4000, 8000, 16000}

// Source is a media element that can hand its decoded output to the chain.
type Source interface {
	// Claim returns the source's node and sample rate. A source can be
	// claimed once until released.
	Claim() (beep.Streamer, beep.SampleRate, error)
	// Route sends the source's output through out. nil restores the raw path.
	Route(out beep.Streamer)
	// Release gives up the claim.
	Release()
}

// State of the chain lifecycle.
type State int

const (
	Absent State = iota
	Bound
	Closed
	Failed
)

func (s State) String() string {
	switch s {
	case Bound:
		return "bound"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	default:
		return "absent"
	}
}

type Config struct {
	Bands   []float64
	Q       float64
	FFTSize int
}

func DefaultConfig() Config {
	return Config{Bands: DefaultBands, Q: DefaultQ, FFTSize: DefaultFFTSize}
}

// Manager owns at most one live graph. Gains live in the manager, so they
// survive teardown and are applied to the next graph built.
type Manager struct {
	mu sync.Mutex

	cfg   Config
	gains []float64
	state State
	err   error

	source   Source
	filters  []*PeakingFilter
	analyser *Analyser
}

func NewManager(cfg Config) *Manager {
	if len(cfg.Bands) == 0 {
		cfg.Bands = DefaultBands
	}
	if cfg.Q <= 0 {
		cfg.Q = DefaultQ
	}
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = DefaultFFTSize
	}
	cfg.FFTSize = nextPow2(cfg.FFTSize)
	cfg.Bands = slices.Clone(cfg.Bands)
	return &Manager{
		cfg:   cfg,
		gains: make([]float64, len(cfg.Bands)),
	}
}

// Ensure binds the chain to src unless it is already bound to it. A failed
// build leaves the manager in Failed until Close; the raw media path keeps
// working meanwhile.
func (m *Manager) Ensure(src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case Bound:
		if m.source == src {
			return nil
		}
		return ErrAlreadyBound
	case Failed:
		return m.err
	case Closed:
		m.state = Absent
	}

	node, rate, err := src.Claim()
	if err != nil {
		m.state = Failed
		m.err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		slog.Warn("signal chain unavailable, playing without effects", "error", err)
		return m.err
	}

	s := node
	filters := make([]*PeakingFilter, len(m.cfg.Bands))
	for i, freq := range m.cfg.Bands {
		filters[i] = NewPeakingFilter(s, rate, freq, m.cfg.Q, m.gains[i])
		s = filters[i]
	}
	analyser := NewAnalyser(s, m.cfg.FFTSize)
	src.Route(analyser)

	m.source = src
	m.filters = filters
	m.analyser = analyser
	m.state = Bound
	m.err = nil
	slog.Debug("signal chain bound", "bands", len(filters), "sampleRate", int(rate), "fftSize", analyser.FFTSize())
	return nil
}

// Close unroutes and releases the source and drops the graph. A Failed chain
// returns to Absent so the next session may try again.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case Bound:
		m.source.Route(nil)
		m.source.Release()
		m.source = nil
		m.filters = nil
		m.analyser = nil
		m.state = Closed
		slog.Debug("signal chain closed")
	case Failed:
		m.state = Absent
		m.err = nil
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Available is false only while a build failure is in effect.
func (m *Manager) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != Failed
}

// Err returns the build failure, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Bands returns the center frequencies in Hz.
func (m *Manager) Bands() []float64 {
	return slices.Clone(m.cfg.Bands)
}

// Gains returns the per-band gains in dB.
func (m *Manager) Gains() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.gains)
}

// SetGain sets the gain of one band, clamped to ±MaxGainDB, and applies it to
// the live graph without rebuilding it.
func (m *Manager) SetGain(band int, db float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if band < 0 || band >= len(m.gains) {
		return fmt.Errorf("band %d of %d: %w", band, len(m.gains), ErrBandOutOfRange)
	}
	db = max(-MaxGainDB, min(MaxGainDB, db))
	m.gains[band] = db
	if m.filters != nil {
		m.filters[band].SetGain(db)
	}
	return nil
}

// FFTSize returns the analyser window length.
func (m *Manager) FFTSize() int { return m.cfg.FFTSize }

func (m *Manager) liveAnalyser() *Analyser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analyser
}

// FrequencyData fills dst from the live analyser. It reports false when no
// graph is bound.
func (m *Manager) FrequencyData(dst []float64) bool {
	a := m.liveAnalyser()
	if a == nil {
		return false
	}
	a.FrequencyData(dst)
	return true
}

// TimeDomainData fills dst from the live analyser. It reports false when no
// graph is bound.
func (m *Manager) TimeDomainData(dst []float64) bool {
	a := m.liveAnalyser()
	if a == nil {
		return false
	}
	a.TimeDomainData(dst)
	return true
}
