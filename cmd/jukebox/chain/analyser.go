package chain

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/gopxl/beep/v2"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Magnitudes below MinDecibels map to 0 and above MaxDecibels map to 1.
const (
	MinDecibels = -100.0
	MaxDecibels = -30.0
)

// Analyser is a pass-through tap keeping the most recent fftSize samples
// (mono mix) for spectrum and waveform reads.
type Analyser struct {
	Streamer beep.Streamer

	mu     sync.Mutex
	ring   []float64
	pos    int
	fft    *fourier.FFT
	window []float64
	buf    []float64
	coeffs []complex128
}

// NewAnalyser wraps s. fftSize must be a power of two; other values are
// rounded up.
func NewAnalyser(s beep.Streamer, fftSize int) *Analyser {
	size := nextPow2(fftSize)
	return &Analyser{
		Streamer: s,
		ring:     make([]float64, size),
		fft:      fourier.NewFFT(size),
		window:   blackman(size),
		buf:      make([]float64, size),
	}
}

func nextPow2(n int) int {
	size := 32
	for size < n {
		size <<= 1
	}
	return size
}

func blackman(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		x := 2 * math.Pi * float64(i) / float64(n)
		w[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
	return w
}

func (a *Analyser) Stream(samples [][2]float64) (int, bool) {
	n, ok := a.Streamer.Stream(samples)
	a.mu.Lock()
	for _, s := range samples[:n] {
		a.ring[a.pos] = (s[0] + s[1]) / 2
		a.pos = (a.pos + 1) % len(a.ring)
	}
	a.mu.Unlock()
	return n, ok
}

func (a *Analyser) Err() error {
	return a.Streamer.Err()
}

// FFTSize returns the analysis window length in samples.
func (a *Analyser) FFTSize() int { return len(a.ring) }

// FrequencyBinCount is FFTSize()/2.
func (a *Analyser) FrequencyBinCount() int { return len(a.ring) / 2 }

// chronologicalLocked copies the ring, oldest sample first, into dst.
func (a *Analyser) chronologicalLocked(dst []float64) {
	n := copy(dst, a.ring[a.pos:])
	copy(dst[n:], a.ring[:a.pos])
}

// TimeDomainData fills dst with the most recent waveform in [-1, 1] and
// returns the number of values written.
func (a *Analyser) TimeDomainData(dst []float64) int {
	a.mu.Lock()
	a.chronologicalLocked(a.buf)
	n := copy(dst, a.buf)
	a.mu.Unlock()

	for i := range dst[:n] {
		dst[i] = max(-1, min(1, dst[i]))
	}
	return n
}

// FrequencyData fills dst with normalized magnitudes in [0, 1], one per
// frequency bin, and returns the number of values written.
func (a *Analyser) FrequencyData(dst []float64) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	size := len(a.ring)
	a.chronologicalLocked(a.buf)
	for i := range a.buf {
		a.buf[i] *= a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.buf)

	n := min(len(dst), size/2)
	for k := range n {
		mag := cmplx.Abs(a.coeffs[k]) / float64(size)
		dst[k] = normalizeDecibels(20 * math.Log10(mag))
	}
	return n
}

func normalizeDecibels(db float64) float64 {
	if math.IsInf(db, -1) || math.IsNaN(db) {
		return 0
	}
	v := (db - MinDecibels) / (MaxDecibels - MinDecibels)
	return max(0, min(1, v))
}
