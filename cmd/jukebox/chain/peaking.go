package chain

import (
	"math"
	"math/cmplx"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

type coefficients struct {
	b0, b1, b2, a1, a2 float64
}

// PeakingFilter is a second-order peaking equalizer (RBJ cookbook) around a
// fixed center frequency. The gain can be changed while streaming; the new
// coefficients take effect at the next buffer.
type PeakingFilter struct {
	Streamer beep.Streamer

	rate beep.SampleRate
	freq float64
	q    float64

	gain atomic.Uint64 // math.Float64bits of dB
	coef atomic.Pointer[coefficients]

	// per channel history
	x1, x2, y1, y2 [2]float64
}

// NewPeakingFilter wraps s with a peaking filter at freq Hz.
func NewPeakingFilter(s beep.Streamer, rate beep.SampleRate, freq, q, gainDB float64) *PeakingFilter {
	f := &PeakingFilter{
		Streamer: s,
		rate:     rate,
		freq:     freq,
		q:        q,
	}
	f.SetGain(gainDB)
	return f
}

// Gain returns the current gain in dB.
func (f *PeakingFilter) Gain() float64 {
	return math.Float64frombits(f.gain.Load())
}

// SetGain swaps in coefficients for gainDB.
func (f *PeakingFilter) SetGain(gainDB float64) {
	f.gain.Store(math.Float64bits(gainDB))
	f.coef.Store(peaking(float64(f.rate), f.freq, f.q, gainDB))
}

func peaking(rate, freq, q, gainDB float64) *coefficients {
	// keep the center below nyquist so alpha stays positive
	freq = min(freq, rate*0.49)
	if q <= 0 {
		q = DefaultQ
	}

	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / rate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	a0 := 1 + alpha/a
	return &coefficients{
		b0: (1 + alpha*a) / a0,
		b1: -2 * cosW0 / a0,
		b2: (1 - alpha*a) / a0,
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha/a) / a0,
	}
}

// Stream filters both channels in place.
func (f *PeakingFilter) Stream(samples [][2]float64) (int, bool) {
	n, ok := f.Streamer.Stream(samples)
	c := f.coef.Load()
	for i := range samples[:n] {
		for ch := range 2 {
			x := samples[i][ch]
			y := c.b0*x + c.b1*f.x1[ch] + c.b2*f.x2[ch] - c.a1*f.y1[ch] - c.a2*f.y2[ch]
			f.x2[ch], f.x1[ch] = f.x1[ch], x
			f.y2[ch], f.y1[ch] = f.y1[ch], y
			samples[i][ch] = y
		}
	}
	return n, ok
}

func (f *PeakingFilter) Err() error {
	return f.Streamer.Err()
}

// Response returns the magnitude response in dB at freq Hz.
func (f *PeakingFilter) Response(freq float64) float64 {
	c := f.coef.Load()
	w := 2 * math.Pi * freq / float64(f.rate)
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1
	num := complex(c.b0, 0) + complex(c.b1, 0)*z1 + complex(c.b2, 0)*z2
	den := 1 + complex(c.a1, 0)*z1 + complex(c.a2, 0)*z2
	return 20 * math.Log10(cmplx.Abs(num/den))
}
