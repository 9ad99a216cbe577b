package chain

import (
	"errors"
	"math"
	"testing"

	"github.com/gopxl/beep/v2"
)

type fakeSource struct {
	node     beep.Streamer
	rate     beep.SampleRate
	claimErr error
	claimed  bool
	routed   beep.Streamer
	routes   int
	releases int
}

func newFakeSource() *fakeSource {
	return &fakeSource{node: silence(), rate: 44100}
}

func (f *fakeSource) Claim() (beep.Streamer, beep.SampleRate, error) {
	if f.claimErr != nil {
		return nil, 0, f.claimErr
	}
	if f.claimed {
		return nil, 0, errors.New("already claimed")
	}
	f.claimed = true
	return f.node, f.rate, nil
}

func (f *fakeSource) Route(out beep.Streamer) {
	f.routed = out
	f.routes++
}

func (f *fakeSource) Release() {
	f.claimed = false
	f.releases++
}

func silence() beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		clear(samples)
		return len(samples), true
	})
}

func sine(rate beep.SampleRate, freq, amplitude float64) beep.Streamer {
	var n int
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := amplitude * math.Sin(2*math.Pi*freq*float64(n)/float64(rate))
			samples[i] = [2]float64{v, v}
			n++
		}
		return len(samples), true
	})
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(DefaultConfig())
	if m.State() != Absent {
		t.Fatalf("initial state = %v, want absent", m.State())
	}

	src := newFakeSource()
	if err := m.Ensure(src); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if m.State() != Bound || src.routed == nil {
		t.Fatalf("state = %v routed = %v, want bound and routed", m.State(), src.routed)
	}

	// same source is reused without rebuilding
	if err := m.Ensure(src); err != nil || src.routes != 1 {
		t.Errorf("second Ensure err=%v routes=%d, want reuse", err, src.routes)
	}

	other := newFakeSource()
	if err := m.Ensure(other); !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("Ensure(other) = %v, want ErrAlreadyBound", err)
	}

	m.Close()
	if m.State() != Closed || src.routed != nil || src.releases != 1 {
		t.Errorf("after Close: state=%v routed=%v releases=%d", m.State(), src.routed, src.releases)
	}
	if m.FrequencyData(make([]float64, 8)) {
		t.Error("FrequencyData should report false after Close")
	}

	m.Close()
	if src.releases != 1 {
		t.Error("closing twice must not release twice")
	}

	if err := m.Ensure(other); err != nil || m.State() != Bound {
		t.Errorf("rebind after Close: err=%v state=%v", err, m.State())
	}
}

func TestManager_FailedIsDegraded(t *testing.T) {
	m := NewManager(DefaultConfig())
	src := newFakeSource()
	src.claimErr = errors.New("no audio device")

	err := m.Ensure(src)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Ensure = %v, want ErrUnavailable", err)
	}
	if m.Available() || m.State() != Failed {
		t.Errorf("Available()=%v state=%v, want degraded", m.Available(), m.State())
	}

	// no retry within the session
	src.claimErr = nil
	if err := m.Ensure(src); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Ensure while failed = %v, want ErrUnavailable", err)
	}

	// gains stay adjustable while degraded
	if err := m.SetGain(0, 3); err != nil {
		t.Errorf("SetGain while degraded: %v", err)
	}

	m.Close()
	if m.State() != Absent || !m.Available() || m.Err() != nil {
		t.Errorf("after Close: state=%v available=%v err=%v", m.State(), m.Available(), m.Err())
	}
	if err := m.Ensure(src); err != nil {
		t.Errorf("Ensure after reset: %v", err)
	}
}

func TestManager_SetGainIsolatesBand(t *testing.T) {
	m := NewManager(DefaultConfig())
	if err := m.Ensure(newFakeSource()); err != nil {
		t.Fatal(err)
	}

	if err := m.SetGain(2, 6); err != nil {
		t.Fatalf("SetGain: %v", err)
	}

	for i, g := range m.Gains() {
		want := 0.0
		if i == 2 {
			want = 6
		}
		if g != want {
			t.Errorf("gain[%d] = %v, want %v", i, g, want)
		}
		if got := m.filters[i].Gain(); got != want {
			t.Errorf("live filter %d gain = %v, want %v", i, got, want)
		}
	}

	if got := m.filters[2].Response(DefaultBands[2]); math.Abs(got-6) > 0.01 {
		t.Errorf("response at center = %v dB, want 6", got)
	}
	for _, i := range []int{0, 5, 9} {
		if got := m.filters[i].Response(1000); math.Abs(got) > 1e-9 {
			t.Errorf("flat band %d response = %v dB, want 0", i, got)
		}
	}
}

func TestManager_SetGainBounds(t *testing.T) {
	m := NewManager(DefaultConfig())
	tests := []struct {
		band    int
		db      float64
		want    float64
		wantErr error
	}{
		{0, 40, MaxGainDB, nil},
		{1, -40, -MaxGainDB, nil},
		{9, -3.5, -3.5, nil},
		{-1, 1, 0, ErrBandOutOfRange},
		{10, 1, 0, ErrBandOutOfRange},
	}
	for _, tt := range tests {
		err := m.SetGain(tt.band, tt.db)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("SetGain(%d, %v) = %v, want %v", tt.band, tt.db, err, tt.wantErr)
			continue
		}
		if err == nil && m.Gains()[tt.band] != tt.want {
			t.Errorf("gain[%d] = %v, want %v", tt.band, m.Gains()[tt.band], tt.want)
		}
	}
}

func TestManager_GainsSurviveRebuild(t *testing.T) {
	m := NewManager(DefaultConfig())
	_ = m.SetGain(4, -5)

	src := newFakeSource()
	if err := m.Ensure(src); err != nil {
		t.Fatal(err)
	}
	if got := m.filters[4].Gain(); got != -5 {
		t.Errorf("gain set before bind not applied: %v", got)
	}
	m.Close()
	if err := m.Ensure(src); err != nil {
		t.Fatal(err)
	}
	if got := m.filters[4].Gain(); got != -5 {
		t.Errorf("gain lost across rebuild: %v", got)
	}
}

func TestPeakingFilter_FlatIsIdentity(t *testing.T) {
	f := NewPeakingFilter(sine(44100, 440, 0.5), 44100, 1000, DefaultQ, 0)
	ref := sine(44100, 440, 0.5)

	got := make([][2]float64, 512)
	want := make([][2]float64, 512)
	f.Stream(got)
	ref.Stream(want)
	for i := range got {
		if math.Abs(got[i][0]-want[i][0]) > 1e-9 {
			t.Fatalf("sample %d = %v, want %v", i, got[i][0], want[i][0])
		}
	}
}

func TestAnalyser(t *testing.T) {
	const rate, size = beep.SampleRate(8000), 256

	t.Run("silence", func(t *testing.T) {
		a := NewAnalyser(silence(), size)
		a.Stream(make([][2]float64, size))

		freq := make([]float64, a.FrequencyBinCount())
		wave := make([]float64, a.FFTSize())
		if n := a.FrequencyData(freq); n != size/2 {
			t.Fatalf("FrequencyData wrote %d, want %d", n, size/2)
		}
		a.TimeDomainData(wave)
		for i := range freq {
			if freq[i] != 0 {
				t.Fatalf("freq[%d] = %v, want 0", i, freq[i])
			}
		}
		for i := range wave {
			if wave[i] != 0 {
				t.Fatalf("wave[%d] = %v, want 0", i, wave[i])
			}
		}
	})

	t.Run("tone peaks at its bin", func(t *testing.T) {
		const bin = 16
		tone := float64(rate) * bin / size
		a := NewAnalyser(sine(rate, tone, 0.01), size)
		a.Stream(make([][2]float64, 2*size))

		freq := make([]float64, size/2)
		a.FrequencyData(freq)
		peak := 0
		for i := range freq {
			if freq[i] > freq[peak] {
				peak = i
			}
			if freq[i] < 0 || freq[i] > 1 {
				t.Fatalf("freq[%d] = %v outside [0,1]", i, freq[i])
			}
		}
		if peak != bin {
			t.Errorf("peak at bin %d, want %d", peak, bin)
		}
	})

	t.Run("waveform is clamped", func(t *testing.T) {
		loud := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
			for i := range samples {
				samples[i] = [2]float64{3, 3}
			}
			return len(samples), true
		})
		a := NewAnalyser(loud, 100)
		if a.FFTSize() != 128 {
			t.Errorf("FFTSize() = %d, want 128", a.FFTSize())
		}
		a.Stream(make([][2]float64, 128))
		wave := make([]float64, 128)
		a.TimeDomainData(wave)
		if wave[0] != 1 || wave[127] != 1 {
			t.Errorf("waveform not clamped: %v %v", wave[0], wave[127])
		}
	})
}
