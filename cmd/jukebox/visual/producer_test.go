package visual

import (
	"slices"
	"strings"
	"testing"

	"github.com/gigurra/jukebox/cmd/jukebox/chain"
	"github.com/gopxl/beep/v2"
)

type stubAnalyser struct {
	live  bool
	pulls int
}

func (s *stubAnalyser) FFTSize() int { return 8 }

func (s *stubAnalyser) FrequencyData(dst []float64) bool {
	s.pulls++
	if !s.live {
		return false
	}
	for i := range dst {
		dst[i] = float64(s.pulls) / 10
	}
	return true
}

func (s *stubAnalyser) TimeDomainData(dst []float64) bool {
	if !s.live {
		return false
	}
	for i := range dst {
		dst[i] = -0.5
	}
	return true
}

func TestPull_NeutralWithoutChain(t *testing.T) {
	p := NewProducer(chain.NewManager(chain.Config{FFTSize: 64}))
	s := p.Pull()
	if s.Live {
		t.Error("snapshot without a bound chain should not be live")
	}
	if len(s.Frequency) != 32 || len(s.Waveform) != 64 {
		t.Fatalf("shape = %d/%d, want 32/64", len(s.Frequency), len(s.Waveform))
	}
	for _, v := range slices.Concat(s.Frequency, s.Waveform) {
		if v != 0 {
			t.Fatalf("neutral snapshot contains %v", v)
		}
	}
}

func TestPull_ReadsThroughEveryTime(t *testing.T) {
	src := &stubAnalyser{live: true}
	p := NewProducer(src)

	first := p.Pull()
	second := p.Pull()
	if !first.Live || first.Frequency[0] != 0.1 || second.Frequency[0] != 0.2 {
		t.Errorf("pulls not fresh: %v then %v", first.Frequency[0], second.Frequency[0])
	}
	if first.Waveform[0] != -0.5 {
		t.Errorf("waveform = %v, want -0.5", first.Waveform[0])
	}
	// earlier snapshots are not overwritten by later pulls
	if first.Frequency[0] != 0.1 {
		t.Error("snapshot buffers are shared between pulls")
	}
}

func TestMode_DoesNotAffectContent(t *testing.T) {
	p := NewProducer(&stubAnalyser{live: true})
	a := p.Pull()
	p.SetMode(ModeCircle)
	b := p.Pull()

	if a.Mode != ModeLine || b.Mode != ModeCircle {
		t.Errorf("modes = %v, %v", a.Mode, b.Mode)
	}
	if !slices.Equal(a.Waveform, b.Waveform) || len(a.Frequency) != len(b.Frequency) {
		t.Error("mode changed snapshot content")
	}
}

func TestCycleMode(t *testing.T) {
	p := NewProducer(&stubAnalyser{})
	want := []Mode{ModeBars, ModeWave, ModeCircle, ModeDots, ModeLine}
	for i, w := range want {
		if got := p.CycleMode(); got != w {
			t.Errorf("cycle %d = %v, want %v", i, got, w)
		}
	}
	p.SetMode(Mode(42))
	if p.Mode() != ModeLine {
		t.Errorf("invalid mode accepted: %v", p.Mode())
	}
}

func TestParseMode(t *testing.T) {
	for _, name := range []string{"line", "BARS", "wave", "Circle", "dots"} {
		m, err := ParseMode(name)
		if err != nil {
			t.Errorf("ParseMode(%q): %v", name, err)
			continue
		}
		if !strings.EqualFold(m.String(), name) {
			t.Errorf("ParseMode(%q).String() = %q", name, m.String())
		}
	}
	if _, err := ParseMode("laser"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestSeq_IsLazyAndRestartable(t *testing.T) {
	src := &stubAnalyser{live: true}
	p := NewProducer(src)

	count := 0
	for range p.Seq() {
		count++
		if count == 3 {
			break
		}
	}
	if src.pulls != 3 {
		t.Errorf("pulls = %d after 3 iterations, want 3", src.pulls)
	}

	for s := range p.Seq() {
		if s.Frequency[0] != 0.4 {
			t.Errorf("restarted sequence yielded %v, want 0.4", s.Frequency[0])
		}
		break
	}
}

func TestPull_LiveChain(t *testing.T) {
	m := chain.NewManager(chain.Config{FFTSize: 32})
	if err := m.Ensure(&liveSource{}); err != nil {
		t.Fatal(err)
	}
	s := NewProducer(m).Pull()
	if !s.Live || len(s.Frequency) != 16 {
		t.Errorf("live=%v bins=%d", s.Live, len(s.Frequency))
	}
	m.Close()
	if NewProducer(m).Pull().Live {
		t.Error("snapshot after Close should be neutral")
	}
}

type liveSource struct{}

func (liveSource) Claim() (beep.Streamer, beep.SampleRate, error) {
	return beep.Silence(-1), 44100, nil
}
func (liveSource) Route(beep.Streamer) {}
func (liveSource) Release()            {}
