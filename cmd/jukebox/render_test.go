package jukebox

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/jukebox/cmd/jukebox/visual"
)

func TestColumns(t *testing.T) {
	values := make([]float64, 1024)
	for i := range values {
		values[i] = 1
	}
	cols := columns(values, 40)
	if len(cols) != 40 {
		t.Fatalf("expected 40 columns, got %d", len(cols))
	}
	for i, v := range cols {
		if v != 1 {
			t.Errorf("column %d: expected 1, got %v", i, v)
		}
	}

	if got := columns(nil, 5); len(got) != 5 || got[0] != 0 {
		t.Errorf("expected 5 zero columns, got %v", got)
	}
	// more columns than values
	if got := columns([]float64{0.5, 0.5}, 10); got[9] != 0.5 {
		t.Errorf("expected last column 0.5, got %v", got)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		v    float64
		want int
	}{
		{0, 9},
		{1, 0},
		{-3, 9},
		{7, 0},
		{0.5, 4},
	}
	for _, tt := range tests {
		if got := level(tt.v, 10); got != tt.want {
			t.Errorf("level(%v, 10) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestRenderVisual_Dimensions(t *testing.T) {
	freq := make([]float64, 32)
	wave := make([]float64, 64)
	for i := range freq {
		freq[i] = float64(i) / 32
	}
	for i := range wave {
		wave[i] = float64(i%8)/4 - 1
	}

	for _, mode := range []visual.Mode{visual.ModeLine, visual.ModeBars, visual.ModeWave, visual.ModeCircle, visual.ModeDots} {
		t.Run(mode.String(), func(t *testing.T) {
			out := renderVisual(visual.Samples{Mode: mode, Frequency: freq, Waveform: wave, Live: true}, 50, 6)
			lines := strings.Split(out, "\n")
			if len(lines) != 6 {
				t.Fatalf("expected 6 lines, got %d", len(lines))
			}
			for i, line := range lines {
				if w := lipgloss.Width(line); w != 50 {
					t.Errorf("line %d: expected width 50, got %d", i, w)
				}
			}
		})
	}

	if out := renderVisual(visual.Samples{}, 2, 1); out != "" {
		t.Errorf("expected nothing for a tiny area, got %q", out)
	}
}

func TestBandLabel(t *testing.T) {
	tests := map[float64]string{32: "32", 125: "125", 1000: "1k", 16000: "16k", 2500: "2.5k"}
	for hz, want := range tests {
		if got := bandLabel(hz); got != want {
			t.Errorf("bandLabel(%v) = %q, want %q", hz, got, want)
		}
	}
}

func TestGainBar(t *testing.T) {
	tests := []struct {
		gain float64
		want string
	}{
		{0, "───●───"},
		{-24, "●──┼───"},
		{24, "───┼──●"},
		{99, "───┼──●"},
	}
	for _, tt := range tests {
		if got := gainBar(tt.gain, 24, 7); got != tt.want {
			t.Errorf("gainBar(%v) = %q, want %q", tt.gain, got, tt.want)
		}
	}
}
