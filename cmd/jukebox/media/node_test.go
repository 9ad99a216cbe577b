package media

import (
	"errors"
	"testing"

	"github.com/gopxl/beep/v2"
)

// finite yields n samples of value v, then ends.
func finite(n int, v float64) beep.Streamer {
	left := n
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if left == 0 {
			return 0, false
		}
		k := min(left, len(samples))
		for i := range samples[:k] {
			samples[i] = [2]float64{v, v}
		}
		left -= k
		return k, true
	})
}

func TestSourceNode_EndsOncePerLoad(t *testing.T) {
	var ended []uint64
	n := &sourceNode{onEnd: func(gen uint64) { ended = append(ended, gen) }}

	buf := make([][2]float64, 8)
	if k, ok := n.Stream(buf); k != 8 || !ok {
		t.Fatalf("empty node Stream = (%d, %v), want silence", k, ok)
	}

	n.load(&beep.Ctrl{Streamer: finite(12, 0.5)}, 7)
	n.Stream(buf)
	if buf[7][0] != 0.5 {
		t.Errorf("sample = %v, want 0.5", buf[7][0])
	}
	n.Stream(buf)
	if buf[3][0] != 0.5 || buf[4][0] != 0 {
		t.Errorf("tail not padded with silence: %v %v", buf[3][0], buf[4][0])
	}
	n.Stream(buf)
	n.Stream(buf)

	if len(ended) != 1 || ended[0] != 7 {
		t.Errorf("ended = %v, want [7]", ended)
	}

	n.load(&beep.Ctrl{Streamer: finite(2, 1)}, 8)
	n.Stream(buf)
	if len(ended) != 2 || ended[1] != 8 {
		t.Errorf("ended = %v, want [7 8]", ended)
	}
}

// broken yields n samples, then fails the way a decoder does on a bad frame.
type broken struct {
	left int
	err  error
}

func (b *broken) Stream(samples [][2]float64) (int, bool) {
	if b.left == 0 {
		b.err = errors.New("corrupt frame")
		return 0, false
	}
	k := min(b.left, len(samples))
	for i := range samples[:k] {
		samples[i] = [2]float64{1, 1}
	}
	b.left -= k
	return k, true
}

func (b *broken) Err() error { return b.err }

func TestSourceNode_DecodeErrorIsNotAnEnd(t *testing.T) {
	var ended []uint64
	var failed []error
	n := &sourceNode{
		onEnd:   func(gen uint64) { ended = append(ended, gen) },
		onError: func(gen uint64, err error) { failed = append(failed, err) },
	}
	n.load(&beep.Ctrl{Streamer: &broken{left: 8}}, 3)

	buf := make([][2]float64, 8)
	for range 4 {
		if k, ok := n.Stream(buf); k != 8 || !ok {
			t.Fatalf("Stream = (%d, %v), want a full silent buffer", k, ok)
		}
	}
	if len(failed) != 1 || failed[0].Error() != "corrupt frame" {
		t.Errorf("errors = %v, want one corrupt frame", failed)
	}
	if len(ended) != 0 {
		t.Errorf("ended = %v, want none after a decode error", ended)
	}
	if buf[0][0] != 0 {
		t.Errorf("sample after failure = %v, want silence", buf[0][0])
	}
}

func TestSourceNode_PausedDoesNotEnd(t *testing.T) {
	ended := 0
	n := &sourceNode{onEnd: func(uint64) { ended++ }}
	n.load(&beep.Ctrl{Streamer: finite(4, 1), Paused: true}, 1)

	buf := make([][2]float64, 16)
	for range 5 {
		n.Stream(buf)
	}
	if ended != 0 || buf[0][0] != 0 {
		t.Errorf("paused node ended=%d sample=%v", ended, buf[0][0])
	}
}

func TestRouter(t *testing.T) {
	n := &sourceNode{}
	n.load(&beep.Ctrl{Streamer: finite(100, 0.25)}, 1)
	r := &router{node: n}

	buf := make([][2]float64, 4)
	r.Stream(buf)
	if buf[0][0] != 0.25 {
		t.Errorf("direct path sample = %v", buf[0][0])
	}

	r.out = beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		k, ok := n.Stream(samples)
		for i := range samples[:k] {
			samples[i][0] *= 2
		}
		return k, ok
	})
	r.Stream(buf)
	if buf[0][0] != 0.5 {
		t.Errorf("routed sample = %v, want 0.5", buf[0][0])
	}
}
