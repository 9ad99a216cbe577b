package jukebox

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gigurra/jukebox/cmd/common"
	"github.com/gigurra/jukebox/cmd/jukebox/codec/codectest"
	"github.com/gigurra/jukebox/cmd/jukebox/ingest"
	"github.com/gigurra/jukebox/cmd/jukebox/media"
)

func TestRunHeadless_PlaysThroughAndStops(t *testing.T) {
	s, el := newTestSession(t, testConfig())
	defer s.close()
	dir := writeTracks(t, "A - One.wav", "B - Two.wav")

	// end every track as soon as it is loaded
	go func() {
		for range 2 {
			ld := <-el.loads
			el.events <- media.Event{Kind: media.Ended, Gen: ld.Gen, TrackID: ld.TrackID}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	if err := runHeadless(ctx, s, []string{dir}, nil, &out); err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("runHeadless did not stop on its own")
	}

	got := out.String()
	held := common.FormatBytes(2 * int64(len(codectest.WAV(0.25, 8000, 440))))
	for _, want := range []string{"loaded 2 tracks", held, "▶ A - One", "▶ B - Two", "stopped"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "A - One") > strings.Index(got, "B - Two") {
		t.Errorf("tracks announced out of order:\n%s", got)
	}
}

func TestRunHeadless_NothingToPlay(t *testing.T) {
	s, _ := newTestSession(t, testConfig())
	defer s.close()

	var out bytes.Buffer
	if err := runHeadless(context.Background(), s, []string{t.TempDir()}, nil, &out); err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	if !strings.Contains(out.String(), "nothing to play") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunHeadless_WatchedBatchesAreAdded(t *testing.T) {
	s, el := newTestSession(t, testConfig())
	defer s.close()

	watched := make(chan []ingest.File, 1)
	watched <- []ingest.File{{Name: "New - Arrival.wav", Path: "New - Arrival.wav", Data: codectest.WAV(0.25, 8000, 440)}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- runHeadless(ctx, s, nil, watched, &out) }()

	select {
	case <-el.loads:
	case <-time.After(5 * time.Second):
		t.Fatal("watched track never loaded")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runHeadless: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runHeadless did not return after cancel")
	}

	if !strings.Contains(out.String(), "+ New - Arrival") {
		t.Errorf("output missing added track:\n%s", out.String())
	}
	if s.store.Len() != 1 {
		t.Errorf("expected 1 track, got %d", s.store.Len())
	}
}
