package jukebox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"
	"github.com/gigurra/jukebox/cmd/jukebox/chain"
	"github.com/gigurra/jukebox/cmd/jukebox/ingest"
	"github.com/gigurra/jukebox/cmd/jukebox/media"
	"github.com/gigurra/jukebox/cmd/jukebox/playlist"
	"github.com/gigurra/jukebox/cmd/jukebox/track"
	"github.com/gigurra/jukebox/cmd/jukebox/transport"
	"github.com/gigurra/jukebox/cmd/jukebox/visual"
)

var notifyFunc = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

// element is the media element as the session uses it.
type element interface {
	transport.Media
	Events() <-chan media.Event
	Close()
}

// session wires one player instance together: ingestion feeds the store, the
// machine drives the element, and the producer reads the machine's chain.
type session struct {
	locators *track.Locators
	store    *playlist.Store
	ingester *ingest.Ingester
	element  element
	machine  *transport.Machine
	producer *visual.Producer
}

type sessionConfig struct {
	Volume  float64
	Repeat  transport.RepeatMode
	Shuffle bool
	Visual  visual.Mode
	Chain   chain.Config
	Notify  bool
}

func newSession(cfg sessionConfig, newElement func(*track.Locators) element) *session {
	s := &session{
		locators: track.NewLocators(),
		store:    playlist.New(),
	}
	s.ingester = ingest.New(s.locators)
	s.element = newElement(s.locators)

	opts := []transport.Option{transport.WithChain(chain.NewManager(cfg.Chain))}
	if cfg.Notify {
		opts = append(opts, transport.WithTrackStarted(notifyTrackStarted))
	}
	s.machine = transport.New(s.store, s.element, opts...)
	s.machine.SetVolume(cfg.Volume)
	s.machine.SetRepeat(cfg.Repeat)
	s.machine.SetShuffle(cfg.Shuffle)

	s.producer = visual.NewProducer(s.machine.Chain())
	s.producer.SetMode(cfg.Visual)
	return s
}

func notifyTrackStarted(t *track.Track) {
	if err := notifyFunc("Now playing", t.Title()); err != nil {
		slog.Debug("desktop notification failed", "error", err)
	}
}

// ingestPaths expands and ingests paths. Only cancellation is an error.
func (s *session) ingestPaths(ctx context.Context, paths []string) ([]*track.Track, error) {
	return s.ingester.Ingest(ctx, ingest.FromPaths(ctx, paths))
}

// add appends tracks to the playlist. A playback failure while auto-starting
// is reported but the tracks stay.
func (s *session) add(tracks []*track.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	err := s.machine.Append(tracks)
	slog.Info("added tracks", "count", len(tracks), "total", s.store.Len())
	return err
}

// remove deletes ids and returns a function releasing their locators, to be
// called once the UI no longer shows them.
func (s *session) remove(ids []string) (removed []*track.Track, release func() error) {
	removed = s.machine.RemoveTracks(ids)
	return removed, func() error {
		if err := s.locators.ReleaseTracks(removed); err != nil {
			return fmt.Errorf("release locators: %w", err)
		}
		return nil
	}
}

func (s *session) close() {
	removed := s.machine.Clear()
	s.machine.Close()
	s.element.Close()
	if err := s.locators.ReleaseTracks(removed); err != nil {
		slog.Warn("leaked locators on shutdown", "error", err)
	}
}
