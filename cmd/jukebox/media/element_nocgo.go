//go:build !((linux && cgo) || windows || darwin)

package media

import (
	"sync"

	"github.com/gigurra/jukebox/cmd/jukebox/codec"
	"github.com/gigurra/jukebox/cmd/jukebox/track"
	"github.com/gopxl/beep/v2"
)

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio requires CGO for native sound libraries.
const AudioAvailable = false

// Element is a silent media element for builds without cgo. Tracks load and
// report their metadata, but nothing plays and effects cannot be attached.
type Element struct {
	mu sync.Mutex

	locators *track.Locators
	events   chan Event

	gen      uint64
	duration float64
	loaded   bool
}

// NewElement creates a silent element.
func NewElement(locators *track.Locators) *Element {
	return &Element{
		locators: locators,
		events:   make(chan Event, 64),
	}
}

func (e *Element) Events() <-chan Event { return e.events }

// Load probes t so its duration is still reported.
func (e *Element) Load(t *track.Track, gen uint64) error {
	data, err := e.locators.Bytes(t.Locator)
	if err != nil {
		return err
	}
	duration, err := codec.Probe(t.File.Name, data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.gen, e.duration, e.loaded = gen, duration, true
	e.mu.Unlock()

	select {
	case e.events <- Event{Kind: MetadataLoaded, Gen: gen, TrackID: t.ID, Duration: duration}:
	default:
	}
	return nil
}

// Play always fails without cgo.
func (e *Element) Play() error { return ErrAudioUnavailable }

func (e *Element) Pause() {}

func (e *Element) Clear() {
	e.mu.Lock()
	e.gen, e.duration, e.loaded = 0, 0, false
	e.mu.Unlock()
}

func (e *Element) Seek(seconds float64) error { return nil }

func (e *Element) Position() float64 { return 0 }

func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *Element) SetVolume(v float64) {}

// Claim fails: there is no output to attach effects to.
func (e *Element) Claim() (beep.Streamer, beep.SampleRate, error) {
	return nil, 0, ErrAudioUnavailable
}

func (e *Element) Route(out beep.Streamer) {}

func (e *Element) Release() {}

func (e *Element) Close() {}
