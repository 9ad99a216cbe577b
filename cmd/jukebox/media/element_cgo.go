//go:build (linux && cgo) || windows || darwin

package media

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gigurra/jukebox/cmd/jukebox/codec"
	"github.com/gigurra/jukebox/cmd/jukebox/track"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

// Element handles the actual audio output using beep. One element lives for
// the whole session; tracks are loaded into it one at a time.
type Element struct {
	mu sync.Mutex

	locators *track.Locators
	events   chan Event
	done     chan struct{}

	initialized bool
	initErr     error
	sampleRate  beep.SampleRate

	node   *sourceNode
	router *router
	volume *effects.Volume

	gen      uint64
	trackID  string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	claimed  bool

	stopTicker chan struct{}
}

// NewElement creates an element reading track content from locators.
func NewElement(locators *track.Locators) *Element {
	e := &Element{
		locators:   locators,
		events:     make(chan Event, 64),
		done:       make(chan struct{}),
		sampleRate: beep.SampleRate(44100), // Standard sample rate
	}
	e.node = &sourceNode{onEnd: e.onEnd, onError: e.onError}
	e.router = &router{node: e.node}
	e.volume = &effects.Volume{Streamer: e.router, Base: 2}
	return e
}

// Events returns the channel media events are delivered on.
func (e *Element) Events() <-chan Event { return e.events }

// initSpeakerLocked initializes the speaker on first use. Must be called with
// e.mu held.
func (e *Element) initSpeakerLocked() error {
	if e.initialized {
		return nil
	}
	if e.initErr != nil {
		return e.initErr
	}
	if err := speaker.Init(e.sampleRate, e.sampleRate.N(time.Second/10)); err != nil {
		e.initErr = fmt.Errorf("%w: %w", ErrAudioUnavailable, err)
		return e.initErr
	}
	e.initialized = true
	speaker.Play(e.volume)
	return nil
}

// Load decodes t from its locator and binds it paused at position 0. gen tags
// every event produced for this load.
func (e *Element) Load(t *track.Track, gen uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.unloadLocked()

	rc, err := e.locators.OpenCloser(t.Locator)
	if err != nil {
		return err
	}
	streamer, format, err := codec.Decode(t.File.Name, rc)
	if err != nil {
		return err
	}

	// Resample if needed to match speaker sample rate
	resampled := beep.Resample(4, format.SampleRate, e.sampleRate, streamer)
	ctrl := &beep.Ctrl{Streamer: resampled, Paused: true}

	speaker.Lock()
	e.node.load(ctrl, gen)
	speaker.Unlock()

	e.streamer = streamer
	e.format = format
	e.ctrl = ctrl
	e.gen = gen
	e.trackID = t.ID

	e.emit(Event{
		Kind:     MetadataLoaded,
		Gen:      gen,
		TrackID:  t.ID,
		Duration: format.SampleRate.D(streamer.Len()).Seconds(),
	})
	return nil
}

// unloadLocked drops the loaded stream. Must be called with e.mu held.
func (e *Element) unloadLocked() {
	e.stopTickerLocked()
	speaker.Lock()
	e.node.clear()
	speaker.Unlock()
	if e.streamer != nil {
		_ = e.streamer.Close()
	}
	e.streamer = nil
	e.ctrl = nil
	e.gen = 0
	e.trackID = ""
}

// Clear stops playback and removes the source.
func (e *Element) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unloadLocked()
}

// Play starts or resumes the loaded stream.
func (e *Element) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.initSpeakerLocked(); err != nil {
		return err
	}
	if e.ctrl == nil {
		return ErrNothingLoaded
	}

	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()

	if e.stopTicker == nil {
		e.stopTicker = make(chan struct{})
		go e.tick(e.stopTicker, e.gen, e.trackID)
	}
	return nil
}

// Pause pauses playback.
func (e *Element) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl != nil {
		speaker.Lock()
		e.ctrl.Paused = true
		speaker.Unlock()
	}
	e.stopTickerLocked()
}

func (e *Element) stopTickerLocked() {
	if e.stopTicker != nil {
		close(e.stopTicker)
		e.stopTicker = nil
	}
}

func (e *Element) tick(stop <-chan struct{}, gen uint64, trackID string) {
	ticker := time.NewTicker(TimeUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-e.done:
			return
		case <-ticker.C:
			e.emit(Event{
				Kind:     TimeUpdate,
				Gen:      gen,
				TrackID:  trackID,
				Position: e.Position(),
				Duration: e.Duration(),
			})
		}
	}
}

// onEnd runs on the speaker goroutine with the speaker lock held.
func (e *Element) onEnd(gen uint64) {
	// Run in separate goroutine to avoid blocking the audio callback
	go func() {
		e.mu.Lock()
		trackID := e.trackID
		current := e.gen == gen
		e.mu.Unlock()
		if current {
			e.emit(Event{Kind: Ended, Gen: gen, TrackID: trackID})
		}
	}()
}

// onError runs on the speaker goroutine with the speaker lock held.
func (e *Element) onError(gen uint64, err error) {
	go func() {
		e.mu.Lock()
		trackID := e.trackID
		current := e.gen == gen
		e.mu.Unlock()
		if current {
			e.emit(Event{Kind: Error, Gen: gen, TrackID: trackID, Err: err})
		}
	}()
}

func (e *Element) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.done:
	default:
		if ev.Kind == TimeUpdate {
			return
		}
		go func() {
			select {
			case e.events <- ev:
			case <-e.done:
			}
		}()
	}
}

// Seek sets the playback position, clamped to the stream.
func (e *Element) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return nil
	}

	speaker.Lock()
	defer speaker.Unlock()

	samples := e.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	samples = max(0, min(samples, e.streamer.Len()-1))
	if err := e.streamer.Seek(samples); err != nil {
		return err
	}
	e.node.ended = false
	return nil
}

// Position returns the current playback position in seconds.
func (e *Element) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return 0
	}

	speaker.Lock()
	pos := e.streamer.Position()
	speaker.Unlock()

	return e.format.SampleRate.D(pos).Seconds()
}

// Duration returns the total duration of the loaded stream in seconds.
func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return 0
	}
	return e.format.SampleRate.D(e.streamer.Len()).Seconds()
}

// SetVolume sets the linear output gain in [0, 1].
func (e *Element) SetVolume(v float64) {
	v = max(0, min(1, v))
	speaker.Lock()
	defer speaker.Unlock()
	if v == 0 {
		e.volume.Silent = true
		return
	}
	e.volume.Silent = false
	e.volume.Volume = math.Log2(v)
}

// Claim hands the source node to an effects chain.
func (e *Element) Claim() (beep.Streamer, beep.SampleRate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.initSpeakerLocked(); err != nil {
		return nil, 0, err
	}
	if e.claimed {
		return nil, 0, ErrAlreadyClaimed
	}
	e.claimed = true
	return e.node, e.sampleRate, nil
}

// Route sends output through out; nil restores the direct path.
func (e *Element) Route(out beep.Streamer) {
	speaker.Lock()
	e.router.out = out
	speaker.Unlock()
}

// Release gives up a claim.
func (e *Element) Release() {
	e.mu.Lock()
	e.claimed = false
	e.mu.Unlock()
}

// Close stops playback and shuts down event delivery.
func (e *Element) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case <-e.done:
		return
	default:
	}
	e.unloadLocked()
	close(e.done)
	if e.initialized {
		speaker.Clear()
		slog.Debug("speaker released")
	}
}
