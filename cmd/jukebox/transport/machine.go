// Package transport drives playback: which track is bound, whether it plays,
// and what comes next.
package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/gigurra/jukebox/cmd/jukebox/chain"
	"github.com/gigurra/jukebox/cmd/jukebox/media"
	"github.com/gigurra/jukebox/cmd/jukebox/playlist"
	"github.com/gigurra/jukebox/cmd/jukebox/track"
	"github.com/samber/lo"
)

var ErrPlaybackFailed = errors.New("playback failed")

// Media is the element tracks are played through. It is also the source the
// effects chain attaches to.
type Media interface {
	chain.Source
	Load(t *track.Track, gen uint64) error
	Play() error
	Pause()
	Clear()
	Seek(seconds float64) error
	SetVolume(v float64)
}

// Machine is the transport state machine. All methods are safe for concurrent
// use; media events re-enter through Dispatch.
type Machine struct {
	mu sync.Mutex

	store *playlist.Store
	media Media
	chain *chain.Manager
	rng   *rand.Rand

	onTrackStarted func(*track.Track)

	state     State
	index     int
	currentID string
	loaded    bool
	gen       uint64 // incremented on every load, used to ignore stale media events
	drained   bool   // the bound stream ended or failed while not playing; resuming reloads it

	elapsed  float64
	duration float64
	volume   float64
	repeat   RepeatMode
	shuffle  bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithChain replaces the default effects chain.
func WithChain(c *chain.Manager) Option {
	return func(m *Machine) { m.chain = c }
}

// WithRand sets the source used for shuffle picks.
func WithRand(r *rand.Rand) Option {
	return func(m *Machine) { m.rng = r }
}

// WithTrackStarted registers a callback run whenever a new track starts.
func WithTrackStarted(fn func(*track.Track)) Option {
	return func(m *Machine) { m.onTrackStarted = fn }
}

// New creates a Machine over store playing through el.
func New(store *playlist.Store, el Media, opts ...Option) *Machine {
	m := &Machine{
		store:  store,
		media:  el,
		index:  -1,
		volume: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.chain == nil {
		m.chain = chain.NewManager(chain.DefaultConfig())
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return m
}

// Chain exposes the effects chain for equalizer and analyser reads.
func (m *Machine) Chain() *chain.Manager { return m.chain }

// Play starts or resumes playback. With nothing bound it starts the first
// track. An empty playlist makes it a no-op.
func (m *Machine) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store.Len() == 0 || m.state == Playing {
		return nil
	}
	if m.state == Idle || m.index < 0 {
		return m.playIndexLocked(0, true)
	}
	return m.playIndexLocked(m.index, m.drained)
}

// Pause pauses playback.
func (m *Machine) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Playing {
		return
	}
	m.media.Pause()
	m.state = Ready
}

// TogglePlay pauses when playing and plays otherwise.
func (m *Machine) TogglePlay() error {
	m.mu.Lock()
	playing := m.state == Playing
	m.mu.Unlock()

	if playing {
		m.Pause()
		return nil
	}
	return m.Play()
}

// SelectTrack starts playing the track with id from the beginning. Unknown
// ids are ignored.
func (m *Machine) SelectTrack(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.store.IndexOf(id)
	if i < 0 {
		return nil
	}
	return m.playIndexLocked(i, true)
}

// Next advances forward.
func (m *Machine) Next() error { return m.Advance(Forward) }

// Prev steps backward, wrapping to the last track.
func (m *Machine) Prev() error { return m.Advance(Backward) }

// Advance moves to the next or previous track and plays it. With shuffle on,
// forward picks a uniformly random index, possibly the current one. Running
// off the end without repeat-all stops at the last track instead of wrapping.
func (m *Machine) Advance(dir Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.advanceLocked(dir)
}

func (m *Machine) advanceLocked(dir Direction) error {
	n := m.store.Len()
	if n == 0 {
		return nil
	}

	var next int
	switch {
	case dir == Forward && m.shuffle:
		next = m.rng.IntN(n)
	case dir == Forward:
		next = m.index + 1
		if next >= n {
			if m.repeat != RepeatAll {
				m.stopAtEndLocked()
				return nil
			}
			next = 0
		}
	default:
		next = m.index - 1
		if next < 0 {
			next = n - 1
		}
	}
	return m.playIndexLocked(next, true)
}

// stopAtEndLocked parks on the current track, rewound.
func (m *Machine) stopAtEndLocked() {
	if m.state == Idle {
		return
	}
	m.media.Pause()
	if err := m.media.Seek(0); err != nil {
		slog.Warn("rewind failed", "error", err)
	}
	m.elapsed = 0
	m.state = Ready
	slog.Info("reached end of playlist")
}

// playIndexLocked binds the track at canonical index i and plays it. reload
// forces a fresh load from position 0 even if the track is already bound.
func (m *Machine) playIndexLocked(i int, reload bool) error {
	t := m.store.At(i)
	if t == nil {
		return nil
	}

	if reload || !m.loaded || t.ID != m.currentID {
		m.gen++
		m.index = i
		m.currentID = t.ID
		m.elapsed = 0
		m.duration = t.Duration
		m.loaded = false
		m.drained = false
		if err := m.media.Load(t, m.gen); err != nil {
			m.state = Ready
			return fmt.Errorf("%w: %s: %w", ErrPlaybackFailed, t.Title(), err)
		}
		m.loaded = true
	}

	// effects are optional; a failed chain leaves the raw path playing
	_ = m.chain.Ensure(m.media)

	if err := m.media.Play(); err != nil {
		m.state = Ready
		return fmt.Errorf("%w: %s: %w", ErrPlaybackFailed, t.Title(), err)
	}

	wasPlaying := m.state == Playing
	m.state = Playing
	if reload || !wasPlaying {
		slog.Info("playing", "track", t.Title(), "index", i)
		if m.onTrackStarted != nil && reload {
			go m.onTrackStarted(t)
		}
	}
	return nil
}

// Dispatch applies a media event. Events from an earlier load, or for a track
// no longer bound, are dropped; Dispatch reports whether ev was applied.
func (m *Machine) Dispatch(ev media.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded || ev.Gen != m.gen || ev.TrackID != m.currentID {
		return false
	}

	switch ev.Kind {
	case media.TimeUpdate:
		m.elapsed = ev.Position
		if ev.Duration > 0 {
			m.duration = ev.Duration
		}
	case media.MetadataLoaded:
		if m.store.SetDuration(ev.TrackID, ev.Duration) {
			m.duration = ev.Duration
		}
	case media.Ended:
		if m.state != Playing {
			// the pause raced the end of the stream
			m.drained = true
			return false
		}
		m.onEndedLocked()
	case media.Error:
		slog.Warn("media error", "track", m.currentID, "error", ev.Err)
		m.media.Pause()
		m.state = Ready
		m.drained = true
	}
	return true
}

func (m *Machine) onEndedLocked() {
	if m.repeat == RepeatOne {
		m.elapsed = 0
		if err := m.media.Seek(0); err != nil {
			slog.Warn("restart failed", "error", err)
		}
		if err := m.media.Play(); err != nil {
			slog.Warn("restart failed", "error", err)
			m.state = Ready
		}
		return
	}
	if err := m.advanceLocked(Forward); err != nil {
		slog.Warn("advance after end failed", "error", err)
	}
}

// Append adds tracks to the playlist and starts the first of them when the
// playlist was empty.
func (m *Machine) Append(tracks []*track.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.store.Append(tracks) {
		return nil
	}
	return m.playIndexLocked(0, true)
}

// RemoveTracks deletes ids from the playlist. If the bound track goes, media
// is stopped and cleared before this returns. The removed tracks are
// returned; releasing their locators is left to the caller.
func (m *Machine) RemoveTracks(ids []string) []*track.Track {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := m.store.Remove(ids)
	if len(removed) == 0 {
		return nil
	}
	m.afterRemoveLocked(removed)
	return removed
}

// Clear empties the playlist and returns every track.
func (m *Machine) Clear() []*track.Track {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := m.store.Clear()
	m.afterRemoveLocked(removed)
	return removed
}

func (m *Machine) afterRemoveLocked(removed []*track.Track) {
	currentGone := lo.ContainsBy(removed, func(t *track.Track) bool { return t.ID == m.currentID })
	if currentGone {
		m.unbindLocked()
	} else if m.currentID != "" {
		m.index = m.store.IndexOf(m.currentID)
	}

	if m.store.Len() == 0 {
		m.unbindLocked()
		m.chain.Close()
	}
}

func (m *Machine) unbindLocked() {
	if m.state == Idle && !m.loaded {
		return
	}
	m.media.Clear()
	m.gen++
	m.state = Idle
	m.index = -1
	m.currentID = ""
	m.loaded = false
	m.drained = false
	m.elapsed = 0
	m.duration = 0
}

// Seek moves within the bound track, clamped to its duration. Without a bound
// track it does nothing.
func (m *Machine) Seek(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return nil
	}
	seconds = max(0, seconds)
	if m.duration > 0 {
		seconds = min(seconds, m.duration)
	}
	if err := m.media.Seek(seconds); err != nil {
		return err
	}
	m.elapsed = seconds
	m.drained = false
	return nil
}

// SeekBy moves relative to the current position.
func (m *Machine) SeekBy(delta float64) error {
	m.mu.Lock()
	target := m.elapsed + delta
	m.mu.Unlock()
	return m.Seek(target)
}

// SetVolume sets the output volume, clamped to [0, 1].
func (m *Machine) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = lo.Clamp(v, 0, 1)
	m.media.SetVolume(m.volume)
}

// ToggleShuffle toggles shuffle mode and returns the new state.
func (m *Machine) ToggleShuffle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shuffle = !m.shuffle
	return m.shuffle
}

func (m *Machine) SetShuffle(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shuffle = enabled
}

// CycleRepeat steps none → one → all → none and returns the new mode.
func (m *Machine) CycleRepeat() RepeatMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = (m.repeat + 1) % 3
	return m.repeat
}

func (m *Machine) SetRepeat(r RepeatMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = r
}

// Snapshot returns the current playback information.
func (m *Machine) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		State:            m.state,
		Index:            m.index,
		Elapsed:          m.elapsed,
		Duration:         m.duration,
		Volume:           m.volume,
		Repeat:           m.repeat,
		Shuffle:          m.shuffle,
		EffectsAvailable: m.chain.Available(),
		EffectsErr:       m.chain.Err(),
	}
	if m.currentID != "" {
		s.Track, _ = m.store.Get(m.currentID)
	}
	return s
}

// Close stops playback and tears down the effects chain.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unbindLocked()
	m.chain.Close()
}
