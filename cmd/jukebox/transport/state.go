package transport

import (
	"fmt"
	"strings"

	"github.com/gigurra/jukebox/cmd/jukebox/track"
)

// State represents the current state of playback.
type State int

const (
	Idle    State = iota // no track bound
	Ready                // track bound, not playing
	Playing
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	default:
		return "idle"
	}
}

// RepeatMode controls what happens at the end of a track.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatOne
	RepeatAll
)

func (r RepeatMode) String() string {
	switch r {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "none"
	}
}

// ParseRepeat parses none, one or all.
func ParseRepeat(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return RepeatNone, nil
	case "one", "track":
		return RepeatOne, nil
	case "all", "playlist":
		return RepeatAll, nil
	}
	return RepeatNone, fmt.Errorf("unknown repeat mode %q (want none, one or all)", s)
}

// Direction of an advance.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Status contains information about the current playback state.
type Status struct {
	State    State
	Track    *track.Track // nil when Idle
	Index    int          // canonical index of Track, -1 when Idle
	Elapsed  float64      // seconds
	Duration float64      // seconds, 0 if unknown
	Volume   float64      // 0..1
	Repeat   RepeatMode
	Shuffle  bool

	EffectsAvailable bool
	EffectsErr       error
}

// Progress returns elapsed/duration in [0, 1].
func (s Status) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return max(0, min(1, s.Elapsed/s.Duration))
}
