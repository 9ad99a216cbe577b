// Package media is the host media element: it decodes the bound track, plays
// it on the speaker and reports progress as events.
package media

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAudioUnavailable = errors.New("audio output unavailable")
	ErrNothingLoaded    = errors.New("no track loaded")
	ErrAlreadyClaimed   = errors.New("media source already claimed")
)

// EventKind identifies a media event.
type EventKind int

const (
	TimeUpdate EventKind = iota
	MetadataLoaded
	Ended
	Error
)

func (k EventKind) String() string {
	switch k {
	case TimeUpdate:
		return "timeupdate"
	case MetadataLoaded:
		return "loadedmetadata"
	case Ended:
		return "ended"
	case Error:
		return "error"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is delivered asynchronously. Gen and TrackID identify the load that
// produced it so consumers can drop events from a previous track.
type Event struct {
	Kind     EventKind
	Gen      uint64
	TrackID  string
	Position float64 // seconds
	Duration float64 // seconds, set on MetadataLoaded and TimeUpdate
	Err      error
}

// TimeUpdateInterval is how often TimeUpdate is emitted while playing.
const TimeUpdateInterval = 250 * time.Millisecond
