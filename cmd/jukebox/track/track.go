package track

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UnknownArtist is used when a filename carries no "Artist - Name" delimiter.
const UnknownArtist = "Unknown Artist"

// nameDelimiter separates artist from name in filenames.
const nameDelimiter = " - "

// File describes where a track came from.
type File struct {
	Name string // Filename including extension
	Path string // Origin on disk or inside an archive (for reference only)
	Size int64  // Approximate size in bytes
}

// Track is an ingested, playable audio item.
type Track struct {
	ID       string  // Unique for the session
	File     File    // Source file handle
	Name     string  // Display name
	Artist   string  // Display artist
	Duration float64 // Seconds, 0 if unknown
	Locator  Locator // Valid only while the track is retained
}

// New creates a track for the given file, deriving its display name and artist
// from the filename. The locator is assigned by the caller.
func New(file File, duration float64) *Track {
	artist, name := ParseDisplayName(file.Name)
	if duration < 0 {
		duration = 0
	}
	return &Track{
		ID:       uuid.NewString(),
		File:     file,
		Name:     name,
		Artist:   artist,
		Duration: duration,
	}
}

// ParseDisplayName splits "Artist - Name.ext" into artist and name.
// Only the first delimiter counts; without one the artist is UnknownArtist.
func ParseDisplayName(filename string) (artist, name string) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	left, right, found := strings.Cut(base, nameDelimiter)
	if !found {
		return UnknownArtist, base
	}
	return left, right
}

// Title is "Artist - Name", the form used in notifications and the clipboard.
func (t *Track) Title() string {
	return t.Artist + nameDelimiter + t.Name
}

// IDs returns the ids of tracks, in order.
func IDs(tracks []*Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}
