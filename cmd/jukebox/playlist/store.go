// Package playlist holds the canonical track sequence, its filtered and sorted
// view, and the selection set used for bulk actions.
package playlist

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/gigurra/jukebox/cmd/jukebox/track"
	"github.com/samber/lo"
)

// SortKey names the field the view is ordered by.
type SortKey string

const (
	SortNone   SortKey = ""
	SortName   SortKey = "name"
	SortArtist SortKey = "artist"
)

// ParseSortKey parses a sort key from its flag form.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "name", "title":
		return SortName, nil
	case "artist":
		return SortArtist, nil
	}
	return SortNone, fmt.Errorf("unknown sort key %q (want name or artist)", s)
}

// Direction of the view ordering.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	tracks   []*track.Track
	index    map[string]*track.Track
	selected map[string]bool

	filter  string
	sortKey SortKey
	sortDir Direction
	view    []*track.Track
}

// New creates an empty store.
func New() *Store {
	return &Store{
		index:    make(map[string]*track.Track),
		selected: make(map[string]bool),
	}
}

// Append adds tracks to the end of the canonical sequence and reports whether
// the store went from empty to non-empty. Tracks whose id is already present
// are ignored.
func (s *Store) Append(tracks []*track.Track) (becameNonEmpty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasEmpty := len(s.tracks) == 0
	for _, t := range tracks {
		if t == nil {
			continue
		}
		if _, exists := s.index[t.ID]; exists {
			continue
		}
		s.tracks = append(s.tracks, t)
		s.index[t.ID] = t
	}
	s.recomputeLocked()
	return wasEmpty && len(s.tracks) > 0
}

// Remove deletes every track whose id is in ids, in one step, and returns the
// removed tracks in canonical order. Removed ids also leave the selection.
// Releasing the returned tracks' locators is up to the caller.
func (s *Store) Remove(ids []string) []*track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := lo.SliceToMap(ids, func(id string) (string, bool) { return id, true })
	var removed []*track.Track
	kept := s.tracks[:0:0]
	for _, t := range s.tracks {
		if doomed[t.ID] {
			removed = append(removed, t)
			delete(s.index, t.ID)
			delete(s.selected, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	if len(removed) == 0 {
		return nil
	}
	s.tracks = kept
	s.recomputeLocked()
	return removed
}

// Clear removes every track and returns them.
func (s *Store) Clear() []*track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.tracks
	s.tracks = nil
	s.index = make(map[string]*track.Track)
	s.selected = make(map[string]bool)
	s.recomputeLocked()
	return removed
}

// SetFilter sets the case-insensitive substring matched against name and artist.
func (s *Store) SetFilter(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = text
	s.recomputeLocked()
}

// Filter returns the current filter text.
func (s *Store) Filter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SetSort orders the view by key in dir. SortNone restores canonical order.
func (s *Store) SetSort(key SortKey, dir Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortKey = key
	s.sortDir = dir
	s.recomputeLocked()
}

// ToggleSort steps key through ascending, descending and unsorted. Switching
// to a different key starts at ascending.
func (s *Store) ToggleSort(key SortKey) (SortKey, Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.sortKey != key:
		s.sortKey, s.sortDir = key, Asc
	case s.sortDir == Asc:
		s.sortDir = Desc
	default:
		s.sortKey, s.sortDir = SortNone, Asc
	}
	s.recomputeLocked()
	return s.sortKey, s.sortDir
}

// Sort returns the current sort key and direction.
func (s *Store) Sort() (SortKey, Direction) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortKey, s.sortDir
}

// View returns a copy of the filtered and sorted view.
func (s *Store) View() []*track.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.view)
}

// recomputeLocked rebuilds the view. Must be called with the write lock held.
func (s *Store) recomputeLocked() {
	needle := strings.ToLower(s.filter)
	view := lo.Filter(s.tracks, func(t *track.Track, _ int) bool {
		return needle == "" ||
			strings.Contains(strings.ToLower(t.Name), needle) ||
			strings.Contains(strings.ToLower(t.Artist), needle)
	})

	if s.sortKey != SortNone {
		key := sortField(s.sortKey)
		slices.SortStableFunc(view, func(a, b *track.Track) int {
			c := strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
			if s.sortDir == Desc {
				return -c
			}
			return c
		})
	}
	s.view = view
}

func sortField(key SortKey) func(*track.Track) string {
	if key == SortArtist {
		return func(t *track.Track) string { return t.Artist }
	}
	return func(t *track.Track) string { return t.Name }
}

// Len returns the number of tracks in the canonical sequence.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// At returns the track at canonical index i, or nil when out of range.
func (s *Store) At(i int) *track.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.tracks) {
		return nil
	}
	return s.tracks[i]
}

// IndexOf returns the canonical index of id, or -1.
func (s *Store) IndexOf(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, idx, ok := lo.FindIndexOf(s.tracks, func(t *track.Track) bool { return t.ID == id })
	if !ok {
		return -1
	}
	return idx
}

// Get returns the track with id.
func (s *Store) Get(id string) (*track.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.index[id]
	return t, ok
}

// Tracks returns a copy of the canonical sequence.
func (s *Store) Tracks() []*track.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tracks)
}

// TotalDuration sums the known durations in seconds.
func (s *Store) TotalDuration() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.SumBy(s.tracks, func(t *track.Track) float64 { return t.Duration })
}

// SetDuration updates the duration of a track still in the store.
func (s *Store) SetDuration(id string, seconds float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.index[id]
	if !ok {
		return false
	}
	t.Duration = max(seconds, 0)
	return true
}

// Select marks ids for bulk action. Unknown ids are ignored.
func (s *Store) Select(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			s.selected[id] = true
		}
	}
}

// Deselect unmarks ids.
func (s *Store) Deselect(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.selected, id)
	}
}

// ToggleSelected flips the mark on id and returns the new state.
func (s *Store) ToggleSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[id]; !ok {
		return false
	}
	if s.selected[id] {
		delete(s.selected, id)
		return false
	}
	s.selected[id] = true
	return true
}

// SelectVisible marks every track in the current view.
func (s *Store) SelectVisible() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.view {
		s.selected[t.ID] = true
	}
}

// ClearSelection unmarks everything.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]bool)
}

// IsSelected reports whether id is marked.
func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected[id]
}

// Selected returns the marked ids in canonical order.
func (s *Store) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	marked := lo.Filter(s.tracks, func(t *track.Track, _ int) bool { return s.selected[t.ID] })
	return track.IDs(marked)
}
