package track

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrLocatorReleased = errors.New("locator released")
	ErrNoLocator       = errors.New("track has no locator")
)

// Locator is a handle to in-memory track content, comparable to an object URL.
type Locator string

// Locators owns the content behind every live locator. Each track allocates
// exactly one locator at ingestion; it is released exactly once when the track
// leaves the playlist.
type Locators struct {
	mu      sync.RWMutex
	content map[Locator][]byte
}

// NewLocators creates an empty registry.
func NewLocators() *Locators {
	return &Locators{content: make(map[Locator][]byte)}
}

// Allocate registers content and returns its locator.
func (l *Locators) Allocate(data []byte) Locator {
	loc := Locator("blob:" + uuid.NewString())
	l.mu.Lock()
	l.content[loc] = data
	l.mu.Unlock()
	return loc
}

// Open returns a reader over the content behind loc.
func (l *Locators) Open(loc Locator) (*bytes.Reader, error) {
	data, err := l.Bytes(loc)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Bytes returns the raw content behind loc.
func (l *Locators) Bytes(loc Locator) ([]byte, error) {
	if loc == "" {
		return nil, ErrNoLocator
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	data, ok := l.content[loc]
	if !ok {
		return nil, fmt.Errorf("%s: %w", loc, ErrLocatorReleased)
	}
	return data, nil
}

// Release frees the content behind loc. Releasing twice is an error.
func (l *Locators) Release(loc Locator) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.content[loc]; !ok {
		return fmt.Errorf("%s: %w", loc, ErrLocatorReleased)
	}
	delete(l.content, loc)
	return nil
}

// ReleaseTracks releases the locators of all given tracks and returns the
// joined errors, if any.
func (l *Locators) ReleaseTracks(tracks []*Track) error {
	var errs []error
	for _, t := range tracks {
		if err := l.Release(t.Locator); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Live returns the number of unreleased locators.
func (l *Locators) Live() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.content)
}

// Size returns the total bytes held by live locators.
func (l *Locators) Size() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total int64
	for _, data := range l.content {
		total += int64(len(data))
	}
	return total
}

// nopCloser wraps a bytes.Reader to implement io.ReadCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }

// OpenCloser is Open for decoders that want an io.ReadCloser.
func (l *Locators) OpenCloser(loc Locator) (io.ReadSeekCloser, error) {
	r, err := l.Open(loc)
	if err != nil {
		return nil, err
	}
	return nopCloser{r}, nil
}
