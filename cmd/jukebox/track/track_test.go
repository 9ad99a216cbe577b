package track

import (
	"errors"
	"io"
	"testing"
)

func TestParseDisplayName(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		wantArtist string
		wantName   string
	}{
		{"artist and name", "Daft Punk - One More Time.mp3", "Daft Punk", "One More Time"},
		{"no delimiter", "intro.wav", UnknownArtist, "intro"},
		{"first delimiter only", "A - B - C.flac", "A", "B - C"},
		{"hyphen without spaces", "a-song.mp3", UnknownArtist, "a-song"},
		{"no extension", "Artist - Name", "Artist", "Name"},
		{"dots in name", "Mr. X - v1.2 mix.ogg", "Mr. X", "v1.2 mix"},
		{"empty artist", " - Name.mp3", "", "Name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artist, name := ParseDisplayName(tt.filename)
			if artist != tt.wantArtist || name != tt.wantName {
				t.Errorf("ParseDisplayName(%q) = (%q, %q), want (%q, %q)",
					tt.filename, artist, name, tt.wantArtist, tt.wantName)
			}
		})
	}
}

func TestNew_UniqueIDsAndNonNegativeDuration(t *testing.T) {
	a := New(File{Name: "x.mp3"}, -3)
	b := New(File{Name: "x.mp3"}, 12.5)

	if a.ID == b.ID {
		t.Errorf("expected unique ids, both were %q", a.ID)
	}
	if a.Duration != 0 {
		t.Errorf("negative duration should clamp to 0, got %v", a.Duration)
	}
	if b.Duration != 12.5 {
		t.Errorf("Duration = %v, want 12.5", b.Duration)
	}
	if b.Title() != UnknownArtist+" - x" {
		t.Errorf("Title() = %q", b.Title())
	}
}

func TestLocators_ReleaseExactlyOnce(t *testing.T) {
	l := NewLocators()
	loc := l.Allocate([]byte("abc"))

	if l.Live() != 1 {
		t.Fatalf("Live() = %d, want 1", l.Live())
	}

	r, err := l.Open(loc)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(r)
	if string(data) != "abc" {
		t.Errorf("content = %q, want abc", data)
	}

	if err := l.Release(loc); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := l.Release(loc); !errors.Is(err, ErrLocatorReleased) {
		t.Errorf("second Release err = %v, want ErrLocatorReleased", err)
	}
	if _, err := l.Open(loc); !errors.Is(err, ErrLocatorReleased) {
		t.Errorf("Open after release err = %v, want ErrLocatorReleased", err)
	}
	if l.Live() != 0 {
		t.Errorf("Live() = %d, want 0", l.Live())
	}
}

func TestLocators_ReleaseTracks(t *testing.T) {
	l := NewLocators()
	a := New(File{Name: "a.mp3"}, 1)
	b := New(File{Name: "b.mp3"}, 1)
	a.Locator = l.Allocate([]byte("a"))
	b.Locator = l.Allocate([]byte("bb"))

	if l.Size() != 3 {
		t.Errorf("Size() = %d, want 3", l.Size())
	}
	if err := l.ReleaseTracks([]*Track{a, b}); err != nil {
		t.Fatalf("ReleaseTracks: %v", err)
	}
	if err := l.ReleaseTracks([]*Track{a}); !errors.Is(err, ErrLocatorReleased) {
		t.Errorf("releasing again err = %v, want ErrLocatorReleased", err)
	}
}

func TestLocators_EmptyLocator(t *testing.T) {
	l := NewLocators()
	if _, err := l.Open(""); !errors.Is(err, ErrNoLocator) {
		t.Errorf("Open(\"\") err = %v, want ErrNoLocator", err)
	}
}
