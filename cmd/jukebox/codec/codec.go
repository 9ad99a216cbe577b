// Package codec identifies and decodes audio content using the beep decoders.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrEmptyContent      = errors.New("empty content")
)

// Kind is a decodable container/codec.
type Kind string

const (
	KindUnknown Kind = ""
	KindMP3     Kind = "mp3"
	KindWAV     Kind = "wav"
	KindFLAC    Kind = "flac"
	KindVorbis  Kind = "ogg"
)

var extensions = map[string]Kind{
	".mp3":  KindMP3,
	".wav":  KindWAV,
	".wave": KindWAV,
	".flac": KindFLAC,
	".ogg":  KindVorbis,
	".oga":  KindVorbis,
}

// IsAudioFile reports whether name has an extension we can decode.
func IsAudioFile(name string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Identify sniffs the content for a known file type and falls back to the
// filename extension. The reader is rewound before returning.
func Identify(name string, r io.ReadSeeker) Kind {
	kind := KindUnknown
	if _, fileType, err := tag.Identify(r); err == nil {
		switch fileType {
		case tag.MP3:
			kind = KindMP3
		case tag.FLAC:
			kind = KindFLAC
		case tag.OGG:
			kind = KindVorbis
		}
	}
	_, _ = r.Seek(0, io.SeekStart)

	if kind == KindUnknown {
		kind = extensions[strings.ToLower(filepath.Ext(name))]
	}
	return kind
}

// Decode opens a seekable stream over the content. The returned streamer owns
// rc and must be closed by the caller.
func Decode(name string, rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	kind := Identify(name, rc)

	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch kind {
	case KindMP3:
		s, format, err = mp3.Decode(rc)
	case KindWAV:
		s, format, err = wav.Decode(rc)
	case KindFLAC:
		s, format, err = flac.Decode(rc)
	case KindVorbis:
		s, format, err = vorbis.Decode(rc)
	default:
		_ = rc.Close()
		return nil, beep.Format{}, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		_ = rc.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s as %s: %w", name, kind, err)
	}
	return s, format, nil
}

// Probe decodes just enough of data to report its playable duration in seconds.
func Probe(name string, data []byte) (float64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrEmptyContent)
	}

	s, format, err := Decode(name, nopCloser{bytes.NewReader(data)})
	if err != nil {
		return 0, err
	}
	defer s.Close()

	if format.SampleRate <= 0 {
		return 0, fmt.Errorf("%s: invalid sample rate %d", name, format.SampleRate)
	}
	return float64(s.Len()) / float64(format.SampleRate), nil
}

// nopCloser wraps a bytes.Reader to implement io.ReadSeekCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
