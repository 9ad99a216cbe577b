// Package ingest turns raw files into playable tracks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/gigurra/jukebox/cmd/jukebox/codec"
	"github.com/gigurra/jukebox/cmd/jukebox/track"
	"golang.org/x/sync/errgroup"
)

var ErrNoContent = errors.New("file has no readable content")

// File is a raw file handle as delivered by a picker, a directory walk, an
// archive or a folder watch.
type File struct {
	Name string                        // Filename including extension
	Path string                        // Origin, for display and logs
	Size int64                         // Approximate size in bytes
	Data []byte                        // Content, if already in memory
	Open func() (io.ReadCloser, error) // Lazy content access, used when Data is nil
}

// read returns the file content.
func (f File) read() ([]byte, error) {
	if f.Data != nil {
		return f.Data, nil
	}
	if f.Open == nil {
		return nil, ErrNoContent
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ProbeFunc reports the playable duration of content in seconds.
type ProbeFunc func(name string, data []byte) (float64, error)

// Ingester converts batches of files into tracks. Each file is read and probed
// concurrently; the batch is returned only once every probe has resolved.
type Ingester struct {
	locators *track.Locators
	probe    ProbeFunc
	limit    int
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithProbe replaces the duration probe (defaults to codec.Probe).
func WithProbe(p ProbeFunc) Option {
	return func(in *Ingester) { in.probe = p }
}

// WithConcurrency bounds the number of files processed at once.
func WithConcurrency(n int) Option {
	return func(in *Ingester) {
		if n > 0 {
			in.limit = n
		}
	}
}

// New creates an Ingester allocating locators from locators.
func New(locators *track.Locators, opts ...Option) *Ingester {
	in := &Ingester{
		locators: locators,
		probe:    codec.Probe,
		limit:    runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest processes a batch. The result has exactly one track per input file,
// in input order, regardless of the order probes complete in or whether they
// fail. The only error is cancellation of ctx, in which case every locator
// allocated for the batch is released and nothing is returned.
func (in *Ingester) Ingest(ctx context.Context, files []File) ([]*track.Track, error) {
	results := make([]*track.Track, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.limit)
	for i, f := range files {
		g.Go(func() error {
			results[i] = in.ingestOne(gctx, f)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for _, t := range results {
			if t != nil {
				_ = in.locators.Release(t.Locator)
			}
		}
		return nil, fmt.Errorf("ingest cancelled: %w", err)
	}

	slog.Info("ingested batch", "files", len(files))
	return results, nil
}

func (in *Ingester) ingestOne(ctx context.Context, f File) *track.Track {
	file := track.File{Name: f.Name, Path: f.Path, Size: f.Size}

	data, err := f.read()
	if err != nil {
		slog.Warn("unreadable file, adding with unknown duration", "file", f.Path, "error", err)
		data = nil
	}
	if file.Size == 0 {
		file.Size = int64(len(data))
	}

	var duration float64
	if ctx.Err() == nil && data != nil {
		duration, err = in.probe(f.Name, data)
		if err != nil {
			slog.Warn("metadata probe failed, duration unknown", "file", f.Path, "error", err)
			duration = 0
		}
	}

	t := track.New(file, duration)
	t.Locator = in.locators.Allocate(data)
	return t
}
