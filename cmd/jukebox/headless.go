package jukebox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gigurra/jukebox/cmd/common"
	"github.com/gigurra/jukebox/cmd/jukebox/ingest"
	"github.com/gigurra/jukebox/cmd/jukebox/media"
	"github.com/gigurra/jukebox/cmd/jukebox/transport"
)

const headlessPoll = 200 * time.Millisecond

// runHeadless plays the playlist without a UI, printing each track as it
// starts. It returns once playback stops, unless a watch directory keeps it
// alive until ctx is cancelled.
func runHeadless(ctx context.Context, s *session, paths []string, watched <-chan []ingest.File, w io.Writer) error {
	if len(paths) > 0 {
		tracks, err := s.ingestPaths(ctx, paths)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		printf(w, "loaded %d tracks (%s, %s)\n", len(tracks), common.FormatClock(s.store.TotalDuration()), common.FormatBytes(s.locators.Size()))
		if err := s.add(tracks); err != nil {
			return err
		}
	}
	if s.store.Len() == 0 && watched == nil {
		printf(w, "nothing to play\n")
		return nil
	}

	ticker := time.NewTicker(headlessPoll)
	defer ticker.Stop()

	events := s.element.Events()
	var lastID string
	announce := func() transport.Status {
		st := s.machine.Snapshot()
		if st.Track != nil && st.Track.ID != lastID && st.State == transport.Playing {
			lastID = st.Track.ID
			printf(w, "▶ %s [%s]\n", st.Track.Title(), common.FormatClock(st.Track.Duration))
		}
		return st
	}
	announce()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Kind == media.Error {
				slog.Warn("playback error", "track", ev.TrackID, "error", ev.Err)
			}
			s.machine.Dispatch(ev)
			announce()

		case files, ok := <-watched:
			if !ok {
				watched = nil
				continue
			}
			tracks, err := s.ingester.Ingest(ctx, files)
			if err != nil {
				return nil
			}
			for _, t := range tracks {
				printf(w, "+ %s\n", t.Title())
			}
			if err := s.add(tracks); err != nil {
				slog.Warn("could not start playback", "error", err)
			}
			announce()

		case <-ticker.C:
			st := announce()
			if st.State != transport.Playing && watched == nil {
				printf(w, "stopped\n")
				return nil
			}
		}
	}
}
