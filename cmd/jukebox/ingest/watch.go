package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gigurra/jukebox/cmd/jukebox/codec"
)

// DefaultDebounce groups bursts of filesystem events into one batch.
const DefaultDebounce = 750 * time.Millisecond

// Watch reports audio files appearing in dir as batches on the returned
// channel. A file is reported at most once, after its size has stayed the same
// across two debounce periods so files still being copied are not picked up.
// The channel is closed when ctx is done or the watcher fails.
func Watch(ctx context.Context, dir string, debounce time.Duration) (<-chan []File, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	out := make(chan []File)
	go func() {
		defer close(out)
		defer func() { _ = watcher.Close() }()

		seen := make(map[string]bool)
		pending := make(map[string]int64)
		timer := time.NewTimer(debounce)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if !codec.IsAudioFile(event.Name) || seen[event.Name] {
					continue
				}
				if _, ok := pending[event.Name]; !ok {
					pending[event.Name] = unknownSize
				}
				timer.Reset(debounce)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("watch error", "dir", dir, "error", err)

			case <-timer.C:
				batch := collectPending(pending, seen)
				if len(pending) > 0 {
					timer.Reset(debounce)
				}
				if len(batch) == 0 {
					continue
				}
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// unknownSize marks a pending path that has not been stat'ed yet.
const unknownSize = -1

// collectPending returns the pending files whose size is unchanged since the
// previous call, sorted by path, and marks them seen. The others stay pending
// with their current size recorded. Paths that vanished are dropped.
func collectPending(pending map[string]int64, seen map[string]bool) []File {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var batch []File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			delete(pending, p)
			continue
		}
		if size := info.Size(); size != pending[p] {
			pending[p] = size
			continue
		}
		delete(pending, p)
		seen[p] = true
		batch = append(batch, FromDisk(p, info.Size()))
	}
	return batch
}
