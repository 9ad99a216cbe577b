package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gigurra/jukebox/cmd/jukebox/codec"
	"github.com/mholt/archives"
)

// FromPaths expands paths into files: audio files are taken as-is, directories
// are walked recursively for audio files and archives are unpacked. Paths that
// cannot be accessed are skipped with a warning.
func FromPaths(ctx context.Context, paths []string) []File {
	var files []File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			slog.Warn("skipping inaccessible path", "path", p, "error", err)
			continue
		}

		switch {
		case info.IsDir():
			files = append(files, fromDir(ctx, p)...)
		case IsArchive(ctx, p):
			entries, err := FromArchive(ctx, p)
			if err != nil {
				slog.Warn("skipping unreadable archive", "path", p, "error", err)
				continue
			}
			files = append(files, entries...)
		default:
			files = append(files, FromDisk(p, info.Size()))
		}
	}
	return files
}

// FromDisk returns a lazily read file.
func FromDisk(path string, size int64) File {
	return File{
		Name: filepath.Base(path),
		Path: path,
		Size: size,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

func fromDir(ctx context.Context, dir string) []File {
	var files []File
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("cannot walk", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !codec.IsAudioFile(path) {
			return nil
		}
		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		files = append(files, FromDisk(path, size))
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("directory walk stopped", "dir", dir, "error", err)
	}
	return files
}

// IsArchive reports whether path names an archive format we can extract.
func IsArchive(ctx context.Context, path string) bool {
	if codec.IsAudioFile(path) {
		return false
	}
	format, _, err := archives.Identify(ctx, filepath.Base(path), nil)
	if err != nil {
		return false
	}
	_, ok := format.(archives.Extractor)
	return ok
}

// FromArchive reads every audio entry of an archive into memory.
func FromArchive(ctx context.Context, path string) ([]File, error) {
	archiveFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer archiveFile.Close()

	format, reader, err := archives.Identify(ctx, path, archiveFile)
	if err != nil {
		return nil, fmt.Errorf("cannot identify archive format: %w", err)
	}

	extractor, ok := format.(archives.Extractor)
	if !ok {
		return nil, fmt.Errorf("format does not support extraction")
	}

	// zip and 7z need the original file for seeking
	archiveReader := reader
	switch format.(type) {
	case archives.Zip, archives.SevenZip:
		if _, err := archiveFile.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		archiveReader = archiveFile
	}

	var files []File
	err = extractor.Extract(ctx, archiveReader, func(ctx context.Context, f archives.FileInfo) error {
		if f.IsDir() || !codec.IsAudioFile(f.NameInArchive) {
			return nil
		}

		entry := File{
			Name: filepath.Base(filepath.Clean(f.NameInArchive)),
			Path: path + "!" + f.NameInArchive,
			Size: f.Size(),
		}
		rc, err := f.Open()
		if err != nil {
			slog.Warn("cannot open archive entry", "entry", entry.Path, "error", err)
			files = append(files, entry)
			return nil
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			slog.Warn("cannot read archive entry", "entry", entry.Path, "error", err)
		} else {
			entry.Data = data
		}
		files = append(files, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return files, nil
}
