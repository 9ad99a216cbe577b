// Package jukebox implements the jukebox commands: an interactive terminal
// player and a playlist lister.
package jukebox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/jukebox/cmd/common"
	"github.com/gigurra/jukebox/cmd/jukebox/chain"
	"github.com/gigurra/jukebox/cmd/jukebox/ingest"
	"github.com/gigurra/jukebox/cmd/jukebox/media"
	"github.com/gigurra/jukebox/cmd/jukebox/track"
	"github.com/gigurra/jukebox/cmd/jukebox/transport"
	"github.com/gigurra/jukebox/cmd/jukebox/visual"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type PlayParams struct {
	Paths    []string `pos:"true" optional:"true" help:"Audio files, directories or archives to load."`
	Watch    string   `optional:"true" env:"JUKEBOX_WATCH" help:"Directory to watch for new audio files."`
	Volume   float64  `default:"0.8" env:"JUKEBOX_VOLUME" help:"Initial volume, 0 to 1."`
	Repeat   string   `default:"none" env:"JUKEBOX_REPEAT" help:"Repeat mode: none, one or all."`
	Shuffle  bool     `env:"JUKEBOX_SHUFFLE" help:"Start with shuffle enabled."`
	Visual   string   `default:"bars" env:"JUKEBOX_VISUAL" help:"Visualizer: line, bars, wave, circle or dots."`
	FFTSize  int      `long:"fft-size" default:"2048" env:"JUKEBOX_FFT_SIZE" help:"Analyser window length in samples (power of two)."`
	BandQ    float64  `long:"band-q" default:"1.0" env:"JUKEBOX_Q" help:"Equalizer band quality factor."`
	Notify   bool     `env:"JUKEBOX_NOTIFY" help:"Show a desktop notification when a track starts."`
	Headless bool     `help:"Play without the terminal UI, even on a terminal."`
	LogFile  string   `long:"log-file" optional:"true" env:"JUKEBOX_LOG_FILE" help:"Log file path, - for stderr (default: state dir)."`
	LogLevel string   `long:"log-level" default:"info" env:"JUKEBOX_LOG_LEVEL" help:"Log level: debug, info, warn or error."`
}

func PlayCmd() *cobra.Command {
	return boa.CmdT[PlayParams]{
		Use:   "play",
		Short: "Play audio files with an equalizer and spectrum visualizer",
		Long: `Load audio files, directories or archives into a playlist and play them.

Supported formats: mp3, wav, flac, ogg. Directories are searched recursively
and archives (zip, tar, 7z, ...) are unpacked in memory.

When stdout is not a terminal, or with --headless, the playlist is played
without the interactive UI and progress is logged.`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *PlayParams, cmd *cobra.Command, args []string) {
			if err := RunPlay(params); err != nil {
				fmt.Fprintf(os.Stderr, "play: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func (p *PlayParams) sessionConfig() (sessionConfig, error) {
	repeat, err := transport.ParseRepeat(p.Repeat)
	if err != nil {
		return sessionConfig{}, err
	}
	mode, err := visual.ParseMode(p.Visual)
	if err != nil {
		return sessionConfig{}, err
	}
	if p.Volume < 0 || p.Volume > 1 {
		return sessionConfig{}, fmt.Errorf("volume %v out of range 0..1", p.Volume)
	}
	cfg := chain.DefaultConfig()
	cfg.Q = p.BandQ
	cfg.FFTSize = p.FFTSize
	return sessionConfig{
		Volume:  p.Volume,
		Repeat:  repeat,
		Shuffle: p.Shuffle,
		Visual:  mode,
		Chain:   cfg,
		Notify:  p.Notify,
	}, nil
}

func RunPlay(params *PlayParams) error {
	if err := common.LoadDotEnv(); err != nil {
		return err
	}
	interactive := !params.Headless && term.IsTerminal(int(os.Stdout.Fd()))

	logFile := params.LogFile
	if !interactive && logFile == "" {
		logFile = "-"
	}
	logCloser, err := common.SetupLogging(logFile, params.LogLevel)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	cfg, err := params.sessionConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSession(cfg, func(l *track.Locators) element { return media.NewElement(l) })
	defer s.close()

	if !media.AudioAvailable {
		slog.Warn("built without audio support, tracks will load but not play")
	}

	var watched <-chan []ingest.File
	if params.Watch != "" {
		watched, err = ingest.Watch(ctx, params.Watch, ingest.DefaultDebounce)
		if err != nil {
			return err
		}
	}

	paths := params.Paths
	if len(paths) == 0 && params.Watch == "" {
		paths = []string{"."}
	}

	if interactive {
		return runShell(ctx, s, paths, watched)
	}
	return runHeadless(ctx, s, paths, watched, os.Stdout)
}

// printf writes to w, ignoring errors like fmt.Printf does.
func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
