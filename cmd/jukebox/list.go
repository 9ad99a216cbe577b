package jukebox

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/jukebox/cmd/common"
	"github.com/gigurra/jukebox/cmd/jukebox/ingest"
	"github.com/gigurra/jukebox/cmd/jukebox/playlist"
	"github.com/gigurra/jukebox/cmd/jukebox/track"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type ListParams struct {
	Paths  []string `pos:"true" optional:"true" help:"Audio files, directories or archives to list (defaults to current directory)"`
	Filter string   `short:"f" optional:"true" help:"Only show tracks whose name or artist contains this text"`
	Sort   string   `short:"s" optional:"true" help:"Sort by: name, artist (default is load order)"`
	Desc   bool     `long:"desc" help:"Sort descending"`
}

func ListCmd() *cobra.Command {
	return boa.CmdT[ListParams]{
		Use:         "ls",
		Aliases:     []string{"list"},
		Short:       "List the tracks that would be loaded, with durations",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *ListParams, cmd *cobra.Command, args []string) {
			if err := RunList(cmd.Context(), params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "ls: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func RunList(ctx context.Context, params *ListParams, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	key, err := playlist.ParseSortKey(params.Sort)
	if err != nil {
		return err
	}
	paths := params.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}

	locators := track.NewLocators()
	tracks, err := ingest.New(locators).Ingest(ctx, ingest.FromPaths(ctx, paths))
	if err != nil {
		return err
	}
	defer func() { _ = locators.ReleaseTracks(tracks) }()

	store := playlist.New()
	store.Append(tracks)
	store.SetFilter(params.Filter)
	dir := playlist.Asc
	if params.Desc {
		dir = playlist.Desc
	}
	store.SetSort(key, dir)
	view := store.View()

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(getTerminalWidth())
	t.AppendHeader(table.Row{"#", "Artist", "Name", "Duration", "Size", "Source"})

	var total float64
	var size int64
	for _, tr := range view {
		// number by load order so filtered output still identifies tracks
		t.AppendRow(table.Row{
			strconv.Itoa(store.IndexOf(tr.ID) + 1),
			common.TruncateWithEllipsis(tr.Artist, 30),
			common.TruncateWithEllipsis(tr.Name, 40),
			common.FormatClock(tr.Duration),
			common.FormatBytes(tr.File.Size),
			filepath.Dir(tr.File.Path),
		})
		total += tr.Duration
		size += tr.File.Size
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d tracks", len(view)), common.FormatClock(total), common.FormatBytes(size), ""})
	t.Render()
	return nil
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}
