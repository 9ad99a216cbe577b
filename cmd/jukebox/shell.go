package jukebox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/jukebox/cmd/common"
	"github.com/gigurra/jukebox/cmd/jukebox/chain"
	"github.com/gigurra/jukebox/cmd/jukebox/ingest"
	"github.com/gigurra/jukebox/cmd/jukebox/media"
	"github.com/gigurra/jukebox/cmd/jukebox/playlist"
	"github.com/gigurra/jukebox/cmd/jukebox/track"
	"github.com/gigurra/jukebox/cmd/jukebox/transport"
	"github.com/gigurra/jukebox/cmd/jukebox/visual"
)

var clipboardWriteAll = clipboard.WriteAll

var (
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	playingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))  // Green
	markedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // Orange
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	searchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	confirmStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
)

const (
	frameInterval = 50 * time.Millisecond
	seekStep      = 5.0
	volumeStep    = 0.05
	gainStep      = 1.0
	visualHeight  = 8
)

type (
	frameMsg    time.Time
	mediaMsg    media.Event
	watchMsg    []ingest.File
	ingestedMsg struct {
		tracks []*track.Track
		err    error
	}
	releaseMsg struct{ release func() error }
)

// Confirmation modes
type confirmMode int

const (
	confirmNone confirmMode = iota
	confirmDelete
)

type model struct {
	ctx     context.Context
	s       *session
	paths   []string
	watched <-chan []ingest.File

	view    []*track.Track // filtered and sorted playlist
	status  transport.Status
	samples visual.Samples

	cursor  int
	width   int
	height  int
	loading int // ingest batches in flight

	confirmMode   confirmMode
	pendingDelete []string // ids awaiting confirmation

	searchInput   string
	searchFocused bool

	eqFocused bool
	band      int

	message string // last error or notice
}

func newModel(ctx context.Context, s *session, paths []string, watched <-chan []ingest.File) model {
	m := model{ctx: ctx, s: s, paths: paths, watched: watched}
	if len(paths) > 0 {
		m.loading = 1
	}
	return m.refresh()
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{frameCmd(), waitMedia(m.s.element.Events())}
	if len(m.paths) > 0 {
		cmds = append(cmds, ingestPathsCmd(m.ctx, m.s, m.paths))
	}
	if m.watched != nil {
		cmds = append(cmds, waitWatch(m.watched))
	}
	return tea.Batch(cmds...)
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func waitMedia(events <-chan media.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return mediaMsg(ev)
	}
}

func waitWatch(batches <-chan []ingest.File) tea.Cmd {
	return func() tea.Msg {
		files, ok := <-batches
		if !ok {
			return nil
		}
		return watchMsg(files)
	}
}

func ingestPathsCmd(ctx context.Context, s *session, paths []string) tea.Cmd {
	return func() tea.Msg {
		tracks, err := s.ingestPaths(ctx, paths)
		return ingestedMsg{tracks: tracks, err: err}
	}
}

func ingestFilesCmd(ctx context.Context, s *session, files []ingest.File) tea.Cmd {
	return func() tea.Msg {
		tracks, err := s.ingester.Ingest(ctx, files)
		return ingestedMsg{tracks: tracks, err: err}
	}
}

// refresh re-reads the playlist view and playback status.
func (m model) refresh() model {
	m.view = m.s.store.View()
	m.status = m.s.machine.Snapshot()
	if m.cursor >= len(m.view) {
		m.cursor = len(m.view) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

func (m model) cursorTrack() *track.Track {
	if m.cursor < 0 || m.cursor >= len(m.view) {
		return nil
	}
	return m.view[m.cursor]
}

// report records err as the visible message, if any.
func (m model) report(err error) model {
	if err != nil {
		m.message = err.Error()
	}
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case frameMsg:
		m.samples = m.s.producer.Pull()
		m = m.refresh()
		return m, frameCmd()

	case mediaMsg:
		m.s.machine.Dispatch(media.Event(msg))
		m = m.refresh()
		return m, waitMedia(m.s.element.Events())

	case watchMsg:
		m.loading++
		return m, tea.Batch(ingestFilesCmd(m.ctx, m.s, msg), waitWatch(m.watched))

	case ingestedMsg:
		m.loading = max(0, m.loading-1)
		if msg.err != nil {
			// only cancellation fails a batch
			return m, tea.Quit
		}
		m = m.report(m.s.add(msg.tracks)).refresh()

	case releaseMsg:
		if err := msg.release(); err != nil {
			slog.Error("release failed", "error", err)
			m.message = err.Error()
		}
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle confirmation dialog first
	if m.confirmMode != confirmNone {
		switch msg.String() {
		case "y", "Y":
			return m.confirmDelete()
		case "n", "N", "esc", "q":
			m.confirmMode = confirmNone
			m.pendingDelete = nil
			m.message = "delete cancelled"
		}
		return m, nil
	}

	// Handle search mode
	if m.searchFocused {
		switch msg.String() {
		case "esc":
			if m.searchInput != "" {
				m = m.setSearch("")
			} else {
				m.searchFocused = false
			}
		case "enter":
			m.searchFocused = false
		case "up":
			m.searchFocused = false
			m = m.moveCursor(-1)
		case "down":
			m.searchFocused = false
			m = m.moveCursor(1)
		case "backspace":
			if len(m.searchInput) > 0 {
				m = m.setSearch(m.searchInput[:len(m.searchInput)-1])
			}
		case "ctrl+u":
			m = m.setSearch("")
		default:
			if len(msg.String()) == 1 && msg.String()[0] >= 32 && msg.String()[0] < 127 {
				m = m.setSearch(m.searchInput + msg.String())
			}
		}
		return m, nil
	}

	// Equalizer focus takes the arrow keys
	if m.eqFocused {
		switch msg.String() {
		case "left", "h":
			m.band = max(0, m.band-1)
			return m, nil
		case "right", "l":
			m.band = min(len(m.s.machine.Chain().Bands())-1, m.band+1)
			return m, nil
		case "up", "k":
			return m.nudgeGain(gainStep), nil
		case "down", "j":
			return m.nudgeGain(-gainStep), nil
		case "0":
			return m.report(m.s.machine.Chain().SetGain(m.band, 0)), nil
		case "e", "esc":
			m.eqFocused = false
			return m, nil
		}
	}

	m.message = ""
	machine := m.s.machine

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.searchInput != "" {
			m = m.setSearch("")
		} else {
			return m, tea.Quit
		}
	case "/":
		m.searchFocused = true
	case "up", "k":
		m = m.moveCursor(-1)
	case "down", "j":
		m = m.moveCursor(1)
	case " ", "space":
		m = m.report(machine.TogglePlay())
	case "enter":
		if t := m.cursorTrack(); t != nil {
			m = m.report(machine.SelectTrack(t.ID))
		}
	case "n":
		m = m.report(machine.Next())
	case "p":
		m = m.report(machine.Prev())
	case "left":
		m = m.report(machine.SeekBy(-seekStep))
	case "right":
		m = m.report(machine.SeekBy(seekStep))
	case "+", "=":
		machine.SetVolume(m.status.Volume + volumeStep)
	case "-":
		machine.SetVolume(m.status.Volume - volumeStep)
	case "s":
		machine.ToggleShuffle()
	case "r":
		machine.CycleRepeat()
	case "x":
		if t := m.cursorTrack(); t != nil {
			m.s.store.ToggleSelected(t.ID)
			m = m.moveCursor(1)
		}
	case "a":
		m.s.store.SelectVisible()
	case "u":
		m.s.store.ClearSelection()
	case "delete", "d":
		ids := m.s.store.Selected()
		if len(ids) == 0 {
			if t := m.cursorTrack(); t != nil {
				ids = []string{t.ID}
			}
		}
		if len(ids) > 0 {
			m.pendingDelete = ids
			m.confirmMode = confirmDelete
		}
	case "1":
		m.s.store.ToggleSort(playlist.SortName)
	case "2":
		m.s.store.ToggleSort(playlist.SortArtist)
	case "tab":
		m.s.producer.CycleMode()
	case "e":
		m.eqFocused = true
	case "y":
		m = m.copyTitle()
	}

	return m.refresh(), nil
}

// confirmDelete removes the pending tracks. Their locators are released by a
// follow-up message, after the view without them has been rendered.
func (m model) confirmDelete() (tea.Model, tea.Cmd) {
	ids := m.pendingDelete
	m.confirmMode = confirmNone
	m.pendingDelete = nil

	removed, release := m.s.remove(ids)
	m.message = fmt.Sprintf("removed %d tracks", len(removed))
	m = m.refresh()
	if len(removed) == 0 {
		return m, nil
	}
	return m, func() tea.Msg { return releaseMsg{release: release} }
}

func (m model) setSearch(text string) model {
	m.searchInput = text
	m.s.store.SetFilter(text)
	return m.refresh()
}

func (m model) moveCursor(delta int) model {
	m.cursor = max(0, min(len(m.view)-1, m.cursor+delta))
	return m
}

func (m model) nudgeGain(delta float64) model {
	c := m.s.machine.Chain()
	gains := c.Gains()
	if m.band >= len(gains) {
		return m
	}
	return m.report(c.SetGain(m.band, gains[m.band]+delta))
}

func (m model) copyTitle() model {
	t := m.status.Track
	if t == nil {
		t = m.cursorTrack()
	}
	if t == nil {
		return m
	}
	if err := clipboardWriteAll(t.Title()); err != nil {
		return m.report(fmt.Errorf("copy to clipboard: %w", err))
	}
	m.message = "copied " + t.Title()
	return m
}

func (m model) View() string {
	var b strings.Builder
	width := m.width
	if width < 10 {
		width = 90 // default width
	}

	b.WriteString("\n")
	b.WriteString(m.renderNowPlaying(width))
	b.WriteString("\n\n")
	b.WriteString(renderVisual(m.samples, min(width-4, 120), visualHeight))
	b.WriteString("\n")

	c := m.s.machine.Chain()
	eq := renderGains(c.Bands(), c.Gains(), m.focusedBand(), chain.MaxGainDB)
	if m.eqFocused {
		b.WriteString(searchStyle.Render(" EQ") + eq)
	} else {
		b.WriteString(helpStyle.Render(" EQ") + eq)
	}
	b.WriteString("\n\n  ")

	// Search box
	if m.searchFocused {
		b.WriteString(searchStyle.Render("Filter: [" + m.searchInput + "_]"))
	} else if m.searchInput != "" {
		b.WriteString(searchStyle.Render("Filter: [" + m.searchInput + "]"))
	} else {
		b.WriteString(helpStyle.Render("/ to filter"))
	}
	total := m.s.store.Len()
	if len(m.view) != total {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  [showing %d of %d]", len(m.view), total)))
	} else if total > 0 {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  [%d tracks, %s, %s in memory]", total, common.FormatClock(m.s.store.TotalDuration()), common.FormatBytes(m.s.locators.Size()))))
	}
	if m.loading > 0 {
		b.WriteString(warnStyle.Render("  loading..."))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderPlaylist(width))

	b.WriteString("\n")
	switch {
	case m.confirmMode == confirmDelete:
		b.WriteString(confirmStyle.Render(fmt.Sprintf("  Remove %d tracks? [y/n]", len(m.pendingDelete))))
	case m.message != "":
		b.WriteString(warnStyle.Render("  " + m.message))
	case m.eqFocused:
		b.WriteString(helpStyle.Render("  ←/→ band • ↑/↓ gain • 0 reset band • e/esc done"))
	default:
		b.WriteString(helpStyle.Render("  space play • n/p next/prev • ←/→ seek • +/- volume • s shuffle • r repeat • e eq • tab visual • / filter • x mark • d delete • y copy • q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m model) focusedBand() int {
	if !m.eqFocused {
		return -1
	}
	return m.band
}

func (m model) renderNowPlaying(width int) string {
	st := m.status
	title := "Nothing playing"
	if st.Track != nil {
		title = st.Track.Title()
	}
	state := st.State.String()
	line := fmt.Sprintf("  %-8s %s", state, common.TruncateWithEllipsis(title, max(20, width-12)))

	flags := fmt.Sprintf("vol %3.0f%% • repeat %s • %s • %s",
		st.Volume*100, st.Repeat, shuffleLabel(st.Shuffle), m.samples.Mode)

	elapsed, duration := common.FormatClock(st.Elapsed), common.FormatClock(st.Duration)
	if st.Track != nil && st.Elapsed < 1 {
		elapsed = "0:00"
	}
	barWidth := max(10, min(width-24, 80))
	filled := int(st.Progress() * float64(barWidth))
	progress := fmt.Sprintf("  %s %s%s %s", elapsed,
		strings.Repeat("━", filled), strings.Repeat("─", barWidth-filled), duration)

	var b strings.Builder
	if st.State == transport.Playing {
		b.WriteString(playingStyle.Render(line))
	} else {
		b.WriteString(headerStyle.Render(line))
	}
	b.WriteString("\n")
	b.WriteString(progress)
	b.WriteString("\n  ")
	b.WriteString(helpStyle.Render(flags))
	if !st.EffectsAvailable && st.EffectsErr != nil {
		b.WriteString(warnStyle.Render("  [effects unavailable]"))
	}
	return b.String()
}

func shuffleLabel(on bool) string {
	if on {
		return "shuffle"
	}
	return "in order"
}

func (m model) renderPlaylist(width int) string {
	var b strings.Builder
	if len(m.view) == 0 {
		if m.s.store.Len() == 0 {
			b.WriteString("  No tracks loaded\n")
		} else {
			b.WriteString("  No matches for \"" + m.searchInput + "\"\n")
		}
		return b.String()
	}

	key, dir := m.s.store.Sort()
	nameHdr := "NAME" + sortIndicator(key, dir, playlist.SortName)
	artistHdr := "ARTIST" + sortIndicator(key, dir, playlist.SortArtist)
	header := fmt.Sprintf("     %-30s %-40s %s", artistHdr, nameHdr, "TIME")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(strings.Repeat("─", min(width-2, 90))))
	b.WriteString("\n")

	rows := m.listHeight()
	start := max(0, min(m.cursor-rows/2, len(m.view)-rows))
	end := min(len(m.view), start+rows)
	var currentID string
	if m.status.Track != nil {
		currentID = m.status.Track.ID
	}

	for i := start; i < end; i++ {
		t := m.view[i]
		mark := "  "
		if t.ID == currentID {
			mark = "▶ "
		}
		sel := " "
		if m.s.store.IsSelected(t.ID) {
			sel = "*"
		}
		row := fmt.Sprintf("%s%s  %s %s %s", mark, sel,
			common.PadRight(common.TruncateWithEllipsis(t.Artist, 30), 30),
			common.PadRight(common.TruncateWithEllipsis(t.Name, 40), 40),
			common.FormatClock(t.Duration))

		switch {
		case i == m.cursor:
			b.WriteString(selectedStyle.Render(row))
		case t.ID == currentID:
			b.WriteString(playingStyle.Render(row))
		case sel == "*":
			b.WriteString(markedStyle.Render(row))
		default:
			b.WriteString(row)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// listHeight is the number of playlist rows that fit below the player.
func (m model) listHeight() int {
	if m.height <= 0 {
		return 20
	}
	return max(3, m.height-visualHeight-14)
}

func sortIndicator(key playlist.SortKey, dir playlist.Direction, col playlist.SortKey) string {
	if key != col {
		return ""
	}
	if dir == playlist.Desc {
		return " ▼"
	}
	return " ▲"
}

func runShell(ctx context.Context, s *session, paths []string, watched <-chan []ingest.File) error {
	p := tea.NewProgram(newModel(ctx, s, paths, watched), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("shell: %w", err)
	}
	return nil
}
