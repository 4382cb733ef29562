package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tonearm/tonearm/internal/keymap"
	"github.com/tonearm/tonearm/internal/playback"
	"github.com/tonearm/tonearm/internal/ui/playerbar"
	"github.com/tonearm/tonearm/internal/ui/render"
	"github.com/tonearm/tonearm/internal/ui/styles"
)

const (
	headerHeight   = 1
	footerHeight   = 1
	durationWidth  = 6
	markerWidth    = 2
	nowPlayingMark = "▶ "
)

// View renders the header, track list, player bar and footer.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	width := max(m.Width, 20)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(width),
		m.renderTracks(width),
		playerbar.Render(m.playerBarState(), width),
		m.renderFooter(width),
	)
}

// listHeight is the number of track rows that fit between header and bar.
func (m Model) listHeight() int {
	return max(m.Height-headerHeight-playerbar.Height-footerHeight, 1)
}

func (m Model) renderHeader(width int) string {
	st := styles.T().S()

	left := styles.ApplyGradient("tonearm", styles.T().Primary, styles.T().Secondary)
	switch {
	case m.Loading:
		left += " " + m.spinner.View() + st.Muted.Render(" scanning")
	default:
		left += st.Muted.Render(" " + humanize.Comma(int64(len(m.Tracks))) + " tracks")
	}

	var flags []string
	if m.Looping {
		flags = append(flags, st.Flag.Render("[loop]"))
	}
	if m.Shuffle {
		flags = append(flags, st.Flag.Render("[shuffle]"))
	}
	return render.Row(left, strings.Join(flags, " "), width)
}

func (m Model) renderTracks(width int) string {
	st := styles.T().S()
	height := m.listHeight()

	if len(m.Tracks) == 0 {
		msg := "No tracks found"
		if keys := m.keys.KeysFor(keymap.ActionRefreshLibrary); len(keys) > 0 {
			msg += " · press " + keys[0] + " to rescan"
		}
		if m.Loading {
			msg = "Scanning library…"
		}
		return lipgloss.NewStyle().Height(height).Render(st.Subtle.Render(render.Fit(msg, width)))
	}

	end := min(m.offset+height, len(m.Tracks))
	rows := make([]string, 0, height)
	for i := m.offset; i < end; i++ {
		rows = append(rows, m.renderTrackRow(i, width))
	}
	return lipgloss.NewStyle().Height(height).Render(strings.Join(rows, "\n"))
}

// renderTrackRow lays out marker, title, artist and duration columns.
func (m Model) renderTrackRow(i, width int) string {
	st := styles.T().S()
	t := m.Tracks[i]

	marker := strings.Repeat(" ", markerWidth)
	if i == m.CurrentIndex && m.State != playback.StateIdle {
		marker = nowPlayingMark
	}

	avail := max(width-markerWidth-durationWidth, 2)
	titleWidth := avail * 3 / 5
	artistWidth := avail - titleWidth

	dur := ""
	if t.Duration > 0 {
		dur = playerbar.FormatDuration(t.Duration)
	}
	line := marker +
		render.Fit(t.Title, titleWidth) +
		render.Fit(t.Artist, artistWidth) +
		render.Fit(strings.Repeat(" ", max(durationWidth-len(dur), 0))+dur, durationWidth)

	switch {
	case i == m.Selected:
		return st.Cursor.Render(line)
	case i == m.CurrentIndex && m.State != playback.StateIdle:
		return st.Playing.Render(line)
	}
	return st.Base.Render(line)
}

func (m Model) playerBarState() playerbar.State {
	s := playerbar.State{
		Playing:   m.State == playback.StatePlaying,
		Paused:    m.State == playback.StatePaused,
		Preparing: m.State == playback.StatePreparing,
		Position:  m.Position,
		Duration:  m.Duration,
	}
	if s.Active() {
		s.Title = m.Current.Title
		s.Artist = m.Current.Artist
		s.Album = m.Current.Album
	}
	return s
}

func (m Model) renderFooter(width int) string {
	st := styles.T().S()
	if m.LastError != "" {
		return st.Error.Render(render.Fit(m.LastError, width))
	}
	return st.Subtle.Render(render.Fit(m.keys.Help("playback"), width))
}
