// Package playerbar renders the now-playing bar at the bottom of the screen.
package playerbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tonearm/tonearm/internal/ui/render"
	"github.com/tonearm/tonearm/internal/ui/styles"
)

const (
	playSymbol    = "▶"
	pauseSymbol   = "⏸"
	loadingSymbol = "…"

	minBarWidth = 10
	separator   = "   "
)

// Height is the rendered height including borders.
const Height = 3

// State holds everything needed to render the player bar.
type State struct {
	Playing   bool
	Paused    bool
	Preparing bool
	Title     string
	Artist    string
	Album     string
	Position  time.Duration
	Duration  time.Duration
}

// Active reports whether a track is loaded.
func (s State) Active() bool {
	return s.Playing || s.Paused || s.Preparing
}

// Render returns the player bar for the given width.
func Render(s State, width int) string {
	st := styles.T().S()
	innerWidth := max(width-6, 0) // border and padding

	if !s.Active() {
		return st.Bar.Padding(0, 2).Width(max(width-2, 0)).Render(
			st.Subtle.Render(render.Truncate("Nothing playing", innerWidth)))
	}

	status := playSymbol
	switch {
	case s.Preparing:
		status = loadingSymbol
	case s.Paused:
		status = pauseSymbol
	}

	title := render.Sanitize(s.Title)
	info := render.Sanitize(joinInfo(s.Artist, s.Album))
	timeStr := FormatDuration(s.Position) + " / " + FormatDuration(s.Duration)

	sepWidth := lipgloss.Width(separator)
	fixed := lipgloss.Width(status) + 2 + lipgloss.Width(timeStr) + sepWidth*2
	available := max(innerWidth-fixed-minBarWidth, 0)

	titleWidth := lipgloss.Width(title)
	infoWidth := lipgloss.Width(info)

	var content string
	var used int
	switch {
	case titleWidth+sepWidth+infoWidth <= available:
		content = st.Title.Render(title) + separator + st.Muted.Render(info)
		used = titleWidth + sepWidth + infoWidth
	case titleWidth+sepWidth < available && info != "":
		room := available - titleWidth - sepWidth
		content = st.Title.Render(title) + separator + st.Muted.Render(render.Truncate(info, room))
		used = available
	default:
		t := render.Truncate(title, available)
		content = st.Title.Render(t)
		used = lipgloss.Width(t)
	}

	barWidth := max(innerWidth-used-fixed, 1)

	var b strings.Builder
	b.WriteString(content)
	b.WriteString(separator)
	b.WriteString(status)
	b.WriteString("  ")
	b.WriteString(ProgressBar(s.Position, s.Duration, barWidth))
	b.WriteString(separator)
	b.WriteString(st.Muted.Render(timeStr))

	return st.Bar.Padding(0, 2).Width(max(width-2, 0)).Render(b.String())
}

// ProgressBar renders a width-cell bar whose filled part fades from the
// primary to the secondary theme color.
func ProgressBar(position, duration time.Duration, width int) string {
	if width <= 0 {
		return ""
	}
	var ratio float64
	if duration > 0 {
		ratio = min(max(float64(position)/float64(duration), 0), 1)
	}
	filled := int(float64(width) * ratio)

	t := styles.T()
	return styles.ApplyGradient(strings.Repeat("━", filled), t.Primary, t.Secondary) +
		t.S().Subtle.Render(strings.Repeat("─", width-filled))
}

// FormatDuration formats d as mm:ss. Hours fold into minutes.
func FormatDuration(d time.Duration) string {
	d = max(d, 0)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func joinInfo(artist, album string) string {
	var parts []string
	for _, p := range []string{artist, album} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " · ")
}
