package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonearm/tonearm/internal/errmsg"
	"github.com/tonearm/tonearm/internal/library"
)

// TickCmd returns a command that sends TickMsg after interval.
func TickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// WatchServiceEvents returns a command that waits for the next controller
// event and converts it to a message. Handlers re-arm it.
func (m Model) WatchServiceEvents() tea.Cmd {
	sub := m.sub
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return ServiceStateChangedMsg{Previous: e.Previous, Current: e.Current}
		case e := <-sub.TrackChanged:
			return ServiceTrackChangedMsg{Index: e.Index, Track: e.Current}
		case e := <-sub.DurationChanged:
			return ServiceDurationChangedMsg{Track: e.Track, Index: e.Index, Duration: e.Duration}
		case e := <-sub.PositionChanged:
			return ServicePositionChangedMsg{Position: e.Position}
		case e := <-sub.ModeChanged:
			return ServiceModeChangedMsg{Looping: e.Looping, Shuffle: e.Shuffle}
		case e := <-sub.QueueChanged:
			return ServiceQueueChangedMsg{Index: e.Index}
		case e := <-sub.Error:
			return ServiceErrorMsg{Message: e.Message(), Err: e.Err}
		case <-sub.Done:
			return ServiceClosedMsg{}
		}
	}
}

// loadLibraryCmd runs the loader off the UI goroutine.
func loadLibraryCmd(ctx context.Context, loader LibraryLoader) tea.Cmd {
	return func() tea.Msg {
		return LibraryLoadedMsg{Tracks: loader.Load(ctx)}
	}
}

// notifyCmd announces a started track. Failures are logged only.
func (m Model) notifyCmd(t library.Track) tea.Cmd {
	if m.notifier == nil {
		return nil
	}
	n, logger := m.notifier, m.logger
	return func() tea.Msg {
		if err := n.Show(t.Title, t.Artist, t.Album, library.CoverArt(t.Path)); err != nil {
			logger.Warn(errmsg.Format(errmsg.OpNotify, err), "path", t.Path)
		}
		return nil
	}
}
