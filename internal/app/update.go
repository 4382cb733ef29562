package app

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonearm/tonearm/internal/library"
	"github.com/tonearm/tonearm/internal/playback"
)

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.scrollToSelection()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case LibraryMessage:
		return m.handleLibraryMsg(msg)

	case PlaybackMessage:
		return m.handlePlaybackMsg(msg)
	}
	return m, nil
}

func (m Model) handleLibraryMsg(msg LibraryMessage) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(LibraryLoadedMsg); ok {
		m.Loading = false
		m.Tracks = msg.Tracks
		m.service.SetTracks(msg.Tracks)
		m.logger.Info("library loaded", "tracks", len(msg.Tracks))
		m.Selected = min(m.Selected, max(len(m.Tracks)-1, 0))
		m.poll()
		m.scrollToSelection()
	}
	return m, nil
}

// handlePlaybackMsg routes controller messages. Events only refresh the
// snapshot and re-arm the watcher.
func (m Model) handlePlaybackMsg(msg PlaybackMessage) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if m.quitting {
			return m, nil
		}
		m.poll()
		return m, TickCmd(m.interval)

	case ServiceStateChangedMsg:
		m.State = msg.Current
		m.Playing = msg.Current == playback.StatePlaying
		return m, m.WatchServiceEvents()

	case ServiceTrackChangedMsg:
		m.CurrentIndex = msg.Index
		m.Current = library.Track{}
		if msg.Track != nil {
			m.Current = *msg.Track
		}
		return m, m.WatchServiceEvents()

	case ServiceDurationChangedMsg:
		m.Current = msg.Track
		m.CurrentIndex = msg.Index
		m.Duration = msg.Duration
		m.LastError = ""
		return m, tea.Batch(m.WatchServiceEvents(), m.notifyCmd(msg.Track))

	case ServicePositionChangedMsg:
		m.Position = msg.Position
		return m, m.WatchServiceEvents()

	case ServiceModeChangedMsg:
		m.Looping, m.Shuffle = msg.Looping, msg.Shuffle
		return m, m.WatchServiceEvents()

	case ServiceQueueChangedMsg:
		m.CurrentIndex = msg.Index
		return m, m.WatchServiceEvents()

	case ServiceErrorMsg:
		m.LastError = msg.Message
		return m, m.WatchServiceEvents()

	case ServiceClosedMsg:
		return m, nil
	}
	return m, nil
}
