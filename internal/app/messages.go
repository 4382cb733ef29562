// Package app is the terminal UI: it holds the snapshot of the playback
// session that the view renders and turns key presses into controller calls.
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonearm/tonearm/internal/library"
	"github.com/tonearm/tonearm/internal/playback"
)

// Message category interfaces for type-based routing in Update().

// PlaybackMessage is implemented by messages that carry controller state.
type PlaybackMessage interface {
	tea.Msg
	playbackMessage()
}

// LibraryMessage is implemented by messages related to library loading.
type LibraryMessage interface {
	tea.Msg
	libraryMessage()
}

// TickMsg is sent every poll interval to sample the controller.
type TickMsg time.Time

func (TickMsg) playbackMessage() {}

// LibraryLoadedMsg carries the result of a library load or refresh.
type LibraryLoadedMsg struct {
	Tracks []library.Track
}

func (LibraryLoadedMsg) libraryMessage() {}

// ServiceStateChangedMsg is sent when the session state changes.
type ServiceStateChangedMsg struct {
	Previous, Current playback.State
}

func (ServiceStateChangedMsg) playbackMessage() {}

// ServiceTrackChangedMsg is sent when the cursor moves.
type ServiceTrackChangedMsg struct {
	Index int
	Track *library.Track
}

func (ServiceTrackChangedMsg) playbackMessage() {}

// ServiceDurationChangedMsg is sent once a track is prepared and playing.
type ServiceDurationChangedMsg struct {
	Track    library.Track
	Index    int
	Duration time.Duration
}

func (ServiceDurationChangedMsg) playbackMessage() {}

// ServicePositionChangedMsg is sent after a seek.
type ServicePositionChangedMsg struct {
	Position time.Duration
}

func (ServicePositionChangedMsg) playbackMessage() {}

// ServiceModeChangedMsg is sent when looping or shuffle changes.
type ServiceModeChangedMsg struct {
	Looping, Shuffle bool
}

func (ServiceModeChangedMsg) playbackMessage() {}

// ServiceQueueChangedMsg is sent when the controller's track list is
// replaced.
type ServiceQueueChangedMsg struct {
	Index int
}

func (ServiceQueueChangedMsg) playbackMessage() {}

// ServiceErrorMsg is sent when a load or playback fails.
type ServiceErrorMsg struct {
	Message string
	Err     error
}

func (ServiceErrorMsg) playbackMessage() {}

// ServiceClosedMsg is sent when the controller is closed.
type ServiceClosedMsg struct{}

func (ServiceClosedMsg) playbackMessage() {}
