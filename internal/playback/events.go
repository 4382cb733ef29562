package playback

import (
	"path/filepath"
	"time"

	"github.com/tonearm/tonearm/internal/errmsg"
	"github.com/tonearm/tonearm/internal/library"
)

// StateChange is emitted when the session state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when Load moves the cursor to a track.
//
// Emitted by Load, PlayNext and PlayPrevious before the decoder is
// prepared, and when a library refresh moves the loaded track to another
// index. Previous is nil when nothing was loaded.
type TrackChange struct {
	Previous      *library.Track
	Current       *library.Track
	PreviousIndex int
	Index         int
}

// DurationChange is emitted once the decoder has prepared the current track
// and playback has started. The UI treats it as "now playing".
type DurationChange struct {
	Track    library.Track
	Index    int
	Duration time.Duration
}

// QueueChange is emitted when the track list is replaced.
type QueueChange struct {
	Tracks []library.Track
	Index  int
}

// ModeChange is emitted when looping or shuffle changes.
type ModeChange struct {
	Looping bool
	Shuffle bool
}

// PositionChange is emitted when a seek occurs.
type PositionChange struct {
	Position time.Duration
}

// ErrorEvent is emitted when a load or playback fails.
type ErrorEvent struct {
	Op   errmsg.Op
	Path string
	Err  error
}

// Message formats the event as a user-facing line naming the file.
func (e ErrorEvent) Message() string {
	if e.Path == "" {
		return errmsg.Format(e.Op, e.Err)
	}
	return errmsg.FormatWith(e.Op, filepath.Base(e.Path), e.Err)
}
