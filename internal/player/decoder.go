// Package player drives audio decoding and output for one track at a time.
package player

import (
	"errors"
	"time"
)

var (
	// ErrUnsupportedFormat is returned by SetSource for files no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrNotFound is returned by SetSource when the file does not exist.
	ErrNotFound = errors.New("audio file not found")
	// ErrInvalidState is returned when an operation is not valid in the current state.
	ErrInvalidState = errors.New("invalid decoder state")
)

// State is the lifecycle state of a decoder.
//
//	Idle ──SetSource──▶ Initialized ──PrepareAsync──▶ Preparing ──▶ Prepared
//	                                                      │            │ Start
//	                                                      ▼            ▼
//	                                                    Error       Started ◀──▶ Paused
//	                                                                   │
//	                                                                   ▼
//	                                                               Completed ──Start──▶ Started
//
// Reset returns to Idle from any state.
type State int

const (
	Idle State = iota
	Initialized
	Preparing
	Prepared
	Started
	Paused
	Completed
	Error
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Initialized:
		return "Initialized"
	case Preparing:
		return "Preparing"
	case Prepared:
		return "Prepared"
	case Started:
		return "Started"
	case Paused:
		return "Paused"
	case Completed:
		return "Completed"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// HasStream reports whether a decoded stream is available for seeking and
// position queries.
func (s State) HasStream() bool {
	return s == Prepared || s == Started || s == Paused || s == Completed
}

// Decoder is the audio handle the playback controller drives.
//
// Handlers run on decoder goroutines and never while the decoder holds its
// own lock, so they may call back into the decoder. A handler can race with
// Reset; receivers confirm with State before acting.
type Decoder interface {
	Reset()
	SetSource(path string) error
	PrepareAsync()
	Start() error
	Pause()
	SeekTo(pos time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	IsPlaying() bool
	State() State
	SetLooping(looping bool)
	Looping() bool
	OnPrepared(fn func())
	OnCompletion(fn func())
	OnError(fn func(error))
	Close()
}

// Verify implementations at compile time.
var (
	_ Decoder = (*Player)(nil)
	_ Decoder = (*Mock)(nil)
)
