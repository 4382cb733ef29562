package player

import (
	"fmt"
	"sync"
	"time"
)

// Mock is a test double for Player. Preparation and end of stream are
// driven by the test through CompletePrepare, FailPrepare, Finish and Fail.
type Mock struct {
	mu        sync.Mutex
	state     State
	path      string
	looping   bool
	position  time.Duration
	duration  time.Duration
	sourceErr map[string]error
	startErr  error

	resets    int
	sources   []string
	seekCalls []time.Duration

	onPrepared   func()
	onCompletion func()
	onError      func(error)
}

// NewMock creates a new mock decoder for testing.
func NewMock() *Mock {
	return &Mock{sourceErr: make(map[string]error)}
}

func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	m.state = Idle
	m.path = ""
	m.position = 0
}

func (m *Mock) SetSource(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Idle {
		return fmt.Errorf("%w: set source in %s", ErrInvalidState, m.state)
	}
	m.sources = append(m.sources, path)
	if err := m.sourceErr[path]; err != nil {
		return err
	}
	m.path = path
	m.state = Initialized
	return nil
}

func (m *Mock) PrepareAsync() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Initialized {
		m.state = Preparing
	}
}

func (m *Mock) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case Prepared, Paused, Completed, Started:
		if m.startErr != nil {
			return m.startErr
		}
		if m.state == Completed {
			m.position = 0
		}
		m.state = Started
		return nil
	case Idle, Initialized, Preparing, Error:
	}
	return fmt.Errorf("%w: start in %s", ErrInvalidState, m.state)
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Started {
		m.state = Paused
	}
}

func (m *Mock) SeekTo(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.HasStream() {
		return fmt.Errorf("%w: seek in %s", ErrInvalidState, m.state)
	}
	m.seekCalls = append(m.seekCalls, pos)
	m.position = min(max(pos, 0), m.duration)
	if m.state == Completed {
		m.state = Prepared
	}
	return nil
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.HasStream() {
		return 0
	}
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.HasStream() {
		return 0
	}
	return m.duration
}

func (m *Mock) IsPlaying() bool { return m.State() == Started }

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) SetLooping(looping bool) {
	m.mu.Lock()
	m.looping = looping
	m.mu.Unlock()
}

func (m *Mock) Looping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.looping
}

func (m *Mock) OnPrepared(fn func()) {
	m.mu.Lock()
	m.onPrepared = fn
	m.mu.Unlock()
}

func (m *Mock) OnCompletion(fn func()) {
	m.mu.Lock()
	m.onCompletion = fn
	m.mu.Unlock()
}

func (m *Mock) OnError(fn func(error)) {
	m.mu.Lock()
	m.onError = fn
	m.mu.Unlock()
}

func (m *Mock) Close() {
	m.Reset()
	m.mu.Lock()
	m.onPrepared, m.onCompletion, m.onError = nil, nil, nil
	m.mu.Unlock()
}

// Test helpers

// CompletePrepare finishes a pending prepare and calls the prepared handler.
func (m *Mock) CompletePrepare() {
	m.mu.Lock()
	if m.state != Preparing {
		m.mu.Unlock()
		return
	}
	m.state = Prepared
	handler := m.onPrepared
	m.mu.Unlock()
	if handler != nil {
		handler()
	}
}

// FailPrepare fails a pending prepare and calls the error handler.
func (m *Mock) FailPrepare(err error) {
	m.mu.Lock()
	if m.state != Preparing {
		m.mu.Unlock()
		return
	}
	m.state = Error
	handler := m.onError
	m.mu.Unlock()
	if handler != nil {
		handler(err)
	}
}

// Finish simulates the end of the stream. While looping the mock rewinds
// and keeps playing, as Player does.
func (m *Mock) Finish() {
	m.mu.Lock()
	if m.state != Started {
		m.mu.Unlock()
		return
	}
	if m.looping {
		m.position = 0
		m.mu.Unlock()
		return
	}
	m.state = Completed
	m.position = m.duration
	handler := m.onCompletion
	m.mu.Unlock()
	if handler != nil {
		handler()
	}
}

// FinishDeferred ends the stream like Finish but returns the completion
// call instead of making it, so a test can act in between.
func (m *Mock) FinishDeferred() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Started || m.looping {
		return func() {}
	}
	m.state = Completed
	m.position = m.duration
	handler := m.onCompletion
	return func() {
		if handler != nil {
			handler()
		}
	}
}

// Fail simulates a decode error during playback.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	m.state = Error
	handler := m.onError
	m.mu.Unlock()
	if handler != nil {
		handler(err)
	}
}

func (m *Mock) SetSourceError(path string, err error) {
	m.mu.Lock()
	m.sourceErr[path] = err
	m.mu.Unlock()
}

func (m *Mock) SetStartError(err error) {
	m.mu.Lock()
	m.startErr = err
	m.mu.Unlock()
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	m.position = d
	m.mu.Unlock()
}

func (m *Mock) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

func (m *Mock) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

func (m *Mock) Sources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sources...)
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}
