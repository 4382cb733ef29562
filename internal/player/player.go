package player

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"

	"github.com/tonearm/tonearm/internal/logging"
)

// resampleQuality is beep's resampler quality for tracks whose rate differs
// from the output rate.
const resampleQuality = 4

// Player decodes one file at a time into an Output.
type Player struct {
	mu     sync.Mutex
	out    Output
	open   func(path string) (beep.StreamSeekCloser, beep.Format, error)
	logger *log.Logger

	state  State
	path   string
	gen    uint64 // bumped by Reset; stale goroutines compare against it
	stream beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl // nil until the stream is queued on the output

	looping atomic.Bool

	onPrepared   func()
	onCompletion func()
	onError      func(error)
}

// Option configures a Player.
type Option func(*Player)

// WithOutput replaces the system speaker.
func WithOutput(out Output) Option {
	return func(p *Player) { p.out = out }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Player) { p.logger = logging.OrDiscard(l) }
}

func New(opts ...Option) *Player {
	p := &Player{
		out:    defaultOutput,
		open:   openFile,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reset stops output, releases the current source and returns to Idle.
// Any prepare still running is abandoned.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

func (p *Player) resetLocked() {
	p.gen++
	if p.ctrl != nil {
		p.out.Clear()
		p.ctrl = nil
	}
	if p.stream != nil {
		if err := p.stream.Close(); err != nil {
			p.logger.Debug("close stream", "path", p.path, "err", err)
		}
		p.stream = nil
	}
	p.format = beep.Format{}
	p.path = ""
	p.state = Idle
}

// SetSource selects the file to play. Valid only in Idle.
func (p *Player) SetSource(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Idle {
		return fmt.Errorf("%w: set source in %s", ErrInvalidState, p.state)
	}
	if !CanDecode(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotFound, path)
	}

	p.path = path
	p.state = Initialized
	return nil
}

// PrepareAsync opens and decodes the source header on a goroutine, then
// reports through the prepared or error handler.
func (p *Player) PrepareAsync() {
	p.mu.Lock()
	if p.state != Initialized {
		p.logger.Warn("prepare ignored", "state", p.state)
		p.mu.Unlock()
		return
	}
	p.state = Preparing
	gen, path := p.gen, p.path
	p.mu.Unlock()

	go p.prepare(gen, path)
}

func (p *Player) prepare(gen uint64, path string) {
	stream, format, err := p.open(path)

	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		if stream != nil {
			stream.Close()
		}
		return
	}
	if err != nil {
		p.state = Error
		handler := p.onError
		p.mu.Unlock()
		if handler != nil {
			handler(fmt.Errorf("decode %s: %w", path, err))
		}
		return
	}
	p.stream = stream
	p.format = format
	p.state = Prepared
	handler := p.onPrepared
	p.mu.Unlock()

	if handler != nil {
		handler()
	}
}

// Start begins output, resumes after Pause, or replays a completed track
// from the beginning.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case Started:
		return nil
	case Paused:
		p.out.Lock()
		p.ctrl.Paused = false
		p.out.Unlock()
		p.state = Started
		return nil
	case Completed:
		if err := p.stream.Seek(0); err != nil {
			return err
		}
		fallthrough
	case Prepared:
		if err := p.queueLocked(); err != nil {
			p.state = Error
			return err
		}
		p.state = Started
		return nil
	case Idle, Initialized, Preparing, Error:
	}
	return fmt.Errorf("%w: start in %s", ErrInvalidState, p.state)
}

// queueLocked hands the stream to the output, wrapped for looping and
// resampling, followed by an end-of-stream callback.
func (p *Player) queueLocked() error {
	if err := p.out.Init(p.format.SampleRate); err != nil {
		return fmt.Errorf("init audio output: %w", err)
	}

	var s beep.Streamer = &loopStreamer{src: p.stream, looping: &p.looping}
	if outRate := p.out.SampleRate(); p.format.SampleRate != outRate {
		s = beep.Resample(resampleQuality, p.format.SampleRate, outRate, s)
	}
	p.ctrl = &beep.Ctrl{Streamer: s}

	gen := p.gen
	// The callback runs under the output lock; finishing needs p.mu.
	p.out.Play(beep.Seq(p.ctrl, beep.Callback(func() { go p.finished(gen) })))
	return nil
}

func (p *Player) finished(gen uint64) {
	p.mu.Lock()
	if p.gen != gen || p.state != Started {
		p.mu.Unlock()
		return
	}
	p.ctrl = nil

	if err := p.stream.Err(); err != nil {
		p.state = Error
		handler := p.onError
		path := p.path
		p.mu.Unlock()
		if handler != nil {
			handler(fmt.Errorf("decode %s: %w", path, err))
		}
		return
	}

	p.state = Completed
	handler := p.onCompletion
	p.mu.Unlock()
	if handler != nil {
		handler()
	}
}

// Pause suspends output. Valid only while Started.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Started || p.ctrl == nil {
		return
	}
	p.out.Lock()
	p.ctrl.Paused = true
	p.out.Unlock()
	p.state = Paused
}

// SeekTo moves to pos, clamped to the stream. Seeking a completed track
// makes it Prepared again.
func (p *Player) SeekTo(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.state.HasStream() {
		return fmt.Errorf("%w: seek in %s", ErrInvalidState, p.state)
	}

	n := p.format.SampleRate.N(max(pos, 0))
	n = min(n, max(p.stream.Len()-1, 0))

	p.out.Lock()
	err := p.stream.Seek(n)
	p.out.Unlock()
	if err != nil {
		return err
	}
	// A completed stream that was moved plays from there on the next Start.
	if p.state == Completed {
		p.state = Prepared
	}
	return nil
}

// Position returns the playback position, or 0 without a stream.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return 0
	}
	p.out.Lock()
	n := p.stream.Position()
	p.out.Unlock()
	return p.format.SampleRate.D(n)
}

// Duration returns the stream length, or 0 without a stream.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return 0
	}
	return p.format.SampleRate.D(p.stream.Len())
}

func (p *Player) IsPlaying() bool {
	return p.State() == Started
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetLooping makes the end of the stream rewind to the start instead of
// completing. It takes effect immediately.
func (p *Player) SetLooping(looping bool) {
	p.looping.Store(looping)
}

func (p *Player) Looping() bool {
	return p.looping.Load()
}

func (p *Player) OnPrepared(fn func()) {
	p.mu.Lock()
	p.onPrepared = fn
	p.mu.Unlock()
}

func (p *Player) OnCompletion(fn func()) {
	p.mu.Lock()
	p.onCompletion = fn
	p.mu.Unlock()
}

func (p *Player) OnError(fn func(error)) {
	p.mu.Lock()
	p.onError = fn
	p.mu.Unlock()
}

// Close resets the player and drops its handlers.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	p.onPrepared = nil
	p.onCompletion = nil
	p.onError = nil
}
