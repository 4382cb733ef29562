// Package playback owns the playback session: the track list, the cursor,
// the mode flags and the decoder that plays the current track.
package playback

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tonearm/tonearm/internal/errmsg"
	"github.com/tonearm/tonearm/internal/library"
	"github.com/tonearm/tonearm/internal/logging"
	"github.com/tonearm/tonearm/internal/player"
)

// Service is the controller surface the UI and media keys drive.
type Service interface {
	// Track list
	SetTracks(tracks []library.Track)
	Tracks() []library.Track

	// Navigation
	Load(index int)
	PlayNext()
	PlayPrevious()

	// Transport
	TogglePlayPause()
	Pause()
	Resume()
	SeekTo(position time.Duration)

	// Modes
	SetLooping(enabled bool)
	SetShuffle(enabled bool)

	// State queries
	State() State
	IsPlaying() bool
	CurrentIndex() int
	CurrentTrack() (library.Track, bool)
	Position() time.Duration
	Duration() time.Duration
	Looping() bool
	Shuffle() bool

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}

// Verify Controller implements Service at compile time.
var _ Service = (*Controller)(nil)

// Controller is the single long-lived playback session of the process.
// Every mutation happens under mu, including the decoder callbacks.
type Controller struct {
	mu sync.Mutex

	dec         player.Decoder
	logger      *log.Logger
	autoAdvance bool
	randIntN    func(n int) int

	tracks  []library.Track
	index   int
	restore int // cursor to fall back to if the pending load fails
	state   State
	looping bool
	shuffle bool
	closed  bool

	subs   []*Subscription
	subsMu sync.RWMutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for load and playback failures.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = logging.OrDiscard(l) }
}

// WithAutoAdvance controls whether the end of a track plays the next one.
// When disabled the session pauses at the end of the track.
func WithAutoAdvance(enabled bool) Option {
	return func(c *Controller) { c.autoAdvance = enabled }
}

// WithRandom replaces the shuffle source. fn must return a value in [0, n).
func WithRandom(fn func(n int) int) Option {
	return func(c *Controller) { c.randIntN = fn }
}

// New creates a controller driving dec and registers its callbacks.
func New(dec player.Decoder, opts ...Option) *Controller {
	c := &Controller{
		dec:         dec,
		logger:      logging.Discard(),
		autoAdvance: true,
		randIntN:    rand.IntN,
		index:       -1,
		restore:     -1,
	}
	for _, opt := range opts {
		opt(c)
	}

	dec.OnPrepared(c.handlePrepared)
	dec.OnCompletion(c.handleCompletion)
	dec.OnError(c.handleError)
	return c
}

// SetTracks replaces the track list. A loaded track that is still present
// keeps playing at its new index; otherwise the session goes back to Idle.
func (c *Controller) SetTracks(tracks []library.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	old := c.tracks
	c.tracks = slices.Clone(tracks)

	if c.restore >= 0 && c.restore < len(old) {
		c.restore = library.IndexOf(c.tracks, old[c.restore])
	} else {
		c.restore = -1
	}

	if c.index >= 0 {
		cur := old[c.index]
		prevIndex := c.index
		switch j := library.IndexOf(c.tracks, cur); {
		case j < 0:
			c.dec.Reset()
			c.index = -1
			c.restore = -1
			c.setStateLocked(StateIdle)
			c.emitTrack(TrackChange{Previous: &cur, PreviousIndex: prevIndex, Index: -1})
		case j != prevIndex:
			c.index = j
			next := c.tracks[j]
			c.emitTrack(TrackChange{Previous: &cur, Current: &next, PreviousIndex: prevIndex, Index: j})
		}
	}

	c.emitQueue(QueueChange{Tracks: slices.Clone(c.tracks), Index: c.index})
}

// Tracks returns a copy of the track list.
func (c *Controller) Tracks() []library.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tracks)
}

// Load plays the track at index. Out-of-range indices are ignored.
func (c *Controller) Load(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.loadLocked(index, c.index)
}

// loadLocked moves the cursor to index and starts preparing its track.
// restore is where the cursor goes if this load fails.
func (c *Controller) loadLocked(index, restore int) {
	if index < 0 || index >= len(c.tracks) {
		return
	}

	prevIndex := c.index
	c.index = index
	c.restore = restore

	t := c.tracks[index]
	ev := TrackChange{Current: &t, PreviousIndex: prevIndex, Index: index}
	if prevIndex >= 0 {
		prev := c.tracks[prevIndex]
		ev.Previous = &prev
	}
	c.emitTrack(ev)

	c.dec.Reset()
	c.dec.SetLooping(c.looping)
	if err := c.dec.SetSource(t.Path); err != nil {
		c.failLoadLocked(errmsg.OpTrackLoad, err)
		return
	}
	c.setStateLocked(StatePreparing)
	c.dec.PrepareAsync()
}

// PlayNext advances the cursor, at random under shuffle, and loads it.
func (c *Controller) PlayNext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.playNextLocked()
}

func (c *Controller) playNextLocked() {
	n := len(c.tracks)
	if n == 0 {
		return
	}
	var next int
	if c.shuffle {
		next = c.randIntN(n)
	} else {
		next = (c.index + 1) % n
	}
	c.loadLocked(next, next)
}

// PlayPrevious moves the cursor back, at random under shuffle, and loads it.
func (c *Controller) PlayPrevious() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	n := len(c.tracks)
	if n == 0 {
		return
	}
	var prev int
	switch {
	case c.shuffle:
		prev = c.randIntN(n)
	case c.index < 0:
		prev = n - 1
	default:
		prev = (c.index - 1 + n) % n
	}
	c.loadLocked(prev, prev)
}

// TogglePlayPause pauses while playing and resumes while paused.
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StatePlaying:
		c.pauseLocked()
	case StatePaused:
		c.resumeLocked()
	case StateIdle, StatePreparing:
	}
}

// Pause suspends playback. Only valid while playing.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

// pauseLocked pauses a started decoder. A decoder that already reached the
// end is completed here; its pending completion callback then finds the
// session moved on and is dropped.
func (c *Controller) pauseLocked() {
	if c.state != StatePlaying {
		return
	}
	switch c.dec.State() {
	case player.Completed:
		c.completeLocked()
		return
	case player.Error:
		return
	}
	c.dec.Pause()
	c.setStateLocked(StatePaused)
}

// Resume continues playback. A track paused at its end starts over.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeLocked()
}

func (c *Controller) resumeLocked() {
	if c.state != StatePaused {
		return
	}
	if err := c.dec.Start(); err != nil {
		c.failPlaybackLocked(errmsg.OpPlaybackStart, err)
		return
	}
	c.setStateLocked(StatePlaying)
}

// SeekTo moves the playback position, clamped to the track.
func (c *Controller) SeekTo(position time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.IsActive() {
		return
	}

	position = min(max(position, 0), c.dec.Duration())
	if err := c.dec.SeekTo(position); err != nil {
		c.logger.Warn("seek failed", "position", position, "err", err)
		c.emitError(ErrorEvent{Op: errmsg.OpPlaybackSeek, Path: c.currentPathLocked(), Err: err})
		return
	}
	c.emitPosition(position)
}

// SetLooping sets whether the current and every later track repeats.
func (c *Controller) SetLooping(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.looping = enabled
	c.dec.SetLooping(enabled)
	c.emitMode(ModeChange{Looping: c.looping, Shuffle: c.shuffle})
}

// SetShuffle sets whether next and previous pick a random track.
func (c *Controller) SetShuffle(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuffle = enabled
	c.emitMode(ModeChange{Looping: c.looping, Shuffle: c.shuffle})
}

// State returns the session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsPlaying reports whether audio is playing.
func (c *Controller) IsPlaying() bool {
	return c.State() == StatePlaying
}

// CurrentIndex returns the cursor, or -1 if none.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// CurrentTrack returns the track under the cursor.
func (c *Controller) CurrentTrack() (library.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index < 0 {
		return library.Track{}, false
	}
	return c.tracks[c.index], true
}

// Position returns the playback position, or 0 when nothing is prepared.
func (c *Controller) Position() time.Duration {
	return c.dec.Position()
}

// Duration returns the decoded length of the current track, or 0 when
// nothing is prepared.
func (c *Controller) Duration() time.Duration {
	return c.dec.Duration()
}

func (c *Controller) Looping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.looping
}

func (c *Controller) Shuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shuffle
}

// Subscribe creates a new event subscription.
func (c *Controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	if c.closed {
		sub.close()
		return sub
	}
	c.subs = append(c.subs, sub)
	return sub
}

// Close releases the decoder and ends all subscriptions.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.dec.Close()
	c.subsMu.Lock()
	c.closed = true
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsMu.Unlock()
	c.mu.Unlock()
	return nil
}

// Decoder callbacks. Each one re-checks both states: a callback can race a
// newer Load or a Reset and must then do nothing.

func (c *Controller) handlePrepared() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StatePreparing || c.dec.State() != player.Prepared {
		return
	}

	if err := c.dec.Start(); err != nil {
		c.failLoadLocked(errmsg.OpPlaybackStart, err)
		return
	}
	c.setStateLocked(StatePlaying)

	t := c.tracks[c.index]
	c.logger.Debug("playing", "path", t.Path, "index", c.index)
	c.emitDuration(DurationChange{Track: t, Index: c.index, Duration: c.dec.Duration()})
}

func (c *Controller) handleCompletion() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StatePlaying || c.dec.State() != player.Completed {
		return
	}
	c.completeLocked()
}

// completeLocked handles the end of the current track.
func (c *Controller) completeLocked() {
	if c.autoAdvance {
		c.playNextLocked()
		return
	}
	c.setStateLocked(StatePaused)
}

func (c *Controller) handleError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.dec.State() != player.Error {
		return
	}

	switch c.state {
	case StatePreparing:
		c.failLoadLocked(errmsg.OpTrackPrepare, err)
	case StatePlaying, StatePaused:
		c.failPlaybackLocked(errmsg.OpPlayback, err)
	case StateIdle:
	}
}

// failLoadLocked reports a load that never reached playback and puts the
// cursor back where it was before the load.
func (c *Controller) failLoadLocked(op errmsg.Op, err error) {
	path := c.currentPathLocked()
	c.logger.Error("load failed", "op", op, "path", path, "err", err)
	c.emitError(ErrorEvent{Op: op, Path: path, Err: err})

	c.dec.Reset()
	failedIndex := c.index
	if c.restore != c.index {
		c.index = c.restore
		ev := TrackChange{PreviousIndex: failedIndex, Index: c.index}
		if failedIndex >= 0 {
			failed := c.tracks[failedIndex]
			ev.Previous = &failed
		}
		if c.index >= 0 {
			restored := c.tracks[c.index]
			ev.Current = &restored
		}
		c.emitTrack(ev)
	}
	c.setStateLocked(StateIdle)
}

// failPlaybackLocked reports an error on a track that was playing. The
// cursor stays on the track.
func (c *Controller) failPlaybackLocked(op errmsg.Op, err error) {
	path := c.currentPathLocked()
	c.logger.Error("playback failed", "op", op, "path", path, "err", err)
	c.emitError(ErrorEvent{Op: op, Path: path, Err: err})
	c.dec.Reset()
	c.setStateLocked(StateIdle)
}

func (c *Controller) currentPathLocked() string {
	if c.index < 0 {
		return ""
	}
	return c.tracks[c.index].Path
}

func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	prev := c.state
	c.state = s
	c.emitState(StateChange{Previous: prev, Current: s})
}
