package playback

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tonearm/tonearm/internal/errmsg"
	"github.com/tonearm/tonearm/internal/library"
	"github.com/tonearm/tonearm/internal/player"
)

func testTracks(n int) []library.Track {
	tracks := make([]library.Track, n)
	for i := range tracks {
		tracks[i] = library.Track{
			ID:          int64(i + 1),
			Title:       fmt.Sprintf("Song %d", i+1),
			Artist:      "Artist",
			Album:       "Album",
			Duration:    3 * time.Minute,
			Path:        fmt.Sprintf("/music/%02d.mp3", i+1),
			DisplayName: fmt.Sprintf("%02d.mp3", i+1),
		}
	}
	return tracks
}

func newTestController(t *testing.T, n int, opts ...Option) (*Controller, *player.Mock) {
	t.Helper()
	m := player.NewMock()
	m.SetDuration(3 * time.Minute)
	c := New(m, opts...)
	c.SetTracks(testTracks(n))
	t.Cleanup(func() { _ = c.Close() })
	return c, m
}

// play loads index and completes the prepare.
func play(t *testing.T, c *Controller, m *player.Mock, index int) {
	t.Helper()
	c.Load(index)
	m.CompletePrepare()
	if c.State() != StatePlaying {
		t.Fatalf("State() after loading %d = %v, want Playing", index, c.State())
	}
}

// sequence returns a random source that yields values in order.
func sequence(values ...int) func(int) int {
	i := 0
	return func(int) int {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestController_LoadOutOfRangeIsNoop(t *testing.T) {
	c, m := newTestController(t, 3)

	for _, i := range []int{-1, 3, 10} {
		c.Load(i)
		if c.CurrentIndex() != -1 {
			t.Errorf("Load(%d): CurrentIndex() = %d, want -1", i, c.CurrentIndex())
		}
	}
	if got := len(m.Sources()); got != 0 {
		t.Errorf("decoder sources = %d, want 0", got)
	}
	if c.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", c.State())
	}
}

func TestController_LoadPreparesThenPlays(t *testing.T) {
	c, m := newTestController(t, 3)
	sub := c.Subscribe()

	c.Load(1)
	if c.State() != StatePreparing {
		t.Fatalf("State() = %v, want Preparing", c.State())
	}
	if m.Path() != "/music/02.mp3" {
		t.Errorf("decoder path = %q, want /music/02.mp3", m.Path())
	}
	if c.IsPlaying() {
		t.Error("IsPlaying() = true before prepare completed")
	}
	if c.Duration() != 0 {
		t.Errorf("Duration() = %v before prepare, want 0", c.Duration())
	}

	m.CompletePrepare()

	if c.State() != StatePlaying {
		t.Fatalf("State() = %v, want Playing", c.State())
	}
	if m.State() != player.Started {
		t.Errorf("decoder state = %v, want Started", m.State())
	}
	if c.Duration() != 3*time.Minute {
		t.Errorf("Duration() = %v, want 3m", c.Duration())
	}

	select {
	case e := <-sub.DurationChanged:
		if e.Index != 1 || e.Duration != 3*time.Minute || e.Track.Path != "/music/02.mp3" {
			t.Errorf("DurationChange = %+v, want index 1, 3m, /music/02.mp3", e)
		}
	default:
		t.Error("no DurationChange after prepare")
	}

	tr, ok := c.CurrentTrack()
	if !ok || tr.ID != 2 {
		t.Errorf("CurrentTrack() = %v, %v, want ID 2", tr, ok)
	}
}

func TestController_EachLoadResetsDecoder(t *testing.T) {
	c, m := newTestController(t, 3)

	c.Load(0)
	c.Load(2)
	c.Load(1)

	if m.Resets() != 3 {
		t.Errorf("Resets() = %d, want 3", m.Resets())
	}
	want := []string{"/music/01.mp3", "/music/03.mp3", "/music/02.mp3"}
	got := m.Sources()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Sources() = %v, want %v", got, want)
	}
}

func TestController_RapidLoadsPlayOnlyTheLast(t *testing.T) {
	c, m := newTestController(t, 3)

	c.Load(0)
	c.Load(1)
	// A prepared callback for the superseded source arrives late.
	c.handlePrepared()

	if c.State() != StatePreparing {
		t.Fatalf("State() = %v, want Preparing", c.State())
	}
	if m.State() != player.Preparing {
		t.Fatalf("decoder state = %v, want Preparing", m.State())
	}

	m.CompletePrepare()
	if c.CurrentIndex() != 1 || c.State() != StatePlaying {
		t.Errorf("CurrentIndex() = %d, State() = %v, want 1, Playing", c.CurrentIndex(), c.State())
	}
	if m.Path() != "/music/02.mp3" {
		t.Errorf("decoder path = %q, want /music/02.mp3", m.Path())
	}
}

func TestController_PlayNextWrapsAround(t *testing.T) {
	c, _ := newTestController(t, 3)

	want := []int{0, 1, 2, 0, 1}
	for i, w := range want {
		c.PlayNext()
		if got := c.CurrentIndex(); got != w {
			t.Fatalf("PlayNext() #%d: CurrentIndex() = %d, want %d", i+1, got, w)
		}
	}
}

func TestController_PlayPreviousWrapsAround(t *testing.T) {
	c, _ := newTestController(t, 3)

	want := []int{2, 1, 0, 2}
	for i, w := range want {
		c.PlayPrevious()
		if got := c.CurrentIndex(); got != w {
			t.Fatalf("PlayPrevious() #%d: CurrentIndex() = %d, want %d", i+1, got, w)
		}
	}
}

func TestController_NavigationOnEmptyListIsNoop(t *testing.T) {
	c, m := newTestController(t, 0)

	c.PlayNext()
	c.PlayPrevious()

	if c.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", c.CurrentIndex())
	}
	if m.Resets() != 0 {
		t.Errorf("Resets() = %d, want 0", m.Resets())
	}
}

func TestController_ShuffleUsesRandomSource(t *testing.T) {
	c, _ := newTestController(t, 5, WithRandom(sequence(3, 3, 0, 4)))
	c.SetShuffle(true)

	want := []int{3, 3, 0, 4}
	for i, w := range want {
		if i%2 == 0 {
			c.PlayNext()
		} else {
			c.PlayPrevious()
		}
		if got := c.CurrentIndex(); got != w {
			t.Fatalf("step %d: CurrentIndex() = %d, want %d", i+1, got, w)
		}
	}
}

func TestController_ShuffleStaysInRange(t *testing.T) {
	c, _ := newTestController(t, 7)
	c.SetShuffle(true)

	for range 200 {
		c.PlayNext()
		if i := c.CurrentIndex(); i < 0 || i >= 7 {
			t.Fatalf("CurrentIndex() = %d, want in [0, 7)", i)
		}
	}
}

func TestController_SetShuffleDoesNotLoad(t *testing.T) {
	c, m := newTestController(t, 3)
	play(t, c, m, 1)
	sub := c.Subscribe()

	c.SetShuffle(true)

	if !c.Shuffle() {
		t.Error("Shuffle() = false, want true")
	}
	if len(m.Sources()) != 1 || c.CurrentIndex() != 1 {
		t.Errorf("SetShuffle changed the session: sources %v, index %d", m.Sources(), c.CurrentIndex())
	}
	select {
	case e := <-sub.ModeChanged:
		if !e.Shuffle {
			t.Errorf("ModeChange.Shuffle = false, want true")
		}
	default:
		t.Error("no ModeChange after SetShuffle")
	}
}

func TestController_TogglePlayPause(t *testing.T) {
	c, m := newTestController(t, 2)

	c.TogglePlayPause()
	if c.State() != StateIdle {
		t.Errorf("toggle while Idle: State() = %v, want Idle", c.State())
	}

	c.Load(0)
	c.TogglePlayPause()
	if c.State() != StatePreparing || m.State() != player.Preparing {
		t.Errorf("toggle while Preparing: State() = %v, decoder %v", c.State(), m.State())
	}

	m.CompletePrepare()
	c.TogglePlayPause()
	if c.State() != StatePaused || m.State() != player.Paused {
		t.Errorf("toggle while Playing: State() = %v, decoder %v, want Paused", c.State(), m.State())
	}

	c.TogglePlayPause()
	if c.State() != StatePlaying || m.State() != player.Started {
		t.Errorf("toggle while Paused: State() = %v, decoder %v, want Playing", c.State(), m.State())
	}
}

func TestController_PauseResumeOnlyFromMatchingState(t *testing.T) {
	c, m := newTestController(t, 2)

	c.Resume()
	c.Pause()
	if c.State() != StateIdle {
		t.Fatalf("State() = %v, want Idle", c.State())
	}

	play(t, c, m, 0)
	c.Resume()
	if c.State() != StatePlaying {
		t.Errorf("Resume while Playing: State() = %v", c.State())
	}
	c.Pause()
	c.Pause()
	if c.State() != StatePaused {
		t.Errorf("State() = %v, want Paused", c.State())
	}
}

func TestController_LoopingForwardedOnEveryLoad(t *testing.T) {
	c, m := newTestController(t, 3)

	c.SetLooping(true)
	if !m.Looping() {
		t.Fatal("decoder not looping after SetLooping(true)")
	}

	m.SetLooping(false)
	c.Load(2)
	if !m.Looping() {
		t.Error("decoder not looping after Load")
	}

	c.SetLooping(false)
	m.SetLooping(true)
	c.PlayNext()
	if m.Looping() {
		t.Error("decoder looping after PlayNext with looping off")
	}
}

func TestController_LoopingTrackDoesNotAdvance(t *testing.T) {
	c, m := newTestController(t, 3)
	c.SetLooping(true)
	play(t, c, m, 0)

	m.Finish()

	if c.CurrentIndex() != 0 || c.State() != StatePlaying {
		t.Errorf("CurrentIndex() = %d, State() = %v, want 0, Playing", c.CurrentIndex(), c.State())
	}
}

func TestController_FailedLoadRestoresCursor(t *testing.T) {
	c, m := newTestController(t, 3)
	play(t, c, m, 0)
	sub := c.Subscribe()
	m.SetSourceError("/music/02.mp3", player.ErrUnsupportedFormat)

	c.Load(1)

	if c.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", c.CurrentIndex())
	}
	if c.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", c.State())
	}
	select {
	case e := <-sub.Error:
		if e.Op != errmsg.OpTrackLoad || e.Path != "/music/02.mp3" {
			t.Errorf("ErrorEvent = %+v, want load of /music/02.mp3", e)
		}
		if !errors.Is(e.Err, player.ErrUnsupportedFormat) {
			t.Errorf("ErrorEvent.Err = %v, want ErrUnsupportedFormat", e.Err)
		}
	default:
		t.Error("no ErrorEvent after failed load")
	}
}

func TestController_FailedPrepareRestoresCursor(t *testing.T) {
	c, m := newTestController(t, 3)
	sub := c.Subscribe()

	c.Load(2)
	m.FailPrepare(errors.New("bad header"))

	if c.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", c.CurrentIndex())
	}
	if c.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", c.State())
	}
	if _, ok := c.CurrentTrack(); ok {
		t.Error("CurrentTrack() ok = true, want false")
	}
	select {
	case e := <-sub.Error:
		if e.Op != errmsg.OpTrackPrepare {
			t.Errorf("ErrorEvent.Op = %q, want %q", e.Op, errmsg.OpTrackPrepare)
		}
	default:
		t.Error("no ErrorEvent after failed prepare")
	}
}

func TestController_FailedNextLeavesCursorAdvanced(t *testing.T) {
	c, m := newTestController(t, 3)
	play(t, c, m, 0)
	m.SetSourceError("/music/02.mp3", player.ErrNotFound)

	c.PlayNext()

	if c.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", c.CurrentIndex())
	}
	if c.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", c.State())
	}

	c.PlayNext()
	if c.CurrentIndex() != 2 || c.State() != StatePreparing {
		t.Errorf("CurrentIndex() = %d, State() = %v, want 2, Preparing", c.CurrentIndex(), c.State())
	}
}

func TestController_StartFailureIsLoadFailure(t *testing.T) {
	c, m := newTestController(t, 2)
	m.SetStartError(errors.New("no audio device"))

	c.Load(1)
	m.CompletePrepare()

	if c.State() != StateIdle || c.CurrentIndex() != -1 {
		t.Errorf("State() = %v, CurrentIndex() = %d, want Idle, -1", c.State(), c.CurrentIndex())
	}
}

func TestController_CompletionAdvances(t *testing.T) {
	c, m := newTestController(t, 2)
	play(t, c, m, 1)

	m.Finish()

	if c.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", c.CurrentIndex())
	}
	if c.State() != StatePreparing {
		t.Errorf("State() = %v, want Preparing", c.State())
	}
}

func TestController_CompletionOnSingleTrackReplays(t *testing.T) {
	c, m := newTestController(t, 1)
	play(t, c, m, 0)

	m.Finish()

	if c.CurrentIndex() != 0 || c.State() != StatePreparing {
		t.Errorf("CurrentIndex() = %d, State() = %v, want 0, Preparing", c.CurrentIndex(), c.State())
	}
	if got := len(m.Sources()); got != 2 {
		t.Errorf("len(Sources()) = %d, want 2", got)
	}
}

func TestController_CompletionWithoutAutoAdvancePauses(t *testing.T) {
	c, m := newTestController(t, 2, WithAutoAdvance(false))
	play(t, c, m, 0)

	m.Finish()

	if c.State() != StatePaused || c.CurrentIndex() != 0 {
		t.Fatalf("State() = %v, CurrentIndex() = %d, want Paused, 0", c.State(), c.CurrentIndex())
	}

	c.Resume()
	if c.State() != StatePlaying {
		t.Errorf("State() = %v, want Playing", c.State())
	}
	if m.Position() != 0 {
		t.Errorf("Position() = %v, want 0 after replay", m.Position())
	}
}

func TestController_PauseAtEndOfTrackStillAdvances(t *testing.T) {
	c, m := newTestController(t, 3)
	play(t, c, m, 0)

	complete := m.FinishDeferred()
	c.Pause()
	complete()

	if c.CurrentIndex() != 1 || c.State() != StatePreparing {
		t.Errorf("CurrentIndex() = %d, State() = %v, want 1, Preparing", c.CurrentIndex(), c.State())
	}
	if len(m.Sources()) != 2 {
		t.Errorf("Sources() = %v, want 2 loads", m.Sources())
	}
}

func TestController_PauseAtEndOfTrackWithoutAutoAdvance(t *testing.T) {
	c, m := newTestController(t, 3, WithAutoAdvance(false))
	play(t, c, m, 0)

	complete := m.FinishDeferred()
	c.Pause()
	complete()

	if c.CurrentIndex() != 0 || c.State() != StatePaused {
		t.Errorf("CurrentIndex() = %d, State() = %v, want 0, Paused", c.CurrentIndex(), c.State())
	}
}

func TestController_StaleCompletionIgnored(t *testing.T) {
	c, m := newTestController(t, 3)
	play(t, c, m, 0)
	c.Load(1)

	c.handleCompletion()

	if c.CurrentIndex() != 1 || c.State() != StatePreparing {
		t.Errorf("CurrentIndex() = %d, State() = %v, want 1, Preparing", c.CurrentIndex(), c.State())
	}
	if len(m.Sources()) != 2 {
		t.Errorf("Sources() = %v, want 2 loads", m.Sources())
	}
}

func TestController_RuntimeErrorStops(t *testing.T) {
	c, m := newTestController(t, 2)
	play(t, c, m, 1)
	sub := c.Subscribe()

	m.Fail(errors.New("corrupt frame"))

	if c.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", c.State())
	}
	if c.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", c.CurrentIndex())
	}
	select {
	case e := <-sub.Error:
		if e.Op != errmsg.OpPlayback {
			t.Errorf("ErrorEvent.Op = %q, want %q", e.Op, errmsg.OpPlayback)
		}
	default:
		t.Error("no ErrorEvent after decode error")
	}
}

func TestController_SeekTo(t *testing.T) {
	c, m := newTestController(t, 1)

	c.SeekTo(time.Minute)
	if len(m.SeekCalls()) != 0 {
		t.Fatalf("seek forwarded while Idle: %v", m.SeekCalls())
	}

	play(t, c, m, 0)
	sub := c.Subscribe()

	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{time.Minute, time.Minute},
		{-5 * time.Second, 0},
		{10 * time.Minute, 3 * time.Minute},
	}
	for _, tt := range tests {
		c.SeekTo(tt.in)
		calls := m.SeekCalls()
		if got := calls[len(calls)-1]; got != tt.want {
			t.Errorf("SeekTo(%v) forwarded %v, want %v", tt.in, got, tt.want)
		}
		select {
		case e := <-sub.PositionChanged:
			if e.Position != tt.want {
				t.Errorf("PositionChange = %v, want %v", e.Position, tt.want)
			}
		default:
			t.Errorf("SeekTo(%v): no PositionChange", tt.in)
		}
	}

	c.Pause()
	c.SeekTo(30 * time.Second)
	if c.Position() != 30*time.Second {
		t.Errorf("Position() after paused seek = %v, want 30s", c.Position())
	}
}

func TestController_SetTracksKeepsPlayingTrack(t *testing.T) {
	c, m := newTestController(t, 3)
	play(t, c, m, 1)
	resets := m.Resets()

	tracks := testTracks(3)
	refreshed := []library.Track{tracks[1], tracks[2], tracks[0]}
	c.SetTracks(refreshed)

	if c.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", c.CurrentIndex())
	}
	if c.State() != StatePlaying {
		t.Errorf("State() = %v, want Playing", c.State())
	}
	if m.Resets() != resets {
		t.Errorf("Resets() = %d, want %d", m.Resets(), resets)
	}
}

func TestController_SetTracksMatchesByPath(t *testing.T) {
	c, m := newTestController(t, 3)
	play(t, c, m, 2)

	renumbered := testTracks(3)
	for i := range renumbered {
		renumbered[i].ID = 0
	}
	c.SetTracks(renumbered[2:])

	if c.CurrentIndex() != 0 || c.State() != StatePlaying {
		t.Errorf("CurrentIndex() = %d, State() = %v, want 0, Playing", c.CurrentIndex(), c.State())
	}
}

func TestController_SetTracksDropsVanishedTrack(t *testing.T) {
	c, m := newTestController(t, 3)
	play(t, c, m, 1)
	sub := c.Subscribe()
	resets := m.Resets()

	tracks := testTracks(3)
	c.SetTracks([]library.Track{tracks[0], tracks[2]})

	if c.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", c.CurrentIndex())
	}
	if c.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", c.State())
	}
	if m.Resets() != resets+1 {
		t.Errorf("Resets() = %d, want %d", m.Resets(), resets+1)
	}
	select {
	case e := <-sub.QueueChanged:
		if len(e.Tracks) != 2 || e.Index != -1 {
			t.Errorf("QueueChange = %d tracks at %d, want 2 at -1", len(e.Tracks), e.Index)
		}
	default:
		t.Error("no QueueChange after SetTracks")
	}
}

func TestController_SetTracksDuringPrepareRemapsRestore(t *testing.T) {
	c, m := newTestController(t, 3)
	play(t, c, m, 0)
	c.Load(2)

	tracks := testTracks(3)
	c.SetTracks([]library.Track{tracks[2], tracks[1], tracks[0]})
	m.FailPrepare(errors.New("bad header"))

	if c.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex() = %d, want 2", c.CurrentIndex())
	}
	if tr, _ := c.CurrentTrack(); tr.ID != 1 {
		t.Errorf("CurrentTrack().ID = %d, want 1", tr.ID)
	}
}

func TestController_TracksReturnsCopy(t *testing.T) {
	c, _ := newTestController(t, 2)

	got := c.Tracks()
	got[0].Title = "changed"

	if c.Tracks()[0].Title == "changed" {
		t.Error("Tracks() exposes internal slice")
	}
}

func TestController_CloseEndsSubscriptions(t *testing.T) {
	m := player.NewMock()
	c := New(m)
	sub := c.Subscribe()

	if err := c.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}

	select {
	case <-sub.Done:
	default:
		t.Error("subscription not done after Close")
	}
	select {
	case <-c.Subscribe().Done:
	default:
		t.Error("Subscribe after Close returned a live subscription")
	}
}
