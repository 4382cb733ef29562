package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonearm/tonearm/internal/library"
	"github.com/tonearm/tonearm/internal/playback"
)

// fakeService records calls and serves a fixed snapshot.
type fakeService struct {
	calls    []string
	tracks   []library.Track
	loaded   int
	seekTo   time.Duration
	state    playback.State
	index    int
	position time.Duration
	duration time.Duration
	looping  bool
	shuffle  bool
}

func newFakeService() *fakeService {
	return &fakeService{index: -1, loaded: -1}
}

func (f *fakeService) SetTracks(tracks []library.Track) {
	f.calls = append(f.calls, "SetTracks")
	f.tracks = tracks
}
func (f *fakeService) Tracks() []library.Track { return f.tracks }
func (f *fakeService) Load(index int) {
	f.calls = append(f.calls, "Load")
	f.loaded = index
	f.index = index
	f.state = playback.StatePreparing
}
func (f *fakeService) PlayNext()     { f.calls = append(f.calls, "PlayNext") }
func (f *fakeService) PlayPrevious() { f.calls = append(f.calls, "PlayPrevious") }
func (f *fakeService) TogglePlayPause() {
	f.calls = append(f.calls, "TogglePlayPause")
}
func (f *fakeService) Pause()  { f.calls = append(f.calls, "Pause") }
func (f *fakeService) Resume() { f.calls = append(f.calls, "Resume") }
func (f *fakeService) SeekTo(position time.Duration) {
	f.calls = append(f.calls, "SeekTo")
	f.seekTo = position
}
func (f *fakeService) SetLooping(enabled bool) { f.looping = enabled }
func (f *fakeService) SetShuffle(enabled bool) { f.shuffle = enabled }
func (f *fakeService) State() playback.State   { return f.state }
func (f *fakeService) IsPlaying() bool         { return f.state == playback.StatePlaying }
func (f *fakeService) CurrentIndex() int       { return f.index }
func (f *fakeService) CurrentTrack() (library.Track, bool) {
	if f.index < 0 || f.index >= len(f.tracks) {
		return library.Track{}, false
	}
	return f.tracks[f.index], true
}
func (f *fakeService) Position() time.Duration           { return f.position }
func (f *fakeService) Duration() time.Duration           { return f.duration }
func (f *fakeService) Looping() bool                     { return f.looping }
func (f *fakeService) Shuffle() bool                     { return f.shuffle }
func (f *fakeService) Subscribe() *playback.Subscription { return nil }
func (f *fakeService) Close() error                      { return nil }

type fakeLoader struct{ tracks []library.Track }

func (l fakeLoader) Load(context.Context) []library.Track { return l.tracks }

type fakeNotifier struct {
	titles []string
	err    error
}

func (n *fakeNotifier) Show(title, _, _, _ string) error {
	n.titles = append(n.titles, title)
	return n.err
}

func testTracks(n int) []library.Track {
	tracks := make([]library.Track, n)
	for i := range tracks {
		tracks[i] = library.Track{
			ID:       int64(i + 1),
			Title:    "Track " + string(rune('A'+i)),
			Artist:   "Artist",
			Album:    "Album",
			Duration: 3 * time.Minute,
			Path:     "/music/" + string(rune('a'+i)) + ".mp3",
		}
	}
	return tracks
}

func newTestModel(t *testing.T, svc *fakeService, tracks []library.Track) Model {
	t.Helper()
	m := New(Options{Service: svc, Loader: fakeLoader{tracks: tracks}})
	m.Width, m.Height = 80, 12
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok, "Update() returned %T, want Model", next)
	return nm, cmd
}

func loaded(t *testing.T, svc *fakeService, n int) Model {
	t.Helper()
	tracks := testTracks(n)
	m := newTestModel(t, svc, tracks)
	m, _ = update(t, m, LibraryLoadedMsg{Tracks: tracks})
	return m
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmd executes cmd and any batched commands, discarding messages.
func runCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if batch, ok := cmd().(tea.BatchMsg); ok {
		for _, c := range batch {
			runCmd(c)
		}
	}
}

func TestNew_StartsLoading(t *testing.T) {
	svc := newFakeService()
	svc.looping = true
	m := newTestModel(t, svc, nil)

	assert.True(t, m.Loading)
	assert.Equal(t, -1, m.CurrentIndex)
	assert.True(t, m.Looping)
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Scanning library")
}

func TestLibraryLoaded_HandsTracksToController(t *testing.T) {
	svc := newFakeService()
	m := loaded(t, svc, 3)

	assert.False(t, m.Loading)
	assert.Len(t, m.Tracks, 3)
	assert.Len(t, svc.tracks, 3)
	assert.Contains(t, svc.calls, "SetTracks")
	assert.Contains(t, m.View(), "3 tracks")
}

func TestLibraryLoaded_EmptyShowsPlaceholder(t *testing.T) {
	m := loaded(t, newFakeService(), 0)

	view := m.View()
	assert.Contains(t, view, "No tracks found · press r to rescan")
	assert.Contains(t, view, "Nothing playing")
}

func TestLibraryLoaded_ClampsSelection(t *testing.T) {
	svc := newFakeService()
	m := loaded(t, svc, 5)
	m.Selected = 4

	m, _ = update(t, m, LibraryLoadedMsg{Tracks: testTracks(2)})
	assert.Equal(t, 1, m.Selected)
}

func TestHandleKey_PlaybackIntents(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want string
	}{
		{"space toggles", runeKey(" "), "TogglePlayPause"},
		{"n plays next", runeKey("n"), "PlayNext"},
		{"p plays previous", runeKey("p"), "PlayPrevious"},
		{"right seeks", tea.KeyMsg{Type: tea.KeyRight}, "SeekTo"},
		{"enter loads", tea.KeyMsg{Type: tea.KeyEnter}, "Load"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			m := loaded(t, svc, 3)
			svc.calls = nil

			_, _ = update(t, m, tt.key)
			if len(svc.calls) != 1 || svc.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", svc.calls, tt.want)
			}
		})
	}
}

func TestHandleKey_SelectLoadsSelectedTrack(t *testing.T) {
	svc := newFakeService()
	m := loaded(t, svc, 4)

	m, _ = update(t, m, runeKey("j"))
	m, _ = update(t, m, runeKey("j"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, 2, svc.loaded)
	assert.Equal(t, playback.StatePreparing, m.State)
	assert.Equal(t, 2, m.CurrentIndex)
	assert.Equal(t, "Track C", m.Current.Title)
}

func TestHandleKey_SelectWithoutTracksDoesNothing(t *testing.T) {
	svc := newFakeService()
	m := loaded(t, svc, 0)
	svc.calls = nil

	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, svc.calls)
}

func TestHandleKey_Seek(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want time.Duration
	}{
		{"forward", tea.KeyMsg{Type: tea.KeyRight}, 65 * time.Second},
		{"back", tea.KeyMsg{Type: tea.KeyLeft}, 55 * time.Second},
		{"forward long", runeKey("L"), 90 * time.Second},
		{"back long", runeKey("H"), 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.position = time.Minute
			m := loaded(t, svc, 1)

			_, _ = update(t, m, tt.key)
			if svc.seekTo != tt.want {
				t.Errorf("SeekTo() = %v, want %v", svc.seekTo, tt.want)
			}
		})
	}
}

func TestHandleKey_ToggleModes(t *testing.T) {
	svc := newFakeService()
	m := loaded(t, svc, 2)

	m, _ = update(t, m, runeKey("R"))
	assert.True(t, svc.looping)
	assert.True(t, m.Looping)
	assert.Contains(t, m.View(), "[loop]")

	m, _ = update(t, m, runeKey("S"))
	assert.True(t, svc.shuffle)
	assert.True(t, m.Shuffle)

	m, _ = update(t, m, runeKey("R"))
	assert.False(t, svc.looping)
	assert.False(t, m.Looping)
}

func TestHandleKey_Movement(t *testing.T) {
	svc := newFakeService()
	m := loaded(t, svc, 20)

	m, _ = update(t, m, runeKey("k"))
	assert.Equal(t, 0, m.Selected, "moving up from the top stays put")

	m, _ = update(t, m, runeKey("G"))
	assert.Equal(t, 19, m.Selected)
	assert.LessOrEqual(t, m.offset, m.Selected)
	assert.Greater(t, m.offset+m.listHeight(), m.Selected)

	m, _ = update(t, m, runeKey("g"))
	assert.Equal(t, 0, m.Selected)
	assert.Equal(t, 0, m.offset)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Equal(t, m.listHeight(), m.Selected)
}

func TestHandleKey_RefreshIgnoredWhileLoading(t *testing.T) {
	svc := newFakeService()
	m := newTestModel(t, svc, testTracks(1))

	_, cmd := update(t, m, runeKey("r"))
	assert.Nil(t, cmd)

	m, _ = update(t, m, LibraryLoadedMsg{Tracks: testTracks(1)})
	m, cmd = update(t, m, runeKey("r"))
	assert.NotNil(t, cmd)
	assert.True(t, m.Loading)
}

func TestHandleKey_Quit(t *testing.T) {
	m := loaded(t, newFakeService(), 1)

	m, cmd := update(t, m, runeKey("q"))
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Equal(t, "", m.View())
	assert.Error(t, m.ctx.Err())

	_, cmd = update(t, m, TickMsg(time.Now()))
	assert.Nil(t, cmd, "tick must not re-arm after quit")
}

func TestTick_PollsController(t *testing.T) {
	svc := newFakeService()
	m := loaded(t, svc, 3)

	svc.index = 1
	svc.state = playback.StatePlaying
	svc.position = 42 * time.Second
	svc.duration = 3 * time.Minute

	m, cmd := update(t, m, TickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.True(t, m.Playing)
	assert.Equal(t, 1, m.CurrentIndex)
	assert.Equal(t, 42*time.Second, m.Position)
	assert.Equal(t, "Track B", m.Current.Title)

	view := m.View()
	assert.Contains(t, view, "Track B")
	assert.Contains(t, view, "00:42 / 03:00")
}

func TestServiceEvents_UpdateSnapshot(t *testing.T) {
	m := loaded(t, newFakeService(), 2)
	track := testTracks(2)[1]

	m, _ = update(t, m, ServiceStateChangedMsg{Previous: playback.StatePreparing, Current: playback.StatePlaying})
	assert.True(t, m.Playing)

	m, _ = update(t, m, ServiceTrackChangedMsg{Index: 1, Track: &track})
	assert.Equal(t, 1, m.CurrentIndex)
	assert.Equal(t, track.Title, m.Current.Title)

	m, _ = update(t, m, ServiceModeChangedMsg{Looping: true, Shuffle: true})
	assert.True(t, m.Looping)
	assert.True(t, m.Shuffle)

	m, _ = update(t, m, ServicePositionChangedMsg{Position: 10 * time.Second})
	assert.Equal(t, 10*time.Second, m.Position)
}

func TestServiceError_ShownUntilNextTrackStarts(t *testing.T) {
	n := &fakeNotifier{}
	svc := newFakeService()
	tracks := testTracks(2)
	m := New(Options{Service: svc, Loader: fakeLoader{tracks: tracks}, Notifier: n})
	m.Width, m.Height = 80, 12
	m, _ = update(t, m, LibraryLoadedMsg{Tracks: tracks})

	m, _ = update(t, m, ServiceErrorMsg{Message: "Failed to load track: a.mp3", Err: errors.New("boom")})
	assert.Equal(t, "Failed to load track: a.mp3", m.LastError)
	assert.Contains(t, m.View(), "Failed to load track")

	m, cmd := update(t, m, ServiceDurationChangedMsg{Track: tracks[1], Index: 1, Duration: time.Minute})
	assert.Empty(t, m.LastError)
	assert.Equal(t, time.Minute, m.Duration)

	runCmd(cmd)
	assert.Equal(t, []string{"Track B"}, n.titles)
	assert.False(t, strings.Contains(m.View(), "Failed"))
}

func TestNotifyCmd_FailureIsNotFatal(t *testing.T) {
	n := &fakeNotifier{err: errors.New("no bus")}
	m := New(Options{Service: newFakeService(), Loader: fakeLoader{}, Notifier: n})

	cmd := m.notifyCmd(testTracks(1)[0])
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Len(t, n.titles, 1)
}

func TestNotifyCmd_NilWithoutNotifier(t *testing.T) {
	m := New(Options{Service: newFakeService(), Loader: fakeLoader{}})
	assert.Nil(t, m.notifyCmd(testTracks(1)[0]))
	assert.Nil(t, m.WatchServiceEvents())
}
