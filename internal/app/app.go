package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/tonearm/tonearm/internal/config"
	"github.com/tonearm/tonearm/internal/keymap"
	"github.com/tonearm/tonearm/internal/library"
	"github.com/tonearm/tonearm/internal/logging"
	"github.com/tonearm/tonearm/internal/playback"
	"github.com/tonearm/tonearm/internal/ui/styles"
)

// LibraryLoader produces the track list. It never fails; problems are
// logged and yield fewer tracks.
type LibraryLoader interface {
	Load(ctx context.Context) []library.Track
}

// TrackNotifier announces a track that started playing.
type TrackNotifier interface {
	Show(title, artist, album, icon string) error
}

// Options configures the model.
type Options struct {
	Service      playback.Service
	Loader       LibraryLoader
	Notifier     TrackNotifier // nil disables notifications
	Logger       *log.Logger
	PollInterval time.Duration
}

// Model is the root application model. Everything the view shows is a
// snapshot taken from the controller by polling or from its events.
type Model struct {
	service  playback.Service
	sub      *playback.Subscription
	loader   LibraryLoader
	notifier TrackNotifier
	keys     *keymap.Resolver
	logger   *log.Logger
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	// Library
	Tracks  []library.Track
	Loading bool
	spinner spinner.Model

	// Playback snapshot
	Current      library.Track
	CurrentIndex int
	State        playback.State
	Playing      bool
	Position     time.Duration
	Duration     time.Duration
	Looping      bool
	Shuffle      bool
	LastError    string

	// Track list
	Selected int
	offset   int

	Width    int
	Height   int
	quitting bool
}

// New creates the model and subscribes to controller events.
func New(opts Options) Model {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = config.DefaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styles.T().S().Flag

	return Model{
		service:      opts.Service,
		sub:          opts.Service.Subscribe(),
		loader:       opts.Loader,
		notifier:     opts.Notifier,
		keys:         keymap.NewResolver(keymap.Bindings),
		logger:       logging.OrDiscard(opts.Logger),
		interval:     interval,
		ctx:          ctx,
		cancel:       cancel,
		spinner:      sp,
		Loading:      true,
		CurrentIndex: -1,
		Looping:      opts.Service.Looping(),
		Shuffle:      opts.Service.Shuffle(),
	}
}

// Init starts the first library load, the poll loop and the event watcher.
// The model is created in the loading state.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadLibraryCmd(m.ctx, m.loader),
		m.spinner.Tick,
		TickCmd(m.interval),
		m.WatchServiceEvents(),
	)
}

// startLoad marks the library as loading and returns the load command.
// It must only be called while no load is in flight.
func (m *Model) startLoad() tea.Cmd {
	m.Loading = true
	return tea.Batch(loadLibraryCmd(m.ctx, m.loader), m.spinner.Tick)
}

// poll samples the controller into the snapshot.
func (m *Model) poll() {
	m.State = m.service.State()
	m.Playing = m.service.IsPlaying()
	m.Position = m.service.Position()
	m.Duration = m.service.Duration()
	m.CurrentIndex = m.service.CurrentIndex()
	if t, ok := m.service.CurrentTrack(); ok {
		m.Current = t
	} else {
		m.Current = library.Track{}
	}
}
