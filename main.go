package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/tonearm/tonearm/internal/app"
	"github.com/tonearm/tonearm/internal/config"
	"github.com/tonearm/tonearm/internal/errmsg"
	"github.com/tonearm/tonearm/internal/library"
	"github.com/tonearm/tonearm/internal/logging"
	"github.com/tonearm/tonearm/internal/mediaindex"
	"github.com/tonearm/tonearm/internal/mpris"
	"github.com/tonearm/tonearm/internal/notify"
	"github.com/tonearm/tonearm/internal/playback"
	"github.com/tonearm/tonearm/internal/player"
	"github.com/tonearm/tonearm/internal/stderr"
)

func main() {
	if err := run(); err != nil {
		stderr.WriteOriginal(errmsg.Format(errmsg.OpInitialize, err) + "\n")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%s: %w", errmsg.OpConfigLoad, err)
	}

	logPath, err := cfg.LogPathOrDefault()
	if err != nil {
		return fmt.Errorf("resolve log path: %w", err)
	}
	logger, logFile, err := logging.New(logging.Options{Path: logPath, Level: cfg.Log.Level})
	if err != nil {
		return err
	}
	defer logFile.Close()

	// Native decoders write to fd 2; keep that out of the terminal.
	if err := stderr.Start(logger); err != nil {
		logger.Warn("stderr capture unavailable", "err", err)
	}
	defer stderr.Stop()

	indexPath, err := cfg.IndexPathOrDefault()
	if err != nil {
		return fmt.Errorf("resolve index path: %w", err)
	}
	store, err := mediaindex.Open(indexPath)
	if err != nil {
		return fmt.Errorf("open media index: %w", err)
	}
	defer store.Close()

	indexer := mediaindex.NewIndexer(store,
		mediaindex.WithWorkers(cfg.IndexWorkers),
		mediaindex.WithLogger(logger.WithPrefix("index")),
	)
	loader := library.NewLoader(
		library.NewScanner(store, logger.WithPrefix("scanner")),
		indexer,
		cfg.LibrarySources,
		logger.WithPrefix("library"),
	)

	dec := player.New(player.WithLogger(logger.WithPrefix("player")))
	controller := playback.New(dec,
		playback.WithLogger(logger.WithPrefix("playback")),
		playback.WithAutoAdvance(cfg.AutoAdvanceEnabled()),
	)
	defer controller.Close()

	if adapter, err := mpris.New(controller, logger); err != nil {
		logger.Warn(errmsg.Format(errmsg.OpMPRIS, err))
	} else {
		defer adapter.Close()
	}

	opts := app.Options{
		Service:      controller,
		Loader:       loader,
		Logger:       logger.WithPrefix("ui"),
		PollInterval: cfg.PollInterval,
	}
	if nowPlaying := newNowPlaying(cfg, logger); nowPlaying != nil {
		defer nowPlaying.Dismiss() //nolint:errcheck // best effort on exit
		opts.Notifier = nowPlaying
	}

	logger.Info("starting", "sources", cfg.LibrarySources, "index", indexPath)

	p := tea.NewProgram(app.New(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

// newNowPlaying returns nil when notifications are disabled or no
// notification service is reachable.
func newNowPlaying(cfg *config.Config, logger *log.Logger) *notify.NowPlaying {
	if !cfg.NotificationsEnabled() {
		return nil
	}
	n, err := notify.New()
	if err != nil {
		logger.Info("desktop notifications disabled", "err", err)
		return nil
	}
	return notify.NewNowPlaying(n)
}
