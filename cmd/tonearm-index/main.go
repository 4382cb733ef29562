// Command tonearm-index refreshes the media index outside the player and
// prints what the library scanner would list.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/tonearm/tonearm/internal/config"
	"github.com/tonearm/tonearm/internal/library"
	"github.com/tonearm/tonearm/internal/mediaindex"
)

type report struct {
	Sources  []string          `json:"sources"`
	Index    *mediaindex.Stats `json:"index,omitempty"`
	Indexed  int               `json:"indexed"`
	Tracks   int               `json:"tracks"`
	Duration time.Duration     `json:"duration_ns"`
	Elapsed  time.Duration     `json:"elapsed_ns"`
	Library  []library.Track   `json:"library,omitempty"` // only with -json
}

func main() {
	configPath := flag.String("config", "", "config file (default: search path)")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	skipIndex := flag.Bool("skip-index", false, "list the current index without refreshing it")
	verbose := flag.Bool("v", false, "log progress to stderr")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	level := log.WarnLevel
	if *verbose {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level, ReportTimestamp: true})

	r, err := run(ctx, *configPath, *skipIndex, *asJSON, logger)
	if err != nil {
		logger.Error("indexing failed", "err", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			logger.Error("encode report", "err", err)
			os.Exit(1)
		}
		return
	}
	printReport(os.Stdout, r)
}

func run(ctx context.Context, configPath string, skipIndex, listTracks bool, logger *log.Logger) (report, error) {
	start := time.Now()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return report{}, err
	}
	indexPath, err := cfg.IndexPathOrDefault()
	if err != nil {
		return report{}, fmt.Errorf("resolve index path: %w", err)
	}
	store, err := mediaindex.Open(indexPath)
	if err != nil {
		return report{}, fmt.Errorf("open media index: %w", err)
	}
	defer store.Close()

	r := report{Sources: cfg.LibrarySources}

	if !skipIndex {
		progress := make(chan mediaindex.Progress, 64)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for p := range progress {
				logger.Info(p.Phase, "current", p.Current, "total", p.Total)
			}
		}()

		ix := mediaindex.NewIndexer(store,
			mediaindex.WithWorkers(cfg.IndexWorkers),
			mediaindex.WithLogger(logger.WithPrefix("index")),
			mediaindex.WithProgress(progress),
		)
		stats, err := ix.Update(ctx, cfg.LibrarySources)
		close(progress)
		<-done
		if err != nil {
			return report{}, err
		}
		r.Index = &stats
	}

	if r.Indexed, err = store.Count(ctx); err != nil {
		return report{}, fmt.Errorf("count index rows: %w", err)
	}

	tracks := library.NewScanner(store, logger.WithPrefix("scanner")).Scan(ctx)
	r.Tracks = len(tracks)
	if listTracks {
		r.Library = tracks
	}
	for _, t := range tracks {
		r.Duration += t.Duration
	}
	r.Elapsed = time.Since(start)
	return r, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func printReport(w io.Writer, r report) {
	fmt.Fprintf(w, "sources:  %v\n", r.Sources)
	if s := r.Index; s != nil {
		fmt.Fprintf(w, "scanned:  %s files\n", humanize.Comma(int64(s.Scanned)))
		fmt.Fprintf(w, "added:    %s\n", humanize.Comma(int64(s.Added)))
		fmt.Fprintf(w, "updated:  %s\n", humanize.Comma(int64(s.Updated)))
		fmt.Fprintf(w, "removed:  %s\n", humanize.Comma(int64(s.Removed)))
		fmt.Fprintf(w, "failed:   %s\n", humanize.Comma(int64(s.Failed)))
	}
	fmt.Fprintf(w, "indexed:  %s files\n", humanize.Comma(int64(r.Indexed)))
	fmt.Fprintf(w, "tracks:   %s (%s of audio)\n",
		humanize.Comma(int64(r.Tracks)), r.Duration.Round(time.Second))
	fmt.Fprintf(w, "elapsed:  %s\n", r.Elapsed.Round(time.Millisecond))
}
