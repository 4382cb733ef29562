package mediaindex

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tonearm/tonearm/internal/logging"
	"github.com/tonearm/tonearm/internal/tags"
)

const upsertBatchSize = 200

// Progress phases.
const (
	PhaseDiscovering = "discovering"
	PhaseProbing     = "probing"
	PhasePruning     = "pruning"
	PhaseDone        = "done"
)

// Progress reports how far an Update has come.
type Progress struct {
	Phase   string
	Current int
	Total   int
	Path    string
}

// Stats summarizes a completed Update.
type Stats struct {
	Scanned   int // audio files found under the sources
	Added     int
	Updated   int // mtime changed since the last run
	Unchanged int
	Removed   int
	Failed    int // files the prober rejected
}

// Metadata is what a Prober learns about a file.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Duration int64 // milliseconds
}

// Prober extracts metadata from one file.
type Prober func(path string) (Metadata, error)

// Indexer brings a Store up to date with the files under a set of sources.
type Indexer struct {
	store    *Store
	probe    Prober
	workers  int
	logger   *log.Logger
	progress chan<- Progress
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithWorkers sets the number of concurrent probes. n <= 0 means one per CPU.
func WithWorkers(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithProber replaces the tag-reading prober.
func WithProber(p Prober) IndexerOption {
	return func(ix *Indexer) { ix.probe = p }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) IndexerOption {
	return func(ix *Indexer) { ix.logger = logging.OrDiscard(l) }
}

// WithProgress sets a channel that receives progress updates. Sends never
// block; updates are dropped when the channel is full. The channel is not
// closed by the indexer.
func WithProgress(ch chan<- Progress) IndexerOption {
	return func(ix *Indexer) { ix.progress = ch }
}

func NewIndexer(store *Store, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		store:   store,
		probe:   ProbeFile,
		workers: runtime.NumCPU(),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// probeResult holds the outcome of probing one discovered file.
type probeResult struct {
	file  fileInfo
	meta  Metadata
	err   error
	isNew bool
}

// Update performs an incremental index of the given source directories.
// Files whose mtime is unchanged are not probed again. Rows for files gone
// from a walked source, or outside every source, are removed; rows under a
// source that could not be read are kept.
func (ix *Indexer) Update(ctx context.Context, sources []string) (Stats, error) {
	var stats Stats
	if len(sources) == 0 {
		return stats, ErrNoSources
	}

	// Phase 1: walk the sources
	ix.report(Progress{Phase: PhaseDiscovering})
	found, err := ix.discover(ctx, sources)
	if err != nil {
		return stats, err
	}
	files := found.files
	stats.Scanned = len(files)

	// Phase 2: keep only new or modified files
	existing, err := ix.store.modTimes(ctx)
	if err != nil {
		return stats, err
	}
	toProbe := make([]fileInfo, 0, len(files))
	isNew := make(map[string]bool, len(files))
	for _, f := range files {
		mtime, ok := existing[f.path]
		if ok && mtime == f.mtime {
			stats.Unchanged++
			continue
		}
		isNew[f.path] = !ok
		toProbe = append(toProbe, f)
	}

	// Phase 3: probe in parallel, write sequentially
	if err := ix.probeAll(ctx, toProbe, isNew, &stats); err != nil {
		return stats, err
	}

	// Phase 4: forget files that disappeared
	ix.report(Progress{Phase: PhasePruning})
	removed, err := ix.store.Prune(ctx, func(path string) bool {
		return !found.prunable(path, sources)
	})
	if err != nil {
		return stats, err
	}
	stats.Removed = removed

	ix.report(Progress{Phase: PhaseDone, Current: len(files), Total: len(files)})
	ix.logger.Info("media index updated",
		"scanned", stats.Scanned, "added", stats.Added, "updated", stats.Updated,
		"removed", stats.Removed, "failed", stats.Failed)
	return stats, nil
}

func (ix *Indexer) probeAll(ctx context.Context, files []fileInfo, isNew map[string]bool, stats *Stats) error {
	total := len(files)
	if total == 0 {
		return nil
	}

	workCh := make(chan fileInfo)
	resultCh := make(chan probeResult, ix.workers)

	var wg sync.WaitGroup
	for range ix.workers {
		wg.Go(func() {
			for f := range workCh {
				meta, err := ix.probe(f.path)
				resultCh <- probeResult{file: f, meta: meta, err: err, isNew: isNew[f.path]}
			}
		})
	}

	go func() {
		defer close(workCh)
		for _, f := range files {
			select {
			case workCh <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Collect results and write in batches (sequential to avoid SQLite contention)
	var writeErr error
	batch := make([]Entry, 0, upsertBatchSize)
	flush := func() {
		if writeErr == nil && len(batch) > 0 {
			writeErr = ix.store.Upsert(ctx, batch)
		}
		batch = batch[:0]
	}

	processed := 0
	for r := range resultCh {
		processed++
		ix.report(Progress{Phase: PhaseProbing, Current: processed, Total: total, Path: r.file.path})

		if r.err != nil {
			stats.Failed++
			ix.logger.Warn("probe failed", "path", r.file.path, "err", r.err)
			continue
		}
		if r.isNew {
			stats.Added++
		} else {
			stats.Updated++
		}
		batch = append(batch, Entry{
			Path:        r.file.path,
			DisplayName: filepath.Base(r.file.path),
			Title:       r.meta.Title,
			Artist:      r.meta.Artist,
			Album:       r.meta.Album,
			DurationMs:  r.meta.Duration,
			ModTime:     r.file.mtime,
		})
		if len(batch) == upsertBatchSize {
			flush()
		}
	}
	flush()

	if err := ctx.Err(); err != nil {
		return err
	}
	return writeErr
}

func (ix *Indexer) report(p Progress) {
	if ix.progress == nil {
		return
	}
	select {
	case ix.progress <- p:
	default:
	}
}

// ProbeFile reads tags and stream length from an audio file. Unreadable
// tags leave the fields empty and an unmeasurable stream leaves the
// duration at zero, the way a platform media index records such files.
// Only a file that cannot be opened at all is an error.
func ProbeFile(path string) (Metadata, error) {
	var meta Metadata
	if _, err := os.Stat(path); err != nil {
		return meta, err
	}

	if t, err := tags.Read(path); err == nil {
		meta.Title = t.Title
		meta.Artist = t.Artist
		meta.Album = t.Album
	}
	if info, err := tags.ReadAudioInfo(path); err == nil {
		meta.Duration = info.Duration.Milliseconds()
	}
	return meta, nil
}
