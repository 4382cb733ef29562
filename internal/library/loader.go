package library

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/tonearm/tonearm/internal/errmsg"
	"github.com/tonearm/tonearm/internal/logging"
	"github.com/tonearm/tonearm/internal/mediaindex"
)

// Indexer refreshes the media index from the library sources.
type Indexer interface {
	Update(ctx context.Context, sources []string) (mediaindex.Stats, error)
}

// Loader refreshes the index and then scans it.
type Loader struct {
	scanner *Scanner
	indexer Indexer
	sources []string
	logger  *log.Logger
}

// NewLoader returns a Loader. A nil indexer makes Load a plain scan.
func NewLoader(scanner *Scanner, indexer Indexer, sources []string, logger *log.Logger) *Loader {
	return &Loader{
		scanner: scanner,
		indexer: indexer,
		sources: sources,
		logger:  logging.OrDiscard(logger),
	}
}

// Load brings the index up to date and returns the scanned tracks.
// Index failures are logged; whatever the index holds is still scanned.
func (l *Loader) Load(ctx context.Context) []Track {
	if l.indexer != nil {
		if _, err := l.indexer.Update(ctx, l.sources); err != nil {
			l.logger.Warn(errmsg.Format(errmsg.OpLibraryIndex, err))
		}
	}
	return l.scanner.Scan(ctx)
}
