// Package library turns media index entries into the track list the player
// works with.
package library

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tonearm/tonearm/internal/errmsg"
	"github.com/tonearm/tonearm/internal/logging"
	"github.com/tonearm/tonearm/internal/mediaindex"
)

const (
	// MinDuration is the length a file must exceed to count as music.
	MinDuration = time.Second

	// Unknown replaces a missing artist or album.
	Unknown = "Unknown"
)

// playableExtensions are the container extensions offered for playback.
var playableExtensions = map[string]bool{
	"mp3": true, "m4a": true, "wav": true, "flac": true, "aac": true, "ogg": true, "wma": true,
}

// Querier returns media index entries ordered by raw title.
type Querier interface {
	Query(ctx context.Context) ([]mediaindex.Entry, error)
}

// Scanner builds tracks from the media index.
type Scanner struct {
	index  Querier
	logger *log.Logger
}

func NewScanner(index Querier, logger *log.Logger) *Scanner {
	return &Scanner{index: index, logger: logging.OrDiscard(logger)}
}

// Scan returns every playable track in index order. Entries of one second
// or less, without a path, or with an extension outside the playable set
// are dropped. A failed query is logged and yields an empty list.
func (s *Scanner) Scan(ctx context.Context) []Track {
	entries, err := s.index.Query(ctx)
	if err != nil {
		s.logger.Error(errmsg.Format(errmsg.OpLibraryScan, err))
		return []Track{}
	}

	tracks := make([]Track, 0, len(entries))
	for _, e := range entries {
		if t, ok := trackFromEntry(e); ok {
			tracks = append(tracks, t)
		}
	}

	s.logger.Debug("library scanned", "entries", len(entries), "tracks", len(tracks))
	return tracks
}

func trackFromEntry(e mediaindex.Entry) (Track, bool) {
	duration := time.Duration(e.DurationMs) * time.Millisecond
	if duration <= MinDuration || e.Path == "" || !IsPlayable(e.Path) {
		return Track{}, false
	}

	title := e.Title
	if isMissing(title) {
		title = e.DisplayName
	}

	return Track{
		ID:          e.ID,
		Title:       title,
		Artist:      orUnknown(e.Artist),
		Album:       orUnknown(e.Album),
		Duration:    duration,
		Path:        e.Path,
		DisplayName: e.DisplayName,
	}, true
}

// IsPlayable reports whether path has an extension offered for playback.
// The extension is the text after the last dot, compared case-insensitively.
func IsPlayable(path string) bool {
	base := filepath.Base(path)
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return false
	}
	return playableExtensions[strings.ToLower(base[idx+1:])]
}

func isMissing(s string) bool {
	return s == "" || s == mediaindex.UnknownTag
}

func orUnknown(s string) string {
	if isMissing(s) {
		return Unknown
	}
	return s
}
