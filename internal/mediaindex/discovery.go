package mediaindex

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tonearm/tonearm/internal/tags"
)

// fileInfo holds information about a discovered audio file.
type fileInfo struct {
	path  string
	mtime int64
}

// discovery is the result of walking the library sources.
type discovery struct {
	files  []fileInfo
	seen   map[string]struct{}
	walked []string // sources that were fully walked
}

// prunable reports whether an indexed path may be forgotten: it was not
// found, and it either lies under a source that was walked or under no
// configured source at all. Rows under an unavailable source survive so
// their ids stay stable until it comes back.
func (d discovery) prunable(path string, sources []string) bool {
	if _, ok := d.seen[path]; ok {
		return false
	}
	return underAny(path, d.walked) || !underAny(path, sources)
}

func underAny(path string, roots []string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(filepath.Clean(root), path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// discover walks the sources and returns every audio file found.
// Unreadable directories and files are skipped.
func (ix *Indexer) discover(ctx context.Context, sources []string) (discovery, error) {
	var files []fileInfo
	var walked []string
	seen := make(map[string]struct{})

	for _, src := range sources {
		if _, err := os.Stat(src); err != nil {
			ix.logger.Warn("library source unavailable", "source", src, "err", err)
			continue
		}

		err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Skip walk errors and keep scanning the rest of the tree
			if walkErr != nil {
				ix.logger.Debug("skipping unreadable path", "path", path, "err", walkErr)
				return nil
			}
			if d.IsDir() || !tags.IsAudioFile(path) {
				return nil
			}
			if _, dup := seen[path]; dup {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil //nolint:nilerr // file vanished during the walk
			}

			files = append(files, fileInfo{path: path, mtime: info.ModTime().Unix()})
			seen[path] = struct{}{}

			if len(files)%100 == 0 {
				ix.report(Progress{Phase: PhaseDiscovering, Current: len(files)})
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return discovery{}, err
			}
			ix.logger.Warn("walk failed", "source", src, "err", err)
			continue
		}
		walked = append(walked, src)
	}

	return discovery{files: files, seen: seen, walked: walked}, nil
}
