// Package mediaindex keeps a persistent index of the audio files found under
// the library sources. It records what each file says about itself and
// leaves presentation fallbacks to the library scanner.
package mediaindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tonearm/tonearm/internal/db"
)

const (
	// UnknownTag is stored for artist and album when the file has none.
	UnknownTag = "<unknown>"
)

// ErrNoSources is returned by Indexer.Update when there is nothing to index.
var ErrNoSources = errors.New("no library sources configured")

// Entry is one indexed file.
type Entry struct {
	ID          int64
	Path        string
	DisplayName string
	Title       string // empty when the file has no title tag
	Artist      string // UnknownTag when the file has no artist tag
	Album       string // UnknownTag when the file has no album tag
	DurationMs  int64  // 0 when the length could not be measured
	ModTime     int64  // unix seconds
}

// Store is the SQLite-backed media index.
type Store struct {
	db *sql.DB
}

// Open opens or creates the index at path. ":memory:" gives a private
// in-memory index.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps
	// ":memory:" databases from splitting across the pool.
	conn.SetMaxOpenConns(1)

	if err := initSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &Store{db: conn}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Query returns every entry ordered by raw title, ties broken by id.
func (s *Store) Query(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, display_name, title, artist, album, duration_ms, mtime
		FROM media_files
		ORDER BY title ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query media files: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Path, &e.DisplayName, &e.Title, &e.Artist, &e.Album, &e.DurationMs, &e.ModTime); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of indexed files.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media_files`).Scan(&n)
	return n, err
}

// Upsert inserts entries or updates them by path in one transaction.
// Existing rows keep their id.
func (s *Store) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().Unix()

	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO media_files (path, display_name, title, artist, album, duration_ms, mtime, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				display_name = excluded.display_name,
				title = excluded.title,
				artist = excluded.artist,
				album = excluded.album,
				duration_ms = excluded.duration_ms,
				mtime = excluded.mtime
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx,
				e.Path, e.DisplayName, e.Title, orUnknown(e.Artist), orUnknown(e.Album),
				e.DurationMs, e.ModTime, now,
			); err != nil {
				return fmt.Errorf("upsert %s: %w", e.Path, err)
			}
		}
		return nil
	})
}

// Prune deletes rows whose path keep rejects and returns how many went.
func (s *Store) Prune(ctx context.Context, keep func(path string) bool) (int, error) {
	existing, err := s.modTimes(ctx)
	if err != nil {
		return 0, err
	}

	var stale []string
	for path := range existing {
		if !keep(path) {
			stale = append(stale, path)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, path := range stale {
			if _, err := tx.ExecContext(ctx, `DELETE FROM media_files WHERE path = ?`, path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(stale), nil
}

// modTimes returns path -> mtime for every indexed file.
func (s *Store) modTimes(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, mtime FROM media_files`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, err
		}
		result[path] = mtime
	}
	return result, rows.Err()
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownTag
	}
	return s
}
