package library

import "time"

// Track is one playable audio file as presented to the player.
// Tracks are values; nothing modifies them after a scan.
type Track struct {
	ID          int64
	Title       string
	Artist      string
	Album       string
	Duration    time.Duration
	Path        string
	DisplayName string
}

// IndexOf returns the position of the track matching t in tracks, or -1.
// An id match wins over a path match.
func IndexOf(tracks []Track, t Track) int {
	if t.ID != 0 {
		for i, c := range tracks {
			if c.ID == t.ID {
				return i
			}
		}
	}
	if t.Path != "" {
		for i, c := range tracks {
			if c.Path == t.Path {
				return i
			}
		}
	}
	return -1
}
