// Package tags reads metadata and stream properties from audio files for
// the media index. It tries the pure-Go readers first and falls back to
// format-specific readers, then TagLib, for files they cannot handle.
package tags

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// File extensions known to the tags package.
const (
	ExtMP3  = ".mp3"
	ExtM4A  = ".m4a"
	ExtWAV  = ".wav"
	ExtFLAC = ".flac"
	ExtAAC  = ".aac"
	ExtOGG  = ".ogg"
	ExtWMA  = ".wma"
	ExtOPUS = ".opus"
	ExtAIFF = ".aiff"
	ExtAMR  = ".amr"
	ExtMID  = ".mid"
)

// audioExtensions is everything the media index records as audio. It is
// wider than what the player can decode; the library scanner narrows it.
var audioExtensions = map[string]bool{
	ExtMP3: true, ExtM4A: true, ExtWAV: true, ExtFLAC: true, ExtAAC: true, ExtOGG: true,
	ExtWMA: true, ExtOPUS: true, ExtAIFF: true, ExtAMR: true, ExtMID: true,
}

// id3Magic is the magic bytes for ID3v2 header detection.
const id3Magic = "ID3"

// Tag holds the descriptive metadata of a file. Empty fields mean the file
// does not carry the tag; callers decide on fallbacks.
type Tag struct {
	Path        string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	TrackNumber int
	DiscNumber  int
	Year        int
}

// AudioInfo contains audio stream properties (not tags).
type AudioInfo struct {
	Duration   time.Duration
	Format     string // MP3, FLAC, WAV, VORBIS, OPUS, AAC, ALAC, ...
	SampleRate int
	Channels   int
}

// Ext returns the lower-cased extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsAudioFile reports whether path has an extension the media index records.
func IsAudioFile(path string) bool {
	return audioExtensions[Ext(path)]
}

// taglibTags wraps a taglib result map with helper methods.
type taglibTags map[string][]string

// get returns the first value for any of the given keys, or empty string if not found.
func (t taglibTags) get(keys ...string) string {
	for _, key := range keys {
		if values, ok := t[key]; ok && len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
	}
	return ""
}

// getNumber parses values like "3" or "3/12" and returns the first number.
func (t taglibTags) getNumber(key string) int {
	s := t.get(key)
	if idx := strings.Index(s, "/"); idx > 0 {
		s = s[:idx]
	}
	n, _ := strconv.Atoi(s)
	return n
}

// parseYear extracts a year from YYYY or YYYY-MM-DD dates.
func parseYear(date string) int {
	if len(date) > 4 {
		date = date[:4]
	}
	y, _ := strconv.Atoi(date)
	return y
}
