package library

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/dhowden/tag"
)

// coverNames lists cover image file names in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"album.jpg", "album.png", "album.jpeg",
	"front.jpg", "front.png", "front.jpeg",
	"artwork.jpg", "artwork.png", "artwork.jpeg",
}

var (
	coverMu   sync.Mutex
	lastTrack string
	lastCover string
)

// CoverArt returns an image file for the track: its embedded picture,
// written once to the XDG cache, or else a cover image stored next to it.
// It returns "" when neither exists.
func CoverArt(trackPath string) string {
	coverMu.Lock()
	defer coverMu.Unlock()
	if trackPath == lastTrack && lastCover != "" {
		return lastCover
	}

	cacheDir := ""
	if xdg.CacheHome != "" {
		cacheDir = filepath.Join(xdg.CacheHome, "tonearm", "covers")
	}
	lastTrack, lastCover = trackPath, coverArt(trackPath, cacheDir)
	return lastCover
}

func coverArt(trackPath, cacheDir string) string {
	if cacheDir != "" {
		if path := embeddedArt(trackPath, cacheDir); path != "" {
			return path
		}
	}
	return folderArt(filepath.Dir(trackPath))
}

// embeddedArt extracts the track's picture into cacheDir, named by a hash
// of its bytes so tracks of one album share a file.
func embeddedArt(trackPath, cacheDir string) string {
	f, err := os.Open(trackPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return ""
	}
	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return ""
	}

	h := fnv.New64a()
	h.Write(pic.Data)
	path := filepath.Join(cacheDir, fmt.Sprintf("%x%s", h.Sum64(), pictureExt(pic)))
	if info, err := os.Stat(path); err == nil && info.Size() == int64(len(pic.Data)) {
		return path
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return ""
	}
	if err := os.WriteFile(path, pic.Data, 0o644); err != nil {
		return ""
	}
	return path
}

func pictureExt(pic *tag.Picture) string {
	switch {
	case strings.Contains(pic.MIMEType, "png"), strings.EqualFold(pic.Ext, "png"):
		return ".png"
	default:
		return ".jpg"
	}
}

// folderArt looks for a cover image in dir, lower-case names first.
func folderArt(dir string) string {
	for _, name := range coverNames {
		for _, candidate := range []string{name, strings.ToUpper(name)} {
			path := filepath.Join(dir, candidate)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				return path
			}
		}
	}
	return ""
}
