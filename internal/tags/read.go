package tags

import (
	"os"
	"strings"

	"github.com/dhowden/tag"
)

// Read reads tag metadata from an audio file.
func Read(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		switch Ext(path) {
		case ExtMP3:
			// dhowden/tag has issues with some UTF-16 encoded ID3 tags
			return readMP3WithID3v2(path)
		case ExtFLAC:
			// dhowden/tag fails on FLAC files with prepended ID3 data
			return readFLACWithVorbis(path)
		default:
			// WAV, WMA, AIFF, raw AAC and friends
			return readWithTaglib(path)
		}
	}

	track, _ := m.Track()
	disc, _ := m.Disc()

	t := &Tag{
		Path:        path,
		Title:       strings.TrimSpace(m.Title()),
		Artist:      strings.TrimSpace(m.Artist()),
		AlbumArtist: strings.TrimSpace(m.AlbumArtist()),
		Album:       strings.TrimSpace(m.Album()),
		Genre:       m.Genre(),
		TrackNumber: track,
		DiscNumber:  disc,
		Year:        m.Year(),
	}

	// An ID3v1 footer can shadow a richer ID3v2 header.
	if t.Title == "" && Ext(path) == ExtMP3 {
		if v2, err := readMP3WithID3v2(path); err == nil {
			t.merge(v2)
		}
	}
	return t, nil
}

// merge fills the empty fields of t from o.
func (t *Tag) merge(o *Tag) {
	if t.Title == "" {
		t.Title = o.Title
	}
	if t.Artist == "" {
		t.Artist = o.Artist
	}
	if t.AlbumArtist == "" {
		t.AlbumArtist = o.AlbumArtist
	}
	if t.Album == "" {
		t.Album = o.Album
	}
	if t.Genre == "" {
		t.Genre = o.Genre
	}
	if t.TrackNumber == 0 {
		t.TrackNumber = o.TrackNumber
	}
	if t.DiscNumber == 0 {
		t.DiscNumber = o.DiscNumber
	}
	if t.Year == 0 {
		t.Year = o.Year
	}
}
