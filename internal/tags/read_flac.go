package tags

import (
	"strings"

	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

// readFLACWithVorbis reads the Vorbis comment block of a FLAC file directly.
// Files go-flac cannot parse go to TagLib.
func readFLACWithVorbis(path string) (*Tag, error) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return readWithTaglib(path)
	}

	comments := make(taglibTags)
	for _, meta := range f.Meta {
		if meta.Type != goflac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			continue
		}
		for _, c := range cmt.Comments {
			key, value, ok := strings.Cut(c, "=")
			if !ok {
				continue
			}
			key = strings.ToUpper(key)
			comments[key] = append(comments[key], value)
		}
	}

	return &Tag{
		Path:        path,
		Title:       comments.get("TITLE"),
		Artist:      comments.get("ARTIST"),
		AlbumArtist: comments.get("ALBUMARTIST", "ALBUM ARTIST"),
		Album:       comments.get("ALBUM"),
		Genre:       comments.get("GENRE"),
		TrackNumber: comments.getNumber("TRACKNUMBER"),
		DiscNumber:  comments.getNumber("DISCNUMBER"),
		Year:        parseYear(comments.get("DATE", "YEAR")),
	}, nil
}
