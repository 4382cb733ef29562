package tags

import (
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// readMP3WithID3v2 reads MP3 tags with id3v2 when dhowden/tag cannot.
func readMP3WithID3v2(path string) (*Tag, error) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer id3tag.Close()

	t := &Tag{
		Path:        path,
		Title:       strings.TrimSpace(id3tag.Title()),
		Artist:      strings.TrimSpace(id3tag.Artist()),
		AlbumArtist: getID3TextFrame(id3tag, "TPE2"),
		Album:       strings.TrimSpace(id3tag.Album()),
		Genre:       id3tag.Genre(),
		TrackNumber: parseID3Number(getID3TextFrame(id3tag, "TRCK")),
		DiscNumber:  parseID3Number(getID3TextFrame(id3tag, "TPOS")),
	}

	// ID3v2.4 recording date, then ID3v2.3 year
	date := getID3TextFrame(id3tag, "TDRC")
	if date == "" {
		date = getID3TextFrame(id3tag, "TYER")
	}
	t.Year = parseYear(date)

	return t, nil
}

// getID3TextFrame returns the text of the first frame with the given ID.
func getID3TextFrame(tag *id3v2.Tag, id string) string {
	frames := tag.GetFrames(id)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return strings.TrimSpace(tf.Text)
	}
	return ""
}

// parseID3Number parses "N" or "N/M".
func parseID3Number(s string) int {
	if idx := strings.Index(s, "/"); idx > 0 {
		s = s[:idx]
	}
	n, _ := strconv.Atoi(s)
	return n
}
