package tags

import (
	"go.senan.xyz/taglib"
)

// readWithTaglib reads tags with TagLib, which covers the formats the
// pure-Go readers do not (WMA, AIFF, WAV INFO chunks, raw AAC).
func readWithTaglib(path string) (*Tag, error) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, err
	}
	tags := taglibTags(rawTags)

	return &Tag{
		Path:        path,
		Title:       tags.get(taglib.Title),
		Artist:      tags.get(taglib.Artist),
		AlbumArtist: tags.get(taglib.AlbumArtist),
		Album:       tags.get(taglib.Album),
		Genre:       tags.get(taglib.Genre),
		TrackNumber: tags.getNumber(taglib.TrackNumber),
		DiscNumber:  tags.getNumber(taglib.DiscNumber),
		Year:        parseYear(tags.get(taglib.Date)),
	}, nil
}
