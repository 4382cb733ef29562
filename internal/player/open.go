package player

import (
	"io"
	"os"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tonearm/tonearm/internal/tags"
)

type openFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

// openers maps the extensions this package can decode to their decoders.
// Raw ADTS .aac and .wma have no pure-Go decoder and are absent.
var openers = map[string]openFunc{
	tags.ExtMP3:  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return openMP3(f) },
	tags.ExtM4A:  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return openM4A(f) },
	tags.ExtFLAC: openFLAC,
	tags.ExtWAV:  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
	tags.ExtOGG:  func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
}

// CanDecode reports whether path has an extension this package decodes.
func CanDecode(path string) bool {
	_, ok := openers[tags.Ext(path)]
	return ok
}

func openFLAC(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	// Some taggers prepend ID3v2 to FLAC files
	if err := tags.SkipID3v2(f); err != nil {
		return nil, beep.Format{}, err
	}
	return flac.Decode(f)
}

// openFile opens and decodes path. The returned stream owns the file.
func openFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	open, ok := openers[tags.Ext(path)]
	if !ok {
		return nil, beep.Format{}, ErrUnsupportedFormat
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	s, format, err := open(f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, err
	}
	return &ownedStream{StreamSeekCloser: s, file: f}, format, nil
}

// ownedStream closes the backing file with the stream. Decoders that
// already close their reader make the second Close a no-op error we drop.
type ownedStream struct {
	beep.StreamSeekCloser
	file io.Closer
}

func (s *ownedStream) Close() error {
	err := s.StreamSeekCloser.Close()
	_ = s.file.Close()
	return err
}
