package tags

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	goflac "github.com/go-flac/go-flac"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/llehouerou/go-m4a"
	"github.com/llehouerou/go-mp3"
	"go.senan.xyz/taglib"
)

// ErrUnknownDuration is returned when a stream length cannot be determined.
var ErrUnknownDuration = errors.New("could not determine duration")

// ReadAudioInfo reads audio stream properties (duration, format, sample rate).
// It uses header and container data rather than full decoding where possible.
func ReadAudioInfo(path string) (*AudioInfo, error) {
	ext := Ext(path)
	if !audioExtensions[ext] {
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}

	switch ext {
	case ExtFLAC:
		return readFLACStreamInfo(path)
	case ExtAAC, ExtWMA, ExtAIFF, ExtAMR, ExtMID:
		return readTaglibAudioInfo(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext {
	case ExtMP3:
		return readMP3AudioInfo(f)
	case ExtWAV:
		return readWAVAudioInfo(f)
	case ExtOGG:
		return readVorbisAudioInfo(f)
	case ExtOPUS:
		return readOpusAudioInfo(f)
	case ExtM4A:
		return readM4AAudioInfo(f)
	}

	return nil, fmt.Errorf("unsupported format: %s", ext)
}

// readMP3AudioInfo extracts audio info from an MP3 file.
func readMP3AudioInfo(f *os.File) (*AudioInfo, error) {
	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}

	sampleRate := decoder.SampleRate()
	if sampleRate == 0 {
		return nil, errors.New("mp3: invalid sample rate")
	}

	sampleCount := max(decoder.SampleCount(), 0)

	return &AudioInfo{
		Duration:   samplesToDuration(sampleCount, sampleRate),
		Format:     "MP3",
		SampleRate: sampleRate,
		Channels:   2, // go-mp3 always decodes to stereo
	}, nil
}

// readFLACStreamInfo extracts audio info from the FLAC STREAMINFO block.
func readFLACStreamInfo(path string) (*AudioInfo, error) {
	flacFile, err := goflac.ParseFile(path)
	if err != nil {
		// Prepended ID3 tags confuse go-flac
		return readFLACWithBeep(path)
	}

	for _, meta := range flacFile.Meta {
		if meta.Type != goflac.StreamInfo || len(meta.Data) < 18 {
			continue
		}
		data := meta.Data

		// Bytes 10-12: sample rate (20 bits), channels-1 (3 bits), ...
		sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
		channels := int(data[12]>>1)&0x07 + 1
		// Bytes 13-17: total samples (36 bits)
		totalSamples := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 | int64(data[15])<<16 | int64(data[16])<<8 | int64(data[17])

		return &AudioInfo{
			Duration:   samplesToDuration(totalSamples, sampleRate),
			Format:     "FLAC",
			SampleRate: sampleRate,
			Channels:   channels,
		}, nil
	}

	return readFLACWithBeep(path)
}

// readFLACWithBeep uses beep's FLAC decoder as fallback.
func readFLACWithBeep(path string) (*AudioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := SkipID3v2(f); err != nil {
		return nil, err
	}

	streamer, format, err := flac.Decode(f)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	return &AudioInfo{
		Duration:   format.SampleRate.D(streamer.Len()),
		Format:     "FLAC",
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
	}, nil
}

// readWAVAudioInfo reads the RIFF header through beep's WAV decoder.
func readWAVAudioInfo(f *os.File) (*AudioInfo, error) {
	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, err
	}

	return &AudioInfo{
		Duration:   format.SampleRate.D(streamer.Len()),
		Format:     "WAV",
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
	}, nil
}

// readVorbisAudioInfo reads Ogg Vorbis headers through beep's decoder.
func readVorbisAudioInfo(f *os.File) (*AudioInfo, error) {
	// vorbis.Decode takes ownership of the reader; the caller still closes f.
	streamer, format, err := vorbis.Decode(io.NopCloser(f))
	if err != nil {
		return nil, err
	}

	return &AudioInfo{
		Duration:   format.SampleRate.D(streamer.Len()),
		Format:     "VORBIS",
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
	}, nil
}

// readOpusAudioInfo extracts audio info from an Ogg Opus file without decoding.
func readOpusAudioInfo(f *os.File) (*AudioInfo, error) {
	// Opus granule positions always count 48kHz samples
	const opusSampleRate = 48000

	granule, err := lastOggGranule(f)
	if err != nil {
		return nil, err
	}

	return &AudioInfo{
		Duration:   samplesToDuration(granule, opusSampleRate),
		Format:     "OPUS",
		SampleRate: opusSampleRate,
	}, nil
}

// lastOggGranule returns the granule position of the last Ogg page.
func lastOggGranule(f *os.File) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}

	// The last page lives in the final 64KB
	searchSize := min(int64(65536), fi.Size())

	if _, err := f.Seek(-searchSize, io.SeekEnd); err != nil {
		return 0, err
	}

	buf := make([]byte, searchSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, err
	}
	buf = buf[:n]

	for i := len(buf) - 27; i >= 0; i-- {
		if buf[i] != 'O' || buf[i+1] != 'g' || buf[i+2] != 'g' || buf[i+3] != 'S' {
			continue
		}
		// Granule position: offset 6, 8 bytes little-endian
		granule := int64(buf[i+6]) | int64(buf[i+7])<<8 | int64(buf[i+8])<<16 | int64(buf[i+9])<<24 |
			int64(buf[i+10])<<32 | int64(buf[i+11])<<40 | int64(buf[i+12])<<48 | int64(buf[i+13])<<56
		if granule > 0 {
			return granule, nil
		}
	}

	return 0, ErrUnknownDuration
}

// readM4AAudioInfo extracts audio info from the MP4 container.
func readM4AAudioInfo(f *os.File) (*AudioInfo, error) {
	container, err := m4a.Open(f)
	if err != nil {
		return nil, err
	}

	format := "M4A"
	switch container.Codec() {
	case m4a.CodecAAC:
		format = "AAC"
	case m4a.CodecALAC:
		format = "ALAC"
	case m4a.CodecUnknown:
	}

	return &AudioInfo{
		Duration:   container.Duration(),
		Format:     format,
		SampleRate: int(container.SampleRate()),
		Channels:   int(container.Channels()),
	}, nil
}

// readTaglibAudioInfo asks TagLib for stream properties of formats without
// a pure-Go reader.
func readTaglibAudioInfo(path string) (*AudioInfo, error) {
	props, err := taglib.ReadProperties(path)
	if err != nil {
		return nil, err
	}
	if props.Length <= 0 {
		return nil, ErrUnknownDuration
	}

	return &AudioInfo{
		Duration:   props.Length,
		Format:     strings.ToUpper(strings.TrimPrefix(Ext(path), ".")),
		SampleRate: int(props.SampleRate),
		Channels:   int(props.Channels),
	}, nil
}

func samplesToDuration(samples int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// SkipID3v2 positions r after an ID3v2 tag, or at the start when there is none.
func SkipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	if n < 10 || string(header[0:3]) != id3Magic {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// ID3v2 size is stored as a syncsafe integer in bytes 6-9
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
