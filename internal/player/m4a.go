package player

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

// alacFrameSize is the ALAC default frames-per-packet.
const alacFrameSize = 4096

// m4aStream reads packets from an MP4 container and decodes them with
// faad2 (AAC) or alac (Apple Lossless).
type m4aStream struct {
	container *m4a.Reader
	closer    io.Closer
	codec     m4a.CodecType
	channels  int
	bits      int
	next      int // next container sample (packet) index
	length    int // total frames
	err       error

	aac  *faad2.Decoder
	alac *alac.Alac

	pending [][2]float64 // decoded frames not yet streamed
}

func openM4A(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	container, err := m4a.Open(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}

	sampleRate := int(container.SampleRate())
	s := &m4aStream{
		container: container,
		closer:    rc,
		codec:     container.Codec(),
		channels:  int(container.Channels()),
		bits:      int(container.SampleSize()),
		length:    int(container.Duration().Seconds() * float64(sampleRate)),
	}

	precision := 2
	switch s.codec {
	case m4a.CodecAAC:
		ctx := context.Background()
		dec, err := faad2.NewDecoder(ctx)
		if err != nil {
			return nil, beep.Format{}, err
		}
		if err := dec.Init(ctx, container.CodecConfig()); err != nil {
			dec.Close(ctx)
			return nil, beep.Format{}, err
		}
		s.aac = dec

	case m4a.CodecALAC:
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  sampleRate,
			SampleSize:  s.bits,
			NumChannels: s.channels,
			FrameSize:   alacFrameSize,
		})
		if err != nil {
			return nil, beep.Format{}, err
		}
		s.alac = dec
		if s.bits == 24 {
			precision = 3
		}

	case m4a.CodecUnknown:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2,
		Precision:   precision,
	}
	return s, format, nil
}

func (s *m4aStream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}

	for n < len(samples) {
		if len(s.pending) > 0 {
			c := copy(samples[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}
		if s.next >= s.container.SampleCount() {
			break
		}

		packet, err := s.container.ReadSample(s.next)
		if err != nil {
			s.err = err
			break
		}
		s.next++

		frames, err := s.decode(packet)
		if err != nil {
			s.err = err
			break
		}
		s.pending = frames
	}
	return n, n > 0
}

func (s *m4aStream) decode(packet []byte) ([][2]float64, error) {
	switch s.codec {
	case m4a.CodecAAC:
		pcm, err := s.aac.Decode(context.Background(), packet)
		if err != nil {
			return nil, err
		}
		return interleavedToFrames(pcm, s.channels), nil
	case m4a.CodecALAC:
		raw := s.alac.Decode(packet)
		if s.bits == 24 {
			return le24ToFrames(raw, s.channels), nil
		}
		return le16ToFrames(raw, s.channels), nil
	case m4a.CodecUnknown:
	}
	return nil, errors.New("m4a: unsupported codec")
}

func (s *m4aStream) Err() error { return s.err }

func (s *m4aStream) Len() int { return s.length }

func (s *m4aStream) Position() int {
	pos := s.container.SampleTime(s.next)
	return int(pos.Seconds()*float64(s.container.SampleRate())) - len(s.pending)
}

func (s *m4aStream) Seek(p int) error {
	p = min(max(p, 0), s.length)
	pos := time.Duration(float64(p) / float64(s.container.SampleRate()) * float64(time.Second))

	s.next = s.container.SeekToTime(pos)
	s.pending = nil
	s.err = nil
	return nil
}

func (s *m4aStream) Close() error {
	if s.aac != nil {
		s.aac.Close(context.Background())
	}
	return s.closer.Close()
}
