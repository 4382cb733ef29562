package player

import (
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

// loopStreamer rewinds its source at the end while looping is set. It runs
// under the output lock, so the flag is atomic rather than mutex-guarded.
type loopStreamer struct {
	src     beep.StreamSeeker
	looping *atomic.Bool
}

func (l *loopStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		sn, sok := l.src.Stream(samples[n:])
		n += sn
		if sok && sn > 0 {
			continue
		}
		if !l.looping.Load() || l.src.Err() != nil || l.src.Len() == 0 {
			break
		}
		if err := l.src.Seek(0); err != nil {
			break
		}
	}
	return n, n > 0
}

func (l *loopStreamer) Err() error {
	return l.src.Err()
}
