//go:build linux

// Package mpris exposes the playback controller on the session bus so
// desktop media keys and widgets can drive it.
package mpris

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/tonearm/tonearm/internal/library"
	"github.com/tonearm/tonearm/internal/logging"
	"github.com/tonearm/tonearm/internal/playback"
)

const busName = "tonearm"

// Adapter connects a playback.Service to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
	events *events.EventHandler
	sub    *playback.Subscription
	logger *log.Logger
	done   chan struct{}
}

// New starts serving org.mpris.MediaPlayer2.tonearm and forwards controller
// events as property changes.
func New(service playback.Service, logger *log.Logger) (*Adapter, error) {
	a := &Adapter{
		sub:    service.Subscribe(),
		logger: logging.OrDiscard(logger).WithPrefix("mpris"),
		done:   make(chan struct{}),
	}
	a.server = server.NewServer(busName, &rootAdapter{}, &playerAdapter{service: service})
	a.events = events.NewEventHandler(a.server)

	go func() {
		if err := a.server.Listen(); err != nil {
			a.logger.Warn("listen", "err", err)
		}
	}()
	go a.forward()

	return a, nil
}

// forward turns controller events into PropertiesChanged signals.
func (a *Adapter) forward() {
	for {
		var err error
		select {
		case <-a.done:
			return
		case <-a.sub.Done:
			return
		case <-a.sub.StateChanged:
			err = a.events.Player.OnPlayPause()
		case <-a.sub.TrackChanged:
			err = a.events.Player.OnTitle()
		case <-a.sub.DurationChanged:
			err = a.events.Player.OnTitle()
		case e := <-a.sub.PositionChanged:
			err = a.events.Player.OnSeek(types.Microseconds(e.Position.Microseconds()))
		case <-a.sub.ModeChanged:
			err = a.events.Player.OnOptions()
		case <-a.sub.QueueChanged:
			err = a.events.Player.OnOptions()
		case <-a.sub.Error:
		}
		if err != nil {
			a.logger.Debug("emit properties", "err", err)
		}
	}
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	close(a.done)
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error            { return nil }
func (r *rootAdapter) Quit() error             { return nil }
func (r *rootAdapter) CanQuit() (bool, error)  { return false, nil }
func (r *rootAdapter) CanRaise() (bool, error) { return false, nil }

func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }

func (r *rootAdapter) Identity() (string, error) { return "tonearm", nil }

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{
		"audio/mpeg", "audio/mp4", "audio/flac", "audio/wav", "audio/ogg",
	}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and the
// LoopStatus and Shuffle extensions.
type playerAdapter struct {
	service playback.Service
}

func (p *playerAdapter) Next() error {
	p.service.PlayNext()
	return nil
}

func (p *playerAdapter) Previous() error {
	p.service.PlayPrevious()
	return nil
}

func (p *playerAdapter) Pause() error {
	p.service.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	if p.service.State() == playback.StateIdle {
		return p.Play()
	}
	p.service.TogglePlayPause()
	return nil
}

// Stop pauses; the session has no stopped state distinct from paused.
func (p *playerAdapter) Stop() error {
	p.service.Pause()
	return nil
}

// Play resumes, or loads the current track (the first one if none) when
// nothing is loaded.
func (p *playerAdapter) Play() error {
	switch p.service.State() {
	case playback.StatePaused:
		p.service.Resume()
	case playback.StateIdle:
		if i := p.service.CurrentIndex(); i >= 0 {
			p.service.Load(i)
		} else {
			p.service.PlayNext()
		}
	case playback.StatePlaying, playback.StatePreparing:
	}
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	p.service.SeekTo(p.service.Position() + time.Duration(offset)*time.Microsecond)
	return nil
}

// SetPosition ignores requests for a track that is no longer current.
func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	t, ok := p.service.CurrentTrack()
	if !ok || trackID != formatTrackID(t.Path) {
		return nil
	}
	p.service.SeekTo(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.service.State() {
	case playback.StatePlaying, playback.StatePreparing:
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused:
		return types.PlaybackStatusPaused, nil
	case playback.StateIdle:
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error)  { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error { return nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	t, ok := p.service.CurrentTrack()
	if !ok {
		return types.Metadata{}, nil
	}

	length := p.service.Duration()
	if length == 0 {
		length = t.Duration
	}
	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(t.Path)),
		Length:  types.Microseconds(length.Microseconds()),
		Title:   t.Title,
		Artist:  []string{t.Artist},
		Album:   t.Album,
		Url:     "file://" + t.Path,
	}
	if art := library.CoverArt(t.Path); art != "" {
		meta.ArtUrl = "file://" + art
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error)  { return 1.0, nil }
func (p *playerAdapter) SetVolume(_ float64) error { return nil }

func (p *playerAdapter) Position() (int64, error) {
	return p.service.Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) CanGoNext() (bool, error)     { return p.hasTracks(), nil }
func (p *playerAdapter) CanGoPrevious() (bool, error) { return p.hasTracks(), nil }
func (p *playerAdapter) CanPlay() (bool, error)       { return p.hasTracks(), nil }

func (p *playerAdapter) CanPause() (bool, error) {
	return p.service.State().IsActive(), nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.service.State().IsActive(), nil
}

func (p *playerAdapter) CanControl() (bool, error) { return true, nil }

func (p *playerAdapter) hasTracks() bool {
	return len(p.service.Tracks()) > 0
}

// LoopStatus maps looping onto Track; the session has no playlist repeat.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	if p.service.Looping() {
		return types.LoopStatusTrack, nil
	}
	return types.LoopStatusNone, nil
}

func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	p.service.SetLooping(status == types.LoopStatusTrack)
	return nil
}

func (p *playerAdapter) Shuffle() (bool, error) {
	return p.service.Shuffle(), nil
}

func (p *playerAdapter) SetShuffle(shuffle bool) error {
	p.service.SetShuffle(shuffle)
	return nil
}

func formatTrackID(path string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
