// Package notify sends desktop notifications.
package notify

import (
	"errors"
	"strings"
	"sync"
)

// ErrNotSupported is returned by New on platforms without a notification
// service.
var ErrNotSupported = errors.New("desktop notifications not supported")

// Urgency represents notification priority levels per the freedesktop
// notification protocol.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // summary, required
	Body       string  // optional, basic markup
	Icon       string  // image path or icon name
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification
	Urgency    Urgency
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

const nowPlayingTimeout = 5000

// NowPlaying shows one notification per started track, replacing the
// previous one so the desktop never stacks them.
type NowPlaying struct {
	notifier Notifier

	mu     sync.Mutex
	lastID uint32
}

// NewNowPlaying wraps n.
func NewNowPlaying(n Notifier) *NowPlaying {
	return &NowPlaying{notifier: n}
}

// Show announces a track. icon may be empty.
func (p *NowPlaying) Show(title, artist, album, icon string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var body []string
	for _, s := range []string{artist, album} {
		if s != "" {
			body = append(body, s)
		}
	}

	id, err := p.notifier.Notify(Notification{
		Title:      title,
		Body:       strings.Join(body, " · "),
		Icon:       icon,
		Timeout:    nowPlayingTimeout,
		ReplacesID: p.lastID,
		Urgency:    UrgencyLow,
	})
	if err != nil {
		return err
	}
	p.lastID = id
	return nil
}

// Dismiss closes the last notification, if any.
func (p *NowPlaying) Dismiss() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastID == 0 {
		return nil
	}
	id := p.lastID
	p.lastID = 0
	return p.notifier.Close(id)
}
