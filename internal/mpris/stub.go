//go:build !linux

package mpris

import (
	"github.com/charmbracelet/log"

	"github.com/tonearm/tonearm/internal/playback"
)

// Adapter is a no-op outside Linux.
type Adapter struct{}

// New returns a no-op adapter outside Linux.
func New(_ playback.Service, _ *log.Logger) (*Adapter, error) {
	return &Adapter{}, nil
}

func (a *Adapter) Close() error {
	return nil
}
