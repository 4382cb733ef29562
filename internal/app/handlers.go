package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonearm/tonearm/internal/keymap"
)

const (
	seekStep     = 5 * time.Second
	seekLongStep = 30 * time.Second
)

// handleKey resolves a key press to an intent. Controller intents are
// followed by a poll so the view reflects them without waiting a tick.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keys.Resolve(msg.String())

	switch action {
	case keymap.ActionQuit:
		m.quitting = true
		m.cancel()
		return m, tea.Quit

	case keymap.ActionRefreshLibrary:
		if m.Loading {
			return m, nil
		}
		cmd := m.startLoad()
		return m, cmd

	case keymap.ActionMoveUp:
		m.moveSelection(-1)
	case keymap.ActionMoveDown:
		m.moveSelection(1)
	case keymap.ActionPageUp:
		m.moveSelection(-m.listHeight())
	case keymap.ActionPageDown:
		m.moveSelection(m.listHeight())
	case keymap.ActionJumpStart:
		m.moveSelection(-len(m.Tracks))
	case keymap.ActionJumpEnd:
		m.moveSelection(len(m.Tracks))

	default:
		if !m.handlePlaybackIntent(action) {
			return m, nil
		}
		m.poll()
	}
	return m, nil
}

// handlePlaybackIntent forwards a playback action to the controller.
func (m *Model) handlePlaybackIntent(action keymap.Action) bool {
	switch action {
	case keymap.ActionSelect:
		if len(m.Tracks) == 0 {
			return false
		}
		m.service.Load(m.Selected)
	case keymap.ActionPlayPause:
		m.service.TogglePlayPause()
	case keymap.ActionNextTrack:
		m.service.PlayNext()
	case keymap.ActionPrevTrack:
		m.service.PlayPrevious()
	case keymap.ActionSeekForward:
		m.seekBy(seekStep)
	case keymap.ActionSeekBack:
		m.seekBy(-seekStep)
	case keymap.ActionSeekForwardLong:
		m.seekBy(seekLongStep)
	case keymap.ActionSeekBackLong:
		m.seekBy(-seekLongStep)
	case keymap.ActionToggleLoop:
		m.service.SetLooping(!m.service.Looping())
		m.Looping = m.service.Looping()
	case keymap.ActionToggleShuffle:
		m.service.SetShuffle(!m.service.Shuffle())
		m.Shuffle = m.service.Shuffle()
	default:
		return false
	}
	return true
}

func (m *Model) seekBy(delta time.Duration) {
	m.service.SeekTo(m.service.Position() + delta)
}

func (m *Model) moveSelection(delta int) {
	if len(m.Tracks) == 0 {
		m.Selected = 0
		return
	}
	m.Selected = min(max(m.Selected+delta, 0), len(m.Tracks)-1)
	m.scrollToSelection()
}

// scrollToSelection keeps the selected row inside the visible window.
func (m *Model) scrollToSelection() {
	h := m.listHeight()
	if m.Selected < m.offset {
		m.offset = m.Selected
	}
	if m.Selected >= m.offset+h {
		m.offset = m.Selected - h + 1
	}
	m.offset = max(min(m.offset, len(m.Tracks)-h), 0)
}
