package keymap

// Binding ties keys to an action and documents it.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string // "global", "playback", "tracks"
}

// Bindings contains every key binding of the application.
var Bindings = []Binding{
	// Global
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit", "global"},
	{ActionRefreshLibrary, []string{"r", "f5"}, "Refresh library", "global"},

	// Playback
	{ActionPlayPause, []string{" "}, "Play/pause", "playback"},
	{ActionNextTrack, []string{"n", "pgdown"}, "Next track", "playback"},
	{ActionPrevTrack, []string{"p", "pgup"}, "Previous track", "playback"},
	{ActionSeekForward, []string{"right", "l"}, "Seek +5s", "playback"},
	{ActionSeekBack, []string{"left", "h"}, "Seek -5s", "playback"},
	{ActionSeekForwardLong, []string{"shift+right", "L"}, "Seek +30s", "playback"},
	{ActionSeekBackLong, []string{"shift+left", "H"}, "Seek -30s", "playback"},
	{ActionToggleLoop, []string{"R"}, "Toggle looping", "playback"},
	{ActionToggleShuffle, []string{"S"}, "Toggle shuffle", "playback"},

	// Track list
	{ActionMoveUp, []string{"k", "up"}, "Move up", "tracks"},
	{ActionMoveDown, []string{"j", "down"}, "Move down", "tracks"},
	{ActionJumpStart, []string{"g", "home"}, "First track", "tracks"},
	{ActionJumpEnd, []string{"G", "end"}, "Last track", "tracks"},
	{ActionPageUp, []string{"ctrl+u"}, "Page up", "tracks"},
	{ActionPageDown, []string{"ctrl+d"}, "Page down", "tracks"},
	{ActionSelect, []string{"enter"}, "Play selected track", "tracks"},
}
