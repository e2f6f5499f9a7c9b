// Package keymap binds keys to player actions and renders the key help.
package keymap

import "strings"

// Binding maps keys to one action.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	// Hint and Short form the footer entry "<Hint> <Short>". Bindings with
	// no Short are left out of the footer.
	Hint  string
	Short string
}

// Player holds the now-playing view bindings.
var Player = []Binding{
	{ActionPlayPause, []string{" "}, "Play/pause", "space", "play/pause"},
	{ActionNext, []string{"n"}, "Next track", "n/b", "next/prev"},
	{ActionPrevious, []string{"b"}, "Previous track", "", ""},
	{ActionSeekForward, []string{"right"}, "Seek +5s", "←/→", "seek"},
	{ActionSeekBack, []string{"left"}, "Seek -5s", "", ""},
	{ActionSeekCommit, []string{"enter"}, "Seek now", "", ""},
	{ActionSeekCancel, []string{"esc"}, "Cancel seek", "", ""},
	{ActionVolumeUp, []string{"up", "+"}, "Volume up", "↑/↓", "volume"},
	{ActionVolumeDown, []string{"down", "-"}, "Volume down", "", ""},
	{ActionMute, []string{"m"}, "Mute", "m", "mute"},
	{ActionShuffle, []string{"s"}, "Toggle shuffle", "s", "shuffle"},
	{ActionRepeat, []string{"r"}, "Cycle repeat mode", "r", "repeat"},
	{ActionRetry, []string{"R"}, "Retry failed track", "", ""},
	{ActionUndo, []string{"u"}, "Undo queue change", "", ""},
	{ActionRedo, []string{"ctrl+r"}, "Redo queue change", "", ""},
	{ActionLike, []string{"l"}, "Like/unlike", "l", "like"},
	{ActionDownload, []string{"d"}, "Download for offline", "d", "download"},
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit", "q", "quit"},
}

// Footer joins the short help of bindings on one line.
func Footer(bindings []Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.Short != "" {
			parts = append(parts, b.Hint+" "+b.Short)
		}
	}
	return strings.Join(parts, " · ")
}

// Describe lists every binding as "keys  description", one per line.
func Describe(bindings []Binding) string {
	width := 0
	keys := make([]string, len(bindings))
	for i, b := range bindings {
		names := make([]string, len(b.Keys))
		for j, k := range b.Keys {
			names[j] = KeyName(k)
		}
		keys[i] = strings.Join(names, ", ")
		width = max(width, len(keys[i]))
	}
	var sb strings.Builder
	for i, b := range bindings {
		sb.WriteString(keys[i])
		sb.WriteString(strings.Repeat(" ", width-len(keys[i])+2))
		sb.WriteString(b.Description)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// KeyName returns the printable name of a key string.
func KeyName(key string) string {
	if key == " " {
		return "space"
	}
	return key
}
