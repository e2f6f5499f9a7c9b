package keymap

// Action is something a key press asks the player to do.
type Action string

const (
	ActionQuit Action = "quit"

	// Transport
	ActionPlayPause Action = "play_pause"
	ActionNext      Action = "next"
	ActionPrevious  Action = "previous"
	ActionRetry     Action = "retry"

	// Seeking
	ActionSeekForward Action = "seek_forward"
	ActionSeekBack    Action = "seek_back"
	ActionSeekCancel  Action = "seek_cancel"
	ActionSeekCommit  Action = "seek_commit"

	// Volume
	ActionVolumeUp   Action = "volume_up"
	ActionVolumeDown Action = "volume_down"
	ActionMute       Action = "mute"

	// Queue
	ActionShuffle Action = "shuffle"
	ActionRepeat  Action = "repeat"
	ActionUndo    Action = "undo"
	ActionRedo    Action = "redo"

	// Library
	ActionLike     Action = "like"
	ActionDownload Action = "download"
)
