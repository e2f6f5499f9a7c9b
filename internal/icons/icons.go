// Package icons holds the status symbols of the terminal view. The set is
// chosen once at startup from the icons config value.
package icons

// Style names an icon set.
type Style string

const (
	StyleNerd    Style = "nerd"
	StyleUnicode Style = "unicode"
	StyleNone    Style = "none"
)

// Icons is one set of status symbols.
type Icons struct {
	Playing    string
	Paused     string
	Liked      string
	Downloaded string
	Shuffle    string
	RepeatAll  string
	RepeatOne  string
}

var (
	nerdIcons = Icons{
		Playing:    "\uf04b",     // nf-fa-play
		Paused:     "\uf04c",     // nf-fa-pause
		Liked:      "\U000f08d0", // nf-md-heart
		Downloaded: "\U000f01da", // nf-md-download
		Shuffle:    "\U000f049f", // nf-md-shuffle
		RepeatAll:  "\U000f0456", // nf-md-repeat
		RepeatOne:  "\U000f0458", // nf-md-repeat_once
	}

	unicodeIcons = Icons{
		Playing:    "▶",
		Paused:     "⏸",
		Liked:      "♥",
		Downloaded: "↓",
		Shuffle:    "⇄",
		RepeatAll:  "↻",
		RepeatOne:  "↻1",
	}

	noneIcons = Icons{
		Playing:    ">",
		Paused:     "||",
		Liked:      "*",
		Downloaded: "v",
		Shuffle:    "[S]",
		RepeatAll:  "[R]",
		RepeatOne:  "[1]",
	}

	current = unicodeIcons
)

// Init selects the icon set. Unknown styles keep the unicode set.
func Init(style string) {
	switch Style(style) {
	case StyleNerd:
		current = nerdIcons
	case StyleNone:
		current = noneIcons
	default:
		current = unicodeIcons
	}
}

// Get returns the active icon set.
func Get() Icons {
	return current
}
