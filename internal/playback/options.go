package playback

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/openspot/internal/player"
)

// DefaultSeekDebounce is how long position reports are ignored after a seek.
const DefaultSeekDebounce = 300 * time.Millisecond

type options struct {
	logger       *log.Logger
	now          func() time.Time
	seekDebounce time.Duration
	tickInterval time.Duration
	volume       float64
	muted        bool
}

func defaultOptions() options {
	return options{
		now:          time.Now,
		seekDebounce: DefaultSeekDebounce,
		tickInterval: player.DefaultTickInterval,
		volume:       1,
	}
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock replaces time.Now for seek debouncing.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSeekDebounce sets the post-seek window in which position reports are
// dropped. It is raised to the tick interval if shorter.
func WithSeekDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.seekDebounce = d
		}
	}
}

// WithTickInterval tells the session how often the backend reports position.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tickInterval = d
		}
	}
}

// WithVolume sets the initial volume and mute flag.
func WithVolume(level float64, muted bool) Option {
	return func(o *options) {
		o.volume = level
		o.muted = muted
	}
}
