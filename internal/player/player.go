package player

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// DefaultTickInterval is how often a loaded track reports its position.
const DefaultTickInterval = 250 * time.Millisecond

var (
	speakerMu          sync.Mutex
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

func initSpeaker(sr beep.SampleRate) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerInitialized {
		return nil
	}
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return err
	}
	speakerSampleRate = sr
	speakerInitialized = true
	return nil
}

// BeepOption configures a Beep backend.
type BeepOption func(*Beep)

// WithHTTPClient sets the client used to fetch remote streams.
func WithHTTPClient(c *http.Client) BeepOption {
	return func(b *Beep) { b.client = c }
}

// WithTickInterval sets the position report interval.
func WithTickInterval(d time.Duration) BeepOption {
	return func(b *Beep) {
		if d > 0 {
			b.tickInterval = d
		}
	}
}

// Beep plays audio through the system speaker.
type Beep struct {
	mu           sync.Mutex
	state        State
	src          *source
	streamer     beep.StreamSeekCloser
	format       beep.Format
	ctrl         *beep.Ctrl
	volume       *effects.Volume
	level        float64
	ticker       *ticker
	loadID       uint64
	drained      atomic.Bool
	client       *http.Client
	tickInterval time.Duration

	cbMu       sync.RWMutex
	onStatus   func(Status)
	onFinished func()
}

// NewBeep creates a speaker-backed backend at full volume.
func NewBeep(opts ...BeepOption) *Beep {
	b := &Beep{
		level:        1,
		client:       http.DefaultClient,
		tickInterval: DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// TickInterval returns the position report interval.
func (b *Beep) TickInterval() time.Duration {
	return b.tickInterval
}

// Load replaces the current track with the audio at url, paused at 0.
func (b *Beep) Load(ctx context.Context, url string) error {
	b.mu.Lock()
	b.unloadLocked()
	b.loadID++
	id := b.loadID
	b.mu.Unlock()

	// Remote streams are fetched without holding the lock so that a newer
	// Load can replace this one.
	src, err := openSource(ctx, b.client, url)
	if err != nil {
		return err
	}
	streamer, format, err := decode(src.file)
	if err != nil {
		src.Close()
		return err
	}
	if err := initSpeaker(format.SampleRate); err != nil {
		streamer.Close()
		src.Close()
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if id != b.loadID {
		streamer.Close()
		src.Close()
		return context.Canceled
	}

	var playStreamer beep.Streamer = streamer
	if format.SampleRate != speakerSampleRate {
		playStreamer = beep.Resample(4, format.SampleRate, speakerSampleRate, streamer)
	}
	b.src = src
	b.streamer = streamer
	b.format = format
	b.ctrl = &beep.Ctrl{Streamer: playStreamer, Paused: true}
	b.volume = &effects.Volume{Streamer: b.ctrl, Base: 2}
	b.applyVolumeLocked()
	b.state = Paused

	b.queueLocked()

	duration := format.SampleRate.D(streamer.Len())
	b.ticker = startTicker(b.tickInterval, func() {
		speaker.Lock()
		pos := format.SampleRate.D(streamer.Position())
		speaker.Unlock()
		b.emitStatus(Status{Position: pos, Duration: duration})
	})
	return nil
}

func (b *Beep) finished(id uint64) {
	b.mu.Lock()
	if id != b.loadID || !b.state.IsLoaded() {
		b.mu.Unlock()
		return
	}
	b.state = Paused
	b.mu.Unlock()

	b.cbMu.RLock()
	fn := b.onFinished
	b.cbMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (b *Beep) emitStatus(s Status) {
	b.cbMu.RLock()
	fn := b.onStatus
	b.cbMu.RUnlock()
	if fn != nil {
		fn(s)
	}
}

// unloadLocked stops output and releases the current track.
func (b *Beep) unloadLocked() {
	if b.ticker != nil {
		b.ticker.Stop()
		b.ticker = nil
	}
	if !b.state.IsLoaded() {
		return
	}
	speaker.Clear()
	if b.streamer != nil {
		b.streamer.Close()
		b.streamer = nil
	}
	b.src.Close()
	b.src = nil
	b.ctrl = nil
	b.volume = nil
	b.state = Unloaded
}

// Play resumes output of the loaded track.
func (b *Beep) Play() error {
	return b.setPaused(false)
}

// Pause pauses output of the loaded track.
func (b *Beep) Pause() error {
	return b.setPaused(true)
}

func (b *Beep) setPaused(paused bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.state.IsLoaded() {
		return ErrNotLoaded
	}

	speaker.Lock()
	b.ctrl.Paused = paused
	speaker.Unlock()

	if paused {
		b.state = Paused
		return nil
	}
	if b.drained.Load() {
		// The track ran to its end; start it over.
		speaker.Lock()
		_ = b.streamer.Seek(0)
		speaker.Unlock()
		b.queueLocked()
	}
	b.state = Playing
	return nil
}

// queueLocked hands the loaded track to the speaker.
func (b *Beep) queueLocked() {
	id := b.loadID
	b.drained.Store(false)
	speaker.Play(beep.Seq(b.volume, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker locked.
		b.drained.Store(true)
		go b.finished(id)
	})))
}

// Seek moves the loaded track to pos, clamped to the track bounds.
func (b *Beep) Seek(pos time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.state.IsLoaded() {
		return ErrNotLoaded
	}

	speaker.Lock()
	n := min(b.format.SampleRate.N(pos), b.streamer.Len()-1)
	err := b.streamer.Seek(max(n, 0))
	speaker.Unlock()
	if err != nil {
		return err
	}

	if b.drained.Load() {
		b.queueLocked()
	}
	return nil
}

// SetVolume sets the output level (0.0 to 1.0). Level 0 silences output.
func (b *Beep) SetVolume(level float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level = clampLevel(level)
	b.applyVolumeLocked()
	return nil
}

func (b *Beep) applyVolumeLocked() {
	if b.volume == nil {
		return
	}
	speaker.Lock()
	b.volume.Volume = levelToVolume(b.level)
	b.volume.Silent = b.level <= 0
	speaker.Unlock()
}

// State returns the transport state.
func (b *Beep) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// OnStatus registers the periodic status callback.
func (b *Beep) OnStatus(fn func(Status)) {
	b.cbMu.Lock()
	defer b.cbMu.Unlock()
	b.onStatus = fn
}

// OnFinished registers the end-of-track callback.
func (b *Beep) OnFinished(fn func()) {
	b.cbMu.Lock()
	defer b.cbMu.Unlock()
	b.onFinished = fn
}

// Close unloads the track. The backend can be loaded again afterwards.
func (b *Beep) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unloadLocked()
	b.loadID++
	return nil
}

// ticker runs fn on a fixed interval until stopped. Stop waits for an
// in-progress fn to return.
type ticker struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func startTicker(interval time.Duration, fn func()) *ticker {
	t := &ticker{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-tk.C:
				fn()
			}
		}
	}()
	return t
}

func (t *ticker) Stop() {
	t.once.Do(func() { close(t.stop) })
	<-t.done
}
