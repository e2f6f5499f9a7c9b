// internal/player/mock.go
package player

import (
	"context"
	"sync"
	"time"
)

// Mock is a test double for Backend.
type Mock struct {
	mu          sync.Mutex
	state       State
	loaded      string
	position    time.Duration
	volume      float64
	loadErr     error
	playErr     error
	pauseErr    error
	seekErr     error
	loadCalls   []string
	playCalls   int
	pauseCalls  int
	seekCalls   []time.Duration
	volumeCalls []float64
	gates       map[string]chan struct{}
	onStatus    func(Status)
	onFinished  func()
	closed      bool
}

// NewMock creates a new mock backend for testing.
func NewMock() *Mock {
	return &Mock{
		volume: 1,
		gates:  make(map[string]chan struct{}),
	}
}

func (m *Mock) Load(ctx context.Context, url string) error {
	m.mu.Lock()
	m.loadCalls = append(m.loadCalls, url)
	gate := m.gates[url]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		m.state = Unloaded
		m.loaded = ""
		return m.loadErr
	}
	m.state = Paused
	m.loaded = url
	m.position = 0
	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if m.playErr != nil {
		return m.playErr
	}
	if !m.state.IsLoaded() {
		return ErrNotLoaded
	}
	m.state = Playing
	return nil
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	if m.pauseErr != nil {
		return m.pauseErr
	}
	if !m.state.IsLoaded() {
		return ErrNotLoaded
	}
	m.state = Paused
	return nil
}

func (m *Mock) Seek(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, pos)
	if m.seekErr != nil {
		return m.seekErr
	}
	m.position = pos
	return nil
}

func (m *Mock) SetVolume(level float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumeCalls = append(m.volumeCalls, level)
	m.volume = level
	return nil
}

func (m *Mock) OnStatus(fn func(Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStatus = fn
}

func (m *Mock) OnFinished(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinished = fn
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.state = Unloaded
	return nil
}

// Test helpers

func (m *Mock) SetLoadError(err error) { m.mu.Lock(); m.loadErr = err; m.mu.Unlock() }

func (m *Mock) SetPlayError(err error) { m.mu.Lock(); m.playErr = err; m.mu.Unlock() }

func (m *Mock) SetPauseError(err error) { m.mu.Lock(); m.pauseErr = err; m.mu.Unlock() }

func (m *Mock) SetSeekError(err error) { m.mu.Lock(); m.seekErr = err; m.mu.Unlock() }

// Gate makes Load(url) block until the returned release func is called.
func (m *Mock) Gate(url string) (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.gates[url] = ch
	m.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(ch)
			m.mu.Lock()
			delete(m.gates, url)
			m.mu.Unlock()
		})
	}
}

func (m *Mock) State() State { m.mu.Lock(); defer m.mu.Unlock(); return m.state }

func (m *Mock) Loaded() string { m.mu.Lock(); defer m.mu.Unlock(); return m.loaded }

func (m *Mock) Position() time.Duration { m.mu.Lock(); defer m.mu.Unlock(); return m.position }

func (m *Mock) Volume() float64 { m.mu.Lock(); defer m.mu.Unlock(); return m.volume }

func (m *Mock) Closed() bool { m.mu.Lock(); defer m.mu.Unlock(); return m.closed }

func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

func (m *Mock) PlayCalls() int { m.mu.Lock(); defer m.mu.Unlock(); return m.playCalls }

func (m *Mock) PauseCalls() int { m.mu.Lock(); defer m.mu.Unlock(); return m.pauseCalls }

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

func (m *Mock) VolumeCalls() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.volumeCalls...)
}

// EmitStatus delivers a status report as the backend ticker would.
func (m *Mock) EmitStatus(s Status) {
	m.mu.Lock()
	fn := m.onStatus
	m.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// SimulateFinished simulates the loaded track reaching its end.
func (m *Mock) SimulateFinished() {
	m.mu.Lock()
	m.state = Paused
	fn := m.onFinished
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}
