// internal/state/mock.go
package state

import (
	"sort"
	"strings"
	"sync"

	"github.com/llehouerou/openspot/internal/playlist"
)

// Mock is an in-memory test double for Manager. Queue saves are applied
// immediately.
type Mock struct {
	mu      sync.Mutex
	values  map[string][]byte
	err     error
	closed  bool
	queues  int
	flushes int
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{values: make(map[string][]byte)}
}

func (m *Mock) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Mock) Set(key string, value []byte) error {
	return m.SetMany(map[string][]byte{key: value})
}

func (m *Mock) SetMany(values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for k, v := range values {
		m.values[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *Mock) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.values, key)
	return nil
}

func (m *Mock) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var keys []string
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Mock) SaveQueue(s playlist.Snapshot) {
	m.mu.Lock()
	m.queues++
	m.mu.Unlock()
	_ = SetJSON(m, KeyQueue, s)
}

func (m *Mock) GetQueue() (*playlist.Snapshot, error) {
	return getQueue(m)
}

func (m *Mock) SaveVolume(volume float64, muted bool) error {
	return SetJSON(m, KeyVolume, VolumeState{Volume: volume, Muted: muted})
}

func (m *Mock) GetVolume() (*VolumeState, error) {
	return getVolume(m)
}

func (m *Mock) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// SetError makes every store operation fail with err; nil clears it.
func (m *Mock) SetError(err error) { m.mu.Lock(); m.err = err; m.mu.Unlock() }

func (m *Mock) IsClosed() bool { m.mu.Lock(); defer m.mu.Unlock(); return m.closed }

func (m *Mock) QueueSaves() int { m.mu.Lock(); defer m.mu.Unlock(); return m.queues }
