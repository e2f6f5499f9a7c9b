package state

import (
	"time"

	"github.com/llehouerou/openspot/internal/errmsg"
	"github.com/llehouerou/openspot/internal/playlist"
)

// SaveQueue schedules the queue snapshot to be written. Calls within the
// debounce window coalesce into one write of the latest snapshot.
func (m *Manager) SaveQueue(s playlist.Snapshot) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &s

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		if pending == nil {
			m.saveMu.Unlock()
			return
		}
		m.writes.Add(1)
		m.saveMu.Unlock()
		defer m.writes.Done()

		if err := SetJSON(m, KeyQueue, pending); err != nil {
			m.log.Error(errmsg.Format(errmsg.OpQueueSave, err))
		}
	})
}

// GetQueue returns the saved queue, or nil if none was saved.
func (m *Manager) GetQueue() (*playlist.Snapshot, error) {
	return getQueue(m)
}

func getQueue(s Store) (*playlist.Snapshot, error) {
	snap, ok, err := GetJSON[playlist.Snapshot](s, KeyQueue)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}
