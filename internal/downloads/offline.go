package downloads

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/state"
)

// OfflineRecord describes a completed download.
type OfflineRecord struct {
	TrackID       int64         `json:"trackId"`
	FilePath      string        `json:"fileUri"`
	ThumbnailPath string        `json:"thumbUri,omitempty"`
	Track         catalog.Track `json:"track"`
	Size          int64         `json:"size,omitempty"`
	DownloadedAt  time.Time     `json:"downloadedAt"`
}

// OfflineKey returns the store key of a track's offline record.
func OfflineKey(trackID int64) string {
	return state.OfflinePrefix + strconv.FormatInt(trackID, 10)
}

// Offline lists stored offline records, newest first.
func (m *Manager) Offline() ([]OfflineRecord, error) {
	keys, err := m.store.Keys(state.OfflinePrefix)
	if err != nil {
		return nil, err
	}
	records := make([]OfflineRecord, 0, len(keys))
	for _, key := range keys {
		rec, ok, err := state.GetJSON[OfflineRecord](m.store, key)
		if err != nil {
			m.log.Warn("skip offline record", "key", key, "err", err)
			continue
		}
		if ok {
			records = append(records, rec)
		}
	}
	slices.SortFunc(records, func(a, b OfflineRecord) int {
		return cmp.Compare(b.DownloadedAt.UnixNano(), a.DownloadedAt.UnixNano())
	})
	return records, nil
}

// Restore reloads completed downloads from the store as finished jobs.
// Records whose audio file no longer exists are deleted. It returns the
// number of jobs restored.
func (m *Manager) Restore() (int, error) {
	records, err := m.Offline()
	if err != nil {
		return 0, err
	}

	restored := 0
	var errs []error
	for _, rec := range records {
		if _, err := os.Stat(rec.FilePath); err != nil {
			m.log.Info("prune offline record", "id", rec.TrackID, "file", rec.FilePath)
			errs = append(errs, m.store.Delete(OfflineKey(rec.TrackID)))
			continue
		}

		track := rec.Track
		track.ID = rec.TrackID
		j := newJob(track, rec.FilePath, rec.ThumbnailPath)
		j.state.Status = StatusSuccess
		j.state.Progress = 100
		j.state.BytesWritten = rec.Size
		j.state.BytesExpected = rec.Size
		j.state.UpdatedAt = rec.DownloadedAt

		m.mu.Lock()
		if _, exists := m.jobs[rec.TrackID]; !exists {
			m.jobs[rec.TrackID] = j
			restored++
		}
		m.mu.Unlock()
	}
	return restored, errors.Join(errs...)
}

// Remove deletes a track's offline files and record and forgets its job.
// A running download is cancelled first.
func (m *Manager) Remove(trackID int64) error {
	m.Cancel(trackID)

	m.mu.Lock()
	j := m.jobs[trackID]
	delete(m.jobs, trackID)
	m.mu.Unlock()

	paths := []string{m.FilePath(trackID), m.ThumbnailPath(trackID)}
	if rec, ok, err := state.GetJSON[OfflineRecord](m.store, OfflineKey(trackID)); err == nil && ok {
		paths = append(paths, rec.FilePath, rec.ThumbnailPath)
	}
	if j != nil {
		j.stopBanner()
		st := j.Snapshot()
		paths = append(paths, st.Destination, st.Thumbnail)
	}

	if j != nil {
		// Wait for a cancelled transfer to let go of the file.
		j.xfer.Lock()
		defer j.xfer.Unlock()
	}

	var errs []error
	for _, p := range slices.Compact(sortedNonEmpty(paths)) {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	errs = append(errs, m.store.Delete(OfflineKey(trackID)))
	if err := errors.Join(errs...); err != nil {
		return err
	}

	m.log.Info("offline track removed", "id", trackID)
	m.emit(JobState{TrackID: trackID, Status: StatusIdle, UpdatedAt: m.now()})
	return nil
}

func sortedNonEmpty(paths []string) []string {
	out := slices.DeleteFunc(slices.Clone(paths), func(p string) bool { return p == "" })
	slices.Sort(out)
	return out
}

// LocalPath returns the audio file of a completed download.
func (m *Manager) LocalPath(trackID int64) (string, bool) {
	j := m.Job(trackID)
	if j == nil {
		return "", false
	}
	st := j.Snapshot()
	if st.Status != StatusSuccess {
		return "", false
	}
	if _, err := os.Stat(st.Destination); err != nil {
		return "", false
	}
	return st.Destination, true
}

// LocalThumbnail returns the saved cover art of a completed download.
func (m *Manager) LocalThumbnail(trackID int64) (string, bool) {
	j := m.Job(trackID)
	if j == nil {
		return "", false
	}
	st := j.Snapshot()
	if st.Status != StatusSuccess || st.Thumbnail == "" {
		return "", false
	}
	if _, err := os.Stat(st.Thumbnail); err != nil {
		return "", false
	}
	return st.Thumbnail, true
}

// LocalFirst resolves downloaded tracks to their local file and everything
// else through next.
func (m *Manager) LocalFirst(next StreamResolver) StreamResolver {
	return &localFirst{m: m, next: next}
}

type localFirst struct {
	m    *Manager
	next StreamResolver
}

func (l *localFirst) StreamURL(ctx context.Context, trackID int64) (string, error) {
	if path, ok := l.m.LocalPath(trackID); ok {
		return path, nil
	}
	return l.next.StreamURL(ctx, trackID)
}
