package downloads

import (
	"context"
	"sync"
	"time"

	"github.com/llehouerou/openspot/internal/catalog"
)

// JobState is a point-in-time copy of a job.
type JobState struct {
	TrackID       int64
	Status        Status
	Progress      int // percent, 0-100
	Err           string
	Destination   string
	Thumbnail     string
	BytesWritten  int64
	BytesExpected int64 // 0 when the size is unknown
	Attempt       string
	UpdatedAt     time.Time
	ShowSuccess   bool // success banner still visible
}

// Job tracks the download of one track. Every caller that requests the same
// track receives the same Job.
type Job struct {
	xfer   sync.Mutex // held by the running transfer
	mu     sync.Mutex
	track  catalog.Track
	state  JobState
	cancel context.CancelFunc
	done   chan struct{}
	banner *time.Timer
}

func newJob(track catalog.Track, dest, thumb string) *Job {
	done := make(chan struct{})
	close(done)
	return &Job{
		track: track,
		state: JobState{
			TrackID:     track.ID,
			Status:      StatusIdle,
			Destination: dest,
			Thumbnail:   thumb,
		},
		done: done,
	}
}

// Track returns the track being downloaded.
func (j *Job) Track() catalog.Track {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.track
}

// Snapshot returns the current job state.
func (j *Job) Snapshot() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Done returns a channel closed when the current attempt stops, whether it
// succeeded, failed or was cancelled.
func (j *Job) Done() <-chan struct{} {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done
}

// Wait blocks until the current attempt stops or ctx is done.
func (j *Job) Wait(ctx context.Context) (JobState, error) {
	select {
	case <-j.Done():
		return j.Snapshot(), nil
	case <-ctx.Done():
		return j.Snapshot(), ctx.Err()
	}
}

// begin starts a new attempt. The caller holds no job lock.
func (j *Job) begin(attempt string, cancel context.CancelFunc, now time.Time) JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stopBannerLocked()
	j.cancel = cancel
	j.done = make(chan struct{})
	j.state.Status = StatusDownloading
	j.state.Attempt = attempt
	j.state.Progress = 0
	j.state.BytesWritten = 0
	j.state.BytesExpected = 0
	j.state.Err = ""
	j.state.ShowSuccess = false
	j.state.UpdatedAt = now
	return j.state
}

// progress applies a transfer report. It returns false for reports from a
// stale attempt or when the visible percentage did not change.
func (j *Job) progress(attempt string, written, expected int64, now time.Time) (JobState, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Attempt != attempt || j.state.Status != StatusDownloading {
		return j.state, false
	}
	j.state.BytesWritten = written
	prev := j.state.Progress
	if expected > 0 {
		j.state.BytesExpected = expected
		j.state.Progress = percent(written, expected)
	}
	j.state.UpdatedAt = now
	return j.state, j.state.Progress != prev
}

// percent is floor(written/expected*100) clamped to [0,100].
func percent(written, expected int64) int {
	if expected <= 0 {
		return 0
	}
	p := written * 100 / expected
	return int(min(max(p, 0), 100))
}

// finish ends attempt with err (success when nil). It returns false if the
// attempt is no longer current.
func (j *Job) finish(attempt string, thumb string, err error, now time.Time) (JobState, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Attempt != attempt || j.state.Status != StatusDownloading {
		return j.state, false
	}
	if err != nil {
		j.state.Status = StatusError
		j.state.Err = err.Error()
	} else {
		j.state.Status = StatusSuccess
		j.state.Progress = 100
		j.state.Thumbnail = thumb
		j.state.ShowSuccess = true
	}
	j.state.UpdatedAt = now
	j.cancel = nil
	close(j.done)
	return j.state, true
}

// abort cancels a running attempt and returns the job to idle.
func (j *Job) abort(now time.Time) (JobState, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Status != StatusDownloading {
		return j.state, false
	}
	if j.cancel != nil {
		j.cancel()
		j.cancel = nil
	}
	j.state.Status = StatusIdle
	j.state.Attempt = ""
	j.state.Progress = 0
	j.state.UpdatedAt = now
	close(j.done)
	return j.state, true
}

// showBanner arms the success banner timer; fire runs once it expires.
func (j *Job) showBanner(d time.Duration, fire func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stopBannerLocked()
	attempt := j.state.Attempt
	j.banner = time.AfterFunc(d, func() {
		j.mu.Lock()
		if j.state.Attempt != attempt || !j.state.ShowSuccess {
			j.mu.Unlock()
			return
		}
		j.state.ShowSuccess = false
		j.banner = nil
		j.mu.Unlock()
		fire()
	})
}

func (j *Job) stopBannerLocked() {
	if j.banner != nil {
		j.banner.Stop()
		j.banner = nil
	}
}

func (j *Job) stopBanner() {
	j.mu.Lock()
	j.stopBannerLocked()
	j.mu.Unlock()
}
