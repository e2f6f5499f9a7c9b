package notify

import (
	"context"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/openspot/internal/catalog"
	"github.com/llehouerou/openspot/internal/downloads"
	"github.com/llehouerou/openspot/internal/errmsg"
	"github.com/llehouerou/openspot/internal/logging"
)

const downloadTimeout = 5000

// TrackLookup returns the track a download belongs to.
type TrackLookup func(trackID int64) (catalog.Track, bool)

// Downloads posts a notification each time a download attempt finishes or
// fails. Later notifications for the same track replace earlier ones. It
// returns when updates closes or ctx is done.
func Downloads(ctx context.Context, n Notifier, updates <-chan downloads.JobState, tracks TrackLookup, logger *log.Logger) {
	logger = logging.OrDiscard(logger)
	posted := make(map[int64]uint32)
	seen := make(map[int64]string)

	for {
		var st downloads.JobState
		var ok bool
		select {
		case st, ok = <-updates:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}

		if st.Status != downloads.StatusSuccess && st.Status != downloads.StatusError {
			continue
		}
		key := st.Attempt + "/" + string(st.Status)
		if seen[st.TrackID] == key {
			continue
		}
		seen[st.TrackID] = key

		id, err := n.Notify(downloadNotification(st, tracks, posted[st.TrackID]))
		if err != nil {
			logger.Debug(errmsg.Format(errmsg.OpNotify, err), "track", st.TrackID)
			continue
		}
		if id != 0 {
			posted[st.TrackID] = id
		}
	}
}

func downloadNotification(st downloads.JobState, tracks TrackLookup, replaces uint32) Notification {
	name := "Track " + strconv.FormatInt(st.TrackID, 10)
	if t, ok := tracks(st.TrackID); ok && t.Title != "" {
		name = t.Title
		if t.Artist != "" {
			name = t.Artist + " - " + t.Title
		}
	}
	n := Notification{
		Title:      "Downloaded",
		Body:       name,
		Icon:       st.Thumbnail,
		Timeout:    downloadTimeout,
		ReplacesID: replaces,
		Urgency:    UrgencyLow,
	}
	if st.Status == downloads.StatusError {
		n.Title = "Download failed"
		n.Body = name + "\n" + st.Err
		n.Urgency = UrgencyNormal
	}
	return n
}
