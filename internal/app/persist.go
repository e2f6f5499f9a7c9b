package app

import (
	"github.com/llehouerou/openspot/internal/errmsg"
	"github.com/llehouerou/openspot/internal/playback"
)

// persist saves the queue, volume and play history as the session changes
// them, until the session closes.
func (a *App) persist(sub *playback.Subscription) {
	defer close(a.persisted)
	for {
		select {
		case <-sub.QueueChanged:
			a.saveQueue()
		case <-sub.ModeChanged:
			a.saveQueue()
		case ev := <-sub.TrackChanged:
			a.saveQueue()
			if ev.Current != nil {
				if err := a.Recent.Add(*ev.Current); err != nil {
					a.Log.Warn(errmsg.Format(errmsg.OpRecentSave, err), "track", ev.Current.ID)
				}
			}
		case ev := <-sub.VolumeChanged:
			if err := a.Store.SaveVolume(ev.Volume, ev.Muted); err != nil {
				a.Log.Warn(errmsg.Format(errmsg.OpVolume, err))
			}
		case ev := <-sub.Error:
			a.Log.Warn(ev.Message, "track", ev.TrackID)
		case <-sub.Done:
			return
		}
	}
}

func (a *App) saveQueue() {
	a.Store.SaveQueue(a.Session.QueueSnapshot())
}
