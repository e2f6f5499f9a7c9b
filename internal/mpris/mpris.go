//go:build linux

package mpris

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/openspot/internal/playback"
	"github.com/llehouerou/openspot/internal/playlist"
)

// Adapter exposes a playback session over D-Bus.
type Adapter struct {
	server *server.Server
}

// New creates and starts a new MPRIS adapter.
func New(player Player, opts ...Option) (*Adapter, error) {
	pa := &playerAdapter{player: player}
	for _, opt := range opts {
		opt(pa)
	}

	a := &Adapter{server: server.NewServer("openspot", &rootAdapter{}, pa)}

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil
}

func (r *rootAdapter) Quit() error {
	return nil
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "OpenSpot", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"https", "file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/mp3"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and optional interfaces.
type playerAdapter struct {
	player Player
	covers CoverFunc
}

func (p *playerAdapter) Next() error {
	return p.player.Next(context.Background())
}

func (p *playerAdapter) Previous() error {
	return p.player.Previous(context.Background())
}

func (p *playerAdapter) Pause() error {
	return p.player.Pause()
}

func (p *playerAdapter) PlayPause() error {
	return p.player.Toggle()
}

// Stop pauses and rewinds; the session has no separate stopped state.
func (p *playerAdapter) Stop() error {
	if p.player.State() == playback.StatePlaying {
		if err := p.player.Pause(); err != nil {
			return err
		}
	}
	if !p.player.State().IsLoaded() {
		return nil
	}
	return p.player.CommitSeek(0)
}

func (p *playerAdapter) Play() error {
	if p.player.State() == playback.StatePlaying {
		return nil
	}
	return p.player.Play()
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.player.SeekBy(time.Duration(offset) * time.Microsecond)
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	return p.player.CommitSeek(time.Duration(position) * time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return playbackStatus(p.player.State()), nil
}

func playbackStatus(s playback.State) types.PlaybackStatus {
	switch s {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying
	case playback.StatePaused, playback.StateLoading:
		return types.PlaybackStatusPaused
	case playback.StateIdle, playback.StateError:
		return types.PlaybackStatusStopped
	}
	return types.PlaybackStatusStopped
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap := p.player.Snapshot()
	track := snap.Track
	if track == nil {
		return types.Metadata{}, nil
	}

	length := snap.Duration
	if length <= 0 {
		length = track.Duration()
	}
	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track.ID)),
		Length:  types.Microseconds(length.Microseconds()),
		Title:   track.Title,
		Artist:  []string{track.Artist},
		Album:   track.AlbumTitle,
		ArtUrl:  CoverURL(*track, p.covers),
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	snap := p.player.Snapshot()
	if snap.Muted {
		return 0, nil
	}
	return snap.Volume, nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	return p.player.SetVolume(v)
}

func (p *playerAdapter) Position() (int64, error) {
	return p.player.DisplayPosition().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.player.Snapshot().HasNext, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.player.Snapshot().HasPrevious, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.player.Snapshot().QueueLen > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.player.State().IsLoaded(), nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.player.Snapshot().RepeatMode {
	case playlist.RepeatOne:
		return types.LoopStatusTrack, nil
	case playlist.RepeatAll:
		return types.LoopStatusPlaylist, nil
	case playlist.RepeatOff:
		return types.LoopStatusNone, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	switch status {
	case types.LoopStatusNone:
		p.player.SetRepeatMode(playlist.RepeatOff)
	case types.LoopStatusTrack:
		p.player.SetRepeatMode(playlist.RepeatOne)
	case types.LoopStatusPlaylist:
		p.player.SetRepeatMode(playlist.RepeatAll)
	}
	return nil
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.player.Snapshot().Shuffled, nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	p.player.SetShuffle(shuffle)
	return nil
}

func formatTrackID(id int64) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d", id)
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
