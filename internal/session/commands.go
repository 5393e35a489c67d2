package session

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotibaby/internal/engine"
	"github.com/desertthunder/spotibaby/internal/shared"
)

// requireDevice rejects a command locally when no device is known.
func (c *Controller) requireDevice() error {
	if c.sess != nil && c.state.HasDevice() {
		return nil
	}
	err := fmt.Errorf("%w: no playback device", shared.ErrEngineUnavailable)
	c.fail(err)
	return err
}

// SelectPlaylist makes playlistID the active playlist for later Play calls.
func (c *Controller) SelectPlaylist(ctx context.Context, playlistID string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}

	return c.do(ctx, func() {
		if c.state.PlaylistID != playlistID {
			c.state.PlaylistID = playlistID
			c.state.TrackIndex = -1
		}
		c.publish()
	})
}

// Play starts trackID, at index within the active playlist, on the session device.
func (c *Controller) Play(ctx context.Context, trackID string, index int) error {
	var (
		deviceID, playlistID string
		gen                  uint64
		err                  error
	)

	if e := c.do(ctx, func() {
		if err = c.requireDevice(); err != nil {
			return
		}
		if c.state.PlaylistID == "" {
			err = fmt.Errorf("%w: no playlist selected", shared.ErrInvalidArgument)
			c.fail(err)
			return
		}

		c.generation++
		gen = c.generation
		deviceID, playlistID = c.state.DeviceID, c.state.PlaylistID
		c.state.PendingTrackID = trackID
		c.state.Err = nil
		c.publish()
	}); e != nil {
		return e
	}
	if err != nil {
		return err
	}

	_, err = c.gateway.Play(ctx, trackID, deviceID, playlistID)

	if e := c.do(ctx, func() {
		current := gen == c.generation
		if current || c.state.PendingTrackID == trackID {
			c.state.PendingTrackID = ""
		}

		switch {
		case err != nil:
			c.logger.Warn("play failed", "track_id", trackID, "error", err)
			c.state.Err = err
		case !current:
			c.logger.Debug("stale play result dropped", "track_id", trackID)
		default:
			c.state.IsPlaying = true
			c.state.TrackID = trackID
			c.state.TrackIndex = index
		}
		c.publish()
	}); e != nil {
		return e
	}
	return err
}

// TogglePlayPause pauses when playing and resumes otherwise.
func (c *Controller) TogglePlayPause(ctx context.Context) error {
	var (
		deviceID string
		playing  bool
		gen      uint64
		err      error
	)

	if e := c.do(ctx, func() {
		if err = c.requireDevice(); err != nil {
			return
		}
		c.generation++
		gen = c.generation
		playing, deviceID = c.state.IsPlaying, c.state.DeviceID
		c.state.Err = nil
		c.publish()
	}); e != nil {
		return e
	}
	if err != nil {
		return err
	}

	if playing {
		_, err = c.gateway.Pause(ctx)
	} else {
		_, err = c.gateway.Resume(ctx, deviceID)
	}

	if e := c.do(ctx, func() {
		switch {
		case err != nil:
			c.logger.Warn("toggle failed", "pause", playing, "error", err)
			c.state.Err = err
		case gen != c.generation:
			c.logger.Debug("stale toggle result dropped")
		default:
			c.state.IsPlaying = !playing
		}
		c.publish()
	}); e != nil {
		return e
	}
	return err
}

// Seek moves playback to positionMs, clamped to the current track. The local position
// changes before the request is sent and is kept even if the request fails.
func (c *Controller) Seek(ctx context.Context, positionMs int) error {
	var (
		deviceID string
		target   int
		err      error
	)

	if e := c.do(ctx, func() {
		if err = c.requireDevice(); err != nil {
			return
		}
		target = clamp(positionMs, 0, c.state.DurationMs)
		deviceID = c.state.DeviceID
		c.state.PositionMs = target
		c.state.Err = nil
		c.publish()
	}); e != nil {
		return e
	}
	if err != nil {
		return err
	}

	if _, err = c.gateway.Seek(ctx, target, deviceID); err != nil {
		c.logger.Warn("seek failed", "position_ms", target, "error", err)
		if e := c.do(ctx, func() { c.fail(err) }); e != nil {
			return e
		}
	}
	return err
}

// Skip advances to the next track on the session device.
func (c *Controller) Skip(ctx context.Context) error {
	var (
		sess engine.Session
		err  error
	)

	if e := c.do(ctx, func() {
		if err = c.requireDevice(); err != nil {
			return
		}
		sess = c.sess
		c.generation++
		c.state.Err = nil
		c.publish()
	}); e != nil {
		return e
	}
	if err != nil {
		return err
	}

	if err = sess.Skip(ctx); err != nil {
		c.logger.Warn("skip failed", "error", err)
		if e := c.do(ctx, func() { c.fail(err) }); e != nil {
			return e
		}
	}
	return err
}
