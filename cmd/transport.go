package main

import (
	"context"

	"github.com/desertthunder/spotibaby/internal/gateway"
	"github.com/desertthunder/spotibaby/internal/shared"
	"github.com/urfave/cli/v3"
)

// Play starts a track on a device within a playlist context.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.gateway.Play(ctx, cmd.String("track"), cmd.String("device"), cmd.String("playlist"))
	if err != nil {
		return err
	}
	return r.reportTransport("Playing", resp)
}

// Pause pauses the active playback.
func (r *Runner) Pause(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.gateway.Pause(ctx)
	if err != nil {
		return err
	}
	return r.reportTransport("Paused", resp)
}

// Resume resumes playback on a device.
func (r *Runner) Resume(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.gateway.Resume(ctx, cmd.String("device"))
	if err != nil {
		return err
	}
	return r.reportTransport("Resumed", resp)
}

// Seek moves the playback position on a device.
func (r *Runner) Seek(ctx context.Context, cmd *cli.Command) error {
	position := cmd.Int("position")
	resp, err := r.gateway.Seek(ctx, position, cmd.String("device"))
	if err != nil {
		return err
	}
	return r.reportTransport("Seeked to "+shared.FormatMillis(position), resp)
}

func (r *Runner) reportTransport(action string, resp *gateway.Response) error {
	r.logger.Debug("transport command", "action", action, "status", resp.StatusCode)
	if err := r.writePlain("✓ %s\n", action); err != nil {
		return err
	}
	if !resp.IsJSON {
		if text := resp.Text(); text != "" {
			return r.writePlain("%s\n", text)
		}
	}
	return nil
}
