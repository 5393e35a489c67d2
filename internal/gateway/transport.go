package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/spotibaby/internal/shared"
)

type playRequest struct {
	TrackID    string `json:"trackId"`
	DeviceID   string `json:"deviceId"`
	PlaylistID string `json:"playlistId"`
}

type seekRequest struct {
	PositionMs int    `json:"positionMs"`
	DeviceID   string `json:"deviceId"`
}

// Play starts trackID on deviceID within playlistID.
func (g *Gateway) Play(ctx context.Context, trackID, deviceID, playlistID string) (*Response, error) {
	switch {
	case trackID == "":
		return nil, fmt.Errorf("%w: track id is required", shared.ErrInvalidArgument)
	case deviceID == "":
		return nil, fmt.Errorf("%w: device id is required", shared.ErrInvalidArgument)
	case playlistID == "":
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}

	resp, err := g.do(ctx, http.MethodPut, apiPrefix+"/play", playRequest{
		TrackID:    trackID,
		DeviceID:   deviceID,
		PlaylistID: playlistID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to play %s: %w", trackID, err)
	}
	return resp, nil
}

// Pause pauses playback on the active device.
func (g *Gateway) Pause(ctx context.Context) (*Response, error) {
	resp, err := g.do(ctx, http.MethodPost, apiPrefix+"/pause", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to pause: %w", err)
	}
	return resp, nil
}

// Resume resumes playback on deviceID.
func (g *Gateway) Resume(ctx context.Context, deviceID string) (*Response, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device id is required", shared.ErrInvalidArgument)
	}

	q := url.Values{"device_id": {deviceID}}
	resp, err := g.do(ctx, http.MethodPost, apiPrefix+"/resume?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resume: %w", err)
	}
	return resp, nil
}

// Seek moves playback on deviceID to positionMs.
func (g *Gateway) Seek(ctx context.Context, positionMs int, deviceID string) (*Response, error) {
	if positionMs < 0 {
		return nil, fmt.Errorf("%w: position must not be negative", shared.ErrInvalidArgument)
	}
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device id is required", shared.ErrInvalidArgument)
	}

	resp, err := g.do(ctx, http.MethodPut, apiPrefix+"/seek", seekRequest{PositionMs: positionMs, DeviceID: deviceID})
	if err != nil {
		return nil, fmt.Errorf("failed to seek: %w", err)
	}
	return resp, nil
}
