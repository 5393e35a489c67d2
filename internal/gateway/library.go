package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/spotibaby/internal/models"
	"github.com/desertthunder/spotibaby/internal/shared"
)

type imageRef struct {
	URL string `json:"url"`
}

type playlistItem struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Images []imageRef `json:"images"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type playlistPage struct {
	Items []playlistItem `json:"items"`
}

type artistRef struct {
	Name string `json:"name"`
}

type trackItem struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	URI        string      `json:"uri"`
	DurationMs int         `json:"duration_ms"`
	Artists    []artistRef `json:"artists"`
	Album      struct {
		Images []imageRef `json:"images"`
	} `json:"album"`
}

type trackPage struct {
	Items []struct {
		Track *trackItem `json:"track"`
	} `json:"items"`
}

// Playlists lists the user's playlists.
func (g *Gateway) Playlists(ctx context.Context) ([]models.Playlist, error) {
	resp, err := g.do(ctx, http.MethodGet, apiPrefix+"/playlists", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	var page playlistPage
	if err := resp.Decode(&page); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(page.Items))
	for _, item := range page.Items {
		playlists = append(playlists, models.Playlist{
			ID:         item.ID,
			Name:       item.Name,
			TrackCount: item.Tracks.Total,
			Images:     imageURLs(item.Images),
		})
	}
	return playlists, nil
}

// Tracks lists the tracks of a playlist. Entries without a track (removed or local files) are skipped.
func (g *Gateway) Tracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrInvalidArgument)
	}

	resp, err := g.do(ctx, http.MethodGet, apiPrefix+"/playlist/"+url.PathEscape(playlistID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks for %s: %w", playlistID, err)
	}

	var page trackPage
	if err := resp.Decode(&page); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(page.Items))
	for _, item := range page.Items {
		t := item.Track
		if t == nil || t.ID == "" {
			continue
		}

		artists := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			artists = append(artists, a.Name)
		}

		tracks = append(tracks, models.Track{
			ID:         t.ID,
			Name:       t.Name,
			URI:        t.URI,
			Artist:     strings.Join(artists, ", "),
			DurationMs: t.DurationMs,
			Images:     imageURLs(t.Album.Images),
		})
	}
	return tracks, nil
}

func imageURLs(images []imageRef) []string {
	if len(images) == 0 {
		return nil
	}
	urls := make([]string, 0, len(images))
	for _, img := range images {
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	return urls
}
