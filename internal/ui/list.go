package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotibaby/internal/models"
	"github.com/desertthunder/spotibaby/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	return fmt.Sprintf("%d tracks", i.playlist.TrackCount)
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
	index int
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := shared.FormatMillis(i.track.DurationMs)
	if i.track.Artist != "" {
		desc = fmt.Sprintf("%s • %s", i.track.Artist, desc)
	}
	return desc
}
