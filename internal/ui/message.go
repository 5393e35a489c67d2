package ui

import (
	"github.com/desertthunder/spotibaby/internal/models"
	"github.com/desertthunder/spotibaby/internal/session"
)

// playlistsFetchedMsg carries the result of a [Library.Playlists] call.
type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

// tracksFetchedMsg carries the result of a [Library.Tracks] call.
type tracksFetchedMsg struct {
	playlist models.Playlist
	tracks   []models.Track
	err      error
}

// stateMsg is a session snapshot published by the controller.
type stateMsg session.State

// commandDoneMsg reports the outcome of a transport command.
type commandDoneMsg struct {
	action string
	err    error
}

// loginDoneMsg reports the outcome of the browser login.
type loginDoneMsg struct {
	err error
}
