// Package ui implements the kiosk terminal interface using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [LoginView] : shown when no usable credential exists; starts the browser login
//  2. [PlaylistListView] : browse playlists
//  3. [TrackListView] : browse and play the tracks of the selected playlist
//
// A transport bar under every view renders the latest session snapshot. The [Model] never
// holds playback state of its own: it redraws from [Player] snapshots delivered over the
// controller's update channel, and sends every key press to the controller as a command.
//
// Failures render inline and the interface stays interactive. A
// [github.com/desertthunder/spotibaby/internal/shared.ErrNotAuthenticated] from the library
// switches to the login view.
package ui
