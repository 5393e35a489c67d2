package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotibaby/internal/credentials"
	"github.com/desertthunder/spotibaby/internal/models"
	"github.com/desertthunder/spotibaby/internal/session"
	"github.com/desertthunder/spotibaby/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	PlaylistListView
	TrackListView
)

// Library lists the browsable catalog.
type Library interface {
	Playlists(ctx context.Context) ([]models.Playlist, error)
	Tracks(ctx context.Context, playlistID string) ([]models.Track, error)
}

// Player is the session controller surface used by the interface.
type Player interface {
	Snapshot() session.State
	Updates() <-chan session.State
	Reload(ctx context.Context) error
	SelectPlaylist(ctx context.Context, playlistID string) error
	Play(ctx context.Context, trackID string, index int) error
	TogglePlayPause(ctx context.Context) error
	Seek(ctx context.Context, positionMs int) error
	Skip(ctx context.Context) error
}

// LoginFunc runs the browser login and returns once a credential is stored.
type LoginFunc func(ctx context.Context) error

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	library      Library
	player       Player
	login        LoginFunc
	width        int
	height       int
	playlistList list.Model
	trackList    list.Model
	playlist     models.Playlist
	tracks       []models.Track
	state        session.State
	loggingIn    bool
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// login may be nil, in which case the login view only explains how to sign in.
func NewModel(ctx context.Context, library Library, player Player, login LoginFunc) *Model {
	m := &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		library:      library,
		player:       player,
		login:        login,
		playlistList: newList("Playlists"),
		trackList:    newList("Tracks"),
		help:         help.New(),
		keys:         newKeyMap(),
	}
	m.applyState(player.Snapshot())
	return m
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// needsLogin reports whether err means the user has to sign in again.
func needsLogin(err error) bool {
	var cfg *credentials.ConfigurationError
	return errors.Is(err, shared.ErrNotAuthenticated) || errors.As(err, &cfg)
}

// Init starts listening for session updates and, when signed in, fetches playlists.
func (m *Model) Init() tea.Cmd {
	if m.view == LoginView {
		return m.waitForState()
	}
	return tea.Batch(m.fetchPlaylists(), m.waitForState())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-10)
		m.trackList.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case stateMsg:
		m.applyState(session.State(msg))
		return m, m.waitForState()

	case playlistsFetchedMsg:
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.err = nil
		m.view = PlaylistListView
		return m, m.playlistList.SetItems(items)

	case tracksFetchedMsg:
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		m.playlist = msg.playlist
		m.tracks = msg.tracks
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track, index: i}
		}
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", msg.playlist.Name)
		m.trackList.ResetSelected()
		m.err = nil
		m.view = TrackListView
		return m, m.trackList.SetItems(items)

	case commandDoneMsg:
		if msg.err != nil {
			return m, m.fail(fmt.Errorf("%s: %w", msg.action, msg.err))
		}
		m.err = nil
		return m, nil

	case loginDoneMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.view = PlaylistListView
		return m, tea.Batch(m.reload(), m.fetchPlaylists())
	}

	return m.updateLists(msg)
}

// applyState stores a controller snapshot. A new session error is shown like any other
// failure; once the controller clears it, so does the view.
func (m *Model) applyState(st session.State) {
	prev := m.state.Err
	m.state = st

	switch {
	case st.Err != nil && !errors.Is(prev, st.Err):
		m.fail(st.Err)
	case st.Err == nil && prev != nil && errors.Is(m.err, prev):
		m.err = nil
	}
}

// fail records err inline and switches to the login view when the credential is gone.
func (m *Model) fail(err error) tea.Cmd {
	m.err = err
	if needsLogin(err) {
		m.view = LoginView
	}
	return nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering() {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		return m, m.command("play/pause", m.player.TogglePlayPause)
	case key.Matches(msg, m.keys.rewind):
		return m, m.seek(-seekStep)
	case key.Matches(msg, m.keys.forward):
		return m, m.seek(seekStep)
	}

	switch m.view {
	case LoginView:
		return m.handleLoginKeys(msg)
	case PlaylistListView:
		return m.handlePlaylistListKeys(msg)
	case TrackListView:
		return m.handleTrackListKeys(msg)
	}
	return m, nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.login):
		if m.login == nil || m.loggingIn {
			return m, nil
		}
		m.loggingIn = true
		m.err = nil
		return m, m.startLogin()
	case key.Matches(msg, m.keys.reload):
		m.err = nil
		return m, tea.Batch(m.reload(), m.fetchPlaylists())
	}
	return m, nil
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.openPlaylist(item.playlist)
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.fetchPlaylists()
	case key.Matches(msg, m.keys.next):
		return m, m.command("next", m.player.Skip)
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, m.fetchPlaylists()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.trackList.SelectedItem().(trackItem); ok {
			trackID, index := item.track.ID, item.index
			return m, m.command("play", func(ctx context.Context) error {
				return m.player.Play(ctx, trackID, index)
			})
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.command("next", m.player.Skip)
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) filtering() bool {
	switch m.view {
	case PlaylistListView:
		return m.playlistList.FilterState() == list.Filtering
	case TrackListView:
		return m.trackList.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

// waitForState blocks on the controller's update channel for the next snapshot.
func (m *Model) waitForState() tea.Cmd {
	updates := m.player.Updates()
	return func() tea.Msg {
		select {
		case st := <-updates:
			return stateMsg(st)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.library.Playlists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

// openPlaylist makes playlist the active context and fetches its tracks.
func (m *Model) openPlaylist(playlist models.Playlist) tea.Cmd {
	return func() tea.Msg {
		if err := m.player.SelectPlaylist(m.ctx, playlist.ID); err != nil {
			return tracksFetchedMsg{err: err}
		}
		tracks, err := m.library.Tracks(m.ctx, playlist.ID)
		return tracksFetchedMsg{playlist: playlist, tracks: tracks, err: err}
	}
}

func (m *Model) command(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg{action: action, err: fn(m.ctx)}
	}
}

func (m *Model) seek(delta int) tea.Cmd {
	target := m.state.PositionMs + delta
	return m.command("seek", func(ctx context.Context) error {
		return m.player.Seek(ctx, target)
	})
}

func (m *Model) reload() tea.Cmd {
	return m.command("reload", m.player.Reload)
}

func (m *Model) startLogin() tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: m.login(m.ctx)}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LoginView:
		body = m.renderLogin()
	case PlaylistListView:
		body = m.playlistList.View()
	case TrackListView:
		body = m.trackList.View()
	}

	out := body + "\n" + m.renderTransport()
	if m.err != nil {
		out += "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	return out + "\n" + m.renderHelp()
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Sign in")
	switch {
	case m.loggingIn:
		return title + "\nWaiting for the browser login to finish..."
	case m.login == nil:
		return title + "\nRun `spotibaby login`, then press r to reload."
	default:
		return title + "\nPress l to open the login page in your browser."
	}
}

func (m *Model) renderHelp() string {
	var bindings []key.Binding
	switch m.view {
	case LoginView:
		bindings = []key.Binding{m.keys.login, m.keys.reload, m.keys.quit}
	case PlaylistListView:
		bindings = []key.Binding{m.keys.enter, m.keys.toggle, m.keys.next, m.keys.quit}
	case TrackListView:
		play := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play"))
		bindings = []key.Binding{play, m.keys.toggle, m.keys.rewind, m.keys.forward, m.keys.next, m.keys.back, m.keys.quit}
	}
	return m.help.ShortHelpView(bindings)
}

// trackName resolves the current track against the loaded track list.
func (m *Model) trackName() string {
	for _, t := range m.tracks {
		if t.ID == m.state.TrackID {
			if t.Artist != "" {
				return fmt.Sprintf("%s - %s", t.Name, t.Artist)
			}
			return t.Name
		}
	}
	return m.state.TrackID
}
