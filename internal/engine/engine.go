package engine

import (
	"context"

	"golang.org/x/oauth2"
)

// EventKind identifies an engine event.
type EventKind int

const (
	EventReady EventKind = iota
	EventNotReady
	EventStateChanged
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventNotReady:
		return "not_ready"
	case EventStateChanged:
		return "state_changed"
	default:
		return "unknown"
	}
}

// PlaybackState is a point-in-time report from the engine.
type PlaybackState struct {
	Paused     bool
	PositionMs int
	DurationMs int
	TrackID    string
	TrackURI   string
	DeviceID   string
}

// Event is delivered on [Session.Events].
//
// For [EventStateChanged] a nil State means no playback is active.
type Event struct {
	Kind     EventKind
	DeviceID string
	State    *PlaybackState
}

// Engine makes playback available and constructs sessions.
type Engine interface {
	// Load makes the engine available. Calls after a successful load return immediately.
	Load(ctx context.Context) error
	// NewSession binds a session to tokens, which is asked for a token whenever one is needed.
	NewSession(tokens oauth2.TokenSource, name string, volume float64) (Session, error)
}

// Session is one playback engine connection.
type Session interface {
	// Connect attaches to the device. Calling it while connected re-validates the device.
	Connect(ctx context.Context) error
	Disconnect()
	// CurrentState returns nil when not connected or nothing is playing on the device.
	CurrentState(ctx context.Context) (*PlaybackState, error)
	Skip(ctx context.Context) error
	Events() <-chan Event
}
