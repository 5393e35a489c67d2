package testing

import (
	"context"
	"sync"

	"github.com/desertthunder/spotibaby/internal/engine"
	"golang.org/x/oauth2"
)

// FakeEngine is a scriptable [engine.Engine].
//
// When LoadGate is non-nil, Load blocks until it is closed.
type FakeEngine struct {
	mu           sync.Mutex
	LoadErr      error
	SessionErr   error
	LoadGate     chan struct{}
	Session      *FakeSession
	loadCalls    int
	sessionCalls int
	tokens       oauth2.TokenSource
}

var _ engine.Engine = (*FakeEngine)(nil)

// NewFakeEngine creates a [FakeEngine] handing out a fresh [FakeSession].
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{Session: NewFakeSession()}
}

func (e *FakeEngine) Load(ctx context.Context) error {
	e.mu.Lock()
	e.loadCalls++
	gate, err := e.LoadGate, e.LoadErr
	e.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (e *FakeEngine) NewSession(tokens oauth2.TokenSource, name string, volume float64) (engine.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessionCalls++
	e.tokens = tokens
	if e.SessionErr != nil {
		return nil, e.SessionErr
	}
	return e.Session, nil
}

// SetLoadErr changes the error returned by later Load calls.
func (e *FakeEngine) SetLoadErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.LoadErr = err
}

func (e *FakeEngine) LoadCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadCalls
}

func (e *FakeEngine) SessionCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionCalls
}

// Tokens returns the token source passed to NewSession.
func (e *FakeEngine) Tokens() oauth2.TokenSource {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tokens
}

// FakeSession is a scriptable [engine.Session].
type FakeSession struct {
	mu              sync.Mutex
	events          chan engine.Event
	state           *engine.PlaybackState
	stateErr        error
	ConnectErr      error
	SkipErr         error
	connectCalls    int
	disconnectCalls int
	skipCalls       int
	stateCalls      int
}

var _ engine.Session = (*FakeSession)(nil)

func NewFakeSession() *FakeSession {
	return &FakeSession{events: make(chan engine.Event, 16)}
}

func (s *FakeSession) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectCalls++
	return s.ConnectErr
}

func (s *FakeSession) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnectCalls++
}

func (s *FakeSession) CurrentState(ctx context.Context) (*engine.PlaybackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateCalls++
	if s.state == nil {
		return nil, s.stateErr
	}
	st := *s.state
	return &st, s.stateErr
}

func (s *FakeSession) Skip(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipCalls++
	return s.SkipErr
}

func (s *FakeSession) Events() <-chan engine.Event {
	return s.events
}

// Emit delivers ev to the session's event feed.
func (s *FakeSession) Emit(ev engine.Event) {
	s.events <- ev
}

// SetState changes what CurrentState reports.
func (s *FakeSession) SetState(st *engine.PlaybackState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.stateErr = err
}

func (s *FakeSession) ConnectCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectCalls
}

func (s *FakeSession) DisconnectCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnectCalls
}

func (s *FakeSession) SkipCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipCalls
}

func (s *FakeSession) StateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateCalls
}
