package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spotibaby/internal/credentials"
	"github.com/desertthunder/spotibaby/internal/engine"
	"github.com/desertthunder/spotibaby/internal/gateway"
	"github.com/desertthunder/spotibaby/internal/shared"
	tu "github.com/desertthunder/spotibaby/internal/testing"
)

type playCall struct {
	trackID, deviceID, playlistID string
}

type seekCall struct {
	positionMs int
	deviceID   string
}

// fakeGateway records transport commands. A non-nil gate holds Play until closed.
type fakeGateway struct {
	mu      sync.Mutex
	plays   []playCall
	pauses  int
	resumes []string
	seeks   []seekCall
	err     error
	gate    chan struct{}
}

func (g *fakeGateway) wait() {
	g.mu.Lock()
	gate := g.gate
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (g *fakeGateway) Play(ctx context.Context, trackID, deviceID, playlistID string) (*gateway.Response, error) {
	g.mu.Lock()
	g.plays = append(g.plays, playCall{trackID, deviceID, playlistID})
	g.mu.Unlock()
	g.wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return &gateway.Response{StatusCode: 200}, g.err
}

func (g *fakeGateway) Pause(ctx context.Context) (*gateway.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pauses++
	return &gateway.Response{StatusCode: 204}, g.err
}

func (g *fakeGateway) Resume(ctx context.Context, deviceID string) (*gateway.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resumes = append(g.resumes, deviceID)
	return &gateway.Response{StatusCode: 204}, g.err
}

func (g *fakeGateway) Seek(ctx context.Context, positionMs int, deviceID string) (*gateway.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seeks = append(g.seeks, seekCall{positionMs, deviceID})
	return &gateway.Response{StatusCode: 204}, g.err
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.plays) + g.pauses + len(g.resumes) + len(g.seeks)
}

func (g *fakeGateway) setErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

type harness struct {
	c      *Controller
	engine *tu.FakeEngine
	sess   *tu.FakeSession
	gw     *fakeGateway
	store  *credentials.MemoryStore
	ctx    context.Context
	cancel context.CancelFunc
	done   chan error
}

func newHarness(t *testing.T, token string) *harness {
	t.Helper()

	h := &harness{engine: tu.NewFakeEngine(), gw: &fakeGateway{}, store: credentials.NewMemoryStore()}
	h.sess = h.engine.Session
	if token != "" {
		if err := h.store.Set(context.Background(), &credentials.Credential{Token: token}); err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}
	}

	c, err := New(Options{
		Engine:         h.engine,
		Gateway:        h.gw,
		Store:          h.store,
		DeviceName:     "Kiosk",
		Volume:         0.5,
		PollInterval:   time.Hour,
		HealthInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create controller: %v", err)
	}
	h.c = c
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	h.ctx, h.cancel = context.WithCancel(context.Background())
	h.done = make(chan error, 1)
	go func() { h.done <- h.c.Run(h.ctx) }()
	t.Cleanup(h.stop)
}

func (h *harness) stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
	h.cancel = nil
}

// ready starts the controller and brings it to EngineReady on device d1.
func ready(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, tu.ProviderJWT(t, "provider"))
	h.start(t)

	waitUntil(t, "session created", func() bool { return h.engine.SessionCalls() == 1 && h.sess.ConnectCalls() == 1 })
	h.sess.Emit(engine.Event{Kind: engine.EventReady, DeviceID: "d1"})
	waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseEngineReady })
	return h
}

func (h *harness) emitState(t *testing.T, st *engine.PlaybackState) {
	t.Helper()
	h.sess.Emit(engine.Event{Kind: engine.EventStateChanged, DeviceID: "d1", State: st})
}

// onLoop runs fn on the controller goroutine.
func (h *harness) onLoop(t *testing.T, fn func()) {
	t.Helper()
	if err := h.c.do(context.Background(), fn); err != nil {
		t.Fatalf("loop call failed: %v", err)
	}
}

func waitFor(t *testing.T, c *Controller, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := c.Snapshot()
		if cond(s) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for state, last: %+v", s)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNew(t *testing.T) {
	t.Run("Requires Collaborators", func(t *testing.T) {
		if _, err := New(Options{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := New(Options{Engine: tu.NewFakeEngine()}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Initial Snapshot", func(t *testing.T) {
		h := newHarness(t, "")
		s := h.c.Snapshot()
		if s.Phase != PhaseUninitialized || s.TrackIndex != -1 || s.HasDevice() {
			t.Errorf("unexpected initial state %+v", s)
		}
		if h.c.name != "Kiosk" || h.c.pollEvery != time.Hour {
			t.Error("expected options to be applied")
		}
	})
}

func TestLifecycle(t *testing.T) {
	t.Run("Missing Credential Stays Uninitialized", func(t *testing.T) {
		h := newHarness(t, "")
		h.start(t)

		s := waitFor(t, h.c, func(s State) bool { return s.Err != nil })
		if s.Phase != PhaseUninitialized {
			t.Errorf("expected uninitialized, got %s", s.Phase)
		}
		if !errors.Is(s.Err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", s.Err)
		}
		var cfgErr *credentials.ConfigurationError
		if !errors.As(s.Err, &cfgErr) {
			t.Errorf("expected ConfigurationError, got %T", s.Err)
		}

		h.onLoop(t, func() { h.c.checkHealth(h.ctx) })
		if h.engine.LoadCalls() != 0 {
			t.Errorf("expected engine not to load, got %d calls", h.engine.LoadCalls())
		}
		if err := h.c.Play(h.ctx, "t1", 0); !errors.Is(err, shared.ErrEngineUnavailable) {
			t.Errorf("expected ErrEngineUnavailable, got %v", err)
		}
		if h.gw.calls() != 0 {
			t.Error("expected no backend calls")
		}
	})

	t.Run("Malformed Credential", func(t *testing.T) {
		h := newHarness(t, "not-a-jwt")
		h.start(t)

		s := waitFor(t, h.c, func(s State) bool { return s.Err != nil })
		if s.Phase != PhaseUninitialized || !errors.Is(s.Err, shared.ErrInvalidCredentials) {
			t.Errorf("expected invalid credential in uninitialized, got %s %v", s.Phase, s.Err)
		}
	})

	t.Run("Missing Provider Token", func(t *testing.T) {
		h := newHarness(t, tu.SignedJWT(t, map[string]any{"sub": "kiosk"}))
		h.start(t)

		s := waitFor(t, h.c, func(s State) bool { return s.Err != nil })
		if !errors.Is(s.Err, shared.ErrMissingProviderToken) {
			t.Errorf("expected ErrMissingProviderToken, got %v", s.Err)
		}
	})

	t.Run("Reload After Login", func(t *testing.T) {
		h := newHarness(t, "")
		h.start(t)
		waitFor(t, h.c, func(s State) bool { return s.Err != nil })

		_ = h.store.Set(h.ctx, &credentials.Credential{Token: tu.ProviderJWT(t, "provider")})
		if err := h.c.Reload(h.ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		s := waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseTokenAcquired })
		if s.Err != nil {
			t.Errorf("expected error to be cleared, got %v", s.Err)
		}
		waitUntil(t, "engine load", func() bool { return h.engine.LoadCalls() == 1 })
	})

	t.Run("Reload Outlives Caller Context", func(t *testing.T) {
		h := newHarness(t, "")
		h.engine.LoadGate = make(chan struct{})
		h.start(t)
		waitFor(t, h.c, func(s State) bool { return s.Err != nil })

		_ = h.store.Set(h.ctx, &credentials.Credential{Token: tu.ProviderJWT(t, "provider")})
		callCtx, cancel := context.WithCancel(context.Background())
		if err := h.c.Reload(callCtx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		cancel()

		close(h.engine.LoadGate)
		waitUntil(t, "connect", func() bool { return h.sess.ConnectCalls() == 1 })
		if err := h.c.Snapshot().Err; err != nil {
			t.Errorf("expected load to survive the cancelled call, got %v", err)
		}
	})

	t.Run("Started Reflects Credential Check", func(t *testing.T) {
		h := newHarness(t, "not-a-jwt")
		h.start(t)

		if err := h.c.Started(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := h.c.Snapshot().Err; !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected the credential error right after start, got %v", err)
		}
	})

	t.Run("Ready Needs Load And Device", func(t *testing.T) {
		h := newHarness(t, tu.ProviderJWT(t, "provider"))
		h.engine.LoadGate = make(chan struct{})
		h.start(t)

		s := waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseTokenAcquired })
		if s.HasDevice() {
			t.Error("expected no device before ready")
		}

		close(h.engine.LoadGate)
		waitUntil(t, "connect", func() bool { return h.sess.ConnectCalls() == 1 })
		if got := h.c.Snapshot().Phase; got != PhaseTokenAcquired {
			t.Errorf("expected to wait for ready event, got %s", got)
		}

		h.sess.Emit(engine.Event{Kind: engine.EventReady, DeviceID: "d1"})
		s = waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseEngineReady })
		if s.DeviceID != "d1" {
			t.Errorf("expected d1, got %s", s.DeviceID)
		}
	})

	t.Run("Device Known Before Load Completes", func(t *testing.T) {
		h := newHarness(t, tu.ProviderJWT(t, "provider"))
		h.engine.LoadGate = make(chan struct{})
		h.start(t)
		waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseTokenAcquired })

		h.onLoop(t, func() { h.c.handleEvent(engine.Event{Kind: engine.EventReady, DeviceID: "d1"}) })
		if got := h.c.Snapshot().Phase; got != PhaseTokenAcquired {
			t.Errorf("expected token acquired until load completes, got %s", got)
		}

		h.onLoop(t, func() { h.c.onLoaded(h.ctx, nil) })
		if got := h.c.Snapshot().Phase; got != PhaseEngineReady {
			t.Errorf("expected engine ready, got %s", got)
		}
	})

	t.Run("Session Created Once", func(t *testing.T) {
		h := ready(t)

		h.onLoop(t, func() { h.c.onLoaded(h.ctx, nil) })
		h.onLoop(t, func() { h.c.checkHealth(h.ctx) })
		if h.engine.SessionCalls() != 1 {
			t.Errorf("expected one session, got %d", h.engine.SessionCalls())
		}
		if h.engine.Tokens() == nil {
			t.Fatal("expected token source")
		}
		tok, err := h.engine.Tokens().Token()
		if err != nil || tok.AccessToken != "provider" {
			t.Errorf("expected token source to derive provider token, got %v %v", tok, err)
		}
	})

	t.Run("Load Failure Retried On Health Tick", func(t *testing.T) {
		h := newHarness(t, tu.ProviderJWT(t, "provider"))
		h.engine.LoadErr = errors.New("sdk unavailable")
		h.start(t)

		s := waitFor(t, h.c, func(s State) bool { return s.Err != nil })
		if !errors.Is(s.Err, shared.ErrEngineUnavailable) {
			t.Errorf("expected ErrEngineUnavailable, got %v", s.Err)
		}

		h.engine.SetLoadErr(nil)
		h.onLoop(t, func() { h.c.checkHealth(h.ctx) })
		waitUntil(t, "session", func() bool { return h.engine.SessionCalls() == 1 })
		if h.engine.LoadCalls() != 2 {
			t.Errorf("expected two load attempts, got %d", h.engine.LoadCalls())
		}
	})

	t.Run("Missing Device Reconnects On Health Tick", func(t *testing.T) {
		h := newHarness(t, tu.ProviderJWT(t, "provider"))
		h.sess.ConnectErr = shared.ErrDeviceNotFound
		h.start(t)

		s := waitFor(t, h.c, func(s State) bool { return s.Err != nil })
		if !errors.Is(s.Err, shared.ErrDeviceNotFound) {
			t.Errorf("expected ErrDeviceNotFound, got %v", s.Err)
		}

		h.onLoop(t, func() { h.c.checkHealth(h.ctx) })
		waitUntil(t, "reconnect", func() bool { return h.sess.ConnectCalls() == 2 })
	})

	t.Run("Teardown", func(t *testing.T) {
		h := ready(t)
		h.stop()

		if h.sess.DisconnectCalls() != 1 {
			t.Errorf("expected disconnect, got %d", h.sess.DisconnectCalls())
		}
		s := h.c.Snapshot()
		if s.HasDevice() || s.Phase != PhaseTokenAcquired {
			t.Errorf("expected device cleared, got %+v", s)
		}
		if err := h.c.TogglePlayPause(context.Background()); !errors.Is(err, shared.ErrNotRunning) {
			t.Errorf("expected ErrNotRunning, got %v", err)
		}
		if err := h.c.Run(context.Background()); !errors.Is(err, shared.ErrAlreadyRunning) {
			t.Errorf("expected ErrAlreadyRunning, got %v", err)
		}
	})
}

func TestEvents(t *testing.T) {
	t.Run("State Changed Activates", func(t *testing.T) {
		h := ready(t)
		h.emitState(t, &engine.PlaybackState{Paused: false, PositionMs: 523, DurationMs: 210000, TrackID: "t1"})

		s := waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseActive })
		if !s.IsPlaying || s.PositionMs != 523 || s.DurationMs != 210000 || s.TrackID != "t1" {
			t.Errorf("unexpected state %+v", s)
		}
	})

	t.Run("Absent State Returns To Ready", func(t *testing.T) {
		h := ready(t)
		h.emitState(t, &engine.PlaybackState{PositionMs: 1000, DurationMs: 5000})
		waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseActive })

		h.emitState(t, nil)
		s := waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseEngineReady })
		if s.PositionMs != 0 || s.DurationMs != 0 || s.IsPlaying {
			t.Errorf("expected playback reset, got %+v", s)
		}
		if s.DeviceID != "d1" {
			t.Errorf("expected device retained, got %s", s.DeviceID)
		}
	})

	t.Run("Not Ready Clears Device", func(t *testing.T) {
		h := ready(t)
		h.sess.Emit(engine.Event{Kind: engine.EventNotReady, DeviceID: "d1"})

		s := waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseTokenAcquired })
		if s.HasDevice() {
			t.Errorf("expected device cleared, got %s", s.DeviceID)
		}

		if err := h.c.TogglePlayPause(h.ctx); !errors.Is(err, shared.ErrEngineUnavailable) {
			t.Errorf("expected ErrEngineUnavailable, got %v", err)
		}
		if err := h.c.Seek(h.ctx, 10); !errors.Is(err, shared.ErrEngineUnavailable) {
			t.Errorf("expected ErrEngineUnavailable, got %v", err)
		}
		if err := h.c.Skip(h.ctx); !errors.Is(err, shared.ErrEngineUnavailable) {
			t.Errorf("expected ErrEngineUnavailable, got %v", err)
		}
		if h.gw.calls() != 0 || h.sess.SkipCalls() != 0 {
			t.Error("expected commands to be rejected without network calls")
		}
		if s := h.c.Snapshot(); !errors.Is(s.Err, shared.ErrEngineUnavailable) {
			t.Errorf("expected rejection to be reported, got %v", s.Err)
		}

		h.sess.Emit(engine.Event{Kind: engine.EventReady, DeviceID: "d2"})
		s = waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseEngineReady })
		if s.DeviceID != "d2" {
			t.Errorf("expected d2, got %s", s.DeviceID)
		}
	})

	t.Run("Stale Not Ready Ignored", func(t *testing.T) {
		h := ready(t)
		h.onLoop(t, func() { h.c.handleEvent(engine.Event{Kind: engine.EventNotReady, DeviceID: "old"}) })
		if s := h.c.Snapshot(); s.DeviceID != "d1" {
			t.Errorf("expected d1 kept, got %s", s.DeviceID)
		}
	})

	t.Run("Position Never Exceeds Duration", func(t *testing.T) {
		h := ready(t)
		rng := rand.New(rand.NewSource(7))

		for i := 0; i < 500; i++ {
			var st *engine.PlaybackState
			if rng.Intn(5) > 0 {
				st = &engine.PlaybackState{
					Paused:     rng.Intn(2) == 0,
					PositionMs: rng.Intn(400000) - 50000,
					DurationMs: rng.Intn(300000) - 20000,
				}
				if rng.Intn(4) == 0 {
					st.DurationMs = 0
				}
			}

			var s State
			h.onLoop(t, func() {
				h.c.handleEvent(engine.Event{Kind: engine.EventStateChanged, State: st})
				s = h.c.state
			})

			if s.DurationMs < 0 || s.PositionMs < 0 || s.PositionMs > s.DurationMs {
				t.Fatalf("step %d: position %d outside [0, %d]", i, s.PositionMs, s.DurationMs)
			}
			if s.DurationMs == 0 && s.PositionMs != 0 {
				t.Fatalf("step %d: zero duration with position %d", i, s.PositionMs)
			}
		}
	})
}

func TestTimers(t *testing.T) {
	t.Run("Poll Applies Present State", func(t *testing.T) {
		h := ready(t)
		h.sess.SetState(&engine.PlaybackState{Paused: true, PositionMs: 2000, DurationMs: 4000}, nil)

		h.onLoop(t, func() { h.c.pollState(h.ctx) })
		s := waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseActive })
		if s.IsPlaying || s.PositionMs != 2000 {
			t.Errorf("unexpected polled state %+v", s)
		}
	})

	t.Run("Poll Ignores Absent State", func(t *testing.T) {
		h := ready(t)
		h.emitState(t, &engine.PlaybackState{PositionMs: 1000, DurationMs: 5000})
		waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseActive })

		h.onLoop(t, func() { h.c.pollState(h.ctx) })
		waitUntil(t, "poll", func() bool { return h.sess.StateCalls() == 1 })
		h.onLoop(t, func() {})

		if s := h.c.Snapshot(); s.Phase != PhaseActive || s.PositionMs != 1000 {
			t.Errorf("expected absent poll to change nothing, got %+v", s)
		}
	})

	t.Run("Health Detects Silent Disconnect", func(t *testing.T) {
		h := ready(t)

		var phase Phase
		h.onLoop(t, func() {
			h.c.onHealth(h.ctx, nil, nil)
			phase = h.c.state.Phase
		})
		if phase != PhaseDegraded {
			t.Errorf("expected degraded, got %s", phase)
		}

		waitUntil(t, "reconnect", func() bool { return h.sess.ConnectCalls() == 2 })
		waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseEngineReady })
	})

	t.Run("Health Tick Probes And Reconnects", func(t *testing.T) {
		h := ready(t)

		h.onLoop(t, func() { h.c.checkHealth(h.ctx) })
		waitUntil(t, "reconnect", func() bool { return h.sess.ConnectCalls() == 2 })
		waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseEngineReady })

		if s := h.c.Snapshot(); s.DeviceID != "d1" {
			t.Errorf("expected device retained, got %s", s.DeviceID)
		}
	})

	t.Run("Health Leaves Live Session Alone", func(t *testing.T) {
		h := ready(t)
		h.sess.SetState(&engine.PlaybackState{PositionMs: 10, DurationMs: 100}, nil)

		h.onLoop(t, func() { h.c.checkHealth(h.ctx) })
		waitUntil(t, "probe", func() bool { return h.sess.StateCalls() == 1 })
		h.onLoop(t, func() {})

		if h.sess.ConnectCalls() != 1 {
			t.Errorf("expected no reconnect, got %d connects", h.sess.ConnectCalls())
		}
	})

	t.Run("Health Error Degrades", func(t *testing.T) {
		h := ready(t)
		h.sess.SetState(nil, errors.New("timeout"))

		h.onLoop(t, func() { h.c.checkHealth(h.ctx) })
		waitUntil(t, "reconnect", func() bool { return h.sess.ConnectCalls() == 2 })
	})

	t.Run("Tickers Fire", func(t *testing.T) {
		h := newHarness(t, tu.ProviderJWT(t, "provider"))
		h.c.pollEvery = 10 * time.Millisecond
		h.c.healthEvery = 15 * time.Millisecond
		h.sess.SetState(&engine.PlaybackState{PositionMs: 10, DurationMs: 100}, nil)
		h.start(t)

		waitUntil(t, "session", func() bool { return h.engine.SessionCalls() == 1 })
		h.sess.Emit(engine.Event{Kind: engine.EventReady, DeviceID: "d1"})

		s := waitFor(t, h.c, func(s State) bool { return s.Phase == PhaseActive })
		if s.PositionMs != 10 {
			t.Errorf("expected polled position, got %d", s.PositionMs)
		}
	})
}
