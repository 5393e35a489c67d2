package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotibaby/internal/credentials"
	"github.com/desertthunder/spotibaby/internal/engine"
	"github.com/desertthunder/spotibaby/internal/gateway"
	"github.com/desertthunder/spotibaby/internal/shared"
	"golang.org/x/oauth2"
)

// Gateway is the subset of the backend used for transport commands.
type Gateway interface {
	Play(ctx context.Context, trackID, deviceID, playlistID string) (*gateway.Response, error)
	Pause(ctx context.Context) (*gateway.Response, error)
	Resume(ctx context.Context, deviceID string) (*gateway.Response, error)
	Seek(ctx context.Context, positionMs int, deviceID string) (*gateway.Response, error)
}

var _ Gateway = (*gateway.Gateway)(nil)

// Options configures a [Controller].
type Options struct {
	Engine         engine.Engine
	Gateway        Gateway
	Store          credentials.Store
	DeviceName     string
	Volume         float64
	PollInterval   time.Duration
	HealthInterval time.Duration
	Logger         *log.Logger
}

// Controller owns the playback session state. See the package documentation for the lifecycle.
type Controller struct {
	engine      engine.Engine
	gateway     Gateway
	store       credentials.Store
	name        string
	volume      float64
	pollEvery   time.Duration
	healthEvery time.Duration
	logger      *log.Logger

	ops      chan func()
	stopped  chan struct{}
	running  atomic.Bool
	snapshot atomic.Pointer[State]
	updates  chan State

	// Loop-owned below this line.
	runCtx      context.Context
	state       State
	tokens      oauth2.TokenSource
	sess        engine.Session
	generation  uint64
	loaded      bool
	loading     bool
	initialized bool
	connecting  bool
	polling     bool
	probing     bool
}

// New creates a [Controller]. Run must be called before any command is accepted.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.Engine == nil:
		return nil, fmt.Errorf("%w: engine is required", shared.ErrMissingArgument)
	case opts.Gateway == nil:
		return nil, fmt.Errorf("%w: gateway is required", shared.ErrMissingArgument)
	case opts.Store == nil:
		return nil, fmt.Errorf("%w: credential store is required", shared.ErrMissingArgument)
	}

	c := &Controller{
		engine:      opts.Engine,
		gateway:     opts.Gateway,
		store:       opts.Store,
		name:        opts.DeviceName,
		volume:      opts.Volume,
		pollEvery:   opts.PollInterval,
		healthEvery: opts.HealthInterval,
		logger:      opts.Logger,
		ops:         make(chan func()),
		stopped:     make(chan struct{}),
		updates:     make(chan State, 1),
		state:       initialState(),
	}

	if c.name == "" {
		c.name = "DJ Beb Web Player"
	}
	if c.pollEvery <= 0 {
		c.pollEvery = time.Second
	}
	if c.healthEvery <= 0 {
		c.healthEvery = 5 * time.Second
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}

	s := c.state
	c.snapshot.Store(&s)
	return c, nil
}

// Snapshot returns the latest published state.
func (c *Controller) Snapshot() State {
	return *c.snapshot.Load()
}

// Updates delivers the latest state whenever it changes. Intermediate states may be skipped.
func (c *Controller) Updates() <-chan State {
	return c.updates
}

// Run drives the controller until ctx is cancelled. It may be called only once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return shared.ErrAlreadyRunning
	}
	defer close(c.stopped)

	poll := time.NewTicker(c.pollEvery)
	defer poll.Stop()
	health := time.NewTicker(c.healthEvery)
	defer health.Stop()

	c.logger.Info("session controller started", "device", c.name)
	c.runCtx = ctx
	c.acquire(ctx)

	for {
		var events <-chan engine.Event
		if c.sess != nil {
			events = c.sess.Events()
		}

		select {
		case <-ctx.Done():
			c.teardown()
			c.logger.Info("session controller stopped")
			return nil
		case fn := <-c.ops:
			fn()
		case ev := <-events:
			c.handleEvent(ev)
		case <-poll.C:
			c.pollState(ctx)
		case <-health.C:
			c.checkHealth(ctx)
		}
	}
}

// Started returns once Run has checked the stored credential, so the next Snapshot
// reflects that check.
func (c *Controller) Started(ctx context.Context) error {
	return c.do(ctx, func() {})
}

// Reload re-reads the credential when the controller is still waiting for one.
//
// ctx bounds only the call itself. Work started by the reload lives as long as Run.
func (c *Controller) Reload(ctx context.Context) error {
	return c.do(ctx, func() {
		if c.state.Phase == PhaseUninitialized {
			c.acquire(c.runCtx)
		}
	})
}

// do runs fn on the loop and waits for it to finish.
func (c *Controller) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	op := func() {
		defer close(done)
		fn()
	}

	select {
	case c.ops <- op:
	case <-c.stopped:
		return shared.ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-c.stopped:
		return shared.ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post hands a background result to the loop. It is dropped once the loop has stopped.
func (c *Controller) post(fn func()) {
	select {
	case c.ops <- fn:
	case <-c.stopped:
	}
}

func (c *Controller) publish() {
	s := c.state
	c.snapshot.Store(&s)

	select {
	case <-c.updates:
	default:
	}
	select {
	case c.updates <- s:
	default:
	}
}

// fail records err as the visible failure.
func (c *Controller) fail(err error) {
	c.state.Err = err
	c.publish()
}

// acquire derives the provider token from the stored credential.
func (c *Controller) acquire(ctx context.Context) {
	cred, err := c.store.Get(ctx)
	if err == nil && cred == nil {
		err = &credentials.ConfigurationError{Reason: "no credential stored", Err: shared.ErrMissingCredentials}
	}
	if err == nil {
		_, err = cred.ProviderToken()
	}
	if err != nil {
		c.logger.Warn("cannot initialize session", "error", err)
		c.state.Phase = PhaseUninitialized
		c.fail(err)
		return
	}

	c.state.Phase = PhaseTokenAcquired
	c.state.Err = nil
	c.tokens = credentials.NewTokenSource(ctx, c.store)
	c.publish()

	c.startLoad(ctx)
}

func (c *Controller) startLoad(ctx context.Context) {
	if c.loaded || c.loading {
		return
	}
	c.loading = true

	go func() {
		err := c.engine.Load(ctx)
		c.post(func() { c.onLoaded(ctx, err) })
	}()
}

func (c *Controller) onLoaded(ctx context.Context, err error) {
	c.loading = false
	if err != nil {
		c.logger.Warn("engine failed to load", "error", err)
		c.fail(fmt.Errorf("%w: %v", shared.ErrEngineUnavailable, err))
		return
	}

	c.loaded = true
	c.initSession(ctx)
	c.maybeReady()
	c.publish()
}

// initSession creates the engine session. It succeeds at most once per controller.
func (c *Controller) initSession(ctx context.Context) {
	if c.initialized {
		return
	}

	sess, err := c.engine.NewSession(c.tokens, c.name, c.volume)
	if err != nil {
		c.logger.Error("failed to create engine session", "error", err)
		c.fail(fmt.Errorf("%w: %v", shared.ErrEngineUnavailable, err))
		return
	}

	c.sess = sess
	c.initialized = true
	c.logger.Debug("engine session created", "device", c.name)
	c.connect(ctx)
}

func (c *Controller) connect(ctx context.Context) {
	if c.sess == nil || c.connecting {
		return
	}
	c.connecting = true

	sess := c.sess
	go func() {
		err := sess.Connect(ctx)
		c.post(func() { c.onConnected(err) })
	}()
}

func (c *Controller) onConnected(err error) {
	c.connecting = false
	if err != nil {
		c.logger.Warn("connect failed", "device", c.name, "error", err)
		if errors.Is(err, shared.ErrDeviceNotFound) {
			c.state.Err = err
		}
	}

	// Back to ready optimistically; the next health check finds out if this was wrong.
	if c.state.Phase == PhaseDegraded && c.state.HasDevice() {
		c.state.Phase = PhaseEngineReady
		c.logger.Info("session recovered", "device", c.state.DeviceID)
	}
	c.publish()
}

func (c *Controller) maybeReady() {
	if c.loaded && c.state.HasDevice() && c.state.Phase == PhaseTokenAcquired {
		c.state.Phase = PhaseEngineReady
		c.logger.Info("engine ready", "device_id", c.state.DeviceID)
	}
}

func (c *Controller) handleEvent(ev engine.Event) {
	c.logger.Debug("engine event", "kind", ev.Kind, "device_id", ev.DeviceID)

	switch ev.Kind {
	case engine.EventReady:
		if ev.DeviceID == "" {
			return
		}
		c.state.DeviceID = ev.DeviceID
		c.maybeReady()
	case engine.EventNotReady:
		if ev.DeviceID != "" && ev.DeviceID != c.state.DeviceID {
			return
		}
		c.state.DeviceID = ""
		c.state.clearPlayback()
		if c.state.Phase != PhaseUninitialized {
			c.state.Phase = PhaseTokenAcquired
		}
		c.logger.Warn("device went away", "device_id", ev.DeviceID)
	case engine.EventStateChanged:
		c.applyState(ev.State)
	}
	c.publish()
}

// applyState applies an authoritative report. A nil report means nothing is playing.
func (c *Controller) applyState(st *engine.PlaybackState) {
	switch c.state.Phase {
	case PhaseEngineReady, PhaseActive, PhaseDegraded:
	default:
		return
	}

	c.generation++

	if st == nil {
		if c.state.Phase == PhaseActive {
			c.state.Phase = PhaseEngineReady
		}
		c.state.clearPlayback()
		return
	}

	c.state.Phase = PhaseActive
	c.state.IsPlaying = !st.Paused
	c.state.setProgress(st.PositionMs, st.DurationMs)
	if st.TrackID != "" && st.TrackID != c.state.TrackID {
		if c.state.TrackID != "" {
			c.state.TrackIndex = -1
		}
		c.state.TrackID = st.TrackID
	}
}

func (c *Controller) pollState(ctx context.Context) {
	if c.polling || c.sess == nil || !c.state.HasDevice() {
		return
	}
	if c.state.Phase != PhaseEngineReady && c.state.Phase != PhaseActive {
		return
	}
	c.polling = true

	sess := c.sess
	go func() {
		st, err := sess.CurrentState(ctx)
		c.post(func() {
			c.polling = false
			if err != nil {
				c.logger.Debug("poll failed", "error", err)
				return
			}
			if st == nil {
				return
			}
			c.applyState(st)
			c.publish()
		})
	}()
}

// checkHealth retries whatever startup step is missing, then probes the session.
func (c *Controller) checkHealth(ctx context.Context) {
	switch {
	case c.state.Phase == PhaseUninitialized:
		return
	case !c.loaded:
		c.startLoad(ctx)
		return
	case !c.initialized:
		c.initSession(ctx)
		c.publish()
		return
	case !c.state.HasDevice():
		c.connect(ctx)
		return
	case c.probing:
		return
	case c.state.Phase != PhaseEngineReady && c.state.Phase != PhaseActive:
		return
	}
	c.probing = true

	sess := c.sess
	go func() {
		st, err := sess.CurrentState(ctx)
		c.post(func() { c.onHealth(ctx, st, err) })
	}()
}

func (c *Controller) onHealth(ctx context.Context, st *engine.PlaybackState, err error) {
	c.probing = false
	if st != nil && err == nil {
		return
	}
	if !c.state.HasDevice() {
		return
	}
	if c.state.Phase != PhaseEngineReady && c.state.Phase != PhaseActive {
		return
	}

	c.logger.Warn("session unresponsive, reconnecting", "device_id", c.state.DeviceID, "error", err)
	c.state.Phase = PhaseDegraded
	c.publish()
	c.connect(ctx)
}

func (c *Controller) teardown() {
	if c.sess != nil {
		c.sess.Disconnect()
	}
	c.state.DeviceID = ""
	c.state.clearPlayback()
	if c.state.Phase != PhaseUninitialized {
		c.state.Phase = PhaseTokenAcquired
	}
	c.publish()
}
