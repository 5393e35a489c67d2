package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotibaby/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

const (
	defaultAPIURL = "https://api.spotify.com/v1"
	eventBuffer   = 16
)

// Options configures a [WebAPIEngine].
type Options struct {
	APIURL string
	// Transport is the base round tripper beneath token injection. Defaults to [http.DefaultTransport].
	Transport     http.RoundTripper
	Timeout       time.Duration
	WatchInterval time.Duration
	// Refresh renews the credential after the provider rejects the current token.
	// Each rejected request triggers at most one refresh and one retry.
	Refresh func(ctx context.Context) error
	Logger  *log.Logger
}

// WebAPIEngine is an [Engine] driving a Connect device through the provider Web API.
type WebAPIEngine struct {
	apiURL    string
	transport http.RoundTripper
	timeout   time.Duration
	watch     time.Duration
	refresh   func(ctx context.Context) error
	logger    *log.Logger

	mu     sync.Mutex
	loaded bool
}

var _ Engine = (*WebAPIEngine)(nil)

// NewWebAPIEngine creates a [WebAPIEngine].
func NewWebAPIEngine(opts Options) *WebAPIEngine {
	e := &WebAPIEngine{
		apiURL:    strings.TrimRight(opts.APIURL, "/"),
		transport: opts.Transport,
		timeout:   opts.Timeout,
		watch:     opts.WatchInterval,
		refresh:   opts.Refresh,
		logger:    opts.Logger,
	}
	if e.apiURL == "" {
		e.apiURL = defaultAPIURL
	}
	if e.transport == nil {
		e.transport = http.DefaultTransport
	}
	if e.timeout <= 0 {
		e.timeout = 10 * time.Second
	}
	if e.watch <= 0 {
		e.watch = time.Second
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// Load probes the API once. Any HTTP response counts as available.
func (e *WebAPIEngine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Transport: e.transport, Timeout: e.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	resp.Body.Close()

	e.loaded = true
	e.logger.Debug("engine loaded", "api", e.apiURL, "status", resp.StatusCode)
	return nil
}

// NewSession creates a session for the device called name.
func (e *WebAPIEngine) NewSession(tokens oauth2.TokenSource, name string, volume float64) (Session, error) {
	e.mu.Lock()
	loaded := e.loaded
	e.mu.Unlock()

	switch {
	case !loaded:
		return nil, fmt.Errorf("%w: engine not loaded", shared.ErrEngineUnavailable)
	case tokens == nil:
		return nil, fmt.Errorf("%w: token source is required", shared.ErrInvalidArgument)
	case strings.TrimSpace(name) == "":
		return nil, fmt.Errorf("%w: device name is required", shared.ErrInvalidArgument)
	}

	logger := shared.WithLogger(e.logger, "device", name)
	client := &http.Client{
		Transport: &refreshTransport{
			next:    &oauth2.Transport{Source: tokens, Base: e.transport},
			refresh: e.refresh,
			logger:  logger,
		},
		Timeout: e.timeout,
	}

	return &webSession{
		api:    spotify.New(client, spotify.WithBaseURL(e.apiURL+"/")),
		name:   name,
		volume: math.Max(0, math.Min(1, volume)),
		watch:  e.watch,
		logger: logger,
		events: make(chan Event, eventBuffer),
	}, nil
}

type webSession struct {
	api    *spotify.Client
	name   string
	volume float64
	watch  time.Duration
	logger *log.Logger
	events chan Event

	connectMu sync.Mutex

	mu        sync.Mutex
	deviceID  string
	volumeSet bool
	stop      context.CancelFunc
	done      chan struct{}
}

func (s *webSession) Events() <-chan Event {
	return s.events
}

// Connect resolves the device and starts the watcher.
func (s *webSession) Connect(ctx context.Context) error {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	id, err := s.findDevice(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	previous := s.deviceID
	s.deviceID = id
	setVolume := id != "" && !s.volumeSet
	s.mu.Unlock()

	if previous != "" && previous != id {
		s.emit(Event{Kind: EventNotReady, DeviceID: previous})
	}
	if id == "" {
		return fmt.Errorf("%w: %q", shared.ErrDeviceNotFound, s.name)
	}
	if previous != id {
		s.emit(Event{Kind: EventReady, DeviceID: id})
	}

	if setVolume {
		if err := s.setVolume(ctx, id); err != nil {
			s.logger.Warn("failed to set initial volume", "error", err)
		} else {
			s.mu.Lock()
			s.volumeSet = true
			s.mu.Unlock()
		}
	}

	s.startWatcher()
	return nil
}

// Disconnect stops the watcher and forgets the device.
func (s *webSession) Disconnect() {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.deviceID = ""
	s.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
}

func (s *webSession) CurrentState(ctx context.Context) (*PlaybackState, error) {
	s.mu.Lock()
	deviceID := s.deviceID
	s.mu.Unlock()

	if deviceID == "" {
		return nil, nil
	}

	ps, err := s.api.PlayerState(ctx)
	if err != nil {
		return nil, providerError("player state", err)
	}
	if ps == nil || ps.Device.ID.String() != deviceID {
		return nil, nil
	}

	st := &PlaybackState{Paused: !ps.Playing, DeviceID: deviceID}
	if ps.Item != nil {
		st.TrackID = ps.Item.ID.String()
		st.TrackURI = string(ps.Item.URI)
		st.DurationMs = int(ps.Item.Duration)
		st.PositionMs = int(ps.Progress)
	}
	return st, nil
}

func (s *webSession) Skip(ctx context.Context) error {
	s.mu.Lock()
	deviceID := s.deviceID
	s.mu.Unlock()

	if deviceID == "" {
		return fmt.Errorf("%w: not connected", shared.ErrEngineUnavailable)
	}

	id := spotify.ID(deviceID)
	if err := s.api.NextOpt(ctx, &spotify.PlayOptions{DeviceID: &id}); err != nil {
		return providerError("skip", err)
	}
	return nil
}

func (s *webSession) findDevice(ctx context.Context) (string, error) {
	devices, err := s.api.PlayerDevices(ctx)
	if err != nil {
		return "", providerError("devices", err)
	}
	for _, d := range devices {
		if d.Name == s.name && d.ID != "" {
			return d.ID.String(), nil
		}
	}
	return "", nil
}

func (s *webSession) setVolume(ctx context.Context, deviceID string) error {
	id := spotify.ID(deviceID)
	percent := int(math.Round(s.volume * 100))
	if err := s.api.VolumeOpt(ctx, percent, &spotify.PlayOptions{DeviceID: &id}); err != nil {
		return providerError("volume", err)
	}
	return nil
}

func (s *webSession) startWatcher() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.done = make(chan struct{})
	go s.watchState(ctx, s.done)
}

// watchState emits [EventStateChanged] whenever the reported state differs from the last one.
func (s *webSession) watchState(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.watch)
	defer ticker.Stop()

	var (
		last *PlaybackState
		seen bool
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st, err := s.CurrentState(ctx)
			if err != nil {
				s.logger.Debug("watch failed", "error", err)
				continue
			}
			if seen && sameState(last, st) {
				continue
			}
			last, seen = st, true
			s.emit(Event{Kind: EventStateChanged, DeviceID: s.currentDevice(), State: st})
		}
	}
}

func (s *webSession) currentDevice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceID
}

// emit never blocks; a full buffer drops the event.
func (s *webSession) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("event dropped", "kind", ev.Kind)
	}
}

// providerError separates transport failures from provider rejections.
func providerError(op string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
}

func sameState(a, b *PlaybackState) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
