package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotibaby/internal/credentials"
	"github.com/desertthunder/spotibaby/internal/shared"
	"golang.org/x/time/rate"
)

const (
	apiPrefix     = "/api/spotify"
	requestHeader = "X-Request-ID"
)

// Options configures a [Gateway].
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Store      credentials.Store
	// RateLimit caps outgoing requests per second. Zero disables pacing.
	RateLimit float64
	Logger    *log.Logger
	// OnUnauthorized runs after the credential has been cleared because it could not be renewed.
	OnUnauthorized func()
}

// Gateway issues authenticated requests to the backend.
type Gateway struct {
	baseURL        string
	httpClient     *http.Client
	store          credentials.Store
	limiter        *rate.Limiter
	logger         *log.Logger
	onUnauthorized func()

	// renewMu serializes refreshes so concurrent 401s renew the credential once.
	renewMu sync.Mutex
}

// New creates a [Gateway]. BaseURL defaults to http://127.0.0.1:5000 and HTTPClient to [http.DefaultClient].
func New(opts Options) *Gateway {
	g := &Gateway{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		httpClient:     opts.HTTPClient,
		store:          opts.Store,
		logger:         opts.Logger,
		onUnauthorized: opts.OnUnauthorized,
	}

	if g.baseURL == "" {
		g.baseURL = "http://127.0.0.1:5000"
	}
	if g.httpClient == nil {
		g.httpClient = http.DefaultClient
	}
	if g.store == nil {
		g.store = credentials.NewMemoryStore()
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard)
	}
	if opts.RateLimit > 0 {
		burst := max(1, int(opts.RateLimit))
		g.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return g
}

// StatusError is a non-2xx, non-401 backend response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %s", shared.ErrAPIRequest, e.Status)
}

func (e *StatusError) Unwrap() error {
	return shared.ErrAPIRequest
}

// LoginURL is the unauthenticated entry point that starts the provider login.
func (g *Gateway) LoginURL() string {
	return g.baseURL + apiPrefix + "/login"
}

// do sends an authenticated request, refreshing and retrying once on 401.
func (g *Gateway) do(ctx context.Context, method, path string, payload any) (*Response, error) {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = data
	}

	cred, err := g.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: no credential stored", shared.ErrNotAuthenticated)
	}

	resp, err := g.send(ctx, method, path, body, cred.Token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return checkStatus(resp)
	}

	g.logger.Warn("credential rejected, refreshing", "method", method, "path", path)

	fresh, err := g.renew(ctx, cred.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}

	resp, err = g.send(ctx, method, path, body, fresh.Token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		g.expireIf(ctx, fresh.Token)
		return nil, fmt.Errorf("%w: credential rejected after refresh", shared.ErrNotAuthenticated)
	}
	return checkStatus(resp)
}

// renew returns a credential newer than rejected. When another call already replaced the
// rejected one, that credential is reused instead of refreshing again.
func (g *Gateway) renew(ctx context.Context, rejected string) (*credentials.Credential, error) {
	g.renewMu.Lock()
	defer g.renewMu.Unlock()

	current, err := g.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("%w: credential cleared", shared.ErrRefreshFailed)
	}
	if current.Token != rejected {
		g.logger.Debug("credential already renewed")
		return current, nil
	}

	fresh, err := g.refresh(ctx, rejected)
	if err != nil {
		g.expire(ctx)
		return nil, err
	}
	return fresh, nil
}

// expireIf clears the credential unless it was replaced after token was rejected.
func (g *Gateway) expireIf(ctx context.Context, token string) {
	g.renewMu.Lock()
	defer g.renewMu.Unlock()

	if current, err := g.store.Get(ctx); err == nil && current != nil && current.Token != token {
		return
	}
	g.expire(ctx)
}

// send performs a single request without any retry.
func (g *Gateway) send(ctx context.Context, method, path string, body []byte, token string) (*Response, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request cancelled while waiting: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	id := shared.GenerateID()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestHeader, id)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	g.logger.Debug("backend response", "method", method, "path", path, "status", resp.StatusCode, "request_id", id)

	return readResponse(resp)
}

func (g *Gateway) expire(ctx context.Context) {
	if err := g.store.Clear(ctx); err != nil {
		g.logger.Error("failed to clear credential", "error", err)
	}
	g.logger.Warn("credential expired, login required")
	if g.onUnauthorized != nil {
		g.onUnauthorized()
	}
}

func checkStatus(resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
}
