package engine

import (
	"context"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
)

// refreshTransport renews the credential once when the provider answers 401, then replays
// the request with whatever token the source hands out next.
type refreshTransport struct {
	next    http.RoundTripper
	refresh func(ctx context.Context) error
	logger  *log.Logger

	mu  sync.Mutex
	gen uint64
}

func (t *refreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	gen := t.generation()

	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || t.refresh == nil || !replayable(req) {
		return resp, err
	}

	if err := t.renew(req.Context(), gen); err != nil {
		t.logger.Warn("provider token refresh failed", "error", err)
		return resp, nil
	}
	resp.Body.Close()

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return t.next.RoundTrip(retry)
}

func (t *refreshTransport) generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// renew refreshes unless another request already did since gen was observed.
func (t *refreshTransport) renew(ctx context.Context, gen uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gen != gen {
		return nil
	}
	if err := t.refresh(ctx); err != nil {
		return err
	}
	t.gen++
	t.logger.Info("provider token refreshed")
	return nil
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}
