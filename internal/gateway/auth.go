package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/spotibaby/internal/credentials"
	"github.com/desertthunder/spotibaby/internal/shared"
	"golang.org/x/oauth2"
)

// Token fetches the provider access token through the backend.
func (g *Gateway) Token(ctx context.Context) (*oauth2.Token, error) {
	resp, err := g.do(ctx, http.MethodGet, apiPrefix+"/token", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token: %w", err)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in,omitempty"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response has no access_token", shared.ErrAPIRequest)
	}

	token := &oauth2.Token{AccessToken: body.AccessToken, TokenType: "Bearer"}
	if body.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}
	return token, nil
}

// Refresh exchanges the current credential for a new one and stores it.
//
// Refresh is never retried and does not clear the store on failure; that is left to the 401 path.
func (g *Gateway) Refresh(ctx context.Context) (*credentials.Credential, error) {
	g.renewMu.Lock()
	defer g.renewMu.Unlock()

	cred, err := g.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: no credential stored", shared.ErrNotAuthenticated)
	}
	return g.refresh(ctx, cred.Token)
}

func (g *Gateway) refresh(ctx context.Context, token string) (*credentials.Credential, error) {
	resp, err := g.send(ctx, http.MethodPost, apiPrefix+"/refresh", nil, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", shared.ErrRefreshFailed, resp.Status)
	}

	var body struct {
		JWTToken string `json:"jwtToken"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	fresh, err := credentials.Parse(body.JWTToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if err := g.store.Set(ctx, fresh); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	g.logger.Info("credential refreshed")
	return fresh, nil
}
