package credentials

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource derives the provider token from whatever credential is current.
//
// Nothing is cached, so a credential replaced by a refresh is picked up on the next call.
type TokenSource struct {
	ctx   context.Context
	store Store
}

var _ oauth2.TokenSource = (*TokenSource)(nil)

// NewTokenSource creates a [TokenSource] reading from store.
func NewTokenSource(ctx context.Context, store Store) *TokenSource {
	return &TokenSource{ctx: ctx, store: store}
}

// Token implements [oauth2.TokenSource].
func (t *TokenSource) Token() (*oauth2.Token, error) {
	cred, err := t.store.Get(t.ctx)
	if err != nil {
		return nil, err
	}
	access, err := cred.ProviderToken()
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}
