package credentials

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spotibaby/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// ProviderClaim is the payload claim carrying the provider access token.
const ProviderClaim = "SpotifyToken"

// Credential is the delegated bearer issued by the backend.
type Credential struct {
	Token string
}

// ConfigurationError reports a missing or malformed credential.
//
// It blocks session initialization until the user logs in again.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Parse wraps a raw bearer string. Only emptiness is checked here.
func Parse(raw string) (*Credential, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ConfigurationError{Reason: "empty token", Err: shared.ErrMissingCredentials}
	}
	return &Credential{Token: raw}, nil
}

// ProviderToken decodes the payload segment and returns the embedded provider token.
func (c *Credential) ProviderToken() (string, error) {
	if c == nil || c.Token == "" {
		return "", &ConfigurationError{Reason: "no credential", Err: shared.ErrMissingCredentials}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Token, claims); err != nil {
		return "", &ConfigurationError{Reason: err.Error(), Err: shared.ErrInvalidCredentials}
	}

	raw, ok := claims[ProviderClaim]
	if !ok {
		return "", &ConfigurationError{Reason: fmt.Sprintf("claim %q absent", ProviderClaim), Err: shared.ErrMissingProviderToken}
	}

	token, ok := raw.(string)
	if !ok || token == "" {
		return "", &ConfigurationError{Reason: fmt.Sprintf("claim %q is not a non-empty string", ProviderClaim), Err: shared.ErrMissingProviderToken}
	}

	return token, nil
}
