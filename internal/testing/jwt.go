package testing

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

const signingKey = "test-signing-key"

// SignedJWT builds an HS256 token carrying claims.
func SignedJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims))
	signed, err := token.SignedString([]byte(signingKey))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// ProviderJWT builds a credential token embedding provider as the SpotifyToken claim.
func ProviderJWT(t *testing.T, provider string) string {
	t.Helper()
	return SignedJWT(t, map[string]any{"SpotifyToken": provider, "sub": "kiosk"})
}
