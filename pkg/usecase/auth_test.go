package usecase_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/usecase"
)

const (
	testProjectURL = "https://abcd.supabase.co"
	testIssuer     = testProjectURL + "/auth/v1"
	testJWTSecret  = "super-secret-jwt-token-with-at-least-32-characters"
)

func buildToken(t *testing.T, issuer, aud string, exp time.Time) jwt.Token {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Subject("b5e1c0de-0000-4000-8000-000000000001").
		Audience([]string{aud}).
		IssuedAt(time.Now()).
		Expiration(exp).
		Claim("email", "vet@example.com").
		Claim("user_metadata", map[string]any{"full_name": "Dr. Tanaka"}).
		Build()
	gt.NoError(t, err).Required()
	return tok
}

func signHS256(t *testing.T, tok jwt.Token, secret string) string {
	t.Helper()
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
	gt.NoError(t, err).Required()
	return string(signed)
}

func TestAuthUseCase_HS256(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewAuthUseCase(testProjectURL, usecase.WithJWTSecret(testJWTSecret))

	gt.Bool(t, uc.IsNoAuthn()).False()

	t.Run("valid token", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		raw := signHS256(t, buildToken(t, testIssuer, "authenticated", exp), testJWTSecret)

		token, err := uc.ValidateToken(ctx, raw)
		gt.NoError(t, err).Required()
		gt.Value(t, token.Sub).Equal("b5e1c0de-0000-4000-8000-000000000001")
		gt.Value(t, token.Email).Equal("vet@example.com")
		gt.Value(t, token.Name).Equal("Dr. Tanaka")
		gt.Bool(t, token.ExpiresAt.Equal(exp)).True()

		// second call is served from cache
		cached, err := uc.ValidateToken(ctx, raw)
		gt.NoError(t, err).Required()
		gt.Value(t, cached).Equal(token)
	})

	testCases := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "empty token",
			token: func(t *testing.T) string { return "" },
		},
		{
			name:  "garbage",
			token: func(t *testing.T) string { return "not.a.jwt" },
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return signHS256(t, buildToken(t, testIssuer, "authenticated", time.Now().Add(time.Hour)), "another-secret-another-secret-another")
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return signHS256(t, buildToken(t, testIssuer, "authenticated", time.Now().Add(-time.Hour)), testJWTSecret)
			},
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				return signHS256(t, buildToken(t, "https://evil.supabase.co/auth/v1", "authenticated", time.Now().Add(time.Hour)), testJWTSecret)
			},
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				return signHS256(t, buildToken(t, testIssuer, "anon", time.Now().Add(time.Hour)), testJWTSecret)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.ValidateToken(ctx, tc.token(t))
			gt.Error(t, err).Is(usecase.ErrUnauthorized)
		})
	}
}

func TestAuthUseCase_JWKS(t *testing.T) {
	ctx := context.Background()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	gt.NoError(t, err).Required()

	key, err := jwk.FromRaw(priv)
	gt.NoError(t, err).Required()
	gt.NoError(t, key.Set(jwk.KeyIDKey, "test-key")).Required()
	gt.NoError(t, key.Set(jwk.AlgorithmKey, jwa.RS256)).Required()

	pub, err := jwk.PublicKeyOf(key)
	gt.NoError(t, err).Required()
	set := jwk.NewSet()
	gt.NoError(t, set.AddKey(pub)).Required()

	var fetched atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched.Add(1)
		w.Header().Set("Content-Type", "application/json")
		gt.NoError(t, json.NewEncoder(w).Encode(set))
	}))
	defer srv.Close()

	uc := usecase.NewAuthUseCase(testProjectURL, usecase.WithJWKSURL(srv.URL))

	sign := func(t *testing.T) string {
		signed, err := jwt.Sign(buildToken(t, testIssuer, "authenticated", time.Now().Add(time.Hour)), jwt.WithKey(jwa.RS256, key))
		gt.NoError(t, err).Required()
		return string(signed)
	}

	token, err := uc.ValidateToken(ctx, sign(t))
	gt.NoError(t, err).Required()
	gt.Value(t, token.Email).Equal("vet@example.com")

	// keys are reused for a new token
	_, err = uc.ValidateToken(ctx, sign(t))
	gt.NoError(t, err).Required()
	gt.Value(t, fetched.Load()).Equal(int32(1))

	t.Run("token signed by unknown key", func(t *testing.T) {
		_, err := uc.ValidateToken(ctx, signHS256(t, buildToken(t, testIssuer, "authenticated", time.Now().Add(time.Hour)), testJWTSecret))
		gt.Error(t, err).Is(usecase.ErrUnauthorized)
	})
}
