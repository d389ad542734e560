package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/model/auth"
)

const (
	supabaseAudience = "authenticated"
	jwksRefreshAfter = time.Hour
)

// AuthUseCaseInterface validates the bearer tokens issued to the browser
// by the identity provider.
type AuthUseCaseInterface interface {
	ValidateToken(ctx context.Context, accessToken string) (*auth.Token, error)
	IsNoAuthn() bool
}

// AuthUseCase validates Supabase access tokens. Tokens are verified with
// the project's JWT secret (HS256) when one is configured, otherwise with
// the project's published JWKS.
type AuthUseCase struct {
	issuer   string
	audience string
	secret   []byte
	jwksURL  string

	mu        sync.Mutex
	keySet    jwk.Set
	fetchedAt time.Time

	cache *authCache
}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithJWTSecret verifies tokens with a shared HS256 secret
func WithJWTSecret(secret string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.secret = []byte(secret)
	}
}

// WithJWKSURL overrides the JWKS location derived from the project URL
func WithJWKSURL(url string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.jwksURL = url
	}
}

// WithAudience overrides the expected aud claim
func WithAudience(aud string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.audience = aud
	}
}

// NewAuthUseCase creates a validator for the Supabase project at
// projectURL, e.g. https://xyzcompany.supabase.co
func NewAuthUseCase(projectURL string, options ...AuthOption) *AuthUseCase {
	base := strings.TrimRight(projectURL, "/") + "/auth/v1"
	uc := &AuthUseCase{
		issuer:   base,
		audience: supabaseAudience,
		jwksURL:  base + "/.well-known/jwks.json",
		cache:    newAuthCache(),
	}

	for _, opt := range options {
		opt(uc)
	}

	return uc
}

// IsNoAuthn returns false for regular AuthUseCase
func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}

// ValidateToken verifies accessToken and returns the identity it carries
func (uc *AuthUseCase) ValidateToken(ctx context.Context, accessToken string) (*auth.Token, error) {
	if accessToken == "" {
		return nil, goerr.Wrap(ErrUnauthorized, "access token is required")
	}

	if token, ok := uc.cache.get(accessToken); ok {
		return token, nil
	}

	token, err := uc.parse(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	uc.cache.set(accessToken, token)
	return token, nil
}

func (uc *AuthUseCase) parse(ctx context.Context, accessToken string) (*auth.Token, error) {
	keyOpt, err := uc.keyOption(ctx)
	if err != nil {
		return nil, err
	}

	// Allow 10 seconds of clock skew
	parsed, err := jwt.Parse([]byte(accessToken),
		keyOpt,
		jwt.WithValidate(true),
		jwt.WithIssuer(uc.issuer),
		jwt.WithAudience(uc.audience),
		jwt.WithAcceptableSkew(10*time.Second),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrUnauthorized, "failed to verify access token", goerr.V("error", err.Error()))
	}

	if parsed.Subject() == "" {
		return nil, goerr.Wrap(ErrUnauthorized, "sub claim not found in token")
	}

	email := stringClaim(parsed, "email")
	name := email
	if meta, ok := parsed.Get("user_metadata"); ok {
		if m, ok := meta.(map[string]any); ok {
			for _, key := range []string{"full_name", "name"} {
				if v, ok := m[key].(string); ok && v != "" {
					name = v
					break
				}
			}
		}
	}

	return &auth.Token{
		Sub:       parsed.Subject(),
		Email:     email,
		Name:      name,
		ExpiresAt: parsed.Expiration(),
	}, nil
}

func (uc *AuthUseCase) keyOption(ctx context.Context) (jwt.ParseOption, error) {
	if len(uc.secret) > 0 {
		return jwt.WithKey(jwa.HS256, uc.secret), nil
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.keySet == nil || time.Since(uc.fetchedAt) > jwksRefreshAfter {
		keySet, err := jwk.Fetch(ctx, uc.jwksURL)
		if err != nil {
			if uc.keySet == nil {
				return nil, goerr.Wrap(err, "failed to fetch Supabase public keys", goerr.V("jwks_uri", uc.jwksURL))
			}
			// keep using the previous keys until the next refresh succeeds
		} else {
			uc.keySet = keySet
			uc.fetchedAt = time.Now()
		}
	}

	return jwt.WithKeySet(uc.keySet), nil
}

func stringClaim(token jwt.Token, name string) string {
	v, ok := token.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
