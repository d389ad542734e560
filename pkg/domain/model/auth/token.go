package auth

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Token is the authenticated identity of a request. Sub is the identity
// provider's stable user ID and is used as the case owner ID.
type Token struct {
	Sub       string
	Email     string
	Name      string
	ExpiresAt time.Time
}

const anonymousSub = "anonymous"

// NewToken creates a token for the given user with a default lifetime
func NewToken(sub, email, name string) *Token {
	return &Token{
		Sub:       sub,
		Email:     email,
		Name:      name,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

// NewAnonymousUser returns the identity used when authentication is disabled
func NewAnonymousUser() *Token {
	return NewToken(anonymousSub, "anonymous@localhost", "Anonymous")
}

func (t *Token) IsExpired() bool {
	return !t.ExpiresAt.IsZero() && time.Now().After(t.ExpiresAt)
}

// ErrNoAuthToken is returned when the context carries no identity
var ErrNoAuthToken = goerr.New("no auth token in context")

type ctxTokenKey struct{}

func ContextWithToken(ctx context.Context, token *Token) context.Context {
	return context.WithValue(ctx, ctxTokenKey{}, token)
}

func TokenFromContext(ctx context.Context) (*Token, error) {
	token, ok := ctx.Value(ctxTokenKey{}).(*Token)
	if !ok || token == nil {
		return nil, ErrNoAuthToken
	}
	return token, nil
}
