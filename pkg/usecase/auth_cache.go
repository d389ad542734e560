package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/pawnotes/pawnotes/pkg/domain/model/auth"
)

const (
	authCacheTTL = 5 * time.Minute
)

type cachedToken struct {
	token     *auth.Token
	expiresAt time.Time
}

// authCache keeps verified tokens keyed by the hash of the raw access
// token so that the token itself is never held in memory.
type authCache struct {
	cache sync.Map
}

func newAuthCache() *authCache {
	return &authCache{}
}

func cacheKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(sum[:])
}

func (c *authCache) get(accessToken string) (*auth.Token, bool) {
	key := cacheKey(accessToken)
	val, ok := c.cache.Load(key)
	if !ok {
		return nil, false
	}

	cached := val.(*cachedToken)
	if time.Now().After(cached.expiresAt) {
		c.cache.Delete(key)
		return nil, false
	}

	return cached.token, true
}

func (c *authCache) set(accessToken string, token *auth.Token) {
	expiresAt := time.Now().Add(authCacheTTL)
	if !token.ExpiresAt.IsZero() && token.ExpiresAt.Before(expiresAt) {
		expiresAt = token.ExpiresAt
	}
	c.cache.Store(cacheKey(accessToken), &cachedToken{
		token:     token,
		expiresAt: expiresAt,
	})
}
