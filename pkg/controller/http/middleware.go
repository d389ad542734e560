package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/model/auth"
	"github.com/pawnotes/pawnotes/pkg/usecase"
)

// AccessTokenCookie is the cookie the frontend stores the Supabase access
// token in
const AccessTokenCookie = "sb-access-token"

// authMiddleware validates the access token of protected requests and
// puts the identity into the request context
func authMiddleware(authUC usecase.AuthUseCaseInterface) func(http.Handler) http.Handler {
	if authUC == nil {
		authUC = usecase.NewNoAuthnUseCase(nil)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := accessToken(r)
			if raw == "" && !authUC.IsNoAuthn() {
				writeError(r.Context(), w, goerr.Wrap(usecase.ErrUnauthorized, "authentication required"))
				return
			}

			token, err := authUC.ValidateToken(r.Context(), raw)
			if err != nil {
				writeError(r.Context(), w, err)
				return
			}

			ctx := auth.ContextWithToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// accessToken reads the token from the Authorization header, then the
// cookie. Browsers cannot set headers on websocket upgrades, so upgrade
// requests may also pass it as the access_token query parameter.
func accessToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
