package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/model/auth"
	"github.com/pawnotes/pawnotes/pkg/usecase"
)

type userMeResponse struct {
	usecase.Result
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// authMeHandler returns current user information
func authMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.TokenFromContext(r.Context())
		if err != nil {
			writeError(r.Context(), w, goerr.Wrap(usecase.ErrUnauthorized, "no authenticated user"))
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, userMeResponse{
			Result: usecase.Succeeded(),
			Sub:    token.Sub,
			Email:  token.Email,
			Name:   token.Name,
		})
	}
}
