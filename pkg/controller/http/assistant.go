package http

import (
	"net/http"

	"github.com/pawnotes/pawnotes/pkg/usecase"
)

type assistantRequest struct {
	Message string `json:"message"`
}

type assistantResponse struct {
	usecase.Result
	Response string `json:"response"`
}

func assistantHandler(uc *usecase.AssistantUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assistantRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), w, err)
			return
		}

		answer, err := uc.Ask(r.Context(), req.Message)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, assistantResponse{Result: usecase.Succeeded(), Response: answer})
	}
}
