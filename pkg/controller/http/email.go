package http

import (
	"net/http"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/usecase"
)

type emailResponse struct {
	usecase.Result
	Record *model.EmailRecord `json:"record,omitempty"`
}

type emailListResponse struct {
	usecase.Result
	Records []*model.EmailRecord `json:"records"`
}

func sendEmailHandler(uc *usecase.EmailUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg model.EmailMessage
		if err := decodeJSON(r, &msg); err != nil {
			writeError(r.Context(), w, err)
			return
		}

		record, err := uc.Send(r.Context(), &msg)
		if err != nil {
			if record == nil {
				writeError(r.Context(), w, err)
				return
			}
			// the attempt was logged, so the record is returned with the failure
			status := reportError(r.Context(), err)
			writeJSON(r.Context(), w, status, emailResponse{Result: usecase.Failed(err), Record: record})
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, emailResponse{Result: usecase.Succeeded(), Record: record})
	}
}

func listEmailsHandler(uc *usecase.EmailUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var limit int
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(r.Context(), w, goerr.Wrap(usecase.ErrValidation, "limit must be a non-negative integer", goerr.V("limit", v)))
				return
			}
			limit = n
		}

		records, err := uc.List(r.Context(), limit)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, emailListResponse{Result: usecase.Succeeded(), Records: records})
	}
}
