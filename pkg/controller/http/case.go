package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
	"github.com/pawnotes/pawnotes/pkg/usecase"
)

type caseRequest struct {
	Name          string    `json:"name"`
	Timestamp     time.Time `json:"timestamp"`
	AssignedStaff []string  `json:"assigned_staff"`
	Type          string    `json:"type"`
	Visibility    string    `json:"visibility"`
}

func (req *caseRequest) toInput() (usecase.CaseInput, error) {
	caseType, err := types.ParseCaseType(req.Type)
	if err != nil {
		return usecase.CaseInput{}, goerr.Wrap(usecase.ErrValidation, err.Error())
	}

	var visibility types.Visibility
	if req.Visibility != "" {
		visibility, err = types.ParseVisibility(req.Visibility)
		if err != nil {
			return usecase.CaseInput{}, goerr.Wrap(usecase.ErrValidation, err.Error())
		}
	}

	return usecase.CaseInput{
		Name:          req.Name,
		Timestamp:     req.Timestamp,
		AssignedStaff: req.AssignedStaff,
		Type:          caseType,
		Visibility:    visibility,
	}, nil
}

type caseResponse struct {
	usecase.Result
	Case *model.Case `json:"case"`
}

type caseListResponse struct {
	usecase.Result
	Cases []*model.Case `json:"cases"`
}

func caseIDParam(r *http.Request) model.CaseID {
	return model.CaseID(chi.URLParam(r, "caseID"))
}

// listOptions builds repository filters from the status, type and limit
// query parameters
func listOptions(r *http.Request) ([]interfaces.ListCaseOption, error) {
	q := r.URL.Query()
	var opts []interfaces.ListCaseOption

	if v := q.Get("status"); v != "" {
		status, err := types.ParseCaseStatus(v)
		if err != nil {
			return nil, goerr.Wrap(usecase.ErrValidation, err.Error())
		}
		opts = append(opts, interfaces.WithStatus(status))
	}
	if v := q.Get("type"); v != "" {
		caseType, err := types.ParseCaseType(v)
		if err != nil {
			return nil, goerr.Wrap(usecase.ErrValidation, err.Error())
		}
		opts = append(opts, interfaces.WithType(caseType))
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return nil, goerr.Wrap(usecase.ErrValidation, "limit must be a non-negative integer", goerr.V("limit", v))
		}
		opts = append(opts, interfaces.WithLimit(limit))
	}

	return opts, nil
}

func listCasesHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := listOptions(r)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		cases, err := uc.ListCases(r.Context(), opts...)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, caseListResponse{Result: usecase.Succeeded(), Cases: cases})
	}
}

func createCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req caseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), w, err)
			return
		}
		in, err := req.toInput()
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		created, err := uc.CreateCase(r.Context(), in)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, caseResponse{Result: usecase.Succeeded(), Case: created})
	}
}

func getCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := uc.GetCase(r.Context(), caseIDParam(r))
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, caseResponse{Result: usecase.Succeeded(), Case: c})
	}
}

func updateCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req caseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), w, err)
			return
		}
		in, err := req.toInput()
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		updated, err := uc.UpdateCase(r.Context(), caseIDParam(r), in)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, caseResponse{Result: usecase.Succeeded(), Case: updated})
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func changeStatusHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), w, err)
			return
		}
		status, err := types.ParseCaseStatus(req.Status)
		if err != nil {
			writeError(r.Context(), w, goerr.Wrap(usecase.ErrValidation, err.Error()))
			return
		}

		updated, err := uc.ChangeStatus(r.Context(), caseIDParam(r), status)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, caseResponse{Result: usecase.Succeeded(), Case: updated})
	}
}

type actionsRequest struct {
	Actions []model.CaseAction `json:"actions"`
}

func saveActionsHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req actionsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), w, err)
			return
		}

		saved, err := uc.SaveActions(r.Context(), caseIDParam(r), req.Actions)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, caseResponse{Result: usecase.Succeeded(), Case: saved})
	}
}

type soapRequest struct {
	TemplateID string `json:"template_id"`
	Transcript string `json:"transcript"`
}

type actionResponse struct {
	usecase.Result
	Action *model.CaseAction `json:"action"`
}

func generateSOAPHandler(uc *usecase.NoteUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req soapRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), w, err)
			return
		}

		action, err := uc.GenerateSOAPNote(r.Context(), caseIDParam(r), req.TemplateID, req.Transcript)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, actionResponse{Result: usecase.Succeeded(), Action: action})
	}
}

type exportResponse struct {
	usecase.Result
	Location string      `json:"location"`
	Case     *model.Case `json:"case"`
}

func exportCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		location, c, err := uc.ExportCase(r.Context(), caseIDParam(r))
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, exportResponse{
			Result:   usecase.Succeeded(),
			Location: location,
			Case:     c,
		})
	}
}

type dashboardResponse struct {
	usecase.Result
	Total    int                      `json:"total"`
	ByStatus map[types.CaseStatus]int `json:"by_status"`
	ByType   map[types.CaseType]int   `json:"by_type"`
	Actions  int                      `json:"actions"`
	Recent   []*model.Case            `json:"recent"`
}

func dashboardHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := uc.Dashboard(r.Context())
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, dashboardResponse{
			Result:   usecase.Succeeded(),
			Total:    d.Total,
			ByStatus: d.ByStatus,
			ByType:   d.ByType,
			Actions:  d.Actions,
			Recent:   d.Recent,
		})
	}
}

type templateView struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Sections    map[string]string `json:"sections,omitempty"`
}

type templatesResponse struct {
	usecase.Result
	Templates []templateView `json:"templates"`
}

func templatesHandler(uc *usecase.NoteUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates := uc.Templates()
		resp := templatesResponse{
			Result:    usecase.Succeeded(),
			Templates: make([]templateView, len(templates)),
		}
		for i, tmpl := range templates {
			resp.Templates[i] = templateView{
				ID:          tmpl.ID,
				Name:        tmpl.Name,
				Description: tmpl.Description,
				Sections:    tmpl.Sections,
			}
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}
