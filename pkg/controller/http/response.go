package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/usecase"
	"github.com/pawnotes/pawnotes/pkg/utils/errutil"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}

// writeError writes the {success:false,error} envelope with the status
// matching err. Server-side failures are reported, client errors only
// logged.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	writeJSON(ctx, w, reportError(ctx, err), usecase.Failed(err))
}

// reportError logs err and returns the HTTP status it maps to
func reportError(ctx context.Context, err error) int {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		errutil.Handle(ctx, err, "request failed")
	} else {
		logging.From(ctx).Warn("request rejected", "status", status, "error", err.Error())
	}
	return status
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrCaseNotFound),
		errors.Is(err, usecase.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrInvalidStatusTransition),
		errors.Is(err, usecase.ErrNothingToSummarize):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrCaptureInProgress),
		errors.Is(err, usecase.ErrNoActiveCapture),
		errors.Is(err, usecase.ErrCaptureAborted),
		errors.Is(err, usecase.ErrMicrophone):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, usecase.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON request body into v. Malformed bodies are
// validation errors.
func decodeJSON(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return goerr.Wrap(usecase.ErrValidation, "invalid request body", goerr.V("error", err.Error()))
	}
	return nil
}
