package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/usecase"
)

func TestErrors_ErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		usecase.ErrUnauthorized,
		usecase.ErrAccessDenied,
		usecase.ErrValidation,
		usecase.ErrCaseNotFound,
		usecase.ErrUpstream,
		usecase.ErrCaptureInProgress,
		usecase.ErrNoActiveCapture,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				gt.Bool(t, errors.Is(a, b)).False()
			}
		}
	}
}

func TestErrors_SurviveWrapping(t *testing.T) {
	err := goerr.Wrap(usecase.ErrCaseNotFound, "case not found", goerr.V(usecase.CaseIDKey, "c-1"))
	gt.Error(t, err).Is(usecase.ErrCaseNotFound)
}
