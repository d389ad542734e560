package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/usecase"
)

func TestResult(t *testing.T) {
	gt.Value(t, usecase.Succeeded()).Equal(usecase.Result{Success: true})

	testCases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "unauthorized hides detail",
			err:  goerr.Wrap(usecase.ErrUnauthorized, "failed to verify access token", goerr.V("error", "bad signature")),
			want: "unauthorized",
		},
		{
			name: "upstream hides detail",
			err:  goerr.Wrap(usecase.ErrUpstream, "failed to send email"),
			want: "upstream service failed",
		},
		{
			name: "validation keeps message",
			err:  goerr.Wrap(usecase.ErrValidation, "message is required"),
			want: "message is required: validation failed",
		},
		{
			name: "unknown error is internal",
			err:  errors.New("connection refused"),
			want: "internal server error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := usecase.Failed(tc.err)
			gt.Bool(t, r.Success).False()
			gt.Value(t, r.Error).Equal(tc.want)
		})
	}
}
