package config_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/cli/config"
)

func TestAuth_Configure(t *testing.T) {
	t.Run("no-auth mode acts as the given user", func(t *testing.T) {
		cfg := config.NewAuthForTest("", "", "vet-1")
		gt.Bool(t, cfg.IsNoAuthMode()).True()

		authUC, err := cfg.Configure()
		gt.NoError(t, err).Required()
		gt.Bool(t, authUC.IsNoAuthn()).True()

		token, err := authUC.ValidateToken(context.Background(), "")
		gt.NoError(t, err).Required()
		gt.Value(t, token.Sub).Equal("vet-1")
	})

	t.Run("supabase project", func(t *testing.T) {
		cfg := config.NewAuthForTest("https://abcd.supabase.co", "super-secret-jwt-token-with-at-least-32-characters", "")
		authUC, err := cfg.Configure()
		gt.NoError(t, err).Required()
		gt.Bool(t, authUC.IsNoAuthn()).False()
	})

	t.Run("missing configuration", func(t *testing.T) {
		_, err := config.NewAuthForTest("", "", "").Configure()
		gt.Error(t, err).Is(config.ErrMissingConfiguration)
	})
}
