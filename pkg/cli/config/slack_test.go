package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/cli/config"
)

func TestSlack_Configure(t *testing.T) {
	t.Run("disabled without token and channel", func(t *testing.T) {
		notifier, err := config.NewSlackForTest("", "").Configure("")
		gt.NoError(t, err)
		gt.Value(t, notifier).Nil()
	})

	t.Run("partial configuration is an error", func(t *testing.T) {
		_, err := config.NewSlackForTest("xoxb-test", "").Configure("")
		gt.Error(t, err).Is(config.ErrMissingConfiguration)

		_, err = config.NewSlackForTest("", "C0123").Configure("")
		gt.Error(t, err).Is(config.ErrMissingConfiguration)
	})

	t.Run("creates notifier", func(t *testing.T) {
		cfg := config.NewSlackForTest("xoxb-test", "C0123")
		gt.Bool(t, cfg.IsConfigured()).True()

		notifier, err := cfg.Configure("https://pawnotes.example.com")
		gt.NoError(t, err).Required()
		gt.Value(t, notifier).NotNil()
	})
}

func TestSlack_Flags(t *testing.T) {
	cfg := config.NewSlackForTest("", "")
	gt.Array(t, cfg.Flags()).Length(2)
}
