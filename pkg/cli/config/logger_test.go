package config_test

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/cli/config"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
)

func TestLogger_Configure(t *testing.T) {
	t.Cleanup(func() { logging.SetDefault(slog.Default()) })

	t.Run("writes to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		closer, err := config.NewLoggerForTest("debug", "json", path).Configure()
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := config.NewLoggerForTest("verbose", "json", "stderr").Configure()
		gt.Error(t, err).Is(config.ErrInvalidLogLevel)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "yaml", "stderr").Configure()
		gt.Error(t, err).Is(config.ErrInvalidLogFormat)
	})
}

func TestLogHandler_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	handler, err := config.NewLogHandler("json", &buf, slog.LevelInfo)
	gt.NoError(t, err).Required()

	type credentials struct {
		User   string
		APIKey string `masq:"secret"`
	}
	slog.New(handler).Info("configured",
		"creds", credentials{User: "vet-1", APIKey: "SG.very-secret-key"},
		"secret_token", "xoxb-123",
	)

	out := buf.String()
	gt.String(t, out).Contains("vet-1")
	gt.String(t, out).NotContains("SG.very-secret-key")
	gt.String(t, out).NotContains("xoxb-123")
}
