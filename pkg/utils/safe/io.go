package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/pawnotes/pawnotes/pkg/utils/logging"
)

// Close closes closer and logs any error. Nil closers are ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// Stopper is implemented by capture and streaming sessions.
type Stopper interface {
	Stop() error
}

// Stop stops s and logs any error. Nil stoppers are ignored.
func Stop(ctx context.Context, s Stopper) {
	if s == nil {
		return
	}
	if err := s.Stop(); err != nil {
		logging.From(ctx).Warn("Failed to stop", slog.Any("error", err))
	}
}

// Write writes data to w and logs any error.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Error("Failed to write", slog.Any("error", err))
	}
}
