package observer

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/hotload/internal/application/ports"
)

// Ensure interface compliance
var _ ports.Observer = (*Slog)(nil)

// Slog logs loader events with log/slog.
type Slog struct {
	logger *slog.Logger
}

// NewSlog creates an observer writing to logger, or to slog.Default() when
// logger is nil.
func NewSlog(logger *slog.Logger) *Slog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slog{logger: logger}
}

// Observe implements ports.Observer.
func (s *Slog) Observe(e ports.Event) {
	level := slogLevel(LevelOf(e))
	ctx := context.Background()
	if !s.logger.Enabled(ctx, level) {
		return
	}

	attrs := []slog.Attr{
		slog.String("event", string(e.Kind)),
		slog.String("loader_id", e.LoaderID),
	}
	if e.Module != "" {
		attrs = append(attrs, slog.String("module", e.Module), slog.Bool("target", e.Target))
	}
	if e.Package != "" {
		attrs = append(attrs, slog.String("package", e.Package))
	}
	if e.Path != "" {
		attrs = append(attrs, slog.String("path", e.Path))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("error", e.Err))
	}
	s.logger.LogAttrs(ctx, level, Message(e.Kind), attrs...)
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelWarn:
		return slog.LevelWarn
	case LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
