package observer

import (
	"github.com/reglet-dev/hotload/internal/application/ports"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Ensure interface compliance
var _ ports.Observer = (*Zap)(nil)

// Zap logs loader events with a zap logger, for hosts that already run on zap.
type Zap struct {
	logger *zap.Logger
}

// NewZap creates an observer writing to logger. A nil logger discards events.
func NewZap(logger *zap.Logger) *Zap {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Zap{logger: logger}
}

// Observe implements ports.Observer.
func (z *Zap) Observe(e ports.Event) {
	ce := z.logger.Check(zapLevel(LevelOf(e)), Message(e.Kind))
	if ce == nil {
		return
	}

	fields := []zap.Field{
		zap.String("event", string(e.Kind)),
		zap.String("loader_id", e.LoaderID),
	}
	if e.Module != "" {
		fields = append(fields, zap.String("module", e.Module), zap.Bool("target", e.Target))
	}
	if e.Package != "" {
		fields = append(fields, zap.String("package", e.Package))
	}
	if e.Path != "" {
		fields = append(fields, zap.String("path", e.Path))
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}
	ce.Write(fields...)
}

// NewZapLogger builds a console logger at debug or info level.
func NewZapLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
