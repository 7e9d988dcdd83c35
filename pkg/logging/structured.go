// Package logging wires structured logging for the CLI and the exploration
// loop. It exposes both a slog and a zap logger so packages can use
// whichever interface fits.
package logging

import (
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps both slog and zap loggers.
type Logger struct {
	slog *slog.Logger
	zap  *zap.Logger
}

// Config holds logging configuration.
type Config struct {
	Level     string
	Format    string // "json" or "console"
	Output    string // "stdout" or "stderr"
	AddCaller bool
}

// NewLogger creates a new structured logger and installs the slog half as
// the process default.
func NewLogger(config Config) (*Logger, error) {
	out := os.Stdout
	if config.Output == "stderr" {
		out = os.Stderr
	}
	slogLogger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseSlogLevel(config.Level),
	}))
	slog.SetDefault(slogLogger)

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = parseZapLevel(config.Level)
	if config.Format != "" {
		zapConfig.Encoding = config.Format
	}
	if config.Output != "" {
		zapConfig.OutputPaths = []string{config.Output}
		zapConfig.ErrorOutputPaths = []string{config.Output}
	}
	zapConfig.DisableCaller = !config.AddCaller

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{slog: slogLogger, zap: zapLogger}, nil
}

func parseSlogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseZapLevel(level string) zap.AtomicLevel {
	switch level {
	case "debug":
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
}

// WithSession adds the exploration session id to the logger context.
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{
		slog: l.slog.With("session_id", sessionID),
		zap:  l.zap.With(zap.String("session_id", sessionID)),
	}
}

// LogRound logs one exploration round.
func (l *Logger) LogRound(round, proposals, kept int, current string) {
	l.slog.Info("exploration round",
		"round", round,
		"proposals", proposals,
		"kept", kept,
		"current", current,
	)
	l.zap.Info("exploration round",
		zap.Int("round", round),
		zap.Int("proposals", proposals),
		zap.Int("kept", kept),
		zap.String("current", current),
	)
}

// LogEvalFailure logs a rejected candidate with its failure class.
func (l *Logger) LogEvalFailure(hash, class string, err error) {
	l.slog.Warn("candidate failed evaluation", "hash", hash, "class", class, "error", err)
	l.zap.Warn("candidate failed evaluation",
		zap.String("hash", hash),
		zap.String("class", class),
		zap.Error(err),
	)
}

// Slog returns the slog half.
func (l *Logger) Slog() *slog.Logger { return l.slog }

// Zap returns the zap half.
func (l *Logger) Zap() *zap.Logger { return l.zap }

// Sync flushes buffered log entries.
func (l *Logger) Sync() error { return l.zap.Sync() }
