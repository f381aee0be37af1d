package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnv overrides the configured log level.
const LevelEnv = "SETUPPLAN_LOG_LEVEL"

const fileName = "setupplan.log"

// Logger appends JSON lines to setupplan.log in the project's logs dir so a
// failed walkthrough or verify run can be inspected afterwards. Every line
// carries the run id of the invocation that wrote it.
type Logger struct {
	file  *os.File
	zap   *zap.Logger
	runID string
}

// New creates (or reuses) setupplan.log under logDir.
// level is used unless SETUPPLAN_LOG_LEVEL is set.
func New(logDir, level string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, fileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	if env := os.Getenv(LevelEnv); strings.TrimSpace(env) != "" {
		level = env
	}
	runID := uuid.NewString()
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(f), parseLogLevel(level))
	return &Logger{
		file:  f,
		zap:   zap.New(core).With(zap.String("run_id", runID)),
		runID: runID,
	}, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func parseLogLevel(s string) zap.AtomicLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "WARN":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "ERROR":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}

// RunID identifies the invocation in the log.
func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// With returns a logger that adds fields to every line. The file handle
// stays owned by the parent.
func (l *Logger) With(fields ...zap.Field) *Logger {
	if l == nil || l.zap == nil {
		return l
	}
	return &Logger{zap: l.zap.With(fields...), runID: l.runID}
}

// Close flushes and releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = l.zap.Sync()
	return l.file.Close()
}

// Printf writes a single info line.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.zap == nil {
		return
	}
	l.zap.Info(message(format, args...))
}

// Debugf writes a debug line.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || l.zap == nil {
		return
	}
	l.zap.Debug(message(format, args...))
}

// Errorf writes an error line.
func (l *Logger) Errorf(format string, args ...any) {
	if l == nil || l.zap == nil {
		return
	}
	l.zap.Error(message(format, args...))
}

func message(format string, args ...any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
