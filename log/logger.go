// Package log provides structured JSON logging with transfer context.
//
// Transfer paths log through Logger with a field map. CLI surfaces that
// prefer printf-style messages use Logger.Sugar.
package log

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pithecene-io/sigbench/types"
)

// Logger writes one JSON object per entry with "timestamp", "level",
// "message" and a "fields" object. Loggers derived with ForTransfer add
// transfer_id, role, protocol and scheme.
type Logger struct {
	zap *zap.Logger
}

// ParseLevel parses a level name (debug, info, warn, error). The empty
// string is info.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

// NewLogger creates a process logger writing to os.Stderr.
func NewLogger(level zapcore.Level) *Logger {
	return newLoggerWithWriter(level, os.Stderr)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:     "timestamp",
	LevelKey:    "level",
	MessageKey:  "message",
	EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
	EncodeLevel: zapcore.LowercaseLevelEncoder,
}

func newLoggerWithWriter(level zapcore.Level, w io.Writer) *Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(w), level)
	return &Logger{zap: zap.New(core)}
}

// ForTransfer returns a child logger carrying the transfer identity.
func (l *Logger) ForTransfer(meta types.TransferMeta) *Logger {
	return &Logger{zap: l.zap.With(
		zap.String("transfer_id", meta.TransferID),
		zap.String("role", string(meta.Role)),
		zap.String("protocol", string(meta.Protocol)),
		zap.String("scheme", string(meta.Scheme)),
	)}
}

func (l *Logger) log(level zapcore.Level, message string, fields map[string]any) {
	if ce := l.zap.Check(level, message); ce != nil {
		ce.Write(zap.Any("fields", fields))
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.log(zapcore.DebugLevel, message, fields)
}

// Info logs at info level.
func (l *Logger) Info(message string, fields map[string]any) {
	l.log(zapcore.InfoLevel, message, fields)
}

// Warn logs at warn level.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.log(zapcore.WarnLevel, message, fields)
}

// Error logs at error level.
func (l *Logger) Error(message string, fields map[string]any) {
	l.log(zapcore.ErrorLevel, message, fields)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Sugar returns a printf-style logger sharing l's core and context.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.zap.Sugar()
}
