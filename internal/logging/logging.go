package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger handles debug logging to file and stderr.
type Logger struct {
	sugar   *zap.SugaredLogger
	file    *os.File
	errOut  io.Writer
	enabled bool
}

var (
	mu            sync.Mutex
	defaultLogger *Logger
)

// Get returns the default logger instance.
func Get() *Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = fromEnv()
	}
	return defaultLogger
}

// SetDefault replaces the logger returned by Get.
func SetDefault(l *Logger) {
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

// New returns a logger writing console-encoded entries at or above level to w.
// Errors go to w only.
func New(w io.Writer, level zapcore.Level) *Logger {
	core := zapcore.NewCore(encoder(), zapcore.AddSync(w), level)
	return &Logger{
		sugar:   zap.New(core).Sugar().With("session", uuid.NewString()),
		errOut:  io.Discard,
		enabled: true,
	}
}

func disabled() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), errOut: os.Stderr}
}

func encoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return zapcore.NewConsoleEncoder(cfg)
}

func fromEnv() *Logger {
	// Debug mode is enabled via env var or a marker file
	debugEnv := os.Getenv("SNIPSTAGE_DEBUG")

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "snipstage log: failed to get home dir: %v\n", err)
		return disabled()
	}

	_, markerErr := os.Stat(filepath.Join(home, ".snipstage", "debug"))
	if debugEnv != "1" && markerErr != nil {
		return disabled()
	}

	logsDir := filepath.Join(home, ".snipstage", "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "snipstage log: failed to create logs dir %s: %v\n", logsDir, err)
		return disabled()
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logsDir, fmt.Sprintf("snipstage-%s.log", timestamp))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snipstage log: failed to open log file %s: %v\n", logPath, err)
		return disabled()
	}

	l := New(file, zapcore.DebugLevel)
	l.file = file
	l.errOut = os.Stderr
	if debugEnv == "1" {
		l.Info("Logging started (SNIPSTAGE_DEBUG=1)")
	} else {
		l.Info("Logging started (~/.snipstage/debug exists)")
	}
	l.Info("Log file: %s", logPath)
	return l
}

// Enabled returns whether debug logging is enabled.
func (l *Logger) Enabled() bool {
	return l.enabled
}

// Debug logs a debug message (file only).
func (l *Logger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

// Info logs an info message (file only).
func (l *Logger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

// Error logs an error message (file and stderr).
func (l *Logger) Error(format string, args ...any) {
	fmt.Fprintf(l.errOut, "snipstage error: %s\n", fmt.Sprintf(format, args...))
	l.sugar.Errorf(format, args...)
}

// Request logs an incoming request.
func (l *Logger) Request(action string, raw string) {
	l.sugar.Debugw("request", "action", action, "raw", truncate(raw, 500))
}

// Response logs an outgoing response.
func (l *Logger) Response(msgType string, raw string) {
	l.sugar.Debugw("response", "type", msgType, "raw", truncate(raw, 500))
}

// Stream logs a chunk of a streaming response.
func (l *Logger) Stream(eventType string, content string) {
	l.sugar.Debugw("stream", "event", eventType, "content", truncate(content, 200))
}

// Close flushes the logger and closes the log file.
func (l *Logger) Close() {
	_ = l.sugar.Sync()
	if l.file != nil {
		l.file.Close()
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
