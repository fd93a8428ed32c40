package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Entry is a captured WARN or ERROR record.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

// String renders the entry as "15:04:05 LEVEL message".
func (e Entry) String() string {
	return fmt.Sprintf("%s %-5s %s", e.Time.Format("15:04:05"), e.Level.String(), e.Message)
}

// eventBuffer keeps the most recent warnings and errors in a fixed-size ring.
type eventBuffer struct {
	mu      sync.RWMutex
	entries []Entry
	head    int
	count   int

	warns  int
	errors int
}

func newEventBuffer(size int) *eventBuffer {
	return &eventBuffer{entries: make([]Entry, size)}
}

func (b *eventBuffer) add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.head] = e
	b.head = (b.head + 1) % len(b.entries)
	if b.count < len(b.entries) {
		b.count++
	}

	switch {
	case e.Level >= slog.LevelError:
		b.errors++
	case e.Level >= slog.LevelWarn:
		b.warns++
	}
}

func (b *eventBuffer) snapshot() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	size := len(b.entries)
	out := make([]Entry, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.entries[(b.head-b.count+i+size)%size]
	}
	return out
}

func (b *eventBuffer) counts() (warn, err int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.warns, b.errors
}

func (b *eventBuffer) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.warns, b.errors = 0, 0
	b.head, b.count = 0, 0
}

// captureHandler forwards to inner and records WARN+ records in buf.
type captureHandler struct {
	inner slog.Handler
	buf   *eventBuffer
}

func (h *captureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *captureHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		h.buf.add(Entry{Time: r.Time, Level: r.Level, Message: r.Message})
	}
	return h.inner.Handle(ctx, r)
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &captureHandler{inner: h.inner.WithAttrs(attrs), buf: h.buf}
}

func (h *captureHandler) WithGroup(name string) slog.Handler {
	return &captureHandler{inner: h.inner.WithGroup(name), buf: h.buf}
}

var (
	mu sync.RWMutex
	// Log is the process logger. Nil until InitLogger or InitWriter runs.
	Log *slog.Logger
	// LogPath is the file InitLogger writes to.
	LogPath   string
	logWriter *lumberjack.Logger
	events    = newEventBuffer(100)
)

// LogLevel selects the minimum level written.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error" to a LogLevel.
// Anything else is LevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger writes JSON logs to a rotating file at logPath.
// An empty logPath means ~/.config/skdb/skdb.log.
func InitLogger(level LogLevel, logPath string) {
	if logPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		dir := filepath.Join(home, ".config", "skdb")
		_ = os.MkdirAll(dir, 0755)
		logPath = filepath.Join(dir, "skdb.log")
	}

	w := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   true,
	}

	install(level, w)

	mu.Lock()
	logWriter = w
	LogPath = logPath
	mu.Unlock()
}

// InitWriter writes JSON logs to w. Used by the CLI for stderr and by tests.
func InitWriter(level LogLevel, w io.Writer) {
	install(level, w)
}

func install(level LogLevel, w io.Writer) {
	h := &captureHandler{
		inner: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.slogLevel()}),
		buf:   events,
	}

	mu.Lock()
	defer mu.Unlock()
	if logWriter != nil {
		logWriter.Close()
		logWriter = nil
	}
	Log = slog.New(h)
	slog.SetDefault(Log)
}

// Close releases the rotating log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logWriter != nil {
		logWriter.Close()
		logWriter = nil
	}
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if Log != nil {
		return Log
	}
	return slog.Default()
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

// With returns a logger carrying args on every record.
func With(args ...any) *slog.Logger {
	return get().With(args...)
}

// GetCounts returns the number of warnings and errors seen since the last ClearCounts.
func GetCounts() (warn, err int) {
	return events.counts()
}

// ClearCounts drops captured entries and zeroes the counters.
func ClearCounts() {
	events.reset()
}

// GetEntries returns captured warnings and errors, oldest first.
func GetEntries() []Entry {
	return events.snapshot()
}
