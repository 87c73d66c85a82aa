// Package log provides categorized, structured logging for chime.
//
// Logging is silent by default so that library consumers and the TUI never
// see stray output on stdout/stderr. Call Init with a file path (or set
// CHIME_LOG) to capture logs. Messages are written as a timestamped line
// followed by key=value pairs.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Category identifies the subsystem a log line originates from.
type Category string

const (
	// CatAudio covers registry, store, and facade operations.
	CatAudio Category = "audio"
	// CatEngine covers the playback engine boundary.
	CatEngine Category = "engine"
	// CatSpeech covers the speech facade and synthesizers.
	CatSpeech Category = "speech"
	// CatConfig covers configuration and manifest loading.
	CatConfig Category = "config"
	// CatUI covers CLI and mixer view plumbing.
	CatUI Category = "ui"
)

// Level is the severity of a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	mu       sync.Mutex
	out      *os.File
	minLevel = LevelDebug
)

func init() {
	if path := os.Getenv("CHIME_LOG"); path != "" {
		_ = Init(path)
	}
}

// Init opens (or creates) the log file at path and enables logging.
// Safe to call more than once; the previous file is closed.
func Init(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		_ = out.Close()
	}
	out = f
	return nil
}

// SetLevel sets the minimum level that will be written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// Close flushes and closes the log file. Logging becomes a no-op afterwards.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		_ = out.Close()
		out = nil
	}
}

// Debug logs a debug-level message with key-value pairs.
func Debug(cat Category, msg string, kv ...any) { write(LevelDebug, cat, msg, kv...) }

// Info logs an info-level message with key-value pairs.
func Info(cat Category, msg string, kv ...any) { write(LevelInfo, cat, msg, kv...) }

// Warn logs a warn-level message with key-value pairs.
func Warn(cat Category, msg string, kv ...any) { write(LevelWarn, cat, msg, kv...) }

// Error logs an error-level message with key-value pairs.
func Error(cat Category, msg string, kv ...any) { write(LevelError, cat, msg, kv...) }

// ErrorErr logs an error-level message with an error value plus key-value pairs.
func ErrorErr(cat Category, msg string, err error, kv ...any) {
	write(LevelError, cat, msg, append([]any{"error", err}, kv...)...)
}

// SafeGo runs fn on a new goroutine with panic recovery. A recovered panic is
// logged with the goroutine's name instead of crashing the process. Names
// follow the "category.purpose" convention ("speech.wait", "engine.init");
// the prefix selects the log category.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				Error(categoryFor(name), "Recovered panic in goroutine", "goroutine", name, "panic", fmt.Sprint(r))
			}
		}()
		fn()
	}()
}

func categoryFor(name string) Category {
	prefix, _, _ := strings.Cut(name, ".")
	switch cat := Category(prefix); cat {
	case CatAudio, CatEngine, CatSpeech, CatConfig, CatUI:
		return cat
	}
	return CatAudio
}

func write(level Level, cat Category, msg string, kv ...any) {
	mu.Lock()
	defer mu.Unlock()
	if out == nil || level < minLevel {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] [")
	b.WriteString(string(cat))
	b.WriteString("] ")
	b.WriteString(msg)

	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteString(" ")
		b.WriteString(fmt.Sprint(kv[i]))
		b.WriteString("=")
		b.WriteString(fmt.Sprint(kv[i+1]))
	}
	b.WriteString("\n")

	_, _ = out.WriteString(b.String())
}
