// Package log provides structured logging for vscroll.
// Lines carry a level, a category and key=value fields, are appended to a
// debug file, and are fanned out to in-process listeners over pubsub. Logging
// stays silent until InitWithTeaLog or InitWriter runs (--debug or
// VSCROLL_DEBUG).
package log

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/vscroll/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Tag is the bracketed level as it appears in a formatted line.
func (l Level) Tag() string { return "[" + l.String() + "]" }

// ParseLevel maps a name such as "warn" to a Level. Unknown names are debug.
func ParseLevel(s string) Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return LevelWarn
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i)
		}
	}
	return LevelDebug
}

// Category groups related log messages.
type Category string

const (
	CatCache      Category = "cache"      // item cache updates and position passes
	CatRegistry   Category = "registry"   // cache registry lifecycle
	CatProjection Category = "projection" // projection engine recomputes
	CatScroll     Category = "scroll"     // scroll restoration and scroll-to-item
	CatList       Category = "list"       // list mount/unmount and cache rebinding
	CatStore      Category = "store"      // sqlite snapshot store
	CatConfig     Category = "config"     // configuration loading/saving
	CatWatcher    Category = "watcher"    // item file watcher events
	CatUI         Category = "ui"         // terminal host updates
	CatTrace      Category = "trace"      // tracing provider
)

// sink is where formatted lines go.
type sink struct {
	mu       sync.Mutex
	out      io.Writer
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[string]
}

var current *sink

func install(w io.Writer) *sink {
	s := &sink{out: w, enabled: true, broker: pubsub.NewBroker[string]()}
	current = s
	return s
}

// InitWithTeaLog appends to path through tea.LogToFile, which also routes the
// standard library logger there. The returned func closes the file.
func InitWithTeaLog(path string, prefix string) (func(), error) {
	f, err := tea.LogToFile(path, prefix)
	if err != nil {
		return nil, err
	}
	install(f)
	return func() { _ = f.Close() }, nil
}

// InitWriter routes logging to w. Used by tests and by hosts that already own
// an output stream.
func InitWriter(w io.Writer) {
	install(w)
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if s := current; s != nil {
		s.mu.Lock()
		s.enabled = enabled
		s.mu.Unlock()
	}
}

// SetMinLevel drops lines below level.
func SetMinLevel(level Level) {
	if s := current; s != nil {
		s.mu.Lock()
		s.minLevel = level
		s.mu.Unlock()
	}
}

func Debug(cat Category, msg string, fields ...any) { write(LevelDebug, cat, msg, fields) }

func Info(cat Category, msg string, fields ...any) { write(LevelInfo, cat, msg, fields) }

func Warn(cat Category, msg string, fields ...any) { write(LevelWarn, cat, msg, fields) }

func Error(cat Category, msg string, fields ...any) { write(LevelError, cat, msg, fields) }

// ErrorErr logs at error level with err appended as the "error" field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	text := "<nil>"
	if err != nil {
		text = err.Error()
	}
	write(LevelError, cat, msg, append(fields, "error", text))
}

// format renders one line:
//
//	2026-10-19T10:45:00 [DEBUG] [projection] recompute first=3 last=17
func format(now time.Time, level Level, cat Category, msg string, fields []any) string {
	var b strings.Builder
	b.WriteString(now.Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, " %s [%s] %s", level.Tag(), cat, msg)
	for i := 0; i < len(fields); i += 2 {
		if i+1 == len(fields) {
			fmt.Fprintf(&b, " %v=<missing>", fields[i])
			break
		}
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	b.WriteByte('\n')
	return b.String()
}

func write(level Level, cat Category, msg string, fields []any) {
	s := current
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || level < s.minLevel {
		return
	}

	line := format(time.Now(), level, cat, msg, fields)
	if s.out != nil {
		_, _ = io.WriteString(s.out, line)
	}
	s.broker.Publish(pubsub.LoggedEvent, line)
}

// LogEvent is a pubsub event carrying one formatted line.
type LogEvent = pubsub.Event[string]

// LogListener delivers log lines to a Bubble Tea program.
type LogListener = pubsub.Listener[string]

// NewListener subscribes to log lines until ctx is cancelled. It returns nil
// when logging was never initialized.
func NewListener(ctx context.Context) *LogListener {
	if current == nil {
		return nil
	}
	return pubsub.NewListener(ctx, current.broker)
}
