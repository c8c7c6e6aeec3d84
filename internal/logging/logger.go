package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const historySize = 500

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds logging options.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

type registry struct {
	mu          sync.RWMutex
	config      Config
	initialized bool
	loggers     map[string]*slog.Logger
	levels      map[string]*slog.LevelVar
	history     *History
}

var reg = newRegistry()

func newRegistry() *registry {
	return &registry{
		loggers: make(map[string]*slog.Logger),
		levels:  make(map[string]*slog.LevelVar),
		history: NewHistory(historySize),
	}
}

// Initialize configures the logging system. Loggers handed out before the
// call are rebuilt so they pick up the format and per-module levels.
func Initialize(config Config) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.config = config
	reg.initialized = true

	for module, levelVar := range reg.levels {
		levelVar.Set(reg.levelFor(module))
		reg.loggers[module] = slog.New(reg.handler(levelVar)).With("module", module)
	}

	root := &slog.LevelVar{}
	root.Set(levelOrDefault(config.Level, slog.LevelInfo))
	slog.SetDefault(slog.New(reg.handler(root)))
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	reg.mu.RLock()
	logger, ok := reg.loggers[module]
	reg.mu.RUnlock()
	if ok {
		return logger
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if logger, ok := reg.loggers[module]; ok {
		return logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(reg.levelFor(module))

	logger = slog.New(reg.handler(levelVar)).With("module", module)
	reg.loggers[module] = logger
	reg.levels[module] = levelVar
	return logger
}

// SetLevel changes the level of one module at runtime.
func SetLevel(module, level string) error {
	parsed := parseLevel(level)
	if parsed == nil {
		return fmt.Errorf("unknown log level %q", level)
	}

	GetLogger(module)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.levels[module].Set(*parsed)
	return nil
}

// Levels returns the current level of every known module.
func Levels() map[string]string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make(map[string]string, len(reg.levels))
	for module, lv := range reg.levels {
		out[module] = levelToString(lv.Level())
	}
	return out
}

// GetHistory returns the in-memory history of recent records.
func GetHistory() *History {
	return reg.history
}

// levelFor must be called with the lock held.
func (r *registry) levelFor(module string) slog.Level {
	if !r.initialized {
		return slog.LevelInfo
	}
	level := levelOrDefault(r.config.Level, slog.LevelInfo)
	if s, ok := r.config.Modules[module]; ok {
		level = levelOrDefault(s, level)
	}
	return level
}

// handler builds the output chain: stdout when attached, the journal when
// running under systemd, and always the in-memory history.
func (r *registry) handler(level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if r.config.Format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if isStdoutAvailable() {
		handlers = append(handlers, stdout)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	handlers = append(handlers, NewHistoryHandler(r.history, level))

	if len(handlers) == 1 {
		return handlers[0]
	}
	return NewMultiHandler(handlers...)
}

// isStdoutAvailable is false when stdout is /dev/null, as under systemd.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&os.ModeCharDevice != 0 || mode&os.ModeNamedPipe != 0 || mode&os.ModeSocket != 0 || mode.IsRegular()
}

func levelOrDefault(s string, def slog.Level) slog.Level {
	if l := parseLevel(s); l != nil {
		return *l
	}
	return def
}

func parseLevel(level string) *slog.Level {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil
	}
	return &l
}

func levelToString(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
