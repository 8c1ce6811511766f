package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case DEBUG:
		return log.DebugLevel
	case WARN:
		return log.WarnLevel
	case ERROR:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseLevel converts a string to a Level
func ParseLevel(s string) Level {
	switch s {
	case "DEBUG", "debug":
		return DEBUG
	case "INFO", "info":
		return INFO
	case "WARN", "warn", "WARNING", "warning":
		return WARN
	case "ERROR", "error":
		return ERROR
	default:
		return INFO
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand for creating a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      Level     // Minimum log level
	FilePath   string    // Path to log file
	MaxSize    int64     // Max size in bytes before rotation (default: 10MB)
	MaxAge     int       // Max age in days (default: 7)
	MaxBackups int       // Max number of backup files (default: 5)
	Console    bool      // Enable console logging
	Output     io.Writer // Extra destination, used by tests
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	logPath := filepath.Join(home, ".irontodo", "logs", "irontodo.log")

	return Config{
		Level:      INFO,
		FilePath:   logPath,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,
		MaxBackups: 5,
		Console:    false, // Disabled by default to not interfere with TUI
	}
}

// output fans entries out to the log file and console, rotating the file
type output struct {
	config  Config
	mu      sync.Mutex
	file    *os.File
	writers []io.Writer
}

// Logger is the main logger instance
type Logger struct {
	config Config
	out    *output
	base   *log.Logger
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init initializes the global logger
func Init(config Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(config)
	})
	return err
}

// New creates a new logger instance
func New(config Config) (*Logger, error) {
	out := &output{config: config}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		if err := out.open(); err != nil {
			return nil, err
		}
		if err := out.rotateIfNeeded(); err != nil {
			return nil, err
		}
	}
	out.resetWriters()

	base := log.NewWithOptions(out, log.Options{
		Level:           config.Level.charm(),
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000",
		Formatter:       log.TextFormatter,
	})

	return &Logger{config: config, out: out, base: base}, nil
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	l, _ := New(Config{Level: ERROR, Output: io.Discard})
	return l
}

func (o *output) open() error {
	file, err := os.OpenFile(o.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	o.file = file
	return nil
}

func (o *output) resetWriters() {
	o.writers = o.writers[:0]
	if o.file != nil {
		o.writers = append(o.writers, o.file)
	}
	if o.config.Console {
		o.writers = append(o.writers, os.Stderr)
	}
	if o.config.Output != nil {
		o.writers = append(o.writers, o.config.Output)
	}
}

// Write implements io.Writer for the charm logger
func (o *output) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	_ = o.rotateIfNeeded()

	for _, w := range o.writers {
		_, _ = w.Write(p)
	}
	return len(p), nil
}

// rotateIfNeeded checks if log rotation is needed and performs it
func (o *output) rotateIfNeeded() error {
	if o.file == nil {
		return nil
	}

	info, err := o.file.Stat()
	if err != nil {
		return err
	}

	if o.config.MaxSize > 0 && info.Size() >= o.config.MaxSize {
		return o.rotate()
	}

	if o.config.MaxAge > 0 && info.Size() > 0 &&
		time.Since(info.ModTime()) > time.Duration(o.config.MaxAge)*24*time.Hour {
		return o.rotate()
	}

	return nil
}

// rotate performs log rotation; callers hold o.mu or own o exclusively
func (o *output) rotate() error {
	if o.file != nil {
		o.file.Close()
	}

	// Rotate existing backups
	for i := o.config.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", o.config.FilePath, i)
		newPath := fmt.Sprintf("%s.%d", o.config.FilePath, i+1)
		os.Rename(oldPath, newPath)
	}

	// Move current log to .1
	if _, err := os.Stat(o.config.FilePath); err == nil {
		backupPath := fmt.Sprintf("%s.1", o.config.FilePath)
		if err := os.Rename(o.config.FilePath, backupPath); err != nil {
			return err
		}
	}

	if err := o.open(); err != nil {
		return err
	}
	o.resetWriters()
	return nil
}

func (o *output) close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.file != nil {
		err := o.file.Close()
		o.file = nil
		o.resetWriters()
		return err
	}
	return nil
}

// log writes a log entry
func (l *Logger) log(level Level, msg string, fields []Field) {
	if level < l.config.Level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	caller := "???"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	keyvals := make([]interface{}, 0, 2+2*len(fields))
	keyvals = append(keyvals, "caller", caller)
	for _, f := range fields {
		keyvals = append(keyvals, f.Key, f.Value)
	}

	switch level {
	case DEBUG:
		l.base.Debug(msg, keyvals...)
	case WARN:
		l.base.Warn(msg, keyvals...)
	case ERROR:
		l.base.Error(msg, keyvals...)
	default:
		l.base.Info(msg, keyvals...)
	}
}

// WithFields creates a new logger with preset fields
func (l *Logger) WithFields(fields ...Field) *Logger {
	keyvals := make([]interface{}, 0, 2*len(fields))
	for _, f := range fields {
		keyvals = append(keyvals, f.Key, f.Value)
	}
	return &Logger{
		config: l.config,
		out:    l.out,
		base:   l.base.With(keyvals...),
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(DEBUG, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(INFO, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(WARN, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) {
	l.log(ERROR, msg, fields)
}

// Close closes the log file
func (l *Logger) Close() error {
	return l.out.close()
}

// Global logger functions

// Default returns the global logger, or a discarding one before Init
func Default() *Logger {
	if globalLogger != nil {
		return globalLogger
	}
	return Nop()
}

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(DEBUG, msg, fields)
	}
}

// Info logs an info message using the global logger
func Info(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(INFO, msg, fields)
	}
}

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(WARN, msg, fields)
	}
}

// Error logs an error message using the global logger
func Error(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(ERROR, msg, fields)
	}
}

// WithFields creates a new logger with preset fields using the global logger
func WithFields(fields ...Field) *Logger {
	return Default().WithFields(fields...)
}

// Close closes the global logger
func Close() error {
	if globalLogger != nil {
		return globalLogger.Close()
	}
	return nil
}

// GetConfig returns the current logger configuration
func GetConfig() Config {
	if globalLogger != nil {
		return globalLogger.config
	}
	return DefaultConfig()
}
