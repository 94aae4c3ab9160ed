package utils

import (
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Logger provides leveled logging with verbose mode support.
type Logger struct {
	entry *log.Logger
	mu    sync.RWMutex
}

var (
	loggerInstance *Logger
	once           sync.Once
)

// GetLogger returns the singleton logger instance.
func GetLogger() *Logger {
	once.Do(func() {
		l := log.New()
		l.SetOutput(os.Stderr)
		l.SetLevel(log.InfoLevel)
		l.SetFormatter(&log.TextFormatter{
			DisableTimestamp: true,
		})
		loggerInstance = &Logger{entry: l}
	})
	return loggerInstance
}

// SetVerboseMode sets the verbose mode globally.
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

// SetOutput redirects the global logger, mainly for tests.
func SetOutput(w io.Writer) {
	GetLogger().Logrus().SetOutput(w)
}

// SetVerbose switches between debug and info level.
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if verbose {
		l.entry.SetLevel(log.DebugLevel)
		l.entry.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"})
		return
	}
	l.entry.SetLevel(log.InfoLevel)
	l.entry.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
}

// IsVerbose returns whether verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entry.IsLevelEnabled(log.DebugLevel)
}

// Logrus exposes the underlying logger for components that take one.
func (l *Logger) Logrus() *log.Logger {
	return l.entry
}

// WithField returns an entry carrying one structured field.
func (l *Logger) WithField(key string, value interface{}) *log.Entry {
	return l.entry.WithField(key, value)
}

// Debug logs a debug message (only shown when verbose=true).
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Debugf is a convenience function that logs a debug message using the global logger.
func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Infof is a convenience function that logs an info message using the global logger.
func Infof(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// Warnf is a convenience function that logs a warning message using the global logger.
func Warnf(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// Errorf is a convenience function that logs an error message using the global logger.
func Errorf(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}
