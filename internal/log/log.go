// Package log wraps logrus behind a small Logger interface so the rest
// of the module never imports a logging library directly.
package log

import (
	"sync"
)

type Logger interface {
	Print(args ...interface{})
	Printf(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsDebugEnabled() bool
}

var (
	mu     sync.Mutex
	logger Logger = newAdapter(defaultConfig())
)

// GetLogger returns the process-wide logger. Safe before Init: a console
// logger at info level is installed by default.
func GetLogger() Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Init replaces the process-wide logger according to cfg. Called once at
// daemon startup, before any goroutines that log are running.
func Init(cfg *Config) error {
	a, err := newConfiguredAdapter(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = a
	mu.Unlock()
	return nil
}

// SetLevel changes the level of the process-wide logger at runtime. The
// control plane uses this to flip per-packet diagnostics on and off
// without restarting the daemon.
func SetLevel(level string) error {
	mu.Lock()
	defer mu.Unlock()
	if a, ok := logger.(*logrusAdapter); ok {
		return a.setLevel(level)
	}
	return nil
}

// Level reports the current level of the process-wide logger.
func Level() string {
	mu.Lock()
	defer mu.Unlock()
	if a, ok := logger.(*logrusAdapter); ok {
		return a.level()
	}
	return "info"
}
