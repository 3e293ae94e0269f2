// Package registry implements Chronicle's process-wide logger registry:
// a constructed root (not a package-level global) mapping logger names
// to Logger instances, with a default logger created on first access.
package registry

import (
	"sync"

	"github.com/ehsaniara/chronicle/internal/chronicle/logger"
	"github.com/ehsaniara/chronicle/pkg/chronicleerr"
)

const defaultLoggerName = "default"

// Manager is a thread-safe name -> Logger registry. The zero value is
// not usable; construct with New.
type Manager struct {
	mu      sync.Mutex
	loggers map[string]*logger.Logger
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{loggers: make(map[string]*logger.Logger)}
}

// Get returns the logger registered under name and whether it exists.
func (m *Manager) Get(name string) (*logger.Logger, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loggers[name]
	return l, ok
}

// Add registers l under its own name, atomically, only if that name is
// not already taken. It reports whether the insert happened, closing
// the check-then-act race a naive Get-then-Add pair would have.
func (m *Manager) Add(l *logger.Logger) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.loggers[l.Name()]; exists {
		return false
	}
	m.loggers[l.Name()] = l
	return true
}

// Default returns the logger registered under "default", building a
// stdout/SAFE logger with logger.NewBuilder the first time it's requested.
func (m *Manager) Default() *logger.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.loggers[defaultLoggerName]; ok {
		return l
	}

	l, err := logger.NewBuilder(defaultLoggerName).Build()
	if err != nil {
		// NewBuilder(defaultLoggerName) always yields a non-empty name
		// and a default stdout sink, so Build cannot fail here.
		panic(chronicleerr.ProgrammerErr("registry: default logger construction failed: " + err.Error()))
	}
	m.loggers[defaultLoggerName] = l
	return l
}

// StopAll stops every registered logger, draining each worker.
func (m *Manager) StopAll() {
	m.mu.Lock()
	loggers := make([]*logger.Logger, 0, len(m.loggers))
	for _, l := range m.loggers {
		loggers = append(loggers, l)
	}
	m.mu.Unlock()

	for _, l := range loggers {
		l.Stop()
	}
}
