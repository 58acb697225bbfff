package config

import (
	"sync"
	"time"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

// Manager holds a validated LoggingConfig and answers filtering queries
// without revalidating. Safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	cfg       LoggingConfig
	level     logging.Level
	validator *Validator
	listeners []func(LoggingConfig)
}

// NewManager merges custom over the defaults and validates the result.
// A nil custom yields the defaults. Invalid values are rejected, never clamped.
func NewManager(custom *Overrides) (*Manager, error) {
	cfg := DefaultLoggingConfig()
	if custom != nil {
		cfg = custom.ApplyTo(cfg)
	}

	m := &Manager{validator: defaultValidator}
	if err := m.validator.Validate(cfg); err != nil {
		return nil, err
	}
	m.cfg = cfg
	m.level = cfg.Level()
	return m, nil
}

// MustNewManager is NewManager for static configurations known to be valid.
func MustNewManager(custom *Overrides) *Manager {
	m, err := NewManager(custom)
	if err != nil {
		panic(err)
	}
	return m
}

// Update merges partial over the current configuration. When validation
// fails the current configuration is left untouched.
func (m *Manager) Update(partial Overrides) error {
	m.mu.Lock()
	next := partial.ApplyTo(m.cfg)
	if err := m.validator.Validate(next); err != nil {
		m.mu.Unlock()
		return err
	}
	m.cfg = next
	m.level = next.Level()
	listeners := append([]func(LoggingConfig){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return nil
}

// Subscribe registers fn to receive every configuration accepted by Update.
func (m *Manager) Subscribe(fn func(LoggingConfig)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// ShouldLog reports whether an entry at level passes the current filter.
func (m *Manager) ShouldLog(level logging.Level) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Enabled && level.AtLeast(m.level)
}

// Config returns a copy of the current configuration.
func (m *Manager) Config() LoggingConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Endpoint() string {
	return m.Config().APIEndpoint
}

func (m *Manager) BatchSize() int {
	return m.Config().BatchSize
}

func (m *Manager) MaxQueueSize() int {
	return m.Config().MaxQueueSize
}

func (m *Manager) RetryAttempts() int {
	return m.Config().RetryAttempts
}

func (m *Manager) RetryDelay() time.Duration {
	return m.Config().RetryDelay()
}

func (m *Manager) FlushInterval() time.Duration {
	return m.Config().FlushEvery()
}

func (m *Manager) Enabled() bool {
	return m.Config().Enabled
}

func (m *Manager) Level() logging.Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.level
}
