// Package config owns the runtime backend configuration singleton.
package config

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/vkuzn/expiry-keeper/internal/model"
	"github.com/vkuzn/expiry-keeper/internal/storage"
)

// Defaults applied when stored configuration is missing or malformed.
func defaults() model.Config {
	return model.Config{UsePocketBase: false}
}

// Store holds the active configuration. It is the only writer of the
// config entry in durable storage; dependents read through Current and
// observe replacements through Subscribe.
type Store struct {
	kv     storage.KV
	logger *zap.Logger

	mu   sync.RWMutex
	cfg  model.Config
	subs []func(model.Config)
}

// New constructs the store and loads the persisted configuration.
// Missing or corrupt data falls back to defaults; New never fails.
func New(kv storage.KV, logger *zap.Logger) *Store {
	s := &Store{kv: kv, logger: logger, cfg: defaults()}
	s.load()
	return s
}

func (s *Store) load() {
	raw, err := s.kv.Get(storage.KeyConfig)
	if err != nil {
		return // absent or unavailable: defaults stand
	}
	var cfg model.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		s.logger.Warn("stored config is corrupt, using defaults", zap.Error(err))
		return
	}
	s.cfg = cfg
}

// Current returns the active configuration snapshot. Never blocks on I/O.
func (s *Store) Current() model.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Save replaces the configuration wholesale, persists it, and notifies
// subscribers so dependents reload against the new backend/credentials.
// Persistence faults are absorbed: the in-memory replacement still applies.
func (s *Store) Save(cfg model.Config) {
	s.mu.Lock()
	s.cfg = cfg
	subs := append(([]func(model.Config))(nil), s.subs...)
	s.mu.Unlock()

	raw, err := json.Marshal(cfg)
	if err == nil {
		err = s.kv.Set(storage.KeyConfig, raw)
	}
	if err != nil {
		s.logger.Warn("config not persisted", zap.Error(err))
	}

	for _, fn := range subs {
		fn(cfg)
	}
}

// Subscribe registers fn to run after every Save. Callbacks run on the
// saving goroutine; keep them short.
func (s *Store) Subscribe(fn func(model.Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
