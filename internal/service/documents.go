// Package service contains application services for documents and authentication.
package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/vkuzn/expiry-keeper/internal/backend"
	"github.com/vkuzn/expiry-keeper/internal/config"
	"github.com/vkuzn/expiry-keeper/internal/model"
)

// RemoteStore is the subset of the record-store client the repository uses.
// Base URL and token travel per call so configuration changes take effect
// without rebuilding the client.
type RemoteStore interface {
	List(ctx context.Context, baseURL, token string) ([]model.Document, error)
	Create(ctx context.Context, baseURL, token string, d model.NewDocument) (model.Document, error)
	Delete(ctx context.Context, baseURL, token, id string) error
}

// Documents is the repository façade: it dispatches every operation to the
// backend selected by the config store and exposes unified observable state
// (documents, loading flag, last error) to UI collaborators.
//
// Operations are serialized with an internal mutex; two mutations never
// interleave their read-modify-write cycle. The loading flag additionally
// lets the UI disable controls while an operation runs.
type Documents struct {
	cfg    *config.Store
	local  backend.Store
	remote RemoteStore
	logger *zap.Logger

	opMu sync.Mutex // one operation at a time

	mu      sync.RWMutex
	docs    []model.Document
	loading bool
	errMsg  string
	token   string
	subs    []func()
}

// NewDocuments constructs the repository. It subscribes to configuration
// replacements so a backend/credential change reloads the document set.
func NewDocuments(cfg *config.Store, local backend.Store, remote RemoteStore, logger *zap.Logger) *Documents {
	s := &Documents{cfg: cfg, local: local, remote: remote, logger: logger}
	cfg.Subscribe(func(model.Config) {
		_ = s.LoadAll(context.Background())
	})
	return s
}

// Documents returns the currently loaded set (a copy).
func (s *Documents) Documents() []model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Document(nil), s.docs...)
}

// IsLoading reports whether an operation is in flight.
func (s *Documents) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last operation failure, empty when the last operation succeeded.
func (s *Documents) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Subscribe registers fn to run after every state change.
func (s *Documents) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// LoadAll replaces the document set with a full read from the active
// backend. With the remote backend selected and no usable token (neither a
// session token nor the static fallback) the call is a silent no-op: a
// not-yet-authenticated quiescent state, not a failure.
func (s *Documents) LoadAll(ctx context.Context) error {
	if cfg := s.cfg.Current(); cfg.UsePocketBase && s.resolveToken(cfg) == "" {
		return nil // quiescent: leave documents and error untouched, no HTTP call
	}
	return s.run(ctx, s.reload)
}

// Add performs a backend-specific create and then reloads the full set;
// the displayed list always reflects a fresh read after a mutation.
// On create failure the set is left unchanged and no reload is attempted.
func (s *Documents) Add(ctx context.Context, d model.NewDocument) error {
	return s.run(ctx, func(ctx context.Context) error {
		cfg := s.cfg.Current()
		if cfg.UsePocketBase {
			if _, err := s.remote.Create(ctx, cfg.RemoteURL, s.resolveToken(cfg), d); err != nil {
				return err
			}
		} else {
			if _, err := s.local.Create(ctx, d); err != nil {
				return err
			}
		}
		return s.reload(ctx)
	})
}

// Remove performs a backend-specific delete and then reloads the full set.
func (s *Documents) Remove(ctx context.Context, id string) error {
	return s.run(ctx, func(ctx context.Context) error {
		cfg := s.cfg.Current()
		if cfg.UsePocketBase {
			if err := s.remote.Delete(ctx, cfg.RemoteURL, s.resolveToken(cfg), id); err != nil {
				return err
			}
		} else {
			if err := s.local.Delete(ctx, id); err != nil {
				return err
			}
		}
		return s.reload(ctx)
	})
}

// SetToken updates the session token used for remote calls and, when the
// remote backend is active, immediately reloads.
func (s *Documents) SetToken(ctx context.Context, token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.cfg.Current().UsePocketBase {
		_ = s.LoadAll(ctx)
	}
}

// run is the shared operation envelope: set loading, clear the error,
// perform the work, record a failure, always clear loading on exit.
func (s *Documents) run(ctx context.Context, op func(ctx context.Context) error) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setState(func() {
		s.loading = true
		s.errMsg = ""
	})
	err := op(ctx)
	s.setState(func() {
		s.loading = false
		if err != nil {
			s.errMsg = err.Error()
		}
	})
	return err
}

// reload fetches the full set from the active backend and replaces state.
func (s *Documents) reload(ctx context.Context) error {
	cfg := s.cfg.Current()

	if cfg.UsePocketBase {
		token := s.resolveToken(cfg)
		if token == "" {
			return nil // quiescent: no credentials yet, keep current set
		}
		docs, err := s.remote.List(ctx, cfg.RemoteURL, token)
		if err != nil {
			return err
		}
		s.setState(func() { s.docs = docs })
		return nil
	}

	docs, err := s.local.List(ctx)
	if err != nil {
		return err
	}
	s.setState(func() { s.docs = docs })
	return nil
}

// resolveToken prefers the session token over the static fallback from
// configuration. This priority is part of the contract.
func (s *Documents) resolveToken(cfg model.Config) string {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token != "" {
		return token
	}
	return cfg.RemoteAuthToken
}

func (s *Documents) setState(apply func()) {
	s.mu.Lock()
	apply()
	subs := append(([]func())(nil), s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
