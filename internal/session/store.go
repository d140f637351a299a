// Package session owns the authenticated-identity singleton and its
// volatile persistence. The store holds state only; the login/logout
// decisions live in the auth service.
package session

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/vkuzn/expiry-keeper/internal/model"
	"github.com/vkuzn/expiry-keeper/internal/storage"
)

// Store is zero-or-one session per running instance.
type Store struct {
	kv     storage.KV
	logger *zap.Logger

	mu   sync.RWMutex
	cur  *model.Session
	subs []func()
}

// New constructs an anonymous store; call Restore to pick up a persisted session.
func New(kv storage.KV, logger *zap.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Restore reads a persisted identity and token. A parsable identity
// transitions straight to authenticated without contacting any backend;
// corrupt identity data forces logout (entries cleared) and stays anonymous.
// Returns true when a session was restored.
func (s *Store) Restore() bool {
	rawUser, err := s.kv.Get(storage.KeySessionUser)
	if err != nil {
		return false
	}
	var u model.User
	if err := json.Unmarshal(rawUser, &u); err != nil || u.ID == "" {
		s.logger.Warn("stored session is corrupt, forcing logout", zap.Error(err))
		s.Clear()
		return false
	}

	token := ""
	if rawTok, err := s.kv.Get(storage.KeySessionToken); err == nil {
		token = string(rawTok)
	}

	s.set(model.Session{User: u, Token: token, ExpiresAt: peekExpiry(token)})
	return true
}

// Set replaces the current session and persists it to volatile storage.
// Persistence faults are absorbed; the in-memory session still applies.
func (s *Store) Set(sess model.Session) {
	sess.ExpiresAt = peekExpiry(sess.Token)

	rawUser, err := json.Marshal(sess.User)
	if err == nil {
		err = s.kv.Set(storage.KeySessionUser, rawUser)
	}
	if err == nil {
		err = s.kv.Set(storage.KeySessionToken, []byte(sess.Token))
	}
	if err != nil {
		s.logger.Warn("session not persisted", zap.Error(err))
	}

	s.set(sess)
}

// Clear drops the session from memory and volatile storage.
func (s *Store) Clear() {
	_ = s.kv.Delete(storage.KeySessionUser)
	_ = s.kv.Delete(storage.KeySessionToken)

	s.mu.Lock()
	s.cur = nil
	subs := append(([]func())(nil), s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (s *Store) set(sess model.Session) {
	s.mu.Lock()
	s.cur = &sess
	subs := append(([]func())(nil), s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Current returns a copy of the session and whether one exists.
func (s *Store) Current() (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return model.Session{}, false
	}
	return *s.cur, true
}

// IsLoggedIn reports whether a session exists.
func (s *Store) IsLoggedIn() bool {
	_, ok := s.Current()
	return ok
}

// Token returns the session token, empty when anonymous or local-mode.
func (s *Store) Token() string {
	sess, ok := s.Current()
	if !ok {
		return ""
	}
	return sess.Token
}

// IsAdmin derives the admin flag from the identity's role, case-insensitive.
// Re-derived on every call, never stored.
func (s *Store) IsAdmin() bool {
	sess, ok := s.Current()
	return ok && strings.EqualFold(sess.User.Role, "admin")
}

// Subscribe registers fn to run after every session change (set or clear).
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// peekExpiry extracts the exp claim from a JWT-shaped token without
// verifying the signature. Zero time when the token is not a JWT.
func peekExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
