package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vkuzn/expiry-keeper/internal/config"
	pkgcrypto "github.com/vkuzn/expiry-keeper/internal/crypto"
	"github.com/vkuzn/expiry-keeper/internal/errs"
	"github.com/vkuzn/expiry-keeper/internal/model"
	"github.com/vkuzn/expiry-keeper/internal/session"
)

// Built-in demo account for the local (offline) backend.
const (
	localUserID   = "local-user"
	localUsername = "docuser"
	localSecret   = "docuser"
	localRole     = "admin"
)

// Authenticator is the password-auth surface of the remote record store.
type Authenticator interface {
	AuthWithPassword(ctx context.Context, baseURL, identity, password string) (model.User, string, error)
}

// Auth mediates login/logout: it chooses the local credential check or the
// remote password auth per current configuration, and propagates the
// resulting token into the document repository.
type Auth struct {
	cfg      *config.Store
	sessions *session.Store
	remote   Authenticator
	docs     *Documents
	logger   *zap.Logger

	// demo credential hashed at construction so local verification runs
	// through the same hash-and-compare shape as a real account check
	localSalt []byte
	localHash []byte
}

// NewAuth constructs the auth service.
func NewAuth(cfg *config.Store, sessions *session.Store, remote Authenticator, docs *Documents, logger *zap.Logger) *Auth {
	salt, err := pkgcrypto.RandBytes(16)
	if err != nil {
		salt = []byte(localUserID) // fixed salt, demo credential only
	}
	return &Auth{
		cfg:       cfg,
		sessions:  sessions,
		remote:    remote,
		docs:      docs,
		logger:    logger,
		localSalt: salt,
		localHash: pkgcrypto.HashPassword([]byte(localSecret), salt),
	}
}

// Restore picks up a persisted session at process start without contacting
// any backend, and pushes its token into the document repository.
// Returns true when a session was restored.
func (a *Auth) Restore(ctx context.Context) bool {
	if !a.sessions.Restore() {
		return false
	}
	a.docs.SetToken(ctx, a.sessions.Token())
	return true
}

// Login authenticates with the backend selected by the current
// configuration. The identifier is accepted as-is: the remote store takes a
// username or email in the same field, and locally it is matched against
// the demo username. On failure no state is mutated and the session stays
// as it was; the caller decides how to present the failure.
func (a *Auth) Login(ctx context.Context, identifier, secret string) error {
	cfg := a.cfg.Current()

	if cfg.UsePocketBase {
		user, token, err := a.remote.AuthWithPassword(ctx, cfg.RemoteURL, identifier, secret)
		if err != nil {
			return fmt.Errorf("remote login: %w", err)
		}
		a.sessions.Set(model.Session{User: user, Token: token})
		a.docs.SetToken(ctx, token)
		a.logger.Info("logged in", zap.String("user", user.Username), zap.Bool("remote", true))
		return nil
	}

	if identifier != localUsername || !pkgcrypto.VerifyPassword([]byte(secret), a.localSalt, a.localHash) {
		return errs.ErrUnauthorized
	}
	a.sessions.Set(model.Session{
		User: model.User{ID: localUserID, Username: localUsername, Role: localRole},
	})
	a.docs.SetToken(ctx, "")
	a.logger.Info("logged in", zap.String("user", localUsername), zap.Bool("remote", false))
	return nil
}

// Logout clears the session from memory and volatile storage and drops the
// token held by the document repository.
func (a *Auth) Logout(ctx context.Context) {
	a.sessions.Clear()
	a.docs.SetToken(ctx, "")
	a.logger.Info("logged out")
}
