package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/vkuzn/expiry-keeper/internal/errs"
	"github.com/vkuzn/expiry-keeper/internal/model"
	"github.com/vkuzn/expiry-keeper/internal/storage"
)

func TestStore_SetCurrentClear(t *testing.T) {
	t.Parallel()
	kv := storage.NewMem()
	s := New(kv, zap.NewNop())

	if s.IsLoggedIn() {
		t.Fatalf("fresh store must be anonymous")
	}

	s.Set(model.Session{User: model.User{ID: "u1", Username: "alice", Role: "Admin"}, Token: "tok"})

	sess, ok := s.Current()
	if !ok || sess.User.Username != "alice" || sess.Token != "tok" {
		t.Fatalf("bad session after Set: %+v ok=%v", sess, ok)
	}
	if !s.IsAdmin() {
		t.Fatalf("role Admin must derive IsAdmin (case-insensitive)")
	}
	if s.Token() != "tok" {
		t.Fatalf("Token() = %q", s.Token())
	}

	s.Clear()
	if s.IsLoggedIn() || s.IsAdmin() || s.Token() != "" {
		t.Fatalf("Clear must return to anonymous")
	}
	if _, err := kv.Get(storage.KeySessionUser); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Clear must wipe stored identity, got %v", err)
	}
	if _, err := kv.Get(storage.KeySessionToken); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Clear must wipe stored token, got %v", err)
	}
}

func TestStore_RestoreRoundTrip(t *testing.T) {
	t.Parallel()
	kv := storage.NewMem()

	first := New(kv, zap.NewNop())
	first.Set(model.Session{User: model.User{ID: "u1", Username: "alice", Role: "user"}, Token: "tok"})

	second := New(kv, zap.NewNop())
	if !second.Restore() {
		t.Fatalf("Restore must succeed on persisted session")
	}
	sess, _ := second.Current()
	if sess.User.ID != "u1" || sess.Token != "tok" {
		t.Fatalf("restored session mismatch: %+v", sess)
	}
}

func TestStore_RestoreCorruptForcesLogout(t *testing.T) {
	t.Parallel()
	kv := storage.NewMem()
	_ = kv.Set(storage.KeySessionUser, []byte("{broken"))
	_ = kv.Set(storage.KeySessionToken, []byte("tok"))

	s := New(kv, zap.NewNop())
	if s.Restore() {
		t.Fatalf("corrupt identity must not restore")
	}
	if s.IsLoggedIn() {
		t.Fatalf("must stay anonymous")
	}
	if _, err := kv.Get(storage.KeySessionUser); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("corrupt entries must be cleared, got %v", err)
	}
	if _, err := kv.Get(storage.KeySessionToken); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("token entry must be cleared, got %v", err)
	}
}

func TestStore_RestoreMissingIsAnonymous(t *testing.T) {
	t.Parallel()
	s := New(storage.NewMem(), zap.NewNop())
	if s.Restore() {
		t.Fatalf("nothing persisted: Restore must report false")
	}
}

func TestStore_Notifies(t *testing.T) {
	t.Parallel()
	s := New(storage.NewMem(), zap.NewNop())

	calls := 0
	s.Subscribe(func() { calls++ })

	s.Set(model.Session{User: model.User{ID: "u1"}})
	s.Clear()
	if calls != 2 {
		t.Fatalf("want 2 notifications (set+clear), got %d", calls)
	}
}

func TestPeekExpiry(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := tok.SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if got := peekExpiry(signed); !got.Equal(exp) {
		t.Fatalf("peekExpiry = %v, want %v", got, exp)
	}
	if got := peekExpiry("not-a-jwt"); !got.IsZero() {
		t.Fatalf("opaque token must yield zero expiry, got %v", got)
	}
	if got := peekExpiry(""); !got.IsZero() {
		t.Fatalf("empty token must yield zero expiry")
	}
}
