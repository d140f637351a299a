package config

import (
	"testing"

	"go.uber.org/zap"

	"github.com/vkuzn/expiry-keeper/internal/model"
	"github.com/vkuzn/expiry-keeper/internal/storage"
)

func TestStore_DefaultsWhenMissing(t *testing.T) {
	t.Parallel()
	s := New(storage.NewMem(), zap.NewNop())

	got := s.Current()
	if got.UsePocketBase || got.RemoteURL != "" || got.RemoteAuthToken != "" {
		t.Fatalf("want defaults, got %+v", got)
	}
}

func TestStore_DefaultsWhenCorrupt(t *testing.T) {
	t.Parallel()
	kv := storage.NewMem()
	_ = kv.Set(storage.KeyConfig, []byte("{not json"))

	s := New(kv, zap.NewNop())
	if s.Current().UsePocketBase {
		t.Fatalf("corrupt config must fall back to defaults")
	}
}

func TestStore_SavePersistsAndNotifies(t *testing.T) {
	t.Parallel()
	kv := storage.NewMem()
	s := New(kv, zap.NewNop())

	var seen []model.Config
	s.Subscribe(func(c model.Config) { seen = append(seen, c) })

	want := model.Config{UsePocketBase: true, RemoteURL: "https://pb.example", RemoteAuthToken: "static"}
	s.Save(want)

	if got := s.Current(); got != want {
		t.Fatalf("Current after Save: got %+v want %+v", got, want)
	}
	if len(seen) != 1 || seen[0] != want {
		t.Fatalf("subscriber not notified with saved config: %+v", seen)
	}

	// a fresh store sees the persisted value
	s2 := New(kv, zap.NewNop())
	if got := s2.Current(); got != want {
		t.Fatalf("reload after Save: got %+v want %+v", got, want)
	}
}

func TestStore_SaveSurvivesBrokenStorage(t *testing.T) {
	t.Parallel()
	s := New(brokenKV{}, zap.NewNop())

	want := model.Config{UsePocketBase: true, RemoteURL: "https://pb.example"}
	s.Save(want) // must not panic or fail the caller

	if got := s.Current(); got != want {
		t.Fatalf("in-memory replacement must apply even if persist fails: %+v", got)
	}
}

// brokenKV fails every operation, simulating unavailable storage.
type brokenKV struct{}

var _ storage.KV = brokenKV{}

func (brokenKV) Get(string) ([]byte, error) { return nil, errBroken }
func (brokenKV) Set(string, []byte) error   { return errBroken }
func (brokenKV) Delete(string) error        { return errBroken }
func (brokenKV) Close() error               { return nil }

var errBroken = &brokenErr{}

type brokenErr struct{}

func (*brokenErr) Error() string { return "storage broken" }
