package storage

import (
	"sync"

	"github.com/vkuzn/expiry-keeper/internal/errs"
)

// MemKV is an in-memory KV. It backs tests and the degraded mode entered
// when the durable store cannot be opened: contents vanish with the process.
type MemKV struct {
	mu sync.RWMutex
	m  map[string][]byte
}

var _ KV = (*MemKV)(nil)

// NewMem returns an empty in-memory store.
func NewMem() *MemKV {
	return &MemKV{m: map[string][]byte{}}
}

func (s *MemKV) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemKV) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemKV) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *MemKV) Close() error { return nil }
