// Package local implements the client-resident document backend: the whole
// record set is serialized under one storage key on every mutation.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/vkuzn/expiry-keeper/internal/model"
	"github.com/vkuzn/expiry-keeper/internal/storage"
)

// DefaultCategory is substituted when a new document carries no category.
const DefaultCategory = "General"

// Adapter is the local backend. Storage faults never fail an operation:
// the adapter degrades to a memory-only record set for the process lifetime.
type Adapter struct {
	kv     storage.KV
	logger *zap.Logger

	mu       sync.Mutex
	degraded bool
	cache    []model.Document // authoritative once degraded
}

// New constructs the adapter over the given store.
func New(kv storage.KV, logger *zap.Logger) *Adapter {
	return &Adapter{kv: kv, logger: logger}
}

// List returns the persisted set, newest-inserted first.
// Missing or corrupt data yields an empty set, never an error.
func (a *Adapter) List(_ context.Context) ([]model.Document, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadLocked(), nil
}

// Create assigns an ID and creation time, prepends the record and persists
// the whole set.
func (a *Adapter) Create(_ context.Context, d model.NewDocument) (model.Document, error) {
	doc := model.Document{
		ID:             newID(),
		Title:          d.Title,
		Category:       d.Category,
		Details:        d.Details,
		ExpirationDate: d.ExpirationDate,
		Created:        time.Now().UTC(),
	}
	if doc.Category == "" {
		doc.Category = DefaultCategory
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	docs := append([]model.Document{doc}, a.loadLocked()...)
	a.persistLocked(docs)
	return doc, nil
}

// Delete filters the record out by ID and persists the whole set.
// Deleting an unknown ID is a no-op.
func (a *Adapter) Delete(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	docs := a.loadLocked()
	kept := docs[:0]
	for _, d := range docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	a.persistLocked(kept)
	return nil
}

// loadLocked returns the current set from storage, or from the in-memory
// cache once the adapter has degraded.
func (a *Adapter) loadLocked() []model.Document {
	if a.degraded {
		return append([]model.Document(nil), a.cache...)
	}
	raw, err := a.kv.Get(storage.KeyDocuments)
	if err != nil {
		return nil // absent or unavailable: empty set
	}
	var docs []model.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		a.logger.Warn("stored documents are corrupt, starting empty", zap.Error(err))
		return nil
	}
	return docs
}

// persistLocked writes the whole set; on failure the adapter switches to
// memory-only mode so the mutation still takes effect for this process.
func (a *Adapter) persistLocked(docs []model.Document) {
	a.cache = docs
	if a.degraded {
		return
	}
	raw, err := json.Marshal(docs)
	if err == nil {
		err = a.kv.Set(storage.KeyDocuments, raw)
	}
	if err != nil {
		a.degraded = true
		a.logger.Warn("local storage unavailable, keeping documents in memory only", zap.Error(err))
	}
}

// newID returns a V4 UUID, falling back to a pseudo-random UUID-shaped
// string if the secure generator fails.
func newID() string {
	if id, err := uuid.NewV4(); err == nil {
		return id.String()
	}
	return fmt.Sprintf("%08x-%04x-4%03x-%04x-%012x",
		rand.Uint32(), rand.Uint32()&0xffff, rand.Uint32()&0xfff,
		(rand.Uint32()&0x3fff)|0x8000, rand.Uint64()&0xffffffffffff)
}
