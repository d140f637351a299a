// Package backend defines the storage interface implemented by the local
// and remote document backends.
package backend

import (
	"context"

	"github.com/vkuzn/expiry-keeper/internal/model"
)

// Store provides CRUD access to the active backend's record set.
// Ordering is backend-native (remote: newest-created first; local:
// newest-inserted first); consumers layer presentation order on top.
type Store interface {
	// List returns the full record set.
	List(ctx context.Context) ([]model.Document, error)
	// Create inserts a new record and returns it with ID and Created assigned.
	Create(ctx context.Context, d model.NewDocument) (model.Document, error)
	// Delete removes the record with the given ID.
	Delete(ctx context.Context, id string) error
}
