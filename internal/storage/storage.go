// Package storage provides keyed blob storage backing the config, session
// and local-document stores. Two implementations exist: a badger-backed
// durable store and an in-memory store used for tests and as the degraded
// mode when the durable store cannot be opened.
package storage

// Logical keys for the stored singletons.
const (
	KeyConfig       = "config"        // serialized model.Config
	KeySessionUser  = "session/user"  // serialized model.User
	KeySessionToken = "session/token" // raw token string
	KeyDocuments    = "documents"     // serialized []model.Document (local backend)
)

// KV is minimal keyed blob access. Get returns errs.ErrNotFound for a
// missing key; any other error means the store itself is unavailable.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
