// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across storage/backend/service layers.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication or a rejected credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTimeout indicates a remote call exceeded the request timeout bound.
	ErrTimeout = errors.New("request timeout")

	// ErrStorageUnavailable indicates the durable store cannot be read or written.
	// Absorbed at the point of access; callers degrade, they do not fail.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMalformedResponse indicates a remote body that does not match the contract.
	ErrMalformedResponse = errors.New("malformed response")
)
