// Package model defines domain entities used by services and backends.
package model

import "time"

// Document is a single tracked item with an expiration date.
type Document struct {
	ID             string    `json:"id"`             // local: client-generated UUID; remote: store-assigned
	Title          string    `json:"title"`          // non-empty display string
	Category       string    `json:"category"`       // free string, "General" when absent
	Details        string    `json:"details"`        // free text, may be empty
	ExpirationDate time.Time `json:"expirationDate"` // point in time after which the document is expired
	Created        time.Time `json:"created"`        // assigned at creation, never mutated
}

// NewDocument carries the caller-supplied fields for a create operation.
// ID and Created are assigned by the active backend.
type NewDocument struct {
	Title          string
	Category       string
	Details        string
	ExpirationDate time.Time
}

// Config is the singleton runtime configuration selecting the active backend.
// Replaced wholesale on save, never partially patched.
type Config struct {
	UsePocketBase   bool   `json:"usePocketBase"`   // true selects the remote record store
	RemoteURL       string `json:"remoteUrl"`       // base URL, required when UsePocketBase
	RemoteAuthToken string `json:"remoteAuthToken"` // static fallback credential
}

// User is the authenticated identity of the current session.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// Session couples an identity with its bearer token.
// Token is empty when authentication was local.
type Session struct {
	User  User
	Token string
	// ExpiresAt is the token expiry peeked from JWT claims, zero when unknown.
	// Diagnostics only; restore never enforces it.
	ExpiresAt time.Time
}
