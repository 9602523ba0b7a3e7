package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a key, field, path or list doesn't exist
	ErrNotFound = errors.New("key not found")

	// ErrWrongType is returned when an operation targets a key holding
	// another kind of value (e.g. a hash read against a list)
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")

	// ErrBadPath is returned when a document path cannot be parsed
	ErrBadPath = errors.New("bad document path")
)

// KeyType is the kind of value stored under a key
type KeyType string

const (
	// TypeNone means the key doesn't exist
	TypeNone KeyType = "none"
	// TypeDocument is a JSON document addressed by path
	TypeDocument KeyType = "document"
	// TypeHash is a field -> string map
	TypeHash KeyType = "hash"
	// TypeList is an ordered list of strings
	TypeList KeyType = "list"
)

// Backend is the key-value store the strategies write to and the auditor
// reads from. A key holds exactly one of a document, a hash or a list.
// All implementations must be safe for concurrent use.
type Backend interface {
	// SetDocument stores doc at path under key. Path "$" replaces the
	// whole document; other paths require the parent node to exist.
	SetDocument(ctx context.Context, key, path string, doc []byte) error

	// GetDocument returns the JSON encoding of the node at path.
	// Returns ErrNotFound if the key or path doesn't exist.
	GetDocument(ctx context.Context, key, path string) ([]byte, error)

	// HashPutAll sets every field of fields on the hash at key
	HashPutAll(ctx context.Context, key string, fields map[string]string) error

	// HashGet returns one field. Returns ErrNotFound if key or field is missing.
	HashGet(ctx context.Context, key, field string) (string, error)

	// HashGetAll returns every field. Returns ErrNotFound if key is missing.
	HashGetAll(ctx context.Context, key string) (map[string]string, error)

	// ListPushAll appends items, in order, to the tail of the list at key
	ListPushAll(ctx context.Context, key string, items []string) error

	// ListRange returns elements start..end inclusive; negative indexes
	// count from the tail (-1 is the last element).
	// Returns ErrNotFound if key is missing.
	ListRange(ctx context.Context, key string, start, end int) ([]string, error)

	// TypeOf reports what key holds, TypeNone if nothing
	TypeOf(ctx context.Context, key string) (KeyType, error)

	// Delete removes key. No error if key doesn't exist.
	Delete(ctx context.Context, key string) error
}

// Stats contains statistics about a backend
type Stats struct {
	Keys  int // Number of keys
	Bytes int // Approximate size of all stored values in bytes
}
