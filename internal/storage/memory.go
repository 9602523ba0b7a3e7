package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dreamware/maptree/internal/codec"
)

// entry is the value held under one key. Exactly one of doc, hash, list
// is meaningful, selected by kind.
type entry struct {
	kind KeyType
	doc  codec.Value
	hash map[string]string
	list []string
}

// MemoryBackend implements Backend with in-memory maps
// Uses sync.RWMutex for thread-safe concurrent access
type MemoryBackend struct {
	mu   sync.RWMutex      // Protects concurrent access
	data map[string]*entry // Key -> stored value
}

// NewMemoryBackend creates a new in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string]*entry),
	}
}

// SetDocument stores a JSON document, or a node inside an existing one
func (m *MemoryBackend) SetDocument(_ context.Context, key, path string, doc []byte) error {
	v, err := codec.Parse(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.data[key]
	if path == "$" || path == "" {
		if exists && e.kind != TypeDocument {
			return ErrWrongType
		}
		m.data[key] = &entry{kind: TypeDocument, doc: v}
		return nil
	}

	if !exists {
		return ErrNotFound
	}
	if e.kind != TypeDocument {
		return ErrWrongType
	}
	updated, err := codec.Replace(e.doc, path, v)
	if err != nil {
		return mapPathErr(err)
	}
	e.doc = updated
	return nil
}

// GetDocument returns the encoded node at path
func (m *MemoryBackend) GetDocument(_ context.Context, key, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.data[key]
	if !exists {
		return nil, ErrNotFound
	}
	if e.kind != TypeDocument {
		return nil, ErrWrongType
	}
	node, err := codec.Lookup(e.doc, path)
	if err != nil {
		return nil, mapPathErr(err)
	}
	return codec.Encode(node), nil
}

// HashPutAll sets fields on the hash at key, creating it if needed
// Copies the map to prevent external modification
func (m *MemoryBackend) HashPutAll(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.data[key]
	if !exists {
		e = &entry{kind: TypeHash, hash: make(map[string]string, len(fields))}
		m.data[key] = e
	} else if e.kind != TypeHash {
		return ErrWrongType
	}
	for f, v := range fields {
		e.hash[f] = v
	}
	return nil
}

// HashGet returns one field of the hash at key
func (m *MemoryBackend) HashGet(_ context.Context, key, field string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, err := m.lookup(key, TypeHash)
	if err != nil {
		return "", err
	}
	v, ok := e.hash[field]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// HashGetAll returns a copy of the hash at key
func (m *MemoryBackend) HashGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, err := m.lookup(key, TypeHash)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(e.hash))
	for f, v := range e.hash {
		out[f] = v
	}
	return out, nil
}

// ListPushAll appends items to the tail of the list at key
func (m *MemoryBackend) ListPushAll(_ context.Context, key string, items []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.data[key]
	if !exists {
		e = &entry{kind: TypeList}
		m.data[key] = e
	} else if e.kind != TypeList {
		return ErrWrongType
	}
	e.list = append(e.list, items...)
	return nil
}

// ListRange returns a copy of list elements start..end inclusive
func (m *MemoryBackend) ListRange(_ context.Context, key string, start, end int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, err := m.lookup(key, TypeList)
	if err != nil {
		return nil, err
	}
	lo, hi := clampRange(len(e.list), start, end)
	return append([]string{}, e.list[lo:hi]...), nil
}

// TypeOf reports what key holds
func (m *MemoryBackend) TypeOf(_ context.Context, key string) (KeyType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.data[key]
	if !exists {
		return TypeNone, nil
	}
	return e.kind, nil
}

// Delete removes a key
// No error if key doesn't exist (idempotent)
func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Stats returns storage statistics
func (m *MemoryBackend) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, e := range m.data {
		switch e.kind {
		case TypeDocument:
			total += len(codec.Encode(e.doc))
		case TypeHash:
			for f, v := range e.hash {
				total += len(f) + len(v)
			}
		case TypeList:
			for _, v := range e.list {
				total += len(v)
			}
		}
	}

	return Stats{
		Keys:  len(m.data),
		Bytes: total,
	}
}

// lookup returns the entry at key if it holds want. Caller holds mu.
func (m *MemoryBackend) lookup(key string, want KeyType) (*entry, error) {
	e, exists := m.data[key]
	if !exists {
		return nil, ErrNotFound
	}
	if e.kind != want {
		return nil, ErrWrongType
	}
	return e, nil
}

// clampRange converts inclusive, possibly negative, list indexes into a
// half-open slice range within [0, n]
func clampRange(n, start, end int) (int, int) {
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	if start > end || start >= n {
		return 0, 0
	}
	return start, end + 1
}

func mapPathErr(err error) error {
	switch {
	case errors.Is(err, codec.ErrPathNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, codec.ErrBadSelector):
		return fmt.Errorf("%w: %v", ErrBadPath, err)
	}
	return err
}
