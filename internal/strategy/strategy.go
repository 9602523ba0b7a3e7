package strategy

import (
	"context"
	"time"

	"github.com/dreamware/maptree/internal/audit"
	"github.com/dreamware/maptree/internal/codec"
	"github.com/dreamware/maptree/internal/storage"
)

// Record describes one created document. It is built once per create
// call and never updated.
type Record struct {
	ID             string      `json:"id"`
	CreatedAt      time.Time   `json:"created_at"`
	LastAccessedAt time.Time   `json:"last_accessed_at"`
	Payload        codec.Value `json:"payload"`
	Schema         []string    `json:"schema"`
}

// NewRecord creates a record stamped with the current time
func NewRecord(id string, payload codec.Value, schema []string) Record {
	now := time.Now().UTC()
	return Record{
		ID:             id,
		CreatedAt:      now,
		LastAccessedAt: now,
		Payload:        payload,
		Schema:         schema,
	}
}

// Strategy encodes a parsed document into backend writes.
//
// Write issues every write for doc under key and returns the record and
// the locations it produced. Calling Write again with the same key and
// document must leave the backend in the same state, because the whole
// call is the unit that gets retried.
//
// Probe returns the reader the auditor uses for those locations.
type Strategy interface {
	Name() string
	Write(ctx context.Context, b storage.Backend, key string, doc codec.Value) (Record, []string, error)
	Probe(key string) audit.Probe
}
