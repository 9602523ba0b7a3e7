package strategy

import (
	"context"
	"fmt"

	"github.com/dreamware/maptree/internal/audit"
	"github.com/dreamware/maptree/internal/codec"
	"github.com/dreamware/maptree/internal/metrics"
	"github.com/dreamware/maptree/internal/storage"
)

// Document stores the whole document under one key with a single
// SetDocument call. Its locations are the document's leaf paths.
type Document struct {
	metrics *metrics.Registry
}

// NewDocument creates the document strategy
func NewDocument(m *metrics.Registry) *Document {
	return &Document{metrics: m}
}

// Name returns "document"
func (*Document) Name() string { return "document" }

// Write stores doc at the root of key
func (d *Document) Write(ctx context.Context, b storage.Backend, key string, doc codec.Value) (Record, []string, error) {
	encoded := codec.Encode(doc)
	err := d.metrics.Timer(metrics.TimerCreate).Time(func() error {
		return b.SetDocument(ctx, key, codec.Selector(""), encoded)
	})
	if err != nil {
		return Record{}, nil, fmt.Errorf("set document %s: %w", key, err)
	}

	paths := codec.FlattenPaths(doc)
	return NewRecord(key, doc, paths), paths, nil
}

// Probe reads leaf paths back out of the stored document
func (*Document) Probe(key string) audit.Probe { return audit.DocumentProbe(key) }
