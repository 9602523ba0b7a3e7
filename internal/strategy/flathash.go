package strategy

import (
	"context"
	"fmt"

	"github.com/dreamware/maptree/internal/audit"
	"github.com/dreamware/maptree/internal/codec"
	"github.com/dreamware/maptree/internal/metrics"
	"github.com/dreamware/maptree/internal/storage"
)

// FlatHash stores one hash under key with a field per leaf path
type FlatHash struct {
	metrics *metrics.Registry
}

// NewFlatHash creates the flat hash strategy
func NewFlatHash(m *metrics.Registry) *FlatHash {
	return &FlatHash{metrics: m}
}

// Name returns "flathash"
func (*FlatHash) Name() string { return "flathash" }

// Write puts every leaf of doc into the hash at key in one call. A
// document without leaves issues no write.
func (f *FlatHash) Write(ctx context.Context, b storage.Backend, key string, doc codec.Value) (Record, []string, error) {
	fields := codec.MapPaths(doc)
	paths := codec.FlattenPaths(doc)

	if len(fields) > 0 {
		err := f.metrics.Timer(metrics.TimerCreate).Time(func() error {
			return b.HashPutAll(ctx, key, fields)
		})
		if err != nil {
			return Record{}, nil, fmt.Errorf("put hash %s: %w", key, err)
		}
	}
	return NewRecord(key, doc, paths), paths, nil
}

// Probe reads leaf paths as fields of the hash
func (*FlatHash) Probe(key string) audit.Probe { return audit.HashFieldProbe(key) }
