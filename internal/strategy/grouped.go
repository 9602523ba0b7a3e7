package strategy

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/exp/slices"

	"github.com/dreamware/maptree/internal/audit"
	"github.com/dreamware/maptree/internal/codec"
	"github.com/dreamware/maptree/internal/metrics"
	"github.com/dreamware/maptree/internal/storage"
)

// KeySeparator joins the record key and a group key into a physical key
const KeySeparator = ":"

// Grouped stores each group of doc under its own physical key: field
// groups as hashes, scalar array groups as lists.
type Grouped struct {
	metrics *metrics.Registry
}

// NewGrouped creates the grouped strategy
func NewGrouped(m *metrics.Registry) *Grouped {
	return &Grouped{metrics: m}
}

// Name returns "grouped"
func (*Grouped) Name() string { return "grouped" }

// PhysicalKey returns the backend key holding group groupKey of key
func PhysicalKey(key, groupKey string) string {
	return key + KeySeparator + groupKey
}

// Write issues one bulk write per group. List groups are deleted before
// they are pushed so a repeated Write does not append the items twice.
// The returned locations are the physical keys in group order.
func (g *Grouped) Write(ctx context.Context, b storage.Backend, key string, doc codec.Value) (Record, []string, error) {
	groups := codec.MapPathTree(doc)
	timer := g.metrics.Timer(metrics.TimerCreate)

	keys := make([]string, 0, groups.Len())
	for _, groupKey := range groups.Keys() {
		payload, _ := groups.Get(groupKey)
		physical := PhysicalKey(key, groupKey)

		var err error
		switch payload.Kind() {
		case codec.FieldMap:
			err = timer.Time(func() error {
				return b.HashPutAll(ctx, physical, payload.Fields())
			})
		case codec.ScalarList:
			err = timer.Time(func() error {
				if err := b.Delete(ctx, physical); err != nil {
					return err
				}
				return b.ListPushAll(ctx, physical, payload.Items())
			})
		default:
			log.Printf("strategy: group %q has unexpected payload %s, skipping", groupKey, payload.Kind())
			continue
		}
		if err != nil {
			return Record{}, nil, fmt.Errorf("write group %s: %w", physical, err)
		}
		keys = append(keys, physical)
	}

	if n := groups.Conflicts(); n > 0 {
		log.Printf("strategy: %s: %d leaves dropped on group conflicts", key, n)
	}
	log.Printf("strategy: created %d groups for %s", len(keys), key)

	return NewRecord(key, doc, codec.FlattenTree(doc)), slices.Clip(keys), nil
}

// Probe reads physical keys with the accessor matching their type
func (*Grouped) Probe(string) audit.Probe { return audit.TypedKeyProbe() }
