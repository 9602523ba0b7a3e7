package shard

import (
	"context"
	"errors"
	"fmt"

	"github.com/dreamware/maptree/internal/storage"
)

var (
	// ErrShardDraining is returned for writes routed to a draining shard
	ErrShardDraining = errors.New("shard is draining")
	// ErrUnknownShard is returned for a shard ID outside the set
	ErrUnknownShard = errors.New("unknown shard")
)

// Set partitions the keyspace over a fixed number of shards and exposes
// them as a single storage.Backend. Every key lives on exactly one shard,
// so single-key operations keep the semantics of storage.MemoryBackend.
type Set struct {
	shards []*Shard
}

var _ storage.Backend = (*Set)(nil)

// NewSet creates n shards. n below 1 is treated as 1.
func NewSet(n int) *Set {
	if n < 1 {
		n = 1
	}
	shards := make([]*Shard, n)
	for i := range shards {
		shards[i] = NewShard(i)
	}
	return &Set{shards: shards}
}

// Len returns the number of shards
func (s *Set) Len() int { return len(s.shards) }

// Shard returns the shard with the given ID, nil if out of range
func (s *Set) Shard(id int) *Shard {
	if id < 0 || id >= len(s.shards) {
		return nil
	}
	return s.shards[id]
}

// SetState changes the state of shard id. Draining a shard makes writes
// routed to it fail with ErrShardDraining until it is made active again.
func (s *Set) SetState(id int, state ShardState) error {
	sh := s.Shard(id)
	if sh == nil {
		return fmt.Errorf("%w: %d", ErrUnknownShard, id)
	}
	switch state {
	case ShardStateActive, ShardStateDraining:
	default:
		return fmt.Errorf("invalid shard state %q", state)
	}
	sh.SetState(state)
	return nil
}

// For returns the shard owning key
func (s *Set) For(key string) *Shard {
	return s.shards[ShardFor(key, len(s.shards))]
}

// writable returns the owning shard, refusing draining shards
func (s *Set) writable(key string) (*Shard, error) {
	sh := s.For(key)
	if sh.GetState() == ShardStateDraining {
		return nil, ErrShardDraining
	}
	return sh, nil
}

// SetDocument routes to the owning shard
func (s *Set) SetDocument(ctx context.Context, key, path string, doc []byte) error {
	sh, err := s.writable(key)
	if err != nil {
		return err
	}
	return sh.SetDocument(ctx, key, path, doc)
}

// GetDocument routes to the owning shard
func (s *Set) GetDocument(ctx context.Context, key, path string) ([]byte, error) {
	return s.For(key).GetDocument(ctx, key, path)
}

// HashPutAll routes to the owning shard
func (s *Set) HashPutAll(ctx context.Context, key string, fields map[string]string) error {
	sh, err := s.writable(key)
	if err != nil {
		return err
	}
	return sh.HashPutAll(ctx, key, fields)
}

// HashGet routes to the owning shard
func (s *Set) HashGet(ctx context.Context, key, field string) (string, error) {
	return s.For(key).HashGet(ctx, key, field)
}

// HashGetAll routes to the owning shard
func (s *Set) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	return s.For(key).HashGetAll(ctx, key)
}

// ListPushAll routes to the owning shard
func (s *Set) ListPushAll(ctx context.Context, key string, items []string) error {
	sh, err := s.writable(key)
	if err != nil {
		return err
	}
	return sh.ListPushAll(ctx, key, items)
}

// ListRange routes to the owning shard
func (s *Set) ListRange(ctx context.Context, key string, start, end int) ([]string, error) {
	return s.For(key).ListRange(ctx, key, start, end)
}

// TypeOf routes to the owning shard
func (s *Set) TypeOf(ctx context.Context, key string) (storage.KeyType, error) {
	return s.For(key).TypeOf(ctx, key)
}

// Delete routes to the owning shard
func (s *Set) Delete(ctx context.Context, key string) error {
	return s.For(key).Delete(ctx, key)
}

// Info returns metadata for every shard, ordered by ID
func (s *Set) Info() []ShardInfo {
	out := make([]ShardInfo, 0, len(s.shards))
	for _, sh := range s.shards {
		out = append(out, sh.Info())
	}
	return out
}

// Stats sums storage statistics over all shards
func (s *Set) Stats() storage.Stats {
	var total storage.Stats
	for _, sh := range s.shards {
		st := sh.GetStats().Storage
		total.Keys += st.Keys
		total.Bytes += st.Bytes
	}
	return total
}
