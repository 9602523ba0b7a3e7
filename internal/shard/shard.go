package shard

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/dreamware/maptree/internal/storage"
)

// ShardState represents the current state of a shard
type ShardState string

const (
	// ShardStateActive means the shard is serving requests
	ShardStateActive ShardState = "active"
	// ShardStateDraining means the shard serves reads but is being emptied
	ShardStateDraining ShardState = "draining"
)

// Shard represents a partition of the keyspace
// Each shard owns the keys that hash to its ID and manages its own storage
type Shard struct {
	ID    int                    // Unique shard identifier
	Store *storage.MemoryBackend // The storage backend for this shard
	State ShardState             // Current shard state
	Stats *ShardStats            // Operation statistics
	mu    sync.RWMutex           // Protects state changes
}

// ShardStats tracks operational statistics for a shard
type ShardStats struct {
	Ops     OperationStats `json:"operations"` // Operation counts
	Storage storage.Stats  `json:"storage"`    // Storage statistics
}

// OperationStats tracks operation counts
type OperationStats struct {
	Reads   uint64 `json:"reads"`   // Number of read operations
	Writes  uint64 `json:"writes"`  // Number of write operations
	Deletes uint64 `json:"deletes"` // Number of delete operations
}

// ShardInfo contains metadata about a shard
type ShardInfo struct {
	ID       int            `json:"id"`         // Shard identifier
	State    ShardState     `json:"state"`      // Current state
	KeyCount int            `json:"keys"`       // Number of keys
	ByteSize int            `json:"bytes"`      // Total size in bytes
	Ops      OperationStats `json:"operations"` // Operation counts
}

// NewShard creates a new shard with in-memory storage
func NewShard(id int) *Shard {
	return &Shard{
		ID:    id,
		Store: storage.NewMemoryBackend(),
		State: ShardStateActive,
		Stats: &ShardStats{},
	}
}

func (s *Shard) read()  { atomic.AddUint64(&s.Stats.Ops.Reads, 1) }
func (s *Shard) write() { atomic.AddUint64(&s.Stats.Ops.Writes, 1) }

// SetDocument stores a document in the shard
func (s *Shard) SetDocument(ctx context.Context, key, path string, doc []byte) error {
	s.write()
	return s.Store.SetDocument(ctx, key, path, doc)
}

// GetDocument reads a document node from the shard
func (s *Shard) GetDocument(ctx context.Context, key, path string) ([]byte, error) {
	s.read()
	return s.Store.GetDocument(ctx, key, path)
}

// HashPutAll sets hash fields in the shard
func (s *Shard) HashPutAll(ctx context.Context, key string, fields map[string]string) error {
	s.write()
	return s.Store.HashPutAll(ctx, key, fields)
}

// HashGet reads one hash field from the shard
func (s *Shard) HashGet(ctx context.Context, key, field string) (string, error) {
	s.read()
	return s.Store.HashGet(ctx, key, field)
}

// HashGetAll reads a whole hash from the shard
func (s *Shard) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	s.read()
	return s.Store.HashGetAll(ctx, key)
}

// ListPushAll appends to a list in the shard
func (s *Shard) ListPushAll(ctx context.Context, key string, items []string) error {
	s.write()
	return s.Store.ListPushAll(ctx, key, items)
}

// ListRange reads a list range from the shard
func (s *Shard) ListRange(ctx context.Context, key string, start, end int) ([]string, error) {
	s.read()
	return s.Store.ListRange(ctx, key, start, end)
}

// TypeOf reports the kind of value at key
func (s *Shard) TypeOf(ctx context.Context, key string) (storage.KeyType, error) {
	s.read()
	return s.Store.TypeOf(ctx, key)
}

// Delete removes a key from the shard
// Increments delete counter for statistics
func (s *Shard) Delete(ctx context.Context, key string) error {
	atomic.AddUint64(&s.Stats.Ops.Deletes, 1)
	return s.Store.Delete(ctx, key)
}

// ShardFor returns the shard ID that owns key out of numShards
func ShardFor(key string, numShards int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(numShards))
}

// GetStats returns current shard statistics
func (s *Shard) GetStats() ShardStats {
	return ShardStats{
		Ops: OperationStats{
			Reads:   atomic.LoadUint64(&s.Stats.Ops.Reads),
			Writes:  atomic.LoadUint64(&s.Stats.Ops.Writes),
			Deletes: atomic.LoadUint64(&s.Stats.Ops.Deletes),
		},
		Storage: s.Store.Stats(),
	}
}

// Info returns metadata about the shard
func (s *Shard) Info() ShardInfo {
	s.mu.RLock()
	state := s.State
	s.mu.RUnlock()

	stats := s.GetStats()

	return ShardInfo{
		ID:       s.ID,
		State:    state,
		KeyCount: stats.Storage.Keys,
		ByteSize: stats.Storage.Bytes,
		Ops:      stats.Ops,
	}
}

// SetState updates the shard state
func (s *Shard) SetState(state ShardState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = state
}

// GetState returns the shard state
func (s *Shard) GetState() ShardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State
}
