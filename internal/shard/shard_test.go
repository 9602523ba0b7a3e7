package shard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dreamware/maptree/internal/storage"
)

// TestNewShard tests shard creation
func TestNewShard(t *testing.T) {
	for _, id := range []int{0, 1, 7} {
		t.Run(fmt.Sprintf("shard %d", id), func(t *testing.T) {
			shard := NewShard(id)

			if shard.ID != id {
				t.Errorf("Expected shard ID %d, got %d", id, shard.ID)
			}
			if shard.Store == nil {
				t.Error("Expected store to be initialized")
			}
			if shard.State != ShardStateActive {
				t.Errorf("Expected active state, got %s", shard.State)
			}
		})
	}
}

// TestShardStats tests that operations are counted by class
func TestShardStats(t *testing.T) {
	ctx := context.Background()
	s := NewShard(0)

	s.HashPutAll(ctx, "h", map[string]string{"a": "1"})
	s.ListPushAll(ctx, "l", []string{"x"})
	s.SetDocument(ctx, "d", "$", []byte(`{"k":true}`))
	s.HashGet(ctx, "h", "a")
	s.HashGetAll(ctx, "h")
	s.ListRange(ctx, "l", 0, -1)
	s.GetDocument(ctx, "d", "$.k")
	s.TypeOf(ctx, "h")
	s.Delete(ctx, "l")

	stats := s.GetStats()
	if stats.Ops.Writes != 3 {
		t.Errorf("Expected 3 writes, got %d", stats.Ops.Writes)
	}
	if stats.Ops.Reads != 5 {
		t.Errorf("Expected 5 reads, got %d", stats.Ops.Reads)
	}
	if stats.Ops.Deletes != 1 {
		t.Errorf("Expected 1 delete, got %d", stats.Ops.Deletes)
	}
	if stats.Storage.Keys != 2 {
		t.Errorf("Expected 2 keys, got %d", stats.Storage.Keys)
	}
}

// TestShardFor tests that every key maps to one stable shard in range
func TestShardFor(t *testing.T) {
	numShards := 4
	used := make(map[int]bool)

	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("doc:%d:group.%d", i, i%7)
		id := ShardFor(key, numShards)
		if id < 0 || id >= numShards {
			t.Fatalf("Key %s mapped to shard %d, out of range", key, id)
		}
		if again := ShardFor(key, numShards); again != id {
			t.Errorf("Key %s mapped to %d then %d", key, id, again)
		}
		used[id] = true
	}

	if len(used) != numShards {
		t.Errorf("Expected all %d shards used, got %d", numShards, len(used))
	}
}

// TestShardInfo tests metadata reporting
func TestShardInfo(t *testing.T) {
	ctx := context.Background()
	s := NewShard(3)
	s.HashPutAll(ctx, "h", map[string]string{"ab": "cd"})
	s.SetState(ShardStateDraining)

	info := s.Info()
	want := ShardInfo{
		ID: 3, State: ShardStateDraining, KeyCount: 1, ByteSize: 4,
		Ops: OperationStats{Writes: 1},
	}
	if info != want {
		t.Errorf("Info() = %+v, want %+v", info, want)
	}
}

// TestSetRouting tests that the set behaves like a single backend
func TestSetRouting(t *testing.T) {
	ctx := context.Background()
	set := NewSet(4)

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("rec:%d", i)
		if err := set.HashPutAll(ctx, key, map[string]string{"i": fmt.Sprint(i)}); err != nil {
			t.Fatalf("HashPutAll(%s) failed: %v", key, err)
		}
	}

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("rec:%d", i)
		v, err := set.HashGet(ctx, key, "i")
		if err != nil || v != fmt.Sprint(i) {
			t.Errorf("HashGet(%s) = %q, %v", key, v, err)
		}
		owner := set.For(key)
		if typ, _ := owner.Store.TypeOf(ctx, key); typ != storage.TypeHash {
			t.Errorf("Key %s not stored on its owning shard %d", key, owner.ID)
		}
	}

	total := 0
	for _, info := range set.Info() {
		total += info.KeyCount
	}
	if total != 50 {
		t.Errorf("Expected 50 keys across shards, got %d", total)
	}
	if set.Stats().Keys != 50 {
		t.Errorf("Expected Stats().Keys = 50, got %d", set.Stats().Keys)
	}

	if typ, _ := set.TypeOf(ctx, "rec:7"); typ != storage.TypeHash {
		t.Errorf("TypeOf = %s, want hash", typ)
	}
	if typ, _ := set.TypeOf(ctx, "missing"); typ != storage.TypeNone {
		t.Errorf("TypeOf(missing) = %s, want none", typ)
	}
}

// TestSetDraining tests that draining shards refuse writes but serve reads
func TestSetDraining(t *testing.T) {
	ctx := context.Background()
	set := NewSet(2)

	set.ListPushAll(ctx, "l", []string{"a"})
	id := set.For("l").ID
	if err := set.SetState(id, ShardStateDraining); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}

	if err := set.ListPushAll(ctx, "l", []string{"b"}); !errors.Is(err, ErrShardDraining) {
		t.Errorf("Expected ErrShardDraining, got %v", err)
	}
	items, err := set.ListRange(ctx, "l", 0, -1)
	if err != nil || len(items) != 1 {
		t.Errorf("Reads should still work on draining shard: %v, %v", items, err)
	}

	if err := set.SetState(id, ShardStateActive); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if err := set.ListPushAll(ctx, "l", []string{"b"}); err != nil {
		t.Errorf("Expected writes after reactivation, got %v", err)
	}

	if err := set.SetState(99, ShardStateDraining); !errors.Is(err, ErrUnknownShard) {
		t.Errorf("Expected ErrUnknownShard, got %v", err)
	}
	if err := set.SetState(0, "bogus"); err == nil {
		t.Error("Expected an error for an invalid state")
	}
}

// TestSetConcurrency tests concurrent access through the set
func TestSetConcurrency(t *testing.T) {
	ctx := context.Background()
	set := NewSet(8)

	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("k:%d:%d", id, j)
				set.ListPushAll(ctx, key, []string{"v"})
				set.ListRange(ctx, key, 0, -1)
			}
		}(g)
	}
	wg.Wait()

	if set.Stats().Keys != 20*50 {
		t.Errorf("Expected %d keys, got %d", 20*50, set.Stats().Keys)
	}
}
