// Package shard partitions maptree's keyspace over a fixed number of
// in-memory shards and presents them as one storage.Backend.
//
// # Overview
//
// A single logical document written by the Grouped strategy fans out into
// many physical keys ("doc:1:a", "doc:1:e[0]", ...). Set spreads those keys
// over shards so independent documents contend on different locks, while
// every individual key still lives on exactly one shard.
//
//	┌─────────────────────────────────────┐
//	│               Set                   │
//	│   key → fnv32a(key) % N → shard     │
//	└─────────────────────────────────────┘
//	      │          │          │
//	      ▼          ▼          ▼
//	┌─────────┐ ┌─────────┐ ┌─────────┐
//	│ Shard 0 │ │ Shard 1 │ │ Shard N │
//	│ Memory  │ │ Memory  │ │ Memory  │
//	│ Backend │ │ Backend │ │ Backend │
//	└─────────┘ └─────────┘ └─────────┘
//
// # Shard state
//
// ShardStateActive: reads and writes are served
//
// ShardStateDraining: reads are served, writes fail with ErrShardDraining
//
// # Statistics
//
// Each shard counts reads, writes and deletes with atomic counters and
// reports its key count and byte size from the underlying backend. The
// storage node exposes both through its /info endpoint.
package shard
