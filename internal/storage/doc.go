// Package storage defines the key-value backend contract that maptree's
// storage strategies write to, an in-memory implementation of it, and the
// connection pool through which callers reach a shared backend.
//
// # Overview
//
// A key holds exactly one kind of value:
//
//	┌──────────┬────────────────────────────┬──────────────────────────┐
//	│ KeyType  │ Writes                     │ Reads                    │
//	├──────────┼────────────────────────────┼──────────────────────────┤
//	│ document │ SetDocument(key, path, b)  │ GetDocument(key, path)   │
//	│ hash     │ HashPutAll(key, fields)    │ HashGet, HashGetAll      │
//	│ list     │ ListPushAll(key, items)    │ ListRange(key, lo, hi)   │
//	└──────────┴────────────────────────────┴──────────────────────────┘
//
// TypeOf reports which one a key holds (TypeNone if absent) and Delete
// removes a key regardless of kind.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│      Strategies / Auditor           │
//	└─────────────────────────────────────┘
//	                 │ Pool.Acquire / Conn.Release
//	                 ▼
//	┌─────────────────────────────────────┐
//	│          Backend interface          │
//	└─────────────────────────────────────┘
//	    ┌────────────┼────────────┐
//	    ▼            ▼            ▼
//	┌────────┐  ┌─────────┐  ┌──────────┐
//	│ Memory │  │  shard  │  │ cluster  │
//	│Backend │  │   Set   │  │ Remote   │
//	└────────┘  └─────────┘  └──────────┘
//
// # Document paths
//
// Documents are addressed with selectors of the form "$", "$.a.b" and
// "$.a[0].b". A selector that resolves to nothing yields ErrNotFound;
// one that doesn't parse yields ErrBadPath.
//
// # Errors
//
// ErrNotFound: key, field, list or document path is absent
//   - Reads map "absent" to this error rather than an empty value
//
// ErrWrongType: the key holds another kind of value
//   - Never retried; the caller's key layout is wrong
//
// ErrPoolClosed: the pool no longer hands out connections
//
// # Concurrency
//
// MemoryBackend guards its map with a sync.RWMutex. Reads take the shared
// lock, writes the exclusive lock, and every value handed out is a copy.
// Multi-key operations are not atomic.
//
// Pool bounds the number of callers using the backend at once. A
// connection is acquired per strategy invocation or audit pass and must
// be released on every exit path:
//
//	conn, err := pool.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer conn.Release()
//
//	err = conn.HashPutAll(ctx, "user:1", map[string]string{"name": "Alice"})
package storage
