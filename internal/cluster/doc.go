// Package cluster connects a maptree server to a storage node over
// HTTP/JSON.
//
// # Overview
//
// In remote mode the server does not hold any data itself. Every backend
// call made by a strategy or by the auditor becomes one HTTP request to a
// storage node, which serves a sharded in-memory store:
//
//	┌───────────────────┐   storage.Backend   ┌───────────────────┐
//	│  maptree-server   │ ──────────────────▶ │    storage node   │
//	│                   │     HTTP / JSON     │                   │
//	│  RemoteBackend    │                     │  NewNodeHandler   │
//	│  HealthMonitor    │ ── GET /health ───▶ │  shard.Set        │
//	└───────────────────┘                     └───────────────────┘
//
// # Wire protocol
//
//	PUT    /doc/{key}?path=$.a      raw JSON body       204
//	GET    /doc/{key}?path=$.a      -                   200 raw JSON
//	PUT    /hash/{key}              {"fields":{...}}    204
//	GET    /hash/{key}              -                   200 {"fields":{...}}
//	GET    /hash/{key}?field=f      -                   200 {"value":"..."}
//	POST   /list/{key}              {"items":[...]}     204
//	GET    /list/{key}?start=&end=  -                   200 {"items":[...]}
//	GET    /type/{key}              -                   200 {"type":"hash"}
//	DELETE /keys/{key}              -                   204
//	GET    /health                  -                   200
//	GET    /info                    -                   200 NodeStatus
//
// Keys are path-escaped. Errors come back as {"error": "..."} with
//
//	404  storage.ErrNotFound
//	409  storage.ErrWrongType
//	400  storage.ErrBadPath, malformed document or query
//	503  shard draining
//
// and RemoteBackend turns them back into a *StatusError that unwraps to
// the matching storage sentinel, so callers can use errors.Is the same
// way they would against an in-process backend.
//
// # Health monitoring
//
// HealthMonitor polls GET /health on each node it is given. Three
// consecutive failures mark a node unhealthy; the next success marks it
// healthy again. The server reports the result on its own /health.
package cluster
