// Package main implements the maptree storage node: a sharded in-memory
// store served over HTTP for maptree-server instances running with the
// remote backend.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                Node                     │
//	├─────────────────────────────────────────┤
//	│  HTTP API (cluster.NewNodeHandler):     │
//	│    /doc/{key}    - JSON documents       │
//	│    /hash/{key}   - hashes               │
//	│    /list/{key}   - lists                │
//	│    /type/{key}   - key type             │
//	│    /keys/{key}   - delete               │
//	│    /health       - health check         │
//	│    /info         - node and shard stats │
//	│  Admin:                                 │
//	│    /shards/{id}/drain    - refuse writes│
//	│    /shards/{id}/activate - accept writes│
//	├─────────────────────────────────────────┤
//	│  shard.Set: N shards, fnv32a routing    │
//	└─────────────────────────────────────────┘
//
// Configuration:
//   - NODE_ID: Unique node identifier (required)
//   - NODE_LISTEN: Listen address (default: ":8081")
//   - NODE_SHARDS: Number of shards (default: 4)
//
// Example usage:
//
//	NODE_ID=node-1 NODE_LISTEN=:8081 ./node
//	MAPTREE_BACKEND=remote MAPTREE_NODE_ADDR=localhost:8081 ./maptree-server
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/dreamware/maptree/internal/cluster"
	"github.com/dreamware/maptree/internal/shard"
)

// logFatal is a variable to allow mocking log.Fatal in tests
var logFatal = log.Fatalf

// Node is a storage node: an identity plus the shards holding its data
type Node struct {
	ID     string
	Shards *shard.Set
}

// NewNode creates a node with numShards empty shards
func NewNode(id string, numShards int) *Node {
	return &Node{
		ID:     id,
		Shards: shard.NewSet(numShards),
	}
}

// Status reports the node's identity and storage statistics
func (n *Node) Status() cluster.NodeStatus {
	stats := n.Shards.Stats()
	return cluster.NodeStatus{
		Node:   cluster.NodeInfo{ID: n.ID},
		Keys:   stats.Keys,
		Bytes:  stats.Bytes,
		Shards: n.Shards.Info(),
	}
}

// Handler returns the node's HTTP API
func (n *Node) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", cluster.NewNodeHandler(n.Shards, n.Status))
	mux.HandleFunc("POST /shards/{id}/drain", n.handleShardState(shard.ShardStateDraining))
	mux.HandleFunc("POST /shards/{id}/activate", n.handleShardState(shard.ShardStateActive))
	return mux
}

// handleShardState moves one shard to state and replies with its info.
// While a shard drains, writes routed to it get 503 and clients retry.
func (n *Node) handleShardState(state shard.ShardState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "shard id must be an integer", http.StatusBadRequest)
			return
		}
		if err := n.Shards.SetState(id, state); err != nil {
			if errors.Is(err, shard.ErrUnknownShard) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("node[%s] shard %d is now %s", n.ID, id, state)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(n.Shards.Shard(id).Info())
	}
}

func main() {
	nodeID := mustGetenv("NODE_ID")
	listen := getenv("NODE_LISTEN", ":8081")
	numShards, err := strconv.Atoi(getenv("NODE_SHARDS", "4"))
	if err != nil || numShards < 1 {
		logFatal("NODE_SHARDS must be a positive integer, got %q", os.Getenv("NODE_SHARDS"))
		return
	}

	node := NewNode(nodeID, numShards)
	log.Printf("node[%s] initialized with %d shards", nodeID, numShards)

	s := &http.Server{
		Addr:              listen,
		Handler:           node.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("node[%s] listening on %s", nodeID, listen)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Printf("node[%s] stopped", nodeID)
}

// getenv returns the environment variable k, or def if it is unset or empty
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// mustGetenv returns the environment variable k, terminating the process
// if it is unset or empty
func mustGetenv(k string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	logFatal("missing env %s", k)
	return ""
}
