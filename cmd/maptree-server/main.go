// Package main implements maptree-server, the HTTP front end that accepts
// JSON documents, writes them with one of three storage strategies and
// audits every write.
//
// Endpoints:
//
//	POST /v1/api/create/{key}   document strategy     201 {"key": key}
//	POST /v1/api/map/{key}      flat hash strategy    201 {"key": key}
//	POST /v1/api/tree/{key}     grouped strategy      201 {"key": key}
//	GET  /health                backend health
//	GET  /metrics               counters, timers, pool usage
//
// A body that is not valid JSON gets 400. A write that still fails after
// every retry gets 503.
//
// Configuration comes from the YAML file named by MAPTREE_CONFIG (optional)
// and MAPTREE_* variables; see internal/config.
//
// Example usage:
//
//	MAPTREE_LISTEN=:8080 MAPTREE_AUDIT_DIR=/tmp/maptree ./maptree-server
//	curl -X POST localhost:8080/v1/api/tree/order-1 -d @order.json
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dreamware/maptree/internal/cluster"
	"github.com/dreamware/maptree/internal/config"
	"github.com/dreamware/maptree/internal/shard"
	"github.com/dreamware/maptree/internal/storage"
)

// logFatal is a variable to allow mocking log.Fatal in tests
var logFatal = log.Fatalf

func main() {
	cfg, err := config.Load(getenv("MAPTREE_CONFIG", ""), os.Getenv)
	if err != nil {
		logFatal("config: %v", err)
		return
	}

	backend, err := openBackend(cfg)
	if err != nil {
		logFatal("backend: %v", err)
		return
	}
	srv := newServer(cfg, backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.start(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("maptree-server listening on %s (backend %s)", cfg.Listen, cfg.Backend)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	cancel()
	srv.close()
	log.Println("maptree-server stopped")
}

// openBackend builds the storage backend named by cfg.Backend
func openBackend(cfg config.Config) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		log.Printf("using in-memory backend with %d shards", cfg.Shards)
		return shard.NewSet(cfg.Shards), nil
	case config.BackendRemote:
		log.Printf("using storage node at %s", cfg.NodeAddr)
		return cluster.NewRemoteBackend(cfg.NodeAddr), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
