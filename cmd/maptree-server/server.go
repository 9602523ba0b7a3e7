package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/goccy/go-json"
	"golang.org/x/exp/slices"

	"github.com/dreamware/maptree/internal/audit"
	"github.com/dreamware/maptree/internal/cluster"
	"github.com/dreamware/maptree/internal/codec"
	"github.com/dreamware/maptree/internal/config"
	"github.com/dreamware/maptree/internal/metrics"
	"github.com/dreamware/maptree/internal/service"
	"github.com/dreamware/maptree/internal/storage"
	"github.com/dreamware/maptree/internal/strategy"
)

// maxBodyBytes caps accepted documents
const maxBodyBytes = 16 << 20

// storageNodeID names the single storage node in remote mode
const storageNodeID = "storage"

type createFunc func(ctx context.Context, key string, body []byte) (strategy.Record, error)

type server struct {
	cfg     config.Config
	pool    *storage.Pool
	metrics *metrics.Registry
	svc     *service.Service
	remote  *cluster.RemoteBackend // nil unless the backend is remote
	monitor *cluster.HealthMonitor // nil unless the backend is remote
}

func newServer(cfg config.Config, backend storage.Backend) *server {
	reg := metrics.NewRegistry()
	pool := storage.NewPool(backend, cfg.PoolSize)

	s := &server{
		cfg:     cfg,
		pool:    pool,
		metrics: reg,
		svc: service.New(pool, service.Options{
			Policy:    cfg.RetryPolicy(),
			Metrics:   reg,
			Artifacts: audit.NewFileArtifacts(cfg.AuditDir),
		}),
	}
	if rb, ok := backend.(*cluster.RemoteBackend); ok {
		s.remote = rb
		s.monitor = cluster.NewHealthMonitor(cfg.HealthInterval)
		s.monitor.SetOnUnhealthy(func(nodeID string) {
			reg.Inc(metrics.OpNodeHealth, cluster.StatusUnhealthy)
			log.Printf("storage node %s (%s) is unhealthy; creates will fail until it recovers", nodeID, rb.Addr())
		})
	}
	return s
}

// start launches background work. It returns immediately.
func (s *server) start(ctx context.Context) {
	if s.monitor != nil {
		s.monitor.Start(ctx, s.storageNodes)
	}
}

func (s *server) close() {
	if s.monitor != nil {
		s.monitor.Wait()
	}
	s.pool.Close()
}

func (s *server) storageNodes() []cluster.NodeInfo {
	return []cluster.NodeInfo{{ID: storageNodeID, Addr: s.remote.Addr()}}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/api/create/{key}", s.handleCreate("document", s.svc.CreateDocument))
	mux.HandleFunc("POST /v1/api/map/{key}", s.handleCreate("map", s.svc.CreateFlatHash))
	mux.HandleFunc("POST /v1/api/tree/{key}", s.handleCreate("tree", s.svc.CreateGrouped))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	return mux
}

type createResponse struct {
	Key string `json:"key"`
}

func (s *server) handleCreate(kind string, create createFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		rec, err := create(r.Context(), key, body)
		switch {
		case err == nil:
		case errors.Is(err, codec.ErrMalformedJSON):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, service.ErrBackendUnavailable):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		default:
			log.Printf("create %s %s: %v", kind, key, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		log.Printf("created %s record %s", kind, rec.ID)
		writeJSON(w, http.StatusCreated, createResponse{Key: rec.ID})
	}
}

type healthResponse struct {
	Status  string               `json:"status"`
	Backend string               `json:"backend"`
	Nodes   []cluster.NodeHealth `json:"nodes,omitempty"`
	Storage *cluster.NodeStatus  `json:"storage,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: cluster.StatusHealthy, Backend: s.cfg.Backend}
	if s.monitor == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	all := s.monitor.AllNodeHealth()
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		resp.Nodes = append(resp.Nodes, all[id])
	}

	status := http.StatusOK
	if !s.monitor.IsHealthy(storageNodeID) {
		resp.Status = cluster.StatusUnhealthy
		status = http.StatusServiceUnavailable
		writeJSON(w, status, resp)
		return
	}

	st, err := s.remote.Status(r.Context())
	if err != nil {
		log.Printf("health: storage node status: %v", err)
	} else {
		resp.Storage = &st
	}
	writeJSON(w, status, resp)
}

type metricsResponse struct {
	Metrics metrics.Snapshot  `json:"metrics"`
	Pool    storage.PoolStats `json:"pool"`
}

func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metricsResponse{
		Metrics: s.metrics.Snapshot(),
		Pool:    s.pool.Stats(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
