package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/maptree/internal/audit"
	"github.com/dreamware/maptree/internal/cluster"
	"github.com/dreamware/maptree/internal/config"
	"github.com/dreamware/maptree/internal/metrics"
	"github.com/dreamware/maptree/internal/shard"
	"github.com/dreamware/maptree/internal/storage"
)

const sample = `{"a":{"b":1,"c":null},"d":[1,2,3],"e":[{"f":1},{"f":2}]}`

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.AuditDir = t.TempDir()
	cfg.Retry.Attempts = 2
	cfg.Retry.Backoff = time.Millisecond
	return cfg
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestHandleCreate tests the three create endpoints
func TestHandleCreate(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantKey   string
		wantAudit []string
		check     func(t *testing.T, set *shard.Set)
	}{
		{
			name:      "document",
			path:      "/v1/api/create/doc-1",
			wantKey:   "doc-1",
			wantAudit: []string{"a.b", "a.c", "d[0]", "d[1]", "d[2]", "e[0].f", "e[1].f"},
			check: func(t *testing.T, set *shard.Set) {
				typ, _ := set.TypeOf(context.Background(), "doc-1")
				assert.Equal(t, storage.TypeDocument, typ)
			},
		},
		{
			name:      "flat hash",
			path:      "/v1/api/map/map-1",
			wantKey:   "map-1",
			wantAudit: []string{"a.b", "a.c", "d[0]", "d[1]", "d[2]", "e[0].f", "e[1].f"},
			check: func(t *testing.T, set *shard.Set) {
				v, err := set.HashGet(context.Background(), "map-1", "a.c")
				require.NoError(t, err)
				assert.Equal(t, "__null__", v)
			},
		},
		{
			name:      "grouped",
			path:      "/v1/api/tree/tree-1",
			wantKey:   "tree-1",
			wantAudit: []string{"tree-1:a", "tree-1:d", "tree-1:e[0]", "tree-1:e[1]"},
			check: func(t *testing.T, set *shard.Set) {
				items, err := set.ListRange(context.Background(), "tree-1:d", 0, -1)
				require.NoError(t, err)
				assert.Equal(t, []string{"1", "2", "3"}, items)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			set := shard.NewSet(4)
			srv := newServer(cfg, set)

			rec := post(t, srv.routes(), tt.path, sample)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

			var resp createResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantKey, resp.Key)

			out, err := os.ReadFile(filepath.Join(cfg.AuditDir, audit.OutputFile))
			require.NoError(t, err)
			assert.Equal(t, strings.Join(tt.wantAudit, "\n")+"\n", string(out))

			tt.check(t, set)
		})
	}
}

// TestHandleCreateErrors tests status codes for bad requests
func TestHandleCreateErrors(t *testing.T) {
	srv := newServer(testConfig(t), shard.NewSet(1))
	h := srv.routes()

	rec := post(t, h, "/v1/api/create/k", `{"a":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, h, "/v1/api/tree/k", `{"a":1} trailing`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/api/map/k", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	assert.Equal(t, uint64(2), srv.metrics.Count(metrics.OpCreate, "malformed"))
}

// downBackend fails every call
type downBackend struct{ storage.Backend }

var errDown = errors.New("dial tcp: connection refused")

func (downBackend) SetDocument(context.Context, string, string, []byte) error { return errDown }
func (downBackend) HashPutAll(context.Context, string, map[string]string) error {
	return errDown
}
func (downBackend) ListPushAll(context.Context, string, []string) error { return errDown }
func (downBackend) Delete(context.Context, string) error                { return errDown }

// TestHandleCreateBackendDown tests 503 after retries are exhausted
func TestHandleCreateBackendDown(t *testing.T) {
	srv := newServer(testConfig(t), downBackend{})
	h := srv.routes()

	for _, path := range []string{"/v1/api/create/k", "/v1/api/map/k", "/v1/api/tree/k"} {
		rec := post(t, h, path, sample)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}

	assert.Equal(t, uint64(3), srv.metrics.Count(metrics.OpCreate, "failure"))
	assert.Equal(t, uint64(3), srv.metrics.Count(metrics.OpRetries, "2"))
}

// TestHandleMetrics tests the metrics snapshot
func TestHandleMetrics(t *testing.T) {
	srv := newServer(testConfig(t), shard.NewSet(2))
	h := srv.routes()
	require.Equal(t, http.StatusCreated, post(t, h, "/v1/api/map/m", sample).Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp metricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 8, resp.Pool.Size)
	assert.Equal(t, uint64(1), resp.Pool.Acquires)
	assert.Contains(t, resp.Metrics.Counters, metrics.CounterSnapshot{Operation: metrics.OpCreate, Outcome: "success", Value: 1})
	assert.Equal(t, uint64(7), resp.Metrics.Timers[metrics.TimerGetPath].Count)
}

// TestHandleHealth tests health in memory and remote modes
func TestHandleHealth(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		srv := newServer(testConfig(t), shard.NewSet(1))
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("remote", func(t *testing.T) {
		set := shard.NewSet(2)
		nodeHandler := cluster.NewNodeHandler(set, func() cluster.NodeStatus {
			return cluster.NodeStatus{Node: cluster.NodeInfo{ID: "n1"}, Shards: set.Info()}
		})
		var up atomic.Bool
		up.Store(true)
		node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if up.Load() {
				nodeHandler.ServeHTTP(w, r)
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer node.Close()

		cfg := testConfig(t)
		cfg.Backend = config.BackendRemote
		cfg.NodeAddr = node.URL
		srv := newServer(cfg, cluster.NewRemoteBackend(node.URL))
		h := srv.routes()

		get := func() (int, healthResponse) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			var resp healthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			return rec.Code, resp
		}

		code, _ := get()
		assert.Equal(t, http.StatusServiceUnavailable, code, "unknown before the first check")

		srv.monitor.CheckAll(context.Background(), srv.storageNodes())
		code, resp := get()
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, resp.Nodes, 1)
		assert.Equal(t, storageNodeID, resp.Nodes[0].NodeID)
		require.NotNil(t, resp.Storage, "healthy report includes node status")
		assert.Equal(t, "n1", resp.Storage.Node.ID)
		assert.Len(t, resp.Storage.Shards, 2)

		up.Store(false)
		for i := 0; i < 3; i++ {
			srv.monitor.CheckAll(context.Background(), srv.storageNodes())
		}
		code, resp = get()
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, cluster.StatusUnhealthy, resp.Status)
		assert.Nil(t, resp.Storage)

		require.Eventually(t, func() bool {
			return srv.metrics.Count(metrics.OpNodeHealth, cluster.StatusUnhealthy) == 1
		}, time.Second, 5*time.Millisecond, "unhealthy transition is counted")
	})
}

// TestServerStartClose verifies the monitor loop stops on close
func TestServerStartClose(t *testing.T) {
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer node.Close()

	cfg := testConfig(t)
	cfg.Backend = config.BackendRemote
	cfg.NodeAddr = node.URL
	srv := newServer(cfg, cluster.NewRemoteBackend(node.URL))

	ctx, cancel := context.WithCancel(context.Background())
	srv.start(ctx)
	cancel()
	srv.close()

	assert.NotNil(t, srv.monitor.NodeHealth(storageNodeID), "first check ran before the loop stopped")
}

// TestOpenBackend tests backend selection
func TestOpenBackend(t *testing.T) {
	cfg := config.Default()
	b, err := openBackend(cfg)
	require.NoError(t, err)
	assert.IsType(t, &shard.Set{}, b)

	cfg.Backend = config.BackendRemote
	cfg.NodeAddr = "localhost:8081"
	b, err = openBackend(cfg)
	require.NoError(t, err)
	assert.IsType(t, &cluster.RemoteBackend{}, b)

	cfg.Backend = "bogus"
	_, err = openBackend(cfg)
	assert.Error(t, err)
}
