package cluster

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// Health states reported by HealthMonitor
const (
	StatusUnknown   = "unknown"
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// NodeHealth tracks the health of one storage node
type NodeHealth struct {
	LastCheck        time.Time `json:"last_check"`
	LastHealthy      time.Time `json:"last_healthy"`
	NodeID           string    `json:"node_id"`
	Status           string    `json:"status"`
	ConsecutiveFails int       `json:"consecutive_fails"`
}

// CheckFunc checks one node. A nil error means healthy.
type CheckFunc func(ctx context.Context, node NodeInfo) error

// HealthMonitor periodically checks the storage nodes a server depends on.
// A node becomes unhealthy after maxFailures consecutive failed checks and
// healthy again on the next success.
type HealthMonitor struct {
	nodes       map[string]*NodeHealth
	checkFunc   CheckFunc
	onUnhealthy func(nodeID string)
	interval    time.Duration
	timeout     time.Duration
	maxFailures int
	mu          sync.RWMutex
	wg          sync.WaitGroup
}

// NewHealthMonitor creates a monitor that checks every interval and marks
// nodes unhealthy after 3 consecutive failures
func NewHealthMonitor(interval time.Duration) *HealthMonitor {
	return &HealthMonitor{
		nodes:       make(map[string]*NodeHealth),
		checkFunc:   CheckHTTP,
		interval:    interval,
		timeout:     2 * time.Second,
		maxFailures: 3,
	}
}

// SetCheckFunction replaces the default GET /health check
func (h *HealthMonitor) SetCheckFunction(fn CheckFunc) {
	h.checkFunc = fn
}

// SetOnUnhealthy registers a callback run (in its own goroutine) when a
// node turns unhealthy
func (h *HealthMonitor) SetOnUnhealthy(fn func(nodeID string)) {
	h.onUnhealthy = fn
}

// Start checks the nodes returned by nodes immediately and then every
// interval, until ctx is done. It returns at once; Wait blocks until the
// loop has stopped.
func (h *HealthMonitor) Start(ctx context.Context, nodes func() []NodeInfo) {
	h.wg.Add(1)
	go h.run(ctx, nodes)
}

func (h *HealthMonitor) run(ctx context.Context, nodes func() []NodeInfo) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	log.Printf("health: monitor started, interval %v", h.interval)
	h.CheckAll(ctx, nodes())

	for {
		select {
		case <-ticker.C:
			h.CheckAll(ctx, nodes())
		case <-ctx.Done():
			log.Println("health: monitor stopped")
			return
		}
	}
}

// Wait blocks until the loop launched by Start has stopped
func (h *HealthMonitor) Wait() {
	h.wg.Wait()
}

// CheckAll checks every node once and forgets nodes no longer listed
func (h *HealthMonitor) CheckAll(ctx context.Context, nodes []NodeInfo) {
	current := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		current[node.ID] = true
		h.checkNode(ctx, node)
	}

	h.mu.Lock()
	for id := range h.nodes {
		if !current[id] {
			delete(h.nodes, id)
			log.Printf("health: stopped tracking node %s", id)
		}
	}
	h.mu.Unlock()
}

func (h *HealthMonitor) checkNode(ctx context.Context, node NodeInfo) {
	h.mu.Lock()
	health, exists := h.nodes[node.ID]
	if !exists {
		now := time.Now()
		health = &NodeHealth{NodeID: node.ID, Status: StatusUnknown, LastCheck: now, LastHealthy: now}
		h.nodes[node.ID] = health
	}
	h.mu.Unlock()

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	err := h.checkFunc(checkCtx, node)
	cancel()

	h.mu.Lock()
	defer h.mu.Unlock()
	health.LastCheck = time.Now()

	if err != nil {
		health.ConsecutiveFails++
		log.Printf("health: check of node %s failed (%d/%d): %v", node.ID, health.ConsecutiveFails, h.maxFailures, err)
		if health.ConsecutiveFails >= h.maxFailures && health.Status != StatusUnhealthy {
			health.Status = StatusUnhealthy
			log.Printf("health: node %s marked unhealthy", node.ID)
			if h.onUnhealthy != nil {
				go h.onUnhealthy(node.ID)
			}
		}
		return
	}

	if health.Status == StatusUnhealthy {
		log.Printf("health: node %s recovered", node.ID)
	}
	health.Status = StatusHealthy
	health.ConsecutiveFails = 0
	health.LastHealthy = health.LastCheck
}

// CheckHTTP is the default check: GET <addr>/health must return 200
func CheckHTTP(ctx context.Context, node NodeInfo) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, BaseURL(node.Addr)+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// NodeHealth returns a copy of one node's health, nil if not tracked
func (h *HealthMonitor) NodeHealth(nodeID string) *NodeHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	health, exists := h.nodes[nodeID]
	if !exists {
		return nil
	}
	cp := *health
	return &cp
}

// AllNodeHealth returns a copy of every tracked node's health
func (h *HealthMonitor) AllNodeHealth() map[string]NodeHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]NodeHealth, len(h.nodes))
	for id, health := range h.nodes {
		out[id] = *health
	}
	return out
}

// IsHealthy reports whether nodeID passed its most recent checks
func (h *HealthMonitor) IsHealthy(nodeID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	health, exists := h.nodes[nodeID]
	return exists && health.Status == StatusHealthy
}
