// Package metrics is an in-process counter and timer registry. Counters
// are keyed by (operation, outcome); timers by name. All methods are safe
// for concurrent use and lock-free on the hot path.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Names used across the service
const (
	OpCreate      = "record.create"
	OpGet         = "record.get"
	OpRetries     = "record.operation.retries"
	TimerCreate   = "record.create.duration"
	TimerGetPath  = "record.get.path.duration"
	TimerRetryAll = "record.create.retry.total.duration"
	OpNodeHealth  = "storage.node.health"
)

type counterKey struct {
	operation string
	outcome   string
}

// Registry holds counters and timers. The zero value is not usable; use
// NewRegistry. A nil *Registry accepts every call and records nothing.
type Registry struct {
	counters sync.Map // counterKey -> *atomic.Uint64
	timers   sync.Map // string -> *Timer
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Inc adds one to the (operation, outcome) counter
func (r *Registry) Inc(operation, outcome string) {
	if r == nil {
		return
	}
	key := counterKey{operation, outcome}
	c, ok := r.counters.Load(key)
	if !ok {
		c, _ = r.counters.LoadOrStore(key, new(atomic.Uint64))
	}
	c.(*atomic.Uint64).Add(1)
}

// Count returns the current value of the (operation, outcome) counter
func (r *Registry) Count(operation, outcome string) uint64 {
	if r == nil {
		return 0
	}
	c, ok := r.counters.Load(counterKey{operation, outcome})
	if !ok {
		return 0
	}
	return c.(*atomic.Uint64).Load()
}

// Timer returns the named timer, creating it on first use
func (r *Registry) Timer(name string) *Timer {
	if r == nil {
		return nil
	}
	t, ok := r.timers.Load(name)
	if !ok {
		nt := &Timer{}
		nt.min.Store(^uint64(0))
		t, _ = r.timers.LoadOrStore(name, nt)
	}
	return t.(*Timer)
}

// Timer accumulates durations. A nil *Timer still runs the timed function.
type Timer struct {
	count atomic.Uint64
	total atomic.Uint64 // nanoseconds
	min   atomic.Uint64
	max   atomic.Uint64
}

// Record adds one observation
func (t *Timer) Record(d time.Duration) {
	if t == nil {
		return
	}
	ns := uint64(d.Nanoseconds()) //nolint:gosec // durations measured here are never negative
	t.count.Add(1)
	t.total.Add(ns)

	for {
		old := t.min.Load()
		if ns >= old || t.min.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := t.max.Load()
		if ns <= old || t.max.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Time runs fn and records how long it took, whatever it returns
func (t *Timer) Time(fn func() error) error {
	start := time.Now()
	err := fn()
	t.Record(time.Since(start))
	return err
}

// TimerSnapshot is a point-in-time view of a timer
type TimerSnapshot struct {
	Count uint64        `json:"count"`
	Total time.Duration `json:"total_ns"`
	Min   time.Duration `json:"min_ns"`
	Max   time.Duration `json:"max_ns"`
	Mean  time.Duration `json:"mean_ns"`
}

// Snapshot returns the timer's current values
func (t *Timer) Snapshot() TimerSnapshot {
	if t == nil {
		return TimerSnapshot{}
	}
	s := TimerSnapshot{
		Count: t.count.Load(),
		Total: time.Duration(t.total.Load()), //nolint:gosec // sum of non-negative durations
		Max:   time.Duration(t.max.Load()),   //nolint:gosec
	}
	if s.Count > 0 {
		s.Min = time.Duration(t.min.Load()) //nolint:gosec
		s.Mean = s.Total / time.Duration(s.Count)
	}
	return s
}

// CounterSnapshot is one counter value
type CounterSnapshot struct {
	Operation string `json:"operation"`
	Outcome   string `json:"outcome"`
	Value     uint64 `json:"value"`
}

// Snapshot is a point-in-time view of the whole registry
type Snapshot struct {
	Counters []CounterSnapshot       `json:"counters"`
	Timers   map[string]TimerSnapshot `json:"timers"`
}

// Snapshot returns all counters, sorted by operation then outcome, and
// all timers
func (r *Registry) Snapshot() Snapshot {
	snap := Snapshot{Timers: make(map[string]TimerSnapshot)}
	if r == nil {
		return snap
	}

	r.counters.Range(func(k, v any) bool {
		key := k.(counterKey)
		snap.Counters = append(snap.Counters, CounterSnapshot{
			Operation: key.operation,
			Outcome:   key.outcome,
			Value:     v.(*atomic.Uint64).Load(),
		})
		return true
	})
	sort.Slice(snap.Counters, func(i, j int) bool {
		a, b := snap.Counters[i], snap.Counters[j]
		if a.Operation != b.Operation {
			return a.Operation < b.Operation
		}
		return a.Outcome < b.Outcome
	})

	r.timers.Range(func(k, v any) bool {
		snap.Timers[k.(string)] = v.(*Timer).Snapshot()
		return true
	})
	return snap
}
