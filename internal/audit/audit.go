package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dreamware/maptree/internal/codec"
	"github.com/dreamware/maptree/internal/metrics"
	"github.com/dreamware/maptree/internal/storage"
)

// Kind classifies what a location read back as
type Kind string

const (
	KindNull   Kind = "null"
	KindString Kind = "string"
	KindObject Kind = "object"
	KindArray  Kind = "array"
	KindHash   Kind = "hash"
	KindList   Kind = "list"
)

// Kinds lists every Kind in reporting order
var Kinds = []Kind{KindNull, KindString, KindObject, KindArray, KindHash, KindList}

// Probe reads one produced location back and classifies it. Returning
// storage.ErrNotFound means the location is absent.
type Probe interface {
	Read(ctx context.Context, b storage.Backend, location string) (Kind, error)
}

// ProbeFunc adapts a function to Probe
type ProbeFunc func(ctx context.Context, b storage.Backend, location string) (Kind, error)

// Read calls f
func (f ProbeFunc) Read(ctx context.Context, b storage.Backend, location string) (Kind, error) {
	return f(ctx, b, location)
}

// DocumentProbe reads leaf paths of the document stored under key
func DocumentProbe(key string) Probe {
	return ProbeFunc(func(ctx context.Context, b storage.Backend, location string) (Kind, error) {
		raw, err := b.GetDocument(ctx, key, codec.Selector(location))
		if err != nil {
			return KindNull, err
		}
		return classifyJSON(raw), nil
	})
}

// HashFieldProbe reads fields of the hash stored under key
func HashFieldProbe(key string) Probe {
	return ProbeFunc(func(ctx context.Context, b storage.Backend, location string) (Kind, error) {
		if _, err := b.HashGet(ctx, key, location); err != nil {
			return KindNull, err
		}
		return KindString, nil
	})
}

// TypedKeyProbe treats each location as a whole key and reads it with the
// accessor matching the type the backend reports for it
func TypedKeyProbe() Probe {
	return ProbeFunc(func(ctx context.Context, b storage.Backend, location string) (Kind, error) {
		typ, err := b.TypeOf(ctx, location)
		if err != nil {
			return KindNull, err
		}
		switch typ {
		case storage.TypeHash:
			if _, err := b.HashGetAll(ctx, location); err != nil {
				return KindNull, err
			}
			return KindHash, nil
		case storage.TypeList:
			if _, err := b.ListRange(ctx, location, 0, -1); err != nil {
				return KindNull, err
			}
			return KindList, nil
		case storage.TypeNone:
			return KindNull, storage.ErrNotFound
		default:
			return KindNull, fmt.Errorf("%w: %s holds a %s", storage.ErrWrongType, location, typ)
		}
	})
}

func classifyJSON(raw []byte) Kind {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return KindNull
	case raw[0] == '{':
		return KindObject
	case raw[0] == '[':
		return KindArray
	}
	return KindString
}

// Result is the outcome of one audit pass
type Result struct {
	Locations []string     // Every location audited, in order
	Absent    []string     // Locations that read back null or missing
	Counts    map[Kind]int // Locations per kind
}

// Count returns how many locations read back as k
func (r Result) Count(k Kind) int { return r.Counts[k] }

// Total returns the sum of all kind counts. It always equals
// len(r.Locations).
func (r Result) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}

// Auditor re-reads produced locations. It never writes and never retries.
type Auditor struct {
	metrics *metrics.Registry
}

// NewAuditor creates an auditor reporting to m (nil disables metrics)
func NewAuditor(m *metrics.Registry) *Auditor {
	return &Auditor{metrics: m}
}

// Audit reads every location through probe. A read error is logged and
// the location counted as absent; it never aborts the pass.
func (a *Auditor) Audit(ctx context.Context, b storage.Backend, probe Probe, locations []string) Result {
	res := Result{
		Locations: append([]string(nil), locations...),
		Counts:    make(map[Kind]int, len(Kinds)),
	}
	timer := a.metrics.Timer(metrics.TimerGetPath)

	for _, loc := range locations {
		start := time.Now()
		kind, err := probe.Read(ctx, b, loc)
		timer.Record(time.Since(start))

		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				log.Printf("audit: read of %q failed: %v", loc, err)
			}
			kind = KindNull
		}
		if kind == KindNull {
			res.Absent = append(res.Absent, loc)
		}
		res.Counts[kind]++
		a.metrics.Inc(metrics.OpGet, string(kind))
	}
	return res
}
