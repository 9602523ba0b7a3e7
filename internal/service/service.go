package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/dreamware/maptree/internal/audit"
	"github.com/dreamware/maptree/internal/codec"
	"github.com/dreamware/maptree/internal/metrics"
	"github.com/dreamware/maptree/internal/retry"
	"github.com/dreamware/maptree/internal/storage"
	"github.com/dreamware/maptree/internal/strategy"
)

// ErrBackendUnavailable is returned once every attempt to write a
// document has failed
var ErrBackendUnavailable = errors.New("unable to create record: storage backend unavailable")

// Options configures a Service. Zero fields take defaults.
type Options struct {
	Policy    retry.Policy         // Zero value means retry.DefaultPolicy()
	Metrics   *metrics.Registry    // Nil disables metrics
	Artifacts audit.ArtifactWriter // Nil means audit.Discard
}

// Service turns raw JSON bodies into stored records. Each create call
// parses the body, then writes and audits it as one retried unit.
type Service struct {
	pool      *storage.Pool
	policy    retry.Policy
	metrics   *metrics.Registry
	auditor   *audit.Auditor
	artifacts audit.ArtifactWriter

	document strategy.Strategy
	flatHash strategy.Strategy
	grouped  strategy.Strategy
}

// New creates a service drawing connections from pool
func New(pool *storage.Pool, opts Options) *Service {
	if opts.Policy == (retry.Policy{}) {
		opts.Policy = retry.DefaultPolicy()
	}
	if opts.Artifacts == nil {
		opts.Artifacts = audit.Discard
	}
	return &Service{
		pool:      pool,
		policy:    opts.Policy,
		metrics:   opts.Metrics,
		auditor:   audit.NewAuditor(opts.Metrics),
		artifacts: opts.Artifacts,
		document:  strategy.NewDocument(opts.Metrics),
		flatHash:  strategy.NewFlatHash(opts.Metrics),
		grouped:   strategy.NewGrouped(opts.Metrics),
	}
}

// CreateDocument stores body as one document under key
func (s *Service) CreateDocument(ctx context.Context, key string, body []byte) (strategy.Record, error) {
	return s.create(ctx, s.document, key, body)
}

// CreateFlatHash stores body as one hash of leaf paths under key
func (s *Service) CreateFlatHash(ctx context.Context, key string, body []byte) (strategy.Record, error) {
	return s.create(ctx, s.flatHash, key, body)
}

// CreateGrouped stores body as one hash or list per group under key:<group>
func (s *Service) CreateGrouped(ctx context.Context, key string, body []byte) (strategy.Record, error) {
	return s.create(ctx, s.grouped, key, body)
}

type outcome struct {
	record strategy.Record
	audit  audit.Result
}

func (s *Service) create(ctx context.Context, st strategy.Strategy, key string, body []byte) (strategy.Record, error) {
	doc, err := codec.Parse(body)
	if err != nil {
		s.metrics.Inc(metrics.OpCreate, "malformed")
		return strategy.Record{}, err
	}

	start := time.Now()
	out, err := retry.Do(ctx, s.policy, func(attempt int) (outcome, error) {
		s.metrics.Inc(metrics.OpRetries, strconv.Itoa(attempt))
		return s.attempt(ctx, st, key, doc)
	}, func(last error) error {
		s.metrics.Timer(metrics.TimerRetryAll).Record(time.Since(start))
		s.metrics.Inc(metrics.OpCreate, "failure")
		log.Printf("service[%s]: failed to create %s after all attempts: %v", st.Name(), key, last)
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, last)
	})
	if err != nil {
		return strategy.Record{}, err
	}

	if err := s.artifacts.WriteArtifacts(out.audit); err != nil {
		log.Printf("service[%s]: writing audit artifacts for %s: %v", st.Name(), key, err)
	}
	return out.record, nil
}

// attempt runs one write and its audit on a single pooled connection.
// Cancelling ctx can stop the wait for a connection, but once writes start
// they run to completion.
func (s *Service) attempt(ctx context.Context, st strategy.Strategy, key string, doc codec.Value) (outcome, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrPoolClosed) {
			return outcome{}, retry.Permanent(err)
		}
		return outcome{}, err
	}
	defer conn.Release()

	ctx = context.WithoutCancel(ctx)
	rec, locations, err := st.Write(ctx, conn, key, doc)
	if err != nil {
		if errors.Is(err, storage.ErrWrongType) {
			return outcome{}, retry.Permanent(err)
		}
		return outcome{}, err
	}
	s.metrics.Inc(metrics.OpCreate, "success")
	log.Printf("service[%s]: created %s with %d locations", st.Name(), key, len(locations))

	res := s.auditor.Audit(ctx, conn, st.Probe(key), locations)
	log.Printf("service[%s]: audited %s: %d locations, %d absent", st.Name(), key, res.Total(), len(res.Absent))
	return outcome{record: rec, audit: res}, nil
}
