// Package service is maptree's command surface: one create call per
// storage strategy.
//
// # Call flow
//
//	body ──Parse──▶ codec.Value ──┐
//	   (malformed: fail, no retry) │
//	                               ▼
//	        ┌───────── retry.Do ─────────────────┐
//	        │ Acquire conn                       │
//	        │ Strategy.Write  ─▶ locations       │
//	        │ Auditor.Audit   ─▶ audit.Result    │
//	        │ Release conn                       │
//	        └────────────────────────────────────┘
//	                               │
//	                               ▼
//	                ArtifactWriter.WriteArtifacts
//
// The write and its audit form the retried unit, so a transient backend
// failure in either repeats both. Once attempts are exhausted the call
// fails with an error wrapping ErrBackendUnavailable. A key holding the
// wrong kind of value fails the same way without further attempts.
//
// # Metrics
//
//	record.operation.retries{attempt}      one per attempt
//	record.create{success|failure|malformed}
//	record.create.retry.total.duration     time spent before giving up
//
// Strategy write timings and audit read counts are recorded by the
// strategy and audit packages.
package service
