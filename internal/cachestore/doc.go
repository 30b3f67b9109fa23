// Package cachestore persists per-video pipeline artifacts keyed by content
// key: the transcript, the summary, and the location of the persisted
// semantic index.
//
// Storage is a single sqlite database in the cache root. A record is written
// once per content key after a successful pipeline run and is never mutated
// in place; Put is an idempotent upsert executed in one statement, so
// concurrent readers observe either no record or a fully-formed one. Read
// failures and corrupt rows are reported as cache misses, never as errors,
// so a damaged cache degrades to recomputation instead of blocking runs.
package cachestore
