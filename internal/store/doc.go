// Package store provides a SQLite journal of evaluation runs.
//
// A run groups the samples scored in one pass over a dataset. Each sample
// row keeps the case, its outcome and, when the query parsed, the canonical
// rendering and fingerprint of its tree. Summaries and distinct-tree counts
// are aggregated in SQL.
//
// # Ordering
//
// Samples are keyed by (run_id, seq) and every query orders by seq. Runs
// are listed in insertion order. Timestamps are informational only.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
