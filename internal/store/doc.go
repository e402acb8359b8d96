// Package store provides SQLite-backed durable storage for morph runs.
//
// The store is an append-only log with:
//   - Runs: one row per eval or check invocation of the tool
//   - Evaluations: one row per pipeline application
//   - Checks: one row per law observed on one sample
//
// Ordering uses seq INTEGER from the engine's logical clock, never
// timestamps. Every list query orders by seq ASC, id ASC COLLATE BINARY so
// that two reads of the same log agree.
//
// Values are stored as canonical JSON (internal/ir.MarshalCanonical), and
// record IDs are content hashes from internal/ir/hash.go. Writes use
// ON CONFLICT DO NOTHING, so writing the same record twice is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
