// Package store provides SQLite-backed durable storage for the call journal.
//
// Every NetCall an explorer session executes is appended with its logical
// sequence number, request and response. The journal never stores the
// compiled component graph: replay recompiles each recorded body.
//
// # Ordering
//
// All ordering uses seq (the engine's logical clock), never timestamps.
// Queries order by seq ASC, id ASC COLLATE BINARY so results are identical
// across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Call ids are computed by model.CallID using canonical JSON and SHA-256
// with domain separation.
package store
