// Package journal provides an append-only SQLite log of everything a
// monitoring session processed.
//
// Each processed engine event becomes one entry: push frames, pull
// results and injected records, with the verdict the engine reached. The
// journal is an audit trail and the input to deterministic replay. The
// live view is never restored from it.
//
// # Ordering
//
//   - Entries are ordered by the session's logical seq, never wall time
//   - All queries use ORDER BY seq ASC, id ASC
//   - recorded_at is kept for display only
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Entries must reference a session
package journal
