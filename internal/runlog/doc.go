// Package runlog provides SQLite-backed durable storage for simulation
// runs.
//
// Each run is stored as one row in the runs table (parameters, final
// state, issues) plus one row per mirror update in the updates table.
// Writes are idempotent on the session token: re-recording a run is a
// no-op, which makes the CLI safe to re-invoke over the same log.
//
// Ordering uses the run's logical seq numbers, never timestamps, so a
// stored trace reads back in exactly the order it executed. Final state
// and issues are serialized with canonical JSON, keeping stored bytes
// stable across re-runs of the same deterministic simulation.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce run/update referential integrity
package runlog
