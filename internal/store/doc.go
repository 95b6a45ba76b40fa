// Package store persists the host module image in SQLite so incremental
// builds see the generated types and build-cache markers of earlier runs.
//
// The image holds:
//   - types: every top-level type as a JSON ir.TypeRecord with its
//     canonical fingerprint
//   - attributes: module-level custom attributes, in module order
//   - builds and build_assets: a history of build runs and per-file
//     outcomes
//
// A save replaces the whole image in one transaction; a crash never
// leaves a half-written module behind.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
