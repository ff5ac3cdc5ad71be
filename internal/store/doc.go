// Package store persists projects for the design engine.
//
// A project is a name, a set of base inputs, and everything modules have
// produced for it: quantities (outputs and form parameters), validation
// flags, and per-module state. Two implementations satisfy the engine's
// persistence boundary:
//
//   - SQLite (Open) for the CLI and real deployments
//   - Memory (NewMemory) for tests and embedding
//
// # Conventions
//
// Values are stored as canonical JSON tagged with their kind, so a float
// that happens to be integral is read back as a float.
//
// Ordering uses seq (a logical clock) and binary-collated names, never wall
// time, so listings and traces are reproducible.
//
// SaveModuleResult replaces a module's quantities and flags and records the
// stale marks it caused in one transaction. A reader never sees outputs
// without their flags or state.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: deleting a project cascades to its rows
package store
