// Package engine runs design modules for water treatment projects.
//
// The engine is the heart of aquaplan - it loads a project's quantities,
// checks readiness, computes a module, enforces the criterion policy and
// persists the result together with the stale marks it causes.
//
// ARCHITECTURE:
//
// Per-Project Exclusive Section:
// Every operation on a project runs under that project's lock. Different
// projects never wait on each other.
// - A module never reads a half-written store
// - Stale marks are saved in the same write as the result that caused them
// - Status, Balance and Viability see a consistent snapshot
//
// Run Flow:
// 1. Load base inputs and module quantities
// 2. Resolver checks inputs and must-pass criteria
// 3. Parameters resolve as form, then stored, then default
// 4. The module's calculation runs on an explicit input map
// 5. Outputs are checked against the descriptor, then the policy
// 6. Result, flags, state and downstream stale marks are saved together
//
// Caller errors (missing input, blocked, out of range, rejected criterion)
// write nothing.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Each project's module states carry a monotonic seq from Clock.Next(),
// resumed after the highest stored seq. Wall-clock time is never used for
// ordering.
//
// Deterministic Order:
// Stale lists, Status and Rerun follow the registry's topological order
// with declaration-order ties.
package engine
