// Package harness provides conformance scenarios for aquaplan projects.
//
// A scenario creates a project, drives it through module runs, reruns and
// base edits against a real engine and an in-memory SQLite store, and checks
// what happened: run status, stale signals, error codes, flags, the balance
// audit and the viability tier.
//
// # Scenario Format
//
//	name: stale_after_sedimentation
//	description: "What this scenario validates"
//	base:
//	  design_flow_Ls: 100.0
//	  raw_turbidity_NTU: 50.0
//	policy:
//	  pretreatment.surface_rate: reject
//	setup:
//	  - run: pretreatment
//	flow:
//	  - run: sedimentation
//	    params: { overflow_rate_m3m2d: 28 }
//	    expect:
//	      status: complete
//	      stale: [filtration, disinfection]
//	  - run: disinfection
//	    expect: { error: E216 }
//	  - rerun: true
//	    expect: { ran: [filtration], stopped_at: disinfection }
//	  - update_base: { population: 40000 }
//	    expect: { stale: [tank, massbalance] }
//	assertions:
//	  - type: module_status
//	    module: tank
//	    status: stale
//	  - type: balance
//	    count: 0
//	  - type: viability
//	    tier: Viable with conditions
//
// # Assertion Types
//
//   - module_status: a module's final status
//   - flag: whether a qualified criterion passed
//   - quantity: a numeric quantity within a tolerance
//   - balance: the number (and optionally kinds) of balance violations
//   - viability: the viability tier
//   - trace_count: how many traced steps match an op and module
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run id, a step clock starting at 1 and a
// fresh database, so traces are byte-identical across runs and can be
// compared with golden files.
package harness
