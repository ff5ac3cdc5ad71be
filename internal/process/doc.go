// Package process implements the unit-process design calculations.
//
// The set of processes is closed: Compute dispatches on the module id to one
// of pretreatment, mixing, flocculation, sedimentation, filtration,
// disinfection, tank, hydraulics or massbalance. Every calculation is a pure
// function of its input mapping; identical inputs give identical outputs and
// flags.
//
// Two kinds of checks happen here and they are kept apart:
//
//   - Physical limits. A negative flow or a turbidity above the instrument
//     ceiling is nonsense, and Compute returns an OutOfRange InputError instead
//     of clamping.
//   - Design bands. A retention time outside the recommended window is an
//     engineering concern, recorded as a failed quantity.Flag. Computation
//     continues. Policy decides, per criterion, whether a failed flag is only
//     advisory or rejects the run.
//
// Units: flows in L/s, geometry in m, times in s unless the parameter name
// says otherwise (detention_min, contact_min), concentrations in mg/L,
// turbidity in NTU, loading rates in m3/m2/d.
package process
