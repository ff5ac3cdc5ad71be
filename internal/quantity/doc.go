// Package quantity holds the project-scoped record of engineering quantities.
//
// A Store is the explicit, passed-in replacement for ambient shared state
// between design modules. It carries three things for one project:
//   - Quantities: uniquely named typed values (design_flow_Ls, mixing.volume_m3)
//   - Flags: validation results attached to the module that produced them
//   - Module state: completion status and output hash per module
//
// # Ownership
//
// Every quantity records its producer. Base inputs belong to ProducerProject;
// everything else belongs to the module that computed it. Merge refuses to let
// one producer overwrite a name owned by another.
//
// # Units
//
// Quantity names carry their unit as a suffix: _Ls (liters/second), _m, _m2,
// _m3, _s, _NTU, _mgL, _kgd. Fractions and counts carry no suffix.
//
// # Hashing
//
// OutputHash computes a domain-separated SHA-256 over canonical JSON of a set
// of values. The engine compares hashes before and after a run to decide
// whether downstream modules went stale.
package quantity
