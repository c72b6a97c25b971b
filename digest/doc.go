// Package digest implements the array and record digesters: stateful
// accumulators that turn Arrow data into a stable logical hash.
//
// The digest is a function of logical content only. Representation choices —
// batch boundaries, materialized versus absent validity bitmaps, 32-bit
// versus 64-bit offsets, fixed-size versus variable-size layouts, dictionary
// encoding, view layouts — do not affect it. Reordering rows does: two tables
// with the same rows in a different order hash differently.
//
// Both digesters follow the same lifecycle: construct bound to a type or
// schema, call Update any number of times with data matching the binding,
// then call Finalize exactly once. Any failed operation poisons the digester
// and subsequent calls return the original error.
package digest
