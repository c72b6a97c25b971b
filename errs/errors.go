// Package errs defines the sentinel errors returned by the arrowhash digesters.
//
// All errors are fatal at the operation boundary: once a digester returns one
// of these errors it is poisoned, and every subsequent operation fails with
// the original error. Callers match errors with errors.Is; call sites wrap the
// sentinels with fmt.Errorf("%w: ...") to attach context.
package errs

import "errors"

var (
	// ErrTypeMismatch indicates Update received an array whose logical type
	// differs from the type the digester was constructed with.
	ErrTypeMismatch = errors.New("array type does not match digester type")

	// ErrSchemaMismatch indicates Update received a record whose schema
	// differs from the schema the digester was constructed with.
	ErrSchemaMismatch = errors.New("record schema does not match digester schema")

	// ErrUnsupportedType indicates a schema contains a logical type the
	// hashing protocol does not cover (union, map, run-end encoded,
	// list-view and extension types).
	ErrUnsupportedType = errors.New("unsupported logical type")

	// ErrFinalized indicates Update or Finalize was called on a digester
	// that has already been finalized.
	ErrFinalized = errors.New("digester already finalized")

	// ErrInvalidArrayLayout indicates an Arrow array violates its own layout
	// invariants, such as a child array shorter than its parent requires.
	ErrInvalidArrayLayout = errors.New("invalid array layout")
)
