package digest

import (
	"fmt"
	"hash"

	"github.com/apache/arrow-go/v18/arrow"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/arrowhash/encoding"
	"github.com/arloliu/arrowhash/endian"
	"github.com/arloliu/arrowhash/errs"
	"github.com/arloliu/arrowhash/schema"
)

// RecordDigester computes the logical digest of a record batch sequence.
//
// At construction it feeds the canonical schema encoding into a top-level
// hasher and allocates one accumulator per leaf column. Each Update routes
// the batch's columns into the leaf accumulators; Finalize folds the leaf
// digests into the top-level hasher in schema traversal order and returns its
// digest. Because the leaf streams carry no per-batch framing, any
// row-contiguous partition of the same rows digests identically.
//
// Note: The RecordDigester is NOT thread-safe and is not reusable after
// Finalize. With WithParallelism, leaf columns of one Update call may be
// processed concurrently; the external contract is unchanged.
type RecordDigester struct {
	bound  *arrow.Schema
	cfg    *config
	top    hash.Hash
	leaves []schema.Leaf
	cols   []*encoding.HashWriter

	err       error
	finalized bool
}

// NewRecordDigester creates a RecordDigester bound to the given schema.
//
// Parameters:
//   - s: Schema every Update call must match
//   - opts: Optional settings (inner hash family, parallelism)
//
// Returns:
//   - *RecordDigester: Digester in the Open state
//   - error: errs.ErrUnsupportedType if the schema is outside the protocol
func NewRecordDigester(s *arrow.Schema, opts ...Option) (*RecordDigester, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	leaves, err := schema.Leaves(s)
	if err != nil {
		return nil, err
	}

	top := cfg.family()
	topWriter := encoding.NewHashWriter(top, endian.GetLittleEndianEngine())
	defer topWriter.Finish()
	if err := schema.EncodeSchema(s, topWriter); err != nil {
		return nil, err
	}
	topWriter.Flush()

	cols := make([]*encoding.HashWriter, len(leaves))
	for i := range cols {
		cols[i] = encoding.NewHashWriter(cfg.family(), endian.GetLittleEndianEngine())
	}

	return &RecordDigester{
		bound:  s,
		cfg:    cfg,
		top:    top,
		leaves: leaves,
		cols:   cols,
	}, nil
}

// Update routes one record batch into the per-leaf accumulators.
//
// The record's schema must match the bound schema in field count, names and
// logical types; nullability flags and metadata do not participate in the
// hash and are not compared.
//
// Returns:
//   - error: errs.ErrSchemaMismatch on a mismatch, errs.ErrFinalized after
//     Finalize, or the original error once the digester is poisoned
func (d *RecordDigester) Update(rec arrow.Record) error {
	if err := d.guard(); err != nil {
		return err
	}
	if err := schemaCompatible(d.bound, rec.Schema()); err != nil {
		d.err = err
		return err
	}

	if err := d.updateLeaves(rec); err != nil {
		d.err = err
		return err
	}

	return nil
}

func (d *RecordDigester) updateLeaves(rec arrow.Record) error {
	if d.cfg.parallelism > 1 {
		var g errgroup.Group
		g.SetLimit(d.cfg.parallelism)
		for i := range d.leaves {
			g.Go(func() error {
				return emitColumn(rec.Column(d.leaves[i].Column), d.leaves[i].Path, d.cols[i])
			})
		}

		return g.Wait()
	}

	for i, leaf := range d.leaves {
		if err := emitColumn(rec.Column(leaf.Column), leaf.Path, d.cols[i]); err != nil {
			return err
		}
	}

	return nil
}

// Finalize consumes the digester and returns the batch digest.
//
// Leaf digests fold into the top-level hasher in schema traversal order.
// Finalize errors if called twice.
//
// Returns:
//   - []byte: Digest of fixed length for the configured hash family
//   - error: errs.ErrFinalized on re-finalize, or the poisoning error
func (d *RecordDigester) Finalize() ([]byte, error) {
	if err := d.guard(); err != nil {
		return nil, err
	}
	d.finalized = true

	for _, col := range d.cols {
		// hash.Hash.Write never returns an error.
		_, _ = d.top.Write(col.Sum())
		col.Finish()
	}

	return d.top.Sum(nil), nil
}

func (d *RecordDigester) guard() error {
	if d.err != nil {
		return d.err
	}
	if d.finalized {
		return errs.ErrFinalized
	}

	return nil
}

// schemaCompatible checks field count, names and logical types. Metadata and
// nullability are representation-only here: neither is hashed.
func schemaCompatible(bound, got *arrow.Schema) error {
	if got.NumFields() != bound.NumFields() {
		return fmt.Errorf("%w: %d fields, digester bound to %d",
			errs.ErrSchemaMismatch, got.NumFields(), bound.NumFields())
	}
	for i := 0; i < bound.NumFields(); i++ {
		want, have := bound.Field(i), got.Field(i)
		if want.Name != have.Name {
			return fmt.Errorf("%w: field %d named %q, digester bound to %q",
				errs.ErrSchemaMismatch, i, have.Name, want.Name)
		}
		if !arrow.TypeEqual(want.Type, have.Type) {
			return fmt.Errorf("%w: field %q is %s, digester bound to %s",
				errs.ErrSchemaMismatch, want.Name, have.Type.Name(), want.Type.Name())
		}
	}

	return nil
}
