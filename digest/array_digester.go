package digest

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arloliu/arrowhash/encoding"
	"github.com/arloliu/arrowhash/endian"
	"github.com/arloliu/arrowhash/errs"
	"github.com/arloliu/arrowhash/schema"
)

// ArrayDigester computes the logical digest of a single Arrow array, fed
// incrementally as row-contiguous slices of the same logical sequence.
//
// The emitted byte stream depends only on the sequence of (valid, value)
// pairs, never on buffer layout: a missing validity bitmap digests the same
// as an all-ones bitmap, offset variants and dictionary encoding are
// invisible, and splitting the rows across Update calls does not change the
// result.
//
// A digester bound to a struct type runs one child digester per field; the
// struct level itself contributes only null markers, and child digests fold
// into the top hasher in field order at Finalize.
//
// Note: The ArrayDigester is NOT thread-safe and is not reusable after
// Finalize.
type ArrayDigester struct {
	dtype    arrow.DataType
	w        *encoding.HashWriter
	children []*ArrayDigester

	err       error
	finalized bool
}

// NewArrayDigester creates an ArrayDigester bound to the given logical type.
//
// Parameters:
//   - dt: Logical type every Update call must match
//   - opts: Optional settings (inner hash family)
//
// Returns:
//   - *ArrayDigester: Digester in the Open state
//   - error: errs.ErrUnsupportedType if dt is outside the protocol
func NewArrayDigester(dt arrow.DataType, opts ...Option) (*ArrayDigester, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return newArrayDigester(dt, cfg)
}

func newArrayDigester(dt arrow.DataType, cfg *config) (*ArrayDigester, error) {
	if err := schema.CheckType(dt); err != nil {
		return nil, err
	}

	d := &ArrayDigester{
		dtype: dt,
		w:     encoding.NewHashWriter(cfg.family(), endian.GetLittleEndianEngine()),
	}

	if st, ok := schema.UnwrapDictionary(dt).(*arrow.StructType); ok {
		d.children = make([]*ArrayDigester, st.NumFields())
		for i, f := range st.Fields() {
			child, err := newArrayDigester(f.Type, cfg)
			if err != nil {
				return nil, err
			}
			d.children[i] = child
		}
	}

	return d, nil
}

// Update appends the canonical byte stream of arr to the digest state.
//
// The array's logical type must equal the bound type. Calling Update with
// slices a then b yields the same digest as a single call with their
// concatenation.
//
// Returns:
//   - error: errs.ErrTypeMismatch on a type mismatch, errs.ErrFinalized
//     after Finalize, or the original error once the digester is poisoned
func (d *ArrayDigester) Update(arr arrow.Array) error {
	if err := d.guard(); err != nil {
		return err
	}
	if !arrow.TypeEqual(arr.DataType(), d.dtype) {
		d.err = fmt.Errorf("%w: digester bound to %s, got %s",
			errs.ErrTypeMismatch, d.dtype.Name(), arr.DataType().Name())

		return d.err
	}

	if err := d.update(arr, nil); err != nil {
		d.err = err
		return err
	}

	return nil
}

// update routes arr into the digest state. ancestors carries the enclosing
// struct arrays whose validity masks this level; a position invalid at any
// ancestor is emitted as null regardless of local validity.
func (d *ArrayDigester) update(arr arrow.Array, ancestors []arrow.Array) error {
	if d.children == nil {
		for i := 0; i < arr.Len(); i++ {
			if maskedInvalid(ancestors, i) {
				d.w.WriteNull()
				continue
			}
			if err := emitPosition(arr, i, d.w); err != nil {
				return err
			}
		}

		return nil
	}

	s, ok := arr.(*array.Struct)
	if !ok {
		return fmt.Errorf("%w: expected struct array, got %s",
			errs.ErrInvalidArrayLayout, arr.DataType().Name())
	}
	if s.NumField() != len(d.children) {
		return fmt.Errorf("%w: struct has %d children, digester expects %d",
			errs.ErrInvalidArrayLayout, s.NumField(), len(d.children))
	}

	// The struct level contributes only its null markers; values live in the
	// child streams.
	for i := 0; i < s.Len(); i++ {
		if maskedInvalid(ancestors, i) || s.IsNull(i) {
			d.w.WriteNull()
		}
	}

	ancestors = append(ancestors, s)
	for j, child := range d.children {
		if err := child.update(s.Field(j), ancestors); err != nil {
			return err
		}
	}

	return nil
}

// Finalize consumes the digester and returns the digest.
//
// For struct types the child digests fold into the top hasher in field order
// first. Finalize errors if called twice.
//
// Returns:
//   - []byte: Digest of fixed length for the configured hash family
//   - error: errs.ErrFinalized on re-finalize, or the poisoning error
func (d *ArrayDigester) Finalize() ([]byte, error) {
	if err := d.guard(); err != nil {
		return nil, err
	}
	d.finalized = true

	for _, child := range d.children {
		sum, err := child.Finalize()
		if err != nil {
			d.err = err
			return nil, err
		}
		d.w.WriteBytes(sum)
	}

	sum := d.w.Sum()
	d.w.Finish()

	return sum, nil
}

func (d *ArrayDigester) guard() error {
	if d.err != nil {
		return d.err
	}
	if d.finalized {
		return errs.ErrFinalized
	}

	return nil
}

// maskedInvalid reports whether any enclosing struct masks position i.
func maskedInvalid(ancestors []arrow.Array, i int) bool {
	for _, a := range ancestors {
		if a.IsNull(i) {
			return true
		}
	}

	return false
}
