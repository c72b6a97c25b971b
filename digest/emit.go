package digest

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arloliu/arrowhash/encoding"
	"github.com/arloliu/arrowhash/errs"
	"github.com/arloliu/arrowhash/schema"
)

// Boolean values are encoded as 1/2 so the 0 byte stays reserved for null.
const (
	boolFalse uint8 = 1
	boolTrue  uint8 = 2
)

// emitArray emits every position of arr: the null marker for null positions,
// the type-specific value bytes otherwise. The stream is position-local, so
// consecutive calls over row-contiguous slices concatenate cleanly.
func emitArray(arr arrow.Array, w *encoding.HashWriter) error {
	for i := 0; i < arr.Len(); i++ {
		if err := emitPosition(arr, i, w); err != nil {
			return err
		}
	}

	return nil
}

// emitPosition emits position i of arr: 0x00 when null, the value bytes
// otherwise. Every position of a Null-typed array is null, even though such
// arrays carry no validity bitmap.
func emitPosition(arr arrow.Array, i int, w *encoding.HashWriter) error {
	if arr.IsNull(i) || arr.DataType().ID() == arrow.NULL {
		w.WriteNull()
		return nil
	}

	return emitValue(arr, i, w)
}

// emitValue emits the canonical bytes of the valid value at position i.
//
// Fixed-width values emit their little-endian representation at the type's
// bit width; floats emit raw IEEE bits. Byte strings emit a u64 length prefix
// followed by content, which makes FixedSizeBinary indistinguishable from
// Binary of equal contents. Lists emit the item count as u64 followed by the
// items under their own validity. Structs emit their children in field order.
// Dictionary and view layouts resolve to their logical values first.
func emitValue(arr arrow.Array, i int, w *encoding.HashWriter) error {
	switch a := arr.(type) {
	case *array.Boolean:
		if a.Value(i) {
			w.WriteUint8(boolTrue)
		} else {
			w.WriteUint8(boolFalse)
		}
	case *array.Int8:
		w.WriteUint8(uint8(a.Value(i)))
	case *array.Uint8:
		w.WriteUint8(a.Value(i))
	case *array.Int16:
		w.WriteUint16(uint16(a.Value(i)))
	case *array.Uint16:
		w.WriteUint16(a.Value(i))
	case *array.Int32:
		w.WriteUint32(uint32(a.Value(i)))
	case *array.Uint32:
		w.WriteUint32(a.Value(i))
	case *array.Int64:
		w.WriteUint64(uint64(a.Value(i)))
	case *array.Uint64:
		w.WriteUint64(a.Value(i))
	case *array.Float16:
		w.WriteUint16(a.Value(i).Uint16())
	case *array.Float32:
		w.WriteUint32(math.Float32bits(a.Value(i)))
	case *array.Float64:
		w.WriteUint64(math.Float64bits(a.Value(i)))
	case *array.Decimal128:
		v := a.Value(i)
		w.WriteUint64(v.LowBits())
		w.WriteUint64(uint64(v.HighBits()))
	case *array.Decimal256:
		for _, limb := range a.Value(i).Array() {
			w.WriteUint64(limb)
		}
	case *array.Date32:
		w.WriteUint32(uint32(a.Value(i)))
	case *array.Date64:
		w.WriteUint64(uint64(a.Value(i)))
	case *array.Time32:
		w.WriteUint32(uint32(a.Value(i)))
	case *array.Time64:
		w.WriteUint64(uint64(a.Value(i)))
	case *array.Timestamp:
		w.WriteUint64(uint64(a.Value(i)))
	case *array.Duration:
		w.WriteUint64(uint64(a.Value(i)))
	case *array.MonthInterval:
		w.WriteUint32(uint32(a.Value(i)))
	case *array.DayTimeInterval:
		v := a.Value(i)
		w.WriteUint32(uint32(v.Days))
		w.WriteUint32(uint32(v.Milliseconds))
	case *array.MonthDayNanoInterval:
		v := a.Value(i)
		w.WriteUint32(uint32(v.Months))
		w.WriteUint32(uint32(v.Days))
		w.WriteUint64(uint64(v.Nanoseconds))
	case *array.String:
		w.WriteLengthPrefixedString(a.Value(i))
	case *array.LargeString:
		w.WriteLengthPrefixedString(a.Value(i))
	case *array.StringView:
		w.WriteLengthPrefixedString(a.Value(i))
	case *array.Binary:
		w.WriteLengthPrefixed(a.Value(i))
	case *array.LargeBinary:
		w.WriteLengthPrefixed(a.Value(i))
	case *array.BinaryView:
		w.WriteLengthPrefixed(a.Value(i))
	case *array.FixedSizeBinary:
		w.WriteLengthPrefixed(a.Value(i))
	case *array.List:
		start, end := a.ValueOffsets(i)
		return emitListValue(a.ListValues(), start, end, w)
	case *array.LargeList:
		start, end := a.ValueOffsets(i)
		return emitListValue(a.ListValues(), start, end, w)
	case *array.FixedSizeList:
		start, end := fixedSizeListRange(a, i)
		return emitListValue(a.ListValues(), start, end, w)
	case *array.Struct:
		for j := 0; j < a.NumField(); j++ {
			if err := emitPosition(a.Field(j), i, w); err != nil {
				return err
			}
		}
	case *array.Dictionary:
		return emitPosition(a.Dictionary(), a.GetValueIndex(i), w)
	default:
		return fmt.Errorf("%w: %s", errs.ErrUnsupportedType, arr.DataType().Name())
	}

	return nil
}

func emitListValue(values arrow.Array, start, end int64, w *encoding.HashWriter) error {
	if start < 0 || end < start || end > int64(values.Len()) {
		return fmt.Errorf("%w: list offsets [%d, %d) exceed item array length %d",
			errs.ErrInvalidArrayLayout, start, end, values.Len())
	}

	w.WriteUint64(uint64(end - start))
	for j := start; j < end; j++ {
		if err := emitPosition(values, int(j), w); err != nil {
			return err
		}
	}

	return nil
}

// fixedSizeListRange computes the item range of position i, accounting for a
// sliced parent.
func fixedSizeListRange(a *array.FixedSizeList, i int) (start, end int64) {
	n := int64(a.DataType().(*arrow.FixedSizeListType).Len())
	start = (int64(a.Data().Offset()) + int64(i)) * n

	return start, start + n
}

// emitColumn emits one leaf column of a record batch. The path descends from
// the top-level column array to the leaf: struct hops fold the ancestor's
// validity into the leaf (an ancestor null masks the whole position to a
// single null marker), list hops emit the list framing and recurse into the
// item array.
func emitColumn(col arrow.Array, path []schema.Step, w *encoding.HashWriter) error {
	for i := 0; i < col.Len(); i++ {
		if err := emitColumnPosition(col, i, path, w); err != nil {
			return err
		}
	}

	return nil
}

func emitColumnPosition(arr arrow.Array, i int, path []schema.Step, w *encoding.HashWriter) error {
	if len(path) == 0 {
		return emitPosition(arr, i, w)
	}

	if arr.IsNull(i) {
		w.WriteNull()
		return nil
	}

	step := path[0]
	switch step.Kind {
	case schema.StepStruct:
		s, ok := arr.(*array.Struct)
		if !ok {
			return fmt.Errorf("%w: expected struct array, got %s",
				errs.ErrInvalidArrayLayout, arr.DataType().Name())
		}
		if step.Child < 0 || step.Child >= s.NumField() {
			return fmt.Errorf("%w: struct child %d out of range", errs.ErrInvalidArrayLayout, step.Child)
		}

		return emitColumnPosition(s.Field(step.Child), i, path[1:], w)
	case schema.StepList:
		values, start, end, err := listRange(arr, i)
		if err != nil {
			return err
		}
		if start < 0 || end < start || end > int64(values.Len()) {
			return fmt.Errorf("%w: list offsets [%d, %d) exceed item array length %d",
				errs.ErrInvalidArrayLayout, start, end, values.Len())
		}

		w.WriteUint64(uint64(end - start))
		for j := start; j < end; j++ {
			if err := emitColumnPosition(values, int(j), path[1:], w); err != nil {
				return err
			}
		}

		return nil
	default:
		return fmt.Errorf("%w: unknown traversal step", errs.ErrInvalidArrayLayout)
	}
}

func listRange(arr arrow.Array, i int) (values arrow.Array, start, end int64, err error) {
	switch l := arr.(type) {
	case *array.List:
		start, end = l.ValueOffsets(i)
		return l.ListValues(), start, end, nil
	case *array.LargeList:
		start, end = l.ValueOffsets(i)
		return l.ListValues(), start, end, nil
	case *array.FixedSizeList:
		start, end = fixedSizeListRange(l, i)
		return l.ListValues(), start, end, nil
	default:
		return nil, 0, 0, fmt.Errorf("%w: expected list array, got %s",
			errs.ErrInvalidArrayLayout, arr.DataType().Name())
	}
}
