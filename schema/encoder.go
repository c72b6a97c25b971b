package schema

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arloliu/arrowhash/encoding"
	"github.com/arloliu/arrowhash/errs"
)

// EncodeType appends the canonical byte encoding of a logical type to w.
//
// The encoding is one little-endian u16 TypeID followed by the type's
// trailing parameters. Representation-only distinctions collapse: large and
// view layouts share the ID of their plain counterparts, FixedSizeBinary
// encodes as Binary, FixedSizeList as List, and dictionary encoding is
// transparent (the value type is encoded).
//
// Returns:
//   - error: errs.ErrUnsupportedType for types outside the protocol
//     (union, map, run-end encoded, list views, extension types)
func EncodeType(dt arrow.DataType, w *encoding.HashWriter) error {
	switch dt.ID() {
	case arrow.NULL:
		w.WriteUint16(uint16(TypeNull))
	case arrow.BOOL:
		w.WriteUint16(uint16(TypeBool))
	case arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		encodeIntType(dt, signednessUnsigned, w)
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64:
		encodeIntType(dt, signednessSigned, w)
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		w.WriteUint16(uint16(TypeFloatingPoint))
		w.WriteUint64(bitWidthOf(dt))
	case arrow.BINARY, arrow.LARGE_BINARY, arrow.BINARY_VIEW, arrow.FIXED_SIZE_BINARY:
		w.WriteUint16(uint16(TypeBinary))
	case arrow.STRING, arrow.LARGE_STRING, arrow.STRING_VIEW:
		w.WriteUint16(uint16(TypeUtf8))
	case arrow.DECIMAL128:
		dec := dt.(*arrow.Decimal128Type)
		encodeDecimalType(128, dec.Precision, dec.Scale, w)
	case arrow.DECIMAL256:
		dec := dt.(*arrow.Decimal256Type)
		encodeDecimalType(256, dec.Precision, dec.Scale, w)
	case arrow.DATE32:
		w.WriteUint16(uint16(TypeDate))
		w.WriteUint64(32)
		w.WriteUint16(DateUnitDay)
	case arrow.DATE64:
		w.WriteUint16(uint16(TypeDate))
		w.WriteUint64(64)
		w.WriteUint16(DateUnitMillisecond)
	case arrow.TIME32:
		w.WriteUint16(uint16(TypeTime))
		w.WriteUint64(32)
		w.WriteUint16(timeUnitID(dt.(*arrow.Time32Type).Unit))
	case arrow.TIME64:
		w.WriteUint16(uint16(TypeTime))
		w.WriteUint64(64)
		w.WriteUint16(timeUnitID(dt.(*arrow.Time64Type).Unit))
	case arrow.TIMESTAMP:
		ts := dt.(*arrow.TimestampType)
		w.WriteUint16(uint16(TypeTimestamp))
		w.WriteUint16(timeUnitID(ts.Unit))
		if ts.TimeZone == "" {
			w.WriteUint8(tagAbsent)
		} else {
			w.WriteUint8(tagPresent)
			w.WriteLengthPrefixedString(ts.TimeZone)
		}
	case arrow.INTERVAL_MONTHS, arrow.INTERVAL_DAY_TIME, arrow.INTERVAL_MONTH_DAY_NANO:
		w.WriteUint16(uint16(TypeInterval))
	case arrow.DURATION:
		w.WriteUint16(uint16(TypeDuration))
	case arrow.LIST:
		w.WriteUint16(uint16(TypeList))
		return EncodeType(dt.(*arrow.ListType).Elem(), w)
	case arrow.LARGE_LIST:
		w.WriteUint16(uint16(TypeList))
		return EncodeType(dt.(*arrow.LargeListType).Elem(), w)
	case arrow.FIXED_SIZE_LIST:
		// The fixed length is a layout concern and is not encoded.
		w.WriteUint16(uint16(TypeList))
		return EncodeType(dt.(*arrow.FixedSizeListType).Elem(), w)
	case arrow.STRUCT:
		// Children are encoded by the schema traversal, not here.
		w.WriteUint16(uint16(TypeStruct))
	case arrow.DICTIONARY:
		return EncodeType(dt.(*arrow.DictionaryType).ValueType, w)
	default:
		return fmt.Errorf("%w: %s", errs.ErrUnsupportedType, dt.Name())
	}

	return nil
}

// EncodeSchema appends the canonical byte encoding of a full schema to w.
//
// Fields are visited depth-first in declaration order, descending into
// struct children and into list item children that are themselves structs.
// Every visited field contributes its name (u64 length + UTF-8 bytes), its
// zero-based nesting level as u64, and its canonical type encoding. Field
// metadata and nullability flags do not participate.
func EncodeSchema(s *arrow.Schema, w *encoding.HashWriter) error {
	for _, f := range s.Fields() {
		if err := encodeField(f, 0, w); err != nil {
			return err
		}
	}

	return nil
}

func encodeField(f arrow.Field, level uint64, w *encoding.HashWriter) error {
	w.WriteLengthPrefixedString(f.Name)
	w.WriteUint64(level)
	if err := EncodeType(f.Type, w); err != nil {
		return err
	}

	return encodeChildren(f.Type, level, w)
}

// encodeChildren descends past the type just encoded: struct children become
// visited fields one level down; list wrappers are transparent, so a struct
// reached through any chain of lists contributes its children as well.
func encodeChildren(dt arrow.DataType, level uint64, w *encoding.HashWriter) error {
	switch dt := UnwrapDictionary(dt).(type) {
	case *arrow.StructType:
		for _, child := range dt.Fields() {
			if err := encodeField(child, level+1, w); err != nil {
				return err
			}
		}
	case *arrow.ListType:
		return encodeChildren(dt.Elem(), level, w)
	case *arrow.LargeListType:
		return encodeChildren(dt.Elem(), level, w)
	case *arrow.FixedSizeListType:
		return encodeChildren(dt.Elem(), level, w)
	}

	return nil
}

// UnwrapDictionary resolves dictionary types to their value type.
// Non-dictionary types are returned unchanged.
func UnwrapDictionary(dt arrow.DataType) arrow.DataType {
	for dt.ID() == arrow.DICTIONARY {
		dt = dt.(*arrow.DictionaryType).ValueType
	}

	return dt
}

// CheckType reports whether the protocol covers dt, recursing through nested
// types. It returns errs.ErrUnsupportedType (wrapped with the offending type
// name) for anything outside the protocol.
func CheckType(dt arrow.DataType) error {
	switch dt.ID() {
	case arrow.NULL, arrow.BOOL,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64,
		arrow.BINARY, arrow.LARGE_BINARY, arrow.BINARY_VIEW, arrow.FIXED_SIZE_BINARY,
		arrow.STRING, arrow.LARGE_STRING, arrow.STRING_VIEW,
		arrow.DECIMAL128, arrow.DECIMAL256,
		arrow.DATE32, arrow.DATE64, arrow.TIME32, arrow.TIME64, arrow.TIMESTAMP,
		arrow.INTERVAL_MONTHS, arrow.INTERVAL_DAY_TIME, arrow.INTERVAL_MONTH_DAY_NANO,
		arrow.DURATION:
		return nil
	case arrow.LIST:
		return CheckType(dt.(*arrow.ListType).Elem())
	case arrow.LARGE_LIST:
		return CheckType(dt.(*arrow.LargeListType).Elem())
	case arrow.FIXED_SIZE_LIST:
		return CheckType(dt.(*arrow.FixedSizeListType).Elem())
	case arrow.STRUCT:
		st := dt.(*arrow.StructType)
		for _, f := range st.Fields() {
			if err := CheckType(f.Type); err != nil {
				return err
			}
		}

		return nil
	case arrow.DICTIONARY:
		vt := dt.(*arrow.DictionaryType).ValueType
		if containsStruct(vt) {
			return fmt.Errorf("%w: dictionary-encoded %s", errs.ErrUnsupportedType, vt.Name())
		}

		return CheckType(vt)
	default:
		return fmt.Errorf("%w: %s", errs.ErrUnsupportedType, dt.Name())
	}
}

// CheckSchema verifies every top-level field of s is covered by the protocol.
func CheckSchema(s *arrow.Schema) error {
	for _, f := range s.Fields() {
		if err := CheckType(f.Type); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}

	return nil
}

func encodeIntType(dt arrow.DataType, signedness uint8, w *encoding.HashWriter) {
	w.WriteUint16(uint16(TypeInt))
	w.WriteUint8(signedness)
	w.WriteUint64(bitWidthOf(dt))
}

func encodeDecimalType(bitWidth uint64, precision, scale int32, w *encoding.HashWriter) {
	w.WriteUint16(uint16(TypeDecimal))
	w.WriteUint64(bitWidth)
	w.WriteUint64(uint64(int64(precision)))
	w.WriteUint64(uint64(int64(scale)))
}

func bitWidthOf(dt arrow.DataType) uint64 {
	return uint64(dt.(arrow.FixedWidthDataType).BitWidth())
}

func timeUnitID(u arrow.TimeUnit) uint16 {
	switch u {
	case arrow.Second:
		return TimeUnitSecond
	case arrow.Millisecond:
		return TimeUnitMillisecond
	case arrow.Microsecond:
		return TimeUnitMicrosecond
	case arrow.Nanosecond:
		return TimeUnitNanosecond
	default:
		return TimeUnitNanosecond
	}
}

// containsStruct reports whether dt contains a struct anywhere under list and
// dictionary wrappers.
func containsStruct(dt arrow.DataType) bool {
	switch dt := UnwrapDictionary(dt).(type) {
	case *arrow.StructType:
		return true
	case *arrow.ListType:
		return containsStruct(dt.Elem())
	case *arrow.LargeListType:
		return containsStruct(dt.Elem())
	case *arrow.FixedSizeListType:
		return containsStruct(dt.Elem())
	default:
		return false
	}
}
