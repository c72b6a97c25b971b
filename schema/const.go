package schema

// TypeID identifies a logical type family in the canonical type encoding.
// It is emitted as a little-endian u16.
//
// Families that differ only in representation share one ID: the binary
// family covers Binary, LargeBinary and FixedSizeBinary; the utf8 family
// covers Utf8 and LargeUtf8; the list family covers List, LargeList and
// FixedSizeList. View layouts map to the same IDs as their non-view
// counterparts.
type TypeID uint16

const (
	TypeNull          TypeID = 0
	TypeInt           TypeID = 1
	TypeFloatingPoint TypeID = 2
	TypeBinary        TypeID = 3
	TypeUtf8          TypeID = 4
	TypeBool          TypeID = 5
	TypeDecimal       TypeID = 6
	TypeDate          TypeID = 7
	TypeTime          TypeID = 8
	TypeTimestamp     TypeID = 9
	TypeInterval      TypeID = 10
	TypeList          TypeID = 11
	TypeStruct        TypeID = 12
	TypeUnion         TypeID = 13
	TypeMap           TypeID = 16
	TypeDuration      TypeID = 17
)

// String returns the name of the type family.
func (t TypeID) String() string {
	switch t {
	case TypeNull:
		return "Null"
	case TypeInt:
		return "Int"
	case TypeFloatingPoint:
		return "FloatingPoint"
	case TypeBinary:
		return "Binary"
	case TypeUtf8:
		return "Utf8"
	case TypeBool:
		return "Bool"
	case TypeDecimal:
		return "Decimal"
	case TypeDate:
		return "Date"
	case TypeTime:
		return "Time"
	case TypeTimestamp:
		return "Timestamp"
	case TypeInterval:
		return "Interval"
	case TypeList:
		return "List"
	case TypeStruct:
		return "Struct"
	case TypeUnion:
		return "Union"
	case TypeMap:
		return "Map"
	case TypeDuration:
		return "Duration"
	default:
		return "Unknown"
	}
}

// Date unit identifiers, emitted as little-endian u16 after a Date TypeID.
const (
	DateUnitDay         uint16 = 0
	DateUnitMillisecond uint16 = 1
)

// Time unit identifiers, emitted as little-endian u16 after Time and
// Timestamp TypeIDs.
const (
	TimeUnitSecond      uint16 = 0
	TimeUnitMillisecond uint16 = 1
	TimeUnitMicrosecond uint16 = 2
	TimeUnitNanosecond  uint16 = 3
)

// Signedness tags emitted after an Int TypeID.
const (
	signednessUnsigned uint8 = 0
	signednessSigned   uint8 = 1
)

// Nullable-string tags used by the Timestamp timezone parameter.
const (
	tagAbsent  uint8 = 0
	tagPresent uint8 = 1
)
