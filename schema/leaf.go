package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// StepKind discriminates the two ways a leaf descends from its top-level
// column: into a struct child, or into a list's item array.
type StepKind uint8

const (
	// StepStruct descends into the child array at index Child of a struct.
	StepStruct StepKind = iota
	// StepList descends into a list's item array. The list framing (item
	// count, null markers) is emitted at this step.
	StepList
)

// Step is one hop on the path from a top-level column to a leaf.
type Step struct {
	Kind  StepKind
	Child int // struct child index; unused for StepList
}

// Leaf is one hashable column of a schema.
//
// A leaf is any field whose logical type is not a struct, reached by
// depth-first traversal through enclosing structs and through list items that
// are themselves structs. Lists of non-struct items are leaves in their own
// right; their item structure is handled by the emission rules, not the path.
type Leaf struct {
	// Column is the index of the top-level field this leaf descends from.
	Column int
	// Field is the leaf field itself; its type drives value emission.
	Field arrow.Field
	// Path is the descent from the top-level column array to the leaf array.
	// An empty path means the column itself is the leaf.
	Path []Step
}

// Leaves computes the leaf columns of s in depth-first traversal order, the
// same order EncodeSchema visits fields and the order leaf digests fold into
// the top-level hasher.
//
// Returns:
//   - []Leaf: one entry per hashable column
//   - error: errs.ErrUnsupportedType if the schema leaves the protocol
func Leaves(s *arrow.Schema) ([]Leaf, error) {
	if err := CheckSchema(s); err != nil {
		return nil, err
	}

	var leaves []Leaf
	for i, f := range s.Fields() {
		leaves = walkLeaf(leaves, i, f, nil)
	}

	return leaves, nil
}

func walkLeaf(acc []Leaf, column int, f arrow.Field, path []Step) []Leaf {
	dt := UnwrapDictionary(f.Type)

	switch dt := dt.(type) {
	case *arrow.StructType:
		for i, child := range dt.Fields() {
			acc = walkLeaf(acc, column, child, pathAppend(path, Step{Kind: StepStruct, Child: i}))
		}

		return acc
	case *arrow.ListType:
		return walkListLeaf(acc, column, f, dt.Elem(), path)
	case *arrow.LargeListType:
		return walkListLeaf(acc, column, f, dt.Elem(), path)
	case *arrow.FixedSizeListType:
		return walkListLeaf(acc, column, f, dt.Elem(), path)
	default:
		return append(acc, Leaf{Column: column, Field: f, Path: path})
	}
}

// walkListLeaf keeps a list intact when its items carry no struct (the list
// itself is the leaf), and otherwise descends through the item array so the
// struct's children become leaves that still see the enclosing list.
func walkListLeaf(acc []Leaf, column int, f arrow.Field, elem arrow.DataType, path []Step) []Leaf {
	if !containsStruct(elem) {
		return append(acc, Leaf{Column: column, Field: f, Path: path})
	}

	item := arrow.Field{Name: f.Name, Type: elem, Nullable: true}

	return walkLeaf(acc, column, item, pathAppend(path, Step{Kind: StepList}))
}

// pathAppend copies before appending so sibling branches never alias a shared
// backing array.
func pathAppend(path []Step, step Step) []Step {
	next := make([]Step, len(path), len(path)+1)
	copy(next, path)

	return append(next, step)
}
