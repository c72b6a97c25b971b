package digest

import (
	"hash"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/arrowhash/errs"
	"github.com/arloliu/arrowhash/hasher"
)

type captureHash struct {
	buf []byte
}

func (h *captureHash) Write(p []byte) (int, error) {
	h.buf = append(h.buf, p...)
	return len(p), nil
}

func (h *captureHash) Sum(b []byte) []byte { return append(b, h.buf...) }
func (h *captureHash) Reset()              { h.buf = nil }
func (h *captureHash) Size() int           { return len(h.buf) }
func (h *captureHash) BlockSize() int      { return 1 }

// captureFamily exposes the raw canonical stream of a single-hasher digester.
func captureFamily(capture *captureHash) hasher.Family {
	return func() hash.Hash { return capture }
}

// streamOf digests arr through a capturing hasher and returns the exact byte
// stream the digester emitted.
func streamOf(t *testing.T, arr arrow.Array) []byte {
	t.Helper()

	capture := &captureHash{}
	d, err := NewArrayDigester(arr.DataType(), WithHasher(captureFamily(capture)))
	require.NoError(t, err)
	require.NoError(t, d.Update(arr))

	sum, err := d.Finalize()
	require.NoError(t, err)

	return sum
}

func digestOf(t *testing.T, arr arrow.Array) []byte {
	t.Helper()

	d, err := NewArrayDigester(arr.DataType())
	require.NoError(t, err)
	require.NoError(t, d.Update(arr))

	sum, err := d.Finalize()
	require.NoError(t, err)

	return sum
}

func buildInt32(t *testing.T, vals []int32, valid []bool) arrow.Array {
	t.Helper()

	b := array.NewInt32Builder(memory.NewGoAllocator())
	defer b.Release()
	b.AppendValues(vals, valid)

	return b.NewArray()
}

func buildString(t *testing.T, vals []string, valid []bool) arrow.Array {
	t.Helper()

	b := array.NewStringBuilder(memory.NewGoAllocator())
	defer b.Release()
	b.AppendValues(vals, valid)

	return b.NewArray()
}

func TestArrayDigesterInt32Stream(t *testing.T) {
	arr := buildInt32(t, []int32{1, 2, 3}, nil)
	defer arr.Release()

	want := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00,
	}
	assert.Equal(t, want, streamOf(t, arr))
}

func TestArrayDigesterUtf8Stream(t *testing.T) {
	arr := buildString(t, []string{"a", "b", "c"}, nil)
	defer arr.Release()

	var want []byte
	for _, s := range []string{"a", "b", "c"} {
		want = append(want, 1, 0, 0, 0, 0, 0, 0, 0)
		want = append(want, s...)
	}
	assert.Equal(t, want, streamOf(t, arr))
}

func TestArrayDigesterNullStream(t *testing.T) {
	arr := buildInt32(t, []int32{0, 7}, []bool{false, true})
	defer arr.Release()

	want := []byte{0x00, 0x07, 0x00, 0x00, 0x00}
	assert.Equal(t, want, streamOf(t, arr))
}

func TestArrayDigesterBoolStream(t *testing.T) {
	b := array.NewBooleanBuilder(memory.NewGoAllocator())
	defer b.Release()
	b.Append(true)
	b.AppendNull()
	b.Append(false)
	arr := b.NewArray()
	defer arr.Release()

	assert.Equal(t, []byte{0x02, 0x00, 0x01}, streamOf(t, arr))
}

func TestArrayDigesterListStream(t *testing.T) {
	lb := array.NewListBuilder(memory.NewGoAllocator(), arrow.PrimitiveTypes.Int32)
	defer lb.Release()
	vb := lb.ValueBuilder().(*array.Int32Builder)

	lb.Append(true)
	vb.AppendValues([]int32{1, 2}, nil)
	lb.Append(true)
	arr := lb.NewArray()
	defer arr.Release()

	var want []byte
	want = append(want, 2, 0, 0, 0, 0, 0, 0, 0) // two items
	want = append(want, 1, 0, 0, 0)
	want = append(want, 2, 0, 0, 0)
	want = append(want, 0, 0, 0, 0, 0, 0, 0, 0) // empty list
	assert.Equal(t, want, streamOf(t, arr))
}

func TestArrayDigesterNullTypeStream(t *testing.T) {
	b := array.NewNullBuilder(memory.NewGoAllocator())
	defer b.Release()
	b.AppendNull()
	b.AppendNull()
	b.AppendNull()
	arr := b.NewArray()
	defer arr.Release()

	assert.Equal(t, []byte{0x00, 0x00, 0x00}, streamOf(t, arr))
}

func TestValidityBitmapEquivalence(t *testing.T) {
	// Same logical values, one array without a validity bitmap and one with
	// an explicit all-ones bitmap.
	bare := buildInt32(t, []int32{1, 2, 3}, nil)
	defer bare.Release()

	vals := arrow.Int32Traits.CastToBytes([]int32{1, 2, 3})
	data := array.NewData(arrow.PrimitiveTypes.Int32, 3,
		[]*memory.Buffer{memory.NewBufferBytes([]byte{0x07}), memory.NewBufferBytes(vals)},
		nil, 0, 0)
	defer data.Release()
	explicit := array.NewInt32Data(data)
	defer explicit.Release()

	assert.Equal(t, digestOf(t, bare), digestOf(t, explicit))
}

func TestEncodingInvarianceUtf8Family(t *testing.T) {
	mem := memory.NewGoAllocator()

	sb := array.NewStringBuilder(mem)
	defer sb.Release()
	sb.AppendValues([]string{"foo", "", "bar"}, nil)
	small := sb.NewArray()
	defer small.Release()

	lb := array.NewLargeStringBuilder(mem)
	defer lb.Release()
	lb.AppendValues([]string{"foo", "", "bar"}, nil)
	large := lb.NewArray()
	defer large.Release()

	assert.Equal(t, digestOf(t, small), digestOf(t, large))
}

func TestEncodingInvarianceBinaryFamily(t *testing.T) {
	mem := memory.NewGoAllocator()

	bb := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	defer bb.Release()
	bb.Append([]byte("abc"))
	bb.Append([]byte("def"))
	plain := bb.NewArray()
	defer plain.Release()

	lbb := array.NewBinaryBuilder(mem, arrow.BinaryTypes.LargeBinary)
	defer lbb.Release()
	lbb.Append([]byte("abc"))
	lbb.Append([]byte("def"))
	large := lbb.NewArray()
	defer large.Release()

	fb := array.NewFixedSizeBinaryBuilder(mem, &arrow.FixedSizeBinaryType{ByteWidth: 3})
	defer fb.Release()
	fb.Append([]byte("abc"))
	fb.Append([]byte("def"))
	fixed := fb.NewArray()
	defer fixed.Release()

	want := digestOf(t, plain)
	assert.Equal(t, want, digestOf(t, large))
	assert.Equal(t, want, digestOf(t, fixed))
}

func TestEncodingInvarianceListFamily(t *testing.T) {
	mem := memory.NewGoAllocator()

	lb := array.NewListBuilder(mem, arrow.PrimitiveTypes.Int32)
	defer lb.Release()
	lvb := lb.ValueBuilder().(*array.Int32Builder)
	lb.Append(true)
	lvb.AppendValues([]int32{1, 2}, nil)
	lb.Append(true)
	lvb.AppendValues([]int32{3, 4}, nil)
	list := lb.NewArray()
	defer list.Release()

	llb := array.NewLargeListBuilder(mem, arrow.PrimitiveTypes.Int32)
	defer llb.Release()
	llvb := llb.ValueBuilder().(*array.Int32Builder)
	llb.Append(true)
	llvb.AppendValues([]int32{1, 2}, nil)
	llb.Append(true)
	llvb.AppendValues([]int32{3, 4}, nil)
	largeList := llb.NewArray()
	defer largeList.Release()

	flb := array.NewFixedSizeListBuilder(mem, 2, arrow.PrimitiveTypes.Int32)
	defer flb.Release()
	fvb := flb.ValueBuilder().(*array.Int32Builder)
	flb.Append(true)
	fvb.AppendValues([]int32{1, 2}, nil)
	flb.Append(true)
	fvb.AppendValues([]int32{3, 4}, nil)
	fixedList := flb.NewArray()
	defer fixedList.Release()

	want := digestOf(t, list)
	assert.Equal(t, want, digestOf(t, largeList))
	assert.Equal(t, want, digestOf(t, fixedList))
}

func TestDictionaryInvariance(t *testing.T) {
	mem := memory.NewGoAllocator()

	dictValues := buildString(t, []string{"foo", "bar"}, nil)
	defer dictValues.Release()
	indices := buildInt32(t, []int32{0, 1, 0}, nil)
	defer indices.Release()

	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
	encoded := array.NewDictionaryArray(dt, indices, dictValues)
	defer encoded.Release()

	sb := array.NewStringBuilder(mem)
	defer sb.Release()
	sb.AppendValues([]string{"foo", "bar", "foo"}, nil)
	materialized := sb.NewArray()
	defer materialized.Release()

	assert.Equal(t, digestOf(t, materialized), digestOf(t, encoded))
}

func TestStringViewEquivalence(t *testing.T) {
	mem := memory.NewGoAllocator()

	vb := array.NewStringViewBuilder(mem)
	defer vb.Release()
	vb.Append("short")
	vb.Append("a longer value that spills out of the inline view prefix")
	view := vb.NewArray()
	defer view.Release()

	sb := array.NewStringBuilder(mem)
	defer sb.Release()
	sb.Append("short")
	sb.Append("a longer value that spills out of the inline view prefix")
	plain := sb.NewArray()
	defer plain.Release()

	assert.Equal(t, digestOf(t, plain), digestOf(t, view))
}

func TestNullDistinguishability(t *testing.T) {
	valued := buildInt32(t, []int32{0}, nil)
	defer valued.Release()
	nulled := buildInt32(t, []int32{0}, []bool{false})
	defer nulled.Release()

	assert.NotEqual(t, digestOf(t, valued), digestOf(t, nulled))
}

func TestEmptyStringSensitivity(t *testing.T) {
	a := buildString(t, []string{"foo", "bar"}, nil)
	defer a.Release()
	b := buildString(t, []string{"f", "oobar"}, nil)
	defer b.Release()

	assert.NotEqual(t, digestOf(t, a), digestOf(t, b))

	empty := buildString(t, []string{}, nil)
	defer empty.Release()
	oneEmpty := buildString(t, []string{""}, nil)
	defer oneEmpty.Release()

	assert.NotEqual(t, digestOf(t, empty), digestOf(t, oneEmpty))
}

func TestIncrementalEqualsOneShot(t *testing.T) {
	whole := buildInt32(t, []int32{1, 2, 3, 4, 5}, nil)
	defer whole.Release()

	oneShot := digestOf(t, whole)

	head := array.NewSlice(whole, 0, 2)
	defer head.Release()
	tail := array.NewSlice(whole, 2, 5)
	defer tail.Release()

	d, err := NewArrayDigester(whole.DataType())
	require.NoError(t, err)
	require.NoError(t, d.Update(head))
	require.NoError(t, d.Update(tail))
	incremental, err := d.Finalize()
	require.NoError(t, err)

	assert.Equal(t, oneShot, incremental)
}

func TestArrayDigesterStructMatchesLeafStreams(t *testing.T) {
	// Struct rows [(1,"a"), null]: each child stream sees the struct null
	// masked in, regardless of the child's own validity bytes.
	xs := buildInt32(t, []int32{1, 0}, nil)
	defer xs.Release()
	ys := buildString(t, []string{"a", ""}, nil)
	defer ys.Release()

	st := arrow.StructOf(
		arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		arrow.Field{Name: "y", Type: arrow.BinaryTypes.String, Nullable: true},
	)
	data := array.NewData(st, 2,
		[]*memory.Buffer{memory.NewBufferBytes([]byte{0x01})},
		[]arrow.ArrayData{xs.Data(), ys.Data()}, 1, 0)
	defer data.Release()
	s := array.NewStructData(data)
	defer s.Release()

	d, err := NewArrayDigester(st)
	require.NoError(t, err)
	require.NoError(t, d.Update(s))
	sum, err := d.Finalize()
	require.NoError(t, err)
	require.NotEmpty(t, sum)

	// The same digest must come from a struct that is also null at the second
	// row but whose children are both null there too: under a null struct row
	// the children's own values and validity do not matter.
	xs2 := buildInt32(t, []int32{1, 0}, []bool{true, false})
	defer xs2.Release()
	ys2 := buildString(t, []string{"a", ""}, []bool{true, false})
	defer ys2.Release()

	data2 := array.NewData(st, 2,
		[]*memory.Buffer{memory.NewBufferBytes([]byte{0x01})},
		[]arrow.ArrayData{xs2.Data(), ys2.Data()}, 1, 0)
	defer data2.Release()
	s2 := array.NewStructData(data2)
	defer s2.Release()

	d2, err := NewArrayDigester(st)
	require.NoError(t, err)
	require.NoError(t, d2.Update(s2))
	sum2, err := d2.Finalize()
	require.NoError(t, err)

	assert.Equal(t, sum, sum2)
}

func TestArrayDigesterTypeMismatch(t *testing.T) {
	arr := buildString(t, []string{"a"}, nil)
	defer arr.Release()

	d, err := NewArrayDigester(arrow.PrimitiveTypes.Int32)
	require.NoError(t, err)

	err = d.Update(arr)
	assert.ErrorIs(t, err, errs.ErrTypeMismatch)

	// The digester is poisoned: every subsequent operation reports the
	// original error.
	ints := buildInt32(t, []int32{1}, nil)
	defer ints.Release()
	assert.ErrorIs(t, d.Update(ints), errs.ErrTypeMismatch)

	_, err = d.Finalize()
	assert.ErrorIs(t, err, errs.ErrTypeMismatch)
}

func TestArrayDigesterUseAfterFinalize(t *testing.T) {
	arr := buildInt32(t, []int32{1}, nil)
	defer arr.Release()

	d, err := NewArrayDigester(arrow.PrimitiveTypes.Int32)
	require.NoError(t, err)
	require.NoError(t, d.Update(arr))

	_, err = d.Finalize()
	require.NoError(t, err)

	assert.ErrorIs(t, d.Update(arr), errs.ErrFinalized)

	_, err = d.Finalize()
	assert.ErrorIs(t, err, errs.ErrFinalized)
}

func TestArrayDigesterUnsupportedType(t *testing.T) {
	_, err := NewArrayDigester(arrow.MapOf(arrow.BinaryTypes.String, arrow.PrimitiveTypes.Int32))
	assert.ErrorIs(t, err, errs.ErrUnsupportedType)
}
