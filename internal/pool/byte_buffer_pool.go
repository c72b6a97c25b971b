// Package pool provides pooled byte buffers used as staging memory between
// the canonical byte emitters and the inner hasher.
package pool

import "sync"

const (
	// HashBufferDefaultSize is the capacity of a ByteBuffer obtained from the pool.
	HashBufferDefaultSize = 1024 * 4
	// HashBufferMaxThreshold is the capacity above which a returned buffer is
	// dropped instead of pooled, so one oversized emission does not pin memory.
	HashBufferMaxThreshold = 1024 * 64
)

// ByteBuffer is a minimal growable byte buffer.
//
// The underlying slice B is exported so emitters can use append-style APIs
// (binary.AppendByteOrder) directly without an intermediate copy.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// MustWriteString appends a string to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWriteString(data string) {
	bb.B = append(bb.B, data...)
}

// MustWriteByte appends a single byte to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWriteByte(b byte) {
	bb.B = append(bb.B, b)
}

var hashBufferPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(HashBufferDefaultSize)
	},
}

// GetHashBuffer obtains a reset ByteBuffer from the staging pool.
func GetHashBuffer() *ByteBuffer {
	buf, _ := hashBufferPool.Get().(*ByteBuffer)
	buf.Reset()

	return buf
}

// PutHashBuffer returns a ByteBuffer to the staging pool.
//
// Buffers that grew past HashBufferMaxThreshold are dropped.
func PutHashBuffer(buf *ByteBuffer) {
	if buf == nil || buf.Cap() > HashBufferMaxThreshold {
		return
	}
	hashBufferPool.Put(buf)
}
