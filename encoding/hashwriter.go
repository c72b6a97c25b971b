// Package encoding implements the low-level canonical byte emission used by
// the digesters.
//
// A HashWriter turns typed writes (little-endian scalars, length-prefixed
// byte strings, null markers) into the exact byte stream the hashing protocol
// defines, and feeds that stream into an inner hasher. Writes are staged in a
// pooled buffer and flushed in chunks so a column of small scalars does not
// pay one hasher call per value.
package encoding

import (
	"hash"

	"github.com/arloliu/arrowhash/endian"
	"github.com/arloliu/arrowhash/internal/pool"
)

// nullMarker is the single byte emitted for a null position.
const nullMarker = 0x00

// flushThreshold is the staged byte count at which the writer pushes its
// buffer into the inner hasher.
const flushThreshold = pool.HashBufferDefaultSize - 64

// HashWriter emits the canonical byte stream of the hashing protocol into an
// inner hasher.
//
// All multi-byte scalars are emitted through the configured endian engine;
// the protocol mandates little-endian, and callers obtain the engine from
// endian.GetLittleEndianEngine().
//
// Note: The HashWriter is NOT thread-safe. Each writer instance must be used
// by a single goroutine at a time.
type HashWriter struct {
	sink   hash.Hash
	engine endian.EndianEngine
	buf    *pool.ByteBuffer
}

// NewHashWriter creates a HashWriter that streams into sink using the given
// byte-order engine.
//
// Parameters:
//   - sink: Inner hasher receiving the canonical byte stream
//   - engine: Endian engine for scalar emission (little-endian per protocol)
//
// Returns:
//   - *HashWriter: A writer staging through a pooled buffer
func NewHashWriter(sink hash.Hash, engine endian.EndianEngine) *HashWriter {
	return &HashWriter{
		sink:   sink,
		engine: engine,
		buf:    pool.GetHashBuffer(),
	}
}

// WriteNull emits the single-byte null marker.
func (w *HashWriter) WriteNull() {
	w.buf.MustWriteByte(nullMarker)
	w.maybeFlush()
}

// WriteUint8 emits a single byte.
func (w *HashWriter) WriteUint8(v uint8) {
	w.buf.MustWriteByte(v)
	w.maybeFlush()
}

// WriteUint16 emits v with the configured byte order.
func (w *HashWriter) WriteUint16(v uint16) {
	w.buf.B = w.engine.AppendUint16(w.buf.B, v)
	w.maybeFlush()
}

// WriteUint32 emits v with the configured byte order.
func (w *HashWriter) WriteUint32(v uint32) {
	w.buf.B = w.engine.AppendUint32(w.buf.B, v)
	w.maybeFlush()
}

// WriteUint64 emits v with the configured byte order.
func (w *HashWriter) WriteUint64(v uint64) {
	w.buf.B = w.engine.AppendUint64(w.buf.B, v)
	w.maybeFlush()
}

// WriteBytes emits p verbatim.
func (w *HashWriter) WriteBytes(p []byte) {
	if len(p) >= flushThreshold {
		// Large payloads bypass staging and go straight to the hasher.
		w.Flush()
		_, _ = w.sink.Write(p)

		return
	}

	w.buf.MustWrite(p)
	w.maybeFlush()
}

// WriteString emits the raw bytes of s.
func (w *HashWriter) WriteString(s string) {
	w.buf.MustWriteString(s)
	w.maybeFlush()
}

// WriteLengthPrefixed emits the protocol encoding of a byte string: the
// length as u64 followed by the content bytes. The empty string emits eight
// zero bytes and still contributes to the stream.
func (w *HashWriter) WriteLengthPrefixed(p []byte) {
	w.WriteUint64(uint64(len(p)))
	w.WriteBytes(p)
}

// WriteLengthPrefixedString emits the protocol encoding of a text string:
// the length as u64 followed by the UTF-8 bytes.
func (w *HashWriter) WriteLengthPrefixedString(s string) {
	w.WriteUint64(uint64(len(s)))
	w.WriteString(s)
}

// Flush pushes all staged bytes into the inner hasher.
func (w *HashWriter) Flush() {
	if w.buf.Len() == 0 {
		return
	}

	// hash.Hash.Write never returns an error.
	_, _ = w.sink.Write(w.buf.Bytes())
	w.buf.Reset()
}

// Sum flushes staged bytes and returns the inner hasher's digest.
//
// The writer remains usable; the protocol's finalize-once discipline lives in
// the digesters, not here.
func (w *HashWriter) Sum() []byte {
	w.Flush()

	return w.sink.Sum(nil)
}

// Finish returns the staging buffer to the pool.
//
// After calling Finish the writer is no longer usable. It must be called
// exactly once when the digest session completes, including error paths.
func (w *HashWriter) Finish() {
	pool.PutHashBuffer(w.buf)
	w.buf = nil
	w.sink = nil
}

func (w *HashWriter) maybeFlush() {
	if w.buf.Len() >= flushThreshold {
		w.Flush()
	}
}
