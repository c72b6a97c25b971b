// Package arrowhash computes stable logical hashes of Apache Arrow data.
//
// The digest depends on the logical content of an array or record batch — its
// schema and its sequence of (valid, value) rows — and not on representation
// choices: how rows are split across batches, whether a validity bitmap is
// materialized when every value is valid, 32-bit versus 64-bit offset
// variants, fixed-size versus variable-size layouts, dictionary encoding, or
// view layouts. Two producers emitting the same logical table obtain
// byte-identical digests; row order is part of the content and does change
// the digest.
//
// # Basic Usage
//
// Hashing a record batch:
//
//	import "github.com/arloliu/arrowhash"
//
//	sum, err := arrowhash.DigestRecord(rec)
//
// Hashing a stream of batches incrementally:
//
//	d, err := digest.NewRecordDigester(rec.Schema())
//	for _, rec := range recs {
//	    if err := d.Update(rec); err != nil { ... }
//	}
//	sum, err := d.Finalize()
//
// Selecting the inner hash:
//
//	sum, err := arrowhash.DigestRecord(rec, digest.WithHasher(hasher.XXHash64))
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the digest
// package, covering the common one-shot cases. For incremental hashing and
// fine-grained control, use the digest package directly.
package arrowhash

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/arloliu/arrowhash/digest"
)

// tableChunkRows is the row granularity used when streaming a table through
// the record digester. The digest is invariant to this choice.
const tableChunkRows = 4096

// DigestArray computes the logical digest of a single array.
//
// Parameters:
//   - arr: Array to hash; any logical type the protocol covers
//   - opts: Optional settings (inner hash family)
//
// Returns:
//   - []byte: Digest of fixed length for the configured hash family
//   - error: errs.ErrUnsupportedType for types outside the protocol
func DigestArray(arr arrow.Array, opts ...digest.Option) ([]byte, error) {
	d, err := digest.NewArrayDigester(arr.DataType(), opts...)
	if err != nil {
		return nil, err
	}
	if err := d.Update(arr); err != nil {
		return nil, err
	}

	return d.Finalize()
}

// DigestRecord computes the logical digest of a single record batch.
func DigestRecord(rec arrow.Record, opts ...digest.Option) ([]byte, error) {
	d, err := digest.NewRecordDigester(rec.Schema(), opts...)
	if err != nil {
		return nil, err
	}
	if err := d.Update(rec); err != nil {
		return nil, err
	}

	return d.Finalize()
}

// DigestTable computes the logical digest of a table by streaming its rows
// through a record digester in chunks. The chunking, like any other batch
// partition, does not affect the digest.
func DigestTable(tbl arrow.Table, opts ...digest.Option) ([]byte, error) {
	d, err := digest.NewRecordDigester(tbl.Schema(), opts...)
	if err != nil {
		return nil, err
	}

	tr := array.NewTableReader(tbl, tableChunkRows)
	defer tr.Release()

	for tr.Next() {
		if err := d.Update(tr.Record()); err != nil {
			return nil, err
		}
	}

	return d.Finalize()
}

// DigestIPC reads an Arrow IPC stream and digests every record batch in
// order. The stream's schema binds the digester; IPC-level concerns such as
// buffer compression are resolved by the reader and never reach the hash.
//
// Parameters:
//   - r: IPC stream (the streaming format, as produced by ipc.NewWriter)
//   - opts: Optional settings (inner hash family, parallelism)
//
// Returns:
//   - []byte: Digest over all records in stream order
//   - error: IPC decoding errors, or any digester error
func DigestIPC(r io.Reader, opts ...digest.Option) ([]byte, error) {
	rdr, err := ipc.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open IPC stream: %w", err)
	}
	defer rdr.Release()

	d, err := digest.NewRecordDigester(rdr.Schema(), opts...)
	if err != nil {
		return nil, err
	}

	for rdr.Next() {
		if err := d.Update(rdr.Record()); err != nil {
			return nil, err
		}
	}
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read IPC stream: %w", err)
	}

	return d.Finalize()
}
