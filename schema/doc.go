// Package schema implements the canonical encoding of Arrow logical types
// and schemas, and the leaf-column planning shared with the record digester.
//
// The canonical type encoding collapses representational degrees of freedom:
// Utf8 and LargeUtf8 share a TypeID, the whole binary family (Binary,
// LargeBinary, FixedSizeBinary) shares one, the list family (List, LargeList,
// FixedSizeList) shares one, view layouts map to their non-view IDs, and
// dictionary encoding is transparent. Two schemas that describe the same
// logical table therefore encode to identical byte streams.
//
// Union and map types, run-end encoding, list views and extension types are
// outside the protocol and are reported as errs.ErrUnsupportedType.
package schema
