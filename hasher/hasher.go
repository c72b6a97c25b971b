// Package hasher defines the inner-hash families the digesters are
// parameterized by.
//
// The hashing protocol treats the inner hash as an opaque sponge with update
// and finalize operations; the standard library hash.Hash interface is
// exactly that (update = Write, finalize = Sum). A Family is a constructor
// for fresh, independent hasher instances — each digester column owns one.
//
// SHA3256 is the default family. XXHash64 trades cryptographic strength for
// speed and suits content-addressing within a trusted process; digests from
// different families are never comparable.
package hasher

import (
	"hash"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Family constructs fresh, independent inner hasher instances.
//
// Implementations must be deterministic and byte-oriented: the same sequence
// of Write calls yields the same Sum on every host.
type Family func() hash.Hash

// SHA3256 is the SHA3-256 family, the default inner hash.
var SHA3256 Family = sha3.New256

// BLAKE2b256 is the BLAKE2b-256 family.
var BLAKE2b256 Family = func() hash.Hash {
	// blake2b only fails on oversized keys; unkeyed construction cannot fail.
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}

	return h
}

// XXHash64 is the xxHash64 family, a fast non-cryptographic option.
var XXHash64 Family = func() hash.Hash {
	return xxhash.New()
}

// Default returns the family used when none is configured.
func Default() Family {
	return SHA3256
}
