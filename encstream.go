// Package encstream implements transparent, streaming authenticated encryption of byte streams.
//
// An [EncryptingReader] presents a fixed-length, seekable plaintext source as a seekable encrypted
// view, sealing one block at a time on demand so that arbitrarily large inputs can be uploaded or
// transferred incrementally without buffering the whole file. A [DecryptingWriter] accepts the
// resulting ciphertext as sequential writes and reconstructs the plaintext, releasing each block
// only after it has been authenticated.
//
// The encrypted stream starts with a 24-byte header (a 4-byte big-endian protocol version followed
// by a 20-byte random nonce prefix), then one sealed block per [BlockSize] bytes of plaintext.
// Each block's nonce is the stream's nonce prefix followed by a big-endian 32-bit counter holding
// the 0-based block index, with the top bit set on the final block. Distinguishing the final block
// in the nonce itself means a truncated stream can never pass authentication, while keeping block
// nonces recomputable from position alone, which is what makes seeking possible.
package encstream

import (
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// Version is the protocol version written to and accepted in stream headers.
	Version = 1

	// BlockSize is the number of plaintext bytes sealed into each non-final block. The final
	// block holds whatever remains, between 1 and BlockSize bytes.
	BlockSize = 1 << 20

	// KeySize is the size of a stream key, in bytes.
	KeySize = 32

	// TagSize is the size of the authentication tag appended to each sealed block.
	TagSize = secretbox.Overhead

	// HeaderSize is the size of the stream header: a 4-byte version plus a 20-byte nonce prefix.
	HeaderSize = versionSize + noncePrefixSize

	versionSize     = 4
	noncePrefixSize = 20
	nonceSize       = 24

	// sealedBlockSize is the on-wire size of a non-final block.
	sealedBlockSize = BlockSize + TagSize

	// maxBlocks bounds the block count: the counter field reserves its top bit for the final
	// flag, leaving 31 bits of index.
	maxBlocks = 1 << 31
)

var (
	// ErrUnsupportedVersion is returned when a stream header carries a protocol version this
	// package does not recognize.
	ErrUnsupportedVersion = errors.New("encstream: unsupported stream version")

	// ErrAuthentication is returned when a block fails authentication. It indicates corruption,
	// tampering, or a wrong key; no plaintext from the offending block is ever released.
	ErrAuthentication = errors.New("encstream: authentication failed")

	// ErrTruncated is returned when a stream demonstrably ended before it was complete: the
	// header never arrived in full, or too little data remained to form a valid final block.
	ErrTruncated = errors.New("encstream: truncated stream")

	// ErrProtocol is returned on API misuse, such as writing to or finalizing a stream that has
	// already finished or failed.
	ErrProtocol = errors.New("encstream: protocol misuse")

	// ErrEmptySource is returned when constructing an EncryptingReader over a zero-length
	// source. The format has no representation for an empty stream.
	ErrEmptySource = errors.New("encstream: zero-length sources are unsupported")

	// ErrStreamTooLarge is returned when a stream would need more blocks than the 31-bit block
	// counter can address.
	ErrStreamTooLarge = errors.New("encstream: stream exceeds maximum block count")

	errInvalidKeySize = errors.New("encstream: key must be 32 bytes")
)

// OutputSize returns the exact size of the encrypted stream for a plaintext of the given size:
// the header, the plaintext, and one tag per block. It performs no I/O.
//
// Panics if size is not positive; zero-length plaintexts have no encrypted form (see
// [ErrEmptySource]).
func OutputSize(size int64) int64 {
	if size <= 0 {
		panic("encstream: plaintext size must be positive")
	}
	return HeaderSize + size + TagSize*blockCount(size)
}

// blockCount returns ceil(size / BlockSize) for size >= 1.
func blockCount(size int64) int64 {
	return (size + BlockSize - 1) / BlockSize
}

// blockIndexOf maps a plaintext byte offset to its block index and the offset within that block.
func blockIndexOf(off int64) (index, within int64) {
	return off / BlockSize, off % BlockSize
}

// nonceFor derives the 24-byte nonce for one block of the stream identified by prefix. For a
// fixed prefix every block receives a distinct counter value: indices are distinct, and the final
// flag is set on exactly one block, the one with the highest index.
func nonceFor(prefix *[noncePrefixSize]byte, index uint32, final bool) *[nonceSize]byte {
	var nonce [nonceSize]byte
	copy(nonce[:], prefix[:])
	counter := index
	if final {
		counter |= 1 << 31
	}
	binary.BigEndian.PutUint32(nonce[noncePrefixSize:], counter)
	return &nonce
}

// wipe zeroes b.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
