package encstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// An EncryptingReader presents a fixed-length plaintext source as a seekable encrypted stream.
//
// Blocks are sealed on demand as the read cursor crosses them, and the most recently sealed block
// is cached, so sequential reads seal each block exactly once regardless of read granularity.
// Seeking is free: it only changes which block the next Read computes.
//
// The reader takes exclusive logical ownership of the source's cursor for its lifetime. Block
// reads seek the source to absolute offsets, so moving the source cursor from outside breaks the
// stream in ways the reader cannot detect. Mutating the source's contents while the reader is
// live, or reusing the same key and nonce prefix over different plaintext, voids the scheme's
// security guarantees.
//
// Methods must not be called concurrently.
type EncryptingReader struct {
	src       io.ReadSeeker
	key       [KeySize]byte
	prefix    [noncePrefixSize]byte
	header    [HeaderSize]byte
	srcSize   int64
	outSize   int64
	numBlocks int64
	pos       int64 // read cursor, in encrypted-stream coordinates

	// Single-block cache. cacheIndex is the block index sealed in cache, or -1 when empty.
	cacheIndex int64
	cache      []byte
	plain      []byte
	closed     bool
}

var errReaderClosed = errors.New("encstream: EncryptingReader closed")

// NewEncryptingReader returns an EncryptingReader over src, sealed under key, using a fresh
// random nonce prefix.
//
// The source's length is measured by seeking to its end and back; it must not change for the
// reader's lifetime. Zero-length sources are rejected with [ErrEmptySource], and sources needing
// more than 2³¹ blocks with [ErrStreamTooLarge]. Closing the reader does not close src.
func NewEncryptingReader(src io.ReadSeeker, key []byte) (*EncryptingReader, error) {
	prefix, err := generatePrefix(nil)
	if err != nil {
		return nil, err
	}
	return newEncryptingReader(src, key, prefix)
}

// ResumeEncryptingReader is NewEncryptingReader with a caller-supplied 20-byte nonce prefix,
// producing a byte-identical stream to a previous reader constructed with the same key, prefix,
// and source contents. This allows an interrupted transfer of the encrypted view to be resumed
// without re-uploading from the start.
//
// The caller must guarantee that the (key, prefix) pair has never been used to encrypt different
// plaintext. That invariant cannot be verified here, and violating it destroys confidentiality
// and integrity for both streams.
func ResumeEncryptingReader(src io.ReadSeeker, key, prefix []byte) (*EncryptingReader, error) {
	if len(prefix) != noncePrefixSize {
		return nil, fmt.Errorf("encstream: nonce prefix must be %d bytes", noncePrefixSize)
	}
	return newEncryptingReader(src, key, [noncePrefixSize]byte(prefix))
}

func newEncryptingReader(src io.ReadSeeker, key []byte, prefix [noncePrefixSize]byte) (*EncryptingReader, error) {
	if len(key) != KeySize {
		return nil, errInvalidKeySize
	}

	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("encstream: sizing source: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("encstream: rewinding source: %w", err)
	}
	if size == 0 {
		return nil, ErrEmptySource
	}
	if blockCount(size) > maxBlocks {
		return nil, ErrStreamTooLarge
	}

	r := &EncryptingReader{
		src:        src,
		key:        [KeySize]byte(key),
		prefix:     prefix,
		srcSize:    size,
		outSize:    OutputSize(size),
		numBlocks:  blockCount(size),
		cacheIndex: -1,
		cache:      make([]byte, 0, sealedBlockSize),
		plain:      make([]byte, BlockSize),
	}
	binary.BigEndian.PutUint32(r.header[:versionSize], Version)
	copy(r.header[versionSize:], prefix[:])
	return r, nil
}

// OutputSize returns the total size of the encrypted stream. It is precomputed from the source
// length and performs no I/O.
func (r *EncryptingReader) OutputSize() int64 {
	return r.outSize
}

// Read fills p with up to len(p) bytes of the encrypted stream starting at the current cursor,
// crossing block boundaries as needed. It returns io.EOF once the cursor reaches OutputSize.
func (r *EncryptingReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, errReaderClosed
	}
	if r.pos >= r.outSize {
		return 0, io.EOF
	}

	n := 0
	for n < len(p) && r.pos < r.outSize {
		if r.pos < HeaderSize {
			c := copy(p[n:], r.header[r.pos:])
			n += c
			r.pos += int64(c)
			continue
		}

		// Encrypted-stream offsets past the header map to sealed blocks of uniform size,
		// except the last, which is shorter and so can never be misattributed.
		off := r.pos - HeaderSize
		index := off / sealedBlockSize
		within := off % sealedBlockSize

		if r.cacheIndex != index {
			if err := r.fill(index); err != nil {
				return n, err
			}
		}

		c := copy(p[n:], r.cache[within:])
		n += c
		r.pos += int64(c)
	}
	return n, nil
}

// fill reads block index from the source, seals it, and leaves it in the cache.
func (r *EncryptingReader) fill(index int64) error {
	start := index * BlockSize
	final := index == r.numBlocks-1
	length := int64(BlockSize)
	if final {
		length = r.srcSize - start
	}

	if _, err := r.src.Seek(start, io.SeekStart); err != nil {
		return fmt.Errorf("encstream: seeking source to block %d: %w", index, err)
	}
	block := r.plain[:length]
	if _, err := io.ReadFull(r.src, block); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// The source shrank under us.
			return fmt.Errorf("%w: source ended inside block %d", ErrTruncated, index)
		}
		return fmt.Errorf("encstream: reading block %d: %w", index, err)
	}

	nonce := nonceFor(&r.prefix, uint32(index), final)
	r.cache = secretbox.Seal(r.cache[:0], block, nonce, &r.key)
	r.cacheIndex = index
	return nil
}

// Seek moves the read cursor. The computed position is clamped into [0, OutputSize], so seeking
// out of range does not fail; it performs no I/O and no sealing.
func (r *EncryptingReader) Seek(offset int64, whence int) (int64, error) {
	if r.closed {
		return 0, errReaderClosed
	}

	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = r.pos
	case io.SeekEnd:
		base = r.outSize
	default:
		return 0, fmt.Errorf("encstream: invalid seek whence %d", whence)
	}

	pos := base + offset
	if pos < 0 {
		pos = 0
	}
	if pos > r.outSize {
		pos = r.outSize
	}
	r.pos = pos
	return pos, nil
}

// Close releases the reader's buffers and scrubs its key copy. It does not close or otherwise
// touch the wrapped source, which remains owned by the caller. Close is idempotent; all other
// methods fail after it.
func (r *EncryptingReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	wipe(r.key[:])
	wipe(r.plain)
	wipe(r.cache[:cap(r.cache)])
	r.plain = nil
	r.cache = nil
	r.cacheIndex = -1
	return nil
}

var _ io.ReadSeekCloser = (*EncryptingReader)(nil)
