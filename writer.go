package encstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// sinkState tracks a DecryptingWriter through its lifecycle. The interesting transition is
// streaming → finished, which only EndStream may take: a block is decoded as non-final only while
// buffered data beyond it proves that more of the stream follows.
type sinkState int

const (
	stateHeader sinkState = iota
	stateStreaming
	stateFinished
	stateErrored
)

// A DecryptingWriter accepts an encrypted stream as sequential writes and reconstructs the
// plaintext into a destination writer.
//
// Incoming bytes are buffered with one block of lookahead: a buffered block is decoded with a
// non-final nonce only once strictly more than one sealed block's worth of data has arrived,
// which proves it cannot be the last. The remainder is held until [DecryptingWriter.EndStream]
// declares the stream complete and decodes it as the final block. Plaintext reaches the
// destination only after its block authenticates; blocks written before a later failure stay
// written.
//
// Methods must not be called concurrently.
type DecryptingWriter struct {
	dst    io.Writer
	key    [KeySize]byte
	prefix [noncePrefixSize]byte
	state  sinkState
	buf    []byte
	plain  []byte
	next   uint32 // index of the next block to decode
	closed bool
}

var errWriterClosed = errors.New("encstream: DecryptingWriter closed")

// NewDecryptingWriter returns a DecryptingWriter that decrypts into dst under key. Closing the
// writer does not close dst.
func NewDecryptingWriter(dst io.Writer, key []byte) (*DecryptingWriter, error) {
	if len(key) != KeySize {
		return nil, errInvalidKeySize
	}
	return &DecryptingWriter{
		dst:   dst,
		key:   [KeySize]byte(key),
		plain: make([]byte, 0, BlockSize),
	}, nil
}

// Write buffers p and decodes every buffered block whose non-finality is already proven, writing
// the recovered plaintext to the destination in order.
//
// It fails with [ErrUnsupportedVersion] if the header's version field is unrecognized, with
// [ErrAuthentication] if a block fails to authenticate, and with [ErrProtocol] once the stream
// has finished or failed. All failures are terminal for the stream.
func (w *DecryptingWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errWriterClosed
	}
	switch w.state {
	case stateFinished:
		return 0, fmt.Errorf("%w: write after end of stream", ErrProtocol)
	case stateErrored:
		return 0, fmt.Errorf("%w: write to failed stream", ErrProtocol)
	}

	w.buf = append(w.buf, p...)

	if w.state == stateHeader {
		if len(w.buf) < HeaderSize {
			return len(p), nil
		}
		if v := binary.BigEndian.Uint32(w.buf[:versionSize]); v != Version {
			w.state = stateErrored
			return len(p), fmt.Errorf("%w: got version %d, want %d", ErrUnsupportedVersion, v, Version)
		}
		copy(w.prefix[:], w.buf[versionSize:HeaderSize])
		w.consume(HeaderSize)
		w.state = stateStreaming
	}

	// Anything beyond one sealed block demonstrably has data after it, so it is not final.
	for len(w.buf) > sealedBlockSize {
		if err := w.decode(w.buf[:sealedBlockSize], false); err != nil {
			return len(p), err
		}
		w.consume(sealedBlockSize)
	}
	return len(p), nil
}

// EndStream declares the encrypted stream complete, decoding everything still buffered as the
// final block and flushing its plaintext to the destination.
//
// It fails with [ErrTruncated] if the stream ended inside the header or with too little data to
// form a valid final block, with [ErrAuthentication] if the final block does not authenticate,
// and with [ErrProtocol] if the stream already finished or failed. On success the writer is
// finished and accepts no further writes.
func (w *DecryptingWriter) EndStream() error {
	if w.closed {
		return errWriterClosed
	}
	switch w.state {
	case stateHeader:
		w.state = stateErrored
		return fmt.Errorf("%w: stream ended inside header", ErrTruncated)
	case stateFinished:
		return fmt.Errorf("%w: stream already ended", ErrProtocol)
	case stateErrored:
		return fmt.Errorf("%w: stream already failed", ErrProtocol)
	}

	// A valid final block carries at least one plaintext byte plus the tag.
	if len(w.buf) <= TagSize {
		w.state = stateErrored
		return fmt.Errorf("%w: %d bytes left for final block", ErrTruncated, len(w.buf))
	}

	if err := w.decode(w.buf, true); err != nil {
		return err
	}
	w.buf = w.buf[:0]
	w.state = stateFinished
	return nil
}

// decode opens one sealed block as block index w.next and forwards its plaintext.
func (w *DecryptingWriter) decode(block []byte, final bool) error {
	if w.next >= maxBlocks {
		w.state = stateErrored
		return ErrStreamTooLarge
	}

	nonce := nonceFor(&w.prefix, w.next, final)
	plain, ok := secretbox.Open(w.plain[:0], block, nonce, &w.key)
	if !ok {
		w.state = stateErrored
		return fmt.Errorf("%w: block %d", ErrAuthentication, w.next)
	}

	if _, err := w.dst.Write(plain); err != nil {
		w.state = stateErrored
		return fmt.Errorf("encstream: writing block %d: %w", w.next, err)
	}
	w.next++
	return nil
}

// consume discards the oldest n buffered bytes.
func (w *DecryptingWriter) consume(n int) {
	m := copy(w.buf, w.buf[n:])
	w.buf = w.buf[:m]
}

// Close releases the writer's buffers and scrubs its key copy. It does not call EndStream:
// closing a writer that is still streaming leaves the destination short of the full plaintext,
// which is a caller error this writer does not silently paper over. It also does not close the
// destination. Close is idempotent.
func (w *DecryptingWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	wipe(w.key[:])
	wipe(w.buf[:cap(w.buf)])
	wipe(w.plain[:cap(w.plain)])
	w.buf = nil
	w.plain = nil
	return nil
}

var _ io.WriteCloser = (*DecryptingWriter)(nil)
