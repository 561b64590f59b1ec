package encstream

import (
	"crypto/rand"
	"fmt"
	"io"
)

// GenerateKey returns a fresh 32-byte stream key read from random. If random is nil, crypto/rand
// is used. The key is a shared secret between the encrypting and decrypting ends and must be kept
// confidential.
func GenerateKey(random io.Reader) ([]byte, error) {
	if random == nil {
		random = rand.Reader
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(random, key); err != nil {
		return nil, fmt.Errorf("encstream: generating key: %w", err)
	}
	return key, nil
}

// generatePrefix draws a fresh 20-byte nonce prefix from random, or crypto/rand if random is nil.
func generatePrefix(random io.Reader) (prefix [noncePrefixSize]byte, err error) {
	if random == nil {
		random = rand.Reader
	}
	if _, err = io.ReadFull(random, prefix[:]); err != nil {
		return prefix, fmt.Errorf("encstream: generating nonce prefix: %w", err)
	}
	return prefix, nil
}
