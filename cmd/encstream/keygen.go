package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	encstream "github.com/antoniusf/encrypted-stream"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen <keyfile>",
	Short: "Generate a new stream key",
	Long:  "Generates a fresh 32-byte key and writes it, hex-encoded, to the given file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("refusing to overwrite existing key file %s", path)
		}

		key, err := encstream.GenerateKey(nil)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), 0o600); err != nil {
			return fmt.Errorf("writing key file: %w", err)
		}
		log.Infof("wrote key to %s", path)
		return nil
	},
}

// readKey loads and decodes a hex key file.
func readKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	key, err := hex.DecodeString(string(trimNewline(data)))
	if err != nil {
		return nil, fmt.Errorf("decoding key file %s: %w", path, err)
	}
	if len(key) != encstream.KeySize {
		return nil, fmt.Errorf("key file %s holds %d bytes, want %d", path, len(key), encstream.KeySize)
	}
	return key, nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
