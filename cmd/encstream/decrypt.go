package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	encstream "github.com/antoniusf/encrypted-stream"
)

var decryptKeyFile string

var decryptCmd = &cobra.Command{
	Use:   "decrypt <input> <output>",
	Short: "Decrypt a file",
	Long: `Decrypts an encrypted stream back into plaintext. Every block is
authenticated before any of its plaintext is written; a tampered or
incomplete input leaves the output short and reports the cause.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := readKey(decryptKeyFile)
		if err != nil {
			return err
		}

		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.Create(args[1])
		if err != nil {
			return err
		}
		defer out.Close()

		writer, err := encstream.NewDecryptingWriter(out, key)
		if err != nil {
			return err
		}
		defer writer.Close()

		if _, err := io.Copy(writer, in); err != nil {
			return describeStreamError(err)
		}
		if err := writer.EndStream(); err != nil {
			return describeStreamError(err)
		}
		if err := out.Close(); err != nil {
			return err
		}
		log.Infof("decrypted %s to %s", args[0], args[1])
		return nil
	},
}

// describeStreamError maps the library's error kinds to actionable messages so the user can tell
// a security incident from a botched transfer.
func describeStreamError(err error) error {
	switch {
	case errors.Is(err, encstream.ErrAuthentication):
		return fmt.Errorf("%w\nthe file was corrupted or tampered with, or the key is wrong; the decrypted output is incomplete and must not be trusted", err)
	case errors.Is(err, encstream.ErrTruncated):
		return fmt.Errorf("%w\nthe file is incomplete; re-download it and try again", err)
	case errors.Is(err, encstream.ErrUnsupportedVersion):
		return fmt.Errorf("%w\nthe file was produced by a newer version of this tool", err)
	default:
		return err
	}
}

func init() {
	decryptCmd.Flags().StringVarP(&decryptKeyFile, "key", "k", "", "path to the key file (required)")
	_ = decryptCmd.MarkFlagRequired("key")
}
