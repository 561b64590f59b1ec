package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	encstream "github.com/antoniusf/encrypted-stream"
)

var encryptKeyFile string

var encryptCmd = &cobra.Command{
	Use:   "encrypt <input> <output>",
	Short: "Encrypt a file",
	Long:  "Encrypts the input file into the streaming authenticated format.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := readKey(encryptKeyFile)
		if err != nil {
			return err
		}

		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		reader, err := encstream.NewEncryptingReader(in, key)
		if err != nil {
			return fmt.Errorf("preparing encrypted stream: %w", err)
		}
		defer reader.Close()

		out, err := os.Create(args[1])
		if err != nil {
			return err
		}
		defer out.Close()

		n, err := io.Copy(out, reader)
		if err != nil {
			return fmt.Errorf("encrypting: %w", err)
		}
		if err := out.Close(); err != nil {
			return err
		}
		log.Infof("wrote %d encrypted bytes to %s", n, args[1])
		return nil
	},
}

func init() {
	encryptCmd.Flags().StringVarP(&encryptKeyFile, "key", "k", "", "path to the key file (required)")
	_ = encryptCmd.MarkFlagRequired("key")
}
