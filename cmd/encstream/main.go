// Command encstream encrypts and decrypts files using the encrypted-stream format.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/antoniusf/encrypted-stream/internal/logging"
)

var (
	verbose bool
	log     logging.Logger

	rootCmd = &cobra.Command{
		Use:   "encstream",
		Short: "Streaming authenticated encryption of files",
		Long: `encstream encrypts files into a streamable, seekable authenticated format
and decrypts them back, verifying every block before releasing plaintext.

Run 'encstream keygen' once to create a key, then pass it to 'encrypt' and
'decrypt' with --key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = logging.Logger{Verbose: verbose}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.AddCommand(keygenCmd, encryptCmd, decryptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
