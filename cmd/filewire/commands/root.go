// Package commands implements the filewire CLI command tree.
package commands

import (
	"github.com/spf13/cobra"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	configDir      string
	timeoutFlag    string
	nonInteractive bool
	logLevel       string
	logFormat      string
)

// rootCmd is the base command. With no subcommand it runs one transfer.
var rootCmd = &cobra.Command{
	Use:   "filewire",
	Short: "Encrypted file-transfer client",
	Long: `filewire connects to a trusted server, registers or logs in,
exchanges an AES session key under RSA, and uploads one file in encrypted
chunks with checksum reconciliation.

Run with no arguments in a directory containing transfer.info to start
a transfer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTransfer,
}

// Execute runs the command tree, returning the error the caller should
// translate into a process exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory containing transfer.info, me.info, priv.key")
	rootCmd.PersistentFlags().StringVar(&timeoutFlag, "timeout", "", "connect/read timeout (e.g. 30s); empty means unlimited")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "fail instead of prompting when transfer.info is missing")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override FILEWIRE_LOG_LEVEL (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override FILEWIRE_LOG_FORMAT (text|json)")

	rootCmd.AddCommand(versionCmd)
}
