/*
Package cli implements contactctl, the operator tool for the contact relay.
*/
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the contactctl command tree.
func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "contactctl",
		Short: "Operate the contact relay service",
		Long: `contactctl checks a contact relay deployment from the command line.

It reads the same environment (and optional .env file) as the service.

Example:
  contactctl config check         # Report missing delivery settings
  contactctl probe                # Exit non-zero unless /health answers 2xx
  contactctl send-test            # Deliver a test message to the owner`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	logger := func() zerolog.Logger {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	}

	root.AddCommand(newProbeCommand())
	root.AddCommand(newConfigCommand())
	root.AddCommand(newSendTestCommand(logger))
	return root
}
