// Package cli implements the gauth command-line interface.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global CLI options shared by all commands.
type RootOptions struct {
	Verbose bool
	Format  string
}

// ValidFormats lists the accepted values for the --format flag.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root gauth command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gauth",
		Short: "TOTP secret service",
		Long: `gauth stores TOTP secrets and API keys in a local SQLite database
and serves a small JSON API for creating and verifying one-time codes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q (valid: %v)", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(
		NewServeCommand(opts),
		NewAPIKeyCommand(opts),
	)

	return cmd
}
