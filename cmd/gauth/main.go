// Command gauth runs the TOTP secret service and its management CLI.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/gauth/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
