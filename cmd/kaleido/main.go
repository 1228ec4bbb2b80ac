// Command kaleido loads, validates, and simulates synesthetic assets.
package main

import (
	"fmt"
	"os"

	"github.com/lumenlab/kaleido/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own diagnostics; the error here carries
		// the exit code and a short summary for anything they missed.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
