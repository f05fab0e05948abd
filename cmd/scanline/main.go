// Command scanline validates production-line scans and keeps the scan ledger.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/scanline/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
