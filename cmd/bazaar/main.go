// Command bazaar runs the marketplace ledger: one-shot calls against a
// SQLite market database, the HTTP server, verification and scenarios.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/bazaar/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
