// Command gatekit builds, checks, inverts and reverses quantum operations
// declared in YAML scenario files.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/gatekit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gatekit: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
