// Command mrqart follows an MRQART server and shows protocol deviations
// per scanner station.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mrqart/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return cli.GetExitCode(err)
}
