// Command dtnsim runs contact graph routing experiments and inspects contact plans.
package main

import (
	"fmt"
	"os"

	"github.com/iti/dtnsim/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
