package main

import (
	"os"

	"github.com/woshizys/cachepulse/internal/cli"
)

// Main runs the CLI and maps its result to an exit code. Exported so the
// exit path can be exercised from a test.
func Main() int {
	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(Main())
}
