// viewer renders TestRift test run log streams as a timeline in the
// terminal, either live from a running server or replayed from a recorded
// transcript.
package main

import (
	"fmt"
	"os"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
