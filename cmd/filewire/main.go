package main

import (
	"fmt"
	"os"

	"github.com/marmos91/filewire/cmd/filewire/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "filewire: %v\n", err)
		os.Exit(commands.ExitCodeFor(err))
	}
}
