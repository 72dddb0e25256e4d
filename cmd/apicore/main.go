package main

import (
	"fmt"
	"os"

	"github.com/Foxprodev/core/internal/bookshop"
	"github.com/Foxprodev/core/internal/cli/commands"
)

var (
	// Version information - will be set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

func main() {
	commands.Version = Version
	commands.GitCommit = GitCommit
	commands.BuildDate = BuildDate
	commands.GoVersion = GoVersion

	classes, err := bookshop.Classes()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := commands.Execute(classes); err != nil {
		os.Exit(1)
	}
}
