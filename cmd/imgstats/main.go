package main

import (
	"fmt"
	"os"

	"github.com/imgtools/imgstats/internal/cli"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	root := cli.NewRootCmd(fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit))
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "imgstats: %v\n", err)
		os.Exit(1)
	}
}
