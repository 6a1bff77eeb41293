package main

import (
	"fmt"
	"os"

	"github.com/trebuchet-org/zkdeploy/internal/cli"
	"github.com/trebuchet-org/zkdeploy/internal/config"
)

// Set with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	config.SetBuildFlags(version, commit, date)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
