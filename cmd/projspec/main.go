package main

import (
	"fmt"
	"os"

	app "github.com/valter-silva-au/projspec/internal"
	"github.com/valter-silva-au/projspec/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	root := app.ResolveProjectRoot()

	a, err := app.NewApp(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing projspec: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
