package main

import (
	"fmt"
	"os"

	"github.com/saleem-mirza/serilog-sinks-sqlite/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
