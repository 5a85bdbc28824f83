// cmd/manzai/main.go
package main

import (
	cmd "github.com/mwiater/manzai/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main hands control to the cobra root command.
func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
