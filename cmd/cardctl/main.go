// Command cardctl inspects card stack archives and save stores and drives a
// running player through its debug console.
package main

import (
	"os"

	"github.com/cory-johannsen/cardstack/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
