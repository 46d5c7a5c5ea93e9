package main

import (
	"os"

	"github.com/quickdict/quickdict/cmd"
	"github.com/quickdict/quickdict/cmd/lookup"
	"github.com/quickdict/quickdict/cmd/search"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	rootCmd.AddCommand(lookup.NewLookupCommand())
	rootCmd.AddCommand(search.NewSearchCommand())
	rootCmd.AddCommand(cmd.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
