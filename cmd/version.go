package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/quickdict/quickdict/internal/build"
)

// NewVersionCommand returns the command to get the quickdict version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Return the quickdict version",
		Long:  "Return the quickdict version.",
		RunE:  version,
		Args:  cobra.NoArgs,
	}
}

func version(_ *cobra.Command, _ []string) error {
	log.Printf("quickdict version %s date %s commit id %s", build.Version, build.Date, build.Commit)
	return nil
}
