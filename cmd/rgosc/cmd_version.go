package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newtron-network/rgosc/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(app.out, "rgosc "+version.Info())
	},
}
