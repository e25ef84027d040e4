package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gale/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the gale build fingerprint",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gale %s\n", version.Pretty())
		if version.GitCommit != "" {
			fmt.Printf("  commit: %s\n", version.GitCommit)
		}
		if version.BuildDate != "" {
			fmt.Printf("  built:  %s\n", version.BuildDate)
		}
	},
}
