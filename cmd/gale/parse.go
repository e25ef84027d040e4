package main

import (
	"os"

	"github.com/spf13/cobra"

	"gale/internal/diagfmt"
	"gale/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse file.ga",
	Short: "Dump the item tree of one source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	res, err := driver.Parse(args[0], maxDiagnostics(cmd))
	if err != nil {
		return err
	}
	if res.Bag.Len() > 0 {
		diagfmt.Pretty(os.Stderr, res.Bag, res.FileSet, diagfmt.Options{
			Color:     useColor(cmd, os.Stderr),
			ShowNotes: true,
		})
	}
	if err := diagfmt.Tree(os.Stdout, res.Builder, res.Interner, res.File); err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		os.Exit(1)
	}
	return nil
}
