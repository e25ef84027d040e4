package main

import (
	"os"

	"github.com/spf13/cobra"

	"gale/internal/diagfmt"
	"gale/internal/driver"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize file.ga",
	Short: "Dump the token stream of one source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func runTokenize(cmd *cobra.Command, args []string) error {
	res, err := driver.Tokenize(args[0], maxDiagnostics(cmd))
	if err != nil {
		return err
	}
	if res.Bag.Len() > 0 {
		diagfmt.Pretty(os.Stderr, res.Bag, res.FileSet, diagfmt.Options{
			Color: useColor(cmd, os.Stderr),
		})
	}
	if err := diagfmt.Tokens(os.Stdout, res.Tokens, res.FileSet, res.Interner); err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		os.Exit(1)
	}
	return nil
}
