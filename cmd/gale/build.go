package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gale/internal/diagfmt"
	"gale/internal/driver"
	"gale/internal/project"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [dir]",
	Short: "Build the Gale project in the current or given directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().Bool("check", false, "analyze only, write no output")
	buildCmd.Flags().Bool("emit", true, "write generated Rust sources")
	buildCmd.Flags().Bool("no-cache", false, "bypass the module caches")
	buildCmd.Flags().Int("jobs", 0, "parallel workers (0 = number of CPUs)")
	buildCmd.Flags().Int("max-rounds", 0, "ownership fixed-point round cap (0 = default)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	start := "."
	if len(args) == 1 {
		start = args[0]
	}
	path, ok, err := project.FindManifest(start)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no gale.toml found here or in any parent directory")
	}
	manifest, err := project.LoadManifest(path)
	if err != nil {
		return err
	}

	check, _ := cmd.Flags().GetBool("check")
	emit, _ := cmd.Flags().GetBool("emit")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	jobs, _ := cmd.Flags().GetInt("jobs")
	maxRounds, _ := cmd.Flags().GetInt("max-rounds")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	timings, _ := cmd.Root().PersistentFlags().GetBool("timings")

	res, err := driver.Run(manifest, driver.Options{
		Jobs:           jobs,
		MaxRounds:      maxRounds,
		Check:          check,
		NoCache:        noCache,
		MaxDiagnostics: maxDiagnostics(cmd),
	})
	if err != nil {
		return err
	}

	if res.Bag.Len() > 0 {
		diagfmt.Pretty(os.Stderr, res.Bag, res.FileSet, diagfmt.Options{
			Color:     useColor(cmd, os.Stderr),
			ShowNotes: true,
			ShowFixes: true,
		})
	}
	if timings {
		fmt.Fprint(os.Stderr, res.Timer.Summary())
	}
	if res.Bag.HasErrors() {
		os.Exit(1)
	}

	if !check && emit && res.Program != nil {
		if err := driver.WriteProgram(res.Program, manifest.OutDir()); err != nil {
			return err
		}
		if !quiet {
			fmt.Printf("wrote %d module(s) to %s\n", len(res.Program.Modules), manifest.OutDir())
		}
	}
	if !quiet && res.CacheHits > 0 {
		fmt.Printf("%d module(s) from cache\n", res.CacheHits)
	}
	return nil
}
