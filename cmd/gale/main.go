package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"gale/internal/diagfmt"
	"gale/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "gale",
	Short: "Gale language compiler",
	Long:  `Gale compiles .ga sources to Rust, inferring ownership modes and mutability along the way`,
}

func main() {
	rootCmd.Version = version.Number

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show per-phase timings")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// useColor resolves the persistent --color flag against a stream.
func useColor(cmd *cobra.Command, w io.Writer) bool {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	return diagfmt.ParseColorMode(mode).Enabled(w)
}

func maxDiagnostics(cmd *cobra.Command) int {
	n, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	return n
}
