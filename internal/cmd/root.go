// Package cmd implements the crispy command-line shell: a cobra root
// command plus the four subcommands (index, score, find, offtargets) that
// drive the indexing and query pipelines. Grounded on the teacher's
// unikmer/cmd/root.go root-command/Execute shape.
package cmd

import (
	"fmt"
	"os"

	"github.com/shenwei356/go-logging"
	"github.com/spf13/cobra"
)

// VERSION is the crispy release version, bumped alongside the index file
// format version when they move in lockstep.
const VERSION = "1.0.0"

var log = logging.MustGetLogger("crispy")

// RootCmd is the base command invoked when crispy is run with no
// subcommand: it prints usage to stderr and exits 0, per spec.md §6.
var RootCmd = &cobra.Command{
	Use:   "crispy",
	Short: "CRISPR gRNA off-target indexing and scoring",
	Long: fmt.Sprintf(`crispy - CRISPR gRNA off-target indexing and scoring

Builds a genome-wide k-mer index of PAM-adjacent sites for a chosen
endonuclease (Cas9 or Mad7), then answers three kinds of query against it:
scoring candidate gRNAs, finding candidate sites in a target sequence, and
listing genomic off-targets for a gRNA.

Version: %s
`, VERSION),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(os.Stderr, cmd.UsageString())
		os.Exit(0)
	},
}

// Execute runs the root command, printing the full error chain and exiting
// 1 on failure. Called once from main.
func Execute() {
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().IntP("threads", "j", 0, "number of worker threads to use (0 = runtime.NumCPU())")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "print verbose progress information")

	RootCmd.AddCommand(indexCmd)
	RootCmd.AddCommand(scoreCmd)
	RootCmd.AddCommand(findCmd)
	RootCmd.AddCommand(offtargetsCmd)
}
