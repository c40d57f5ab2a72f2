package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/laeblab/crispy/internal/progress"
)

// checkError prints the full error chain to stderr and exits 1. Every
// subcommand's Run routes its one fallible entry point through this, so
// there is exactly one place user-visible failures are rendered.
func checkError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func getFlagString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	checkError(err)
	return v
}

func getFlagBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	checkError(err)
	return v
}

func getFlagInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	checkError(err)
	return v
}

func getFlagUint64(cmd *cobra.Command, name string) uint64 {
	v, err := cmd.Flags().GetUint64(name)
	checkError(err)
	return v
}

// threadCount resolves the --threads persistent flag, substituting
// runtime.NumCPU() for the "implementation default" sentinel 0, per
// spec.md §5.
func threadCount(cmd *cobra.Command) int {
	n := getFlagInt(cmd, "threads")
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// observerFor returns a stderr-backed Observer when --verbose is set, else
// a Noop -- the progress capability is injected, never global.
func observerFor(cmd *cobra.Command, prefix string, total uint64) progress.Observer {
	if !getFlagBool(cmd, "verbose") {
		return progress.Noop{}
	}
	return progress.NewStderrBar(prefix, total)
}
