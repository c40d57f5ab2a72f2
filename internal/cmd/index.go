package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/laeblab/crispy/internal/enzyme"
	"github.com/laeblab/crispy/internal/ioutil"
	"github.com/laeblab/crispy/internal/kindex"
	"github.com/laeblab/crispy/internal/pipeline"
)

var indexCmd = &cobra.Command{
	Use:   "index <fasta> [output]",
	Short: "build a k-mer index of PAM-adjacent sites in a genome",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		checkError(runIndex(cmd, args))
	},
}

func init() {
	indexCmd.Flags().StringP("enzyme", "e", "Cas9", "endonuclease to index for (Cas9|Mad7)")
	indexCmd.Flags().BoolP("positions", "p", false, "record full cut-site position lists instead of counts only")
}

func runIndex(cmd *cobra.Command, args []string) error {
	e, ok := enzyme.Get(getFlagString(cmd, "enzyme"))
	if !ok {
		return errors.New("unknown enzyme: " + getFlagString(cmd, "enzyme"))
	}

	fastaPath := args[0]
	outPath := fastaPath + e.Extension
	if len(args) > 1 {
		outPath = args[1]
	}

	log.Infof("indexing %s for %s", fastaPath, e.Name)
	obs := observerFor(cmd, "", 0)
	idx, err := pipeline.BuildIndex(fastaPath, e, getFlagBool(cmd, "positions"), obs)
	if err != nil {
		return errors.Wrap(err, "failed to build index")
	}
	log.Info(idx.Summarize())

	out, closer, err := ioutil.OutStream(outPath, false, 0)
	if err != nil {
		return errors.Wrap(err, "failed to open index output")
	}
	defer closer.Close()

	if err := kindex.Write(out, idx); err != nil {
		return errors.Wrap(err, "failed to write index")
	}
	if err := out.Flush(); err != nil {
		return errors.Wrap(err, "failed to flush index output")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote index to %s\n", outPath)
	return nil
}
