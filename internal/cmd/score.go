package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/laeblab/crispy/internal/ioutil"
	"github.com/laeblab/crispy/internal/kindex"
	"github.com/laeblab/crispy/internal/pipeline"
)

var scoreCmd = &cobra.Command{
	Use:   "score <index> <table>",
	Short: "score candidate gRNAs against an index",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		checkError(runScore(cmd, args))
	},
}

func init() {
	scoreCmd.Flags().StringP("output", "o", "-", "output file, '-' for stdout")
}

func runScore(cmd *cobra.Command, args []string) error {
	idx, err := readIndex(args[0])
	if err != nil {
		return err
	}
	log.Info(idx.Summarize())

	in, inCloser, err := ioutil.InStream(args[1])
	if err != nil {
		return errors.Wrap(err, "failed to open table of target sites")
	}
	defer inCloser.Close()

	out, outCloser, err := ioutil.OutStream(getFlagString(cmd, "output"), false, 0)
	if err != nil {
		return errors.Wrap(err, "failed to open output")
	}
	defer outCloser.Close()

	obs := observerFor(cmd, "", 0)
	err = pipeline.ScoreRows(idx, func(fn func(ioutil.TableRow) error) error {
		return ioutil.ReadTable(in, fn)
	}, func(cols []string) error {
		_, werr := out.WriteString(strings.Join(cols, "\t") + "\n")
		return werr
	}, threadCount(cmd), obs)
	if err != nil {
		return errors.Wrap(err, "failed to score target sites")
	}

	return errors.Wrap(out.Flush(), "failed to flush output")
}

func readIndex(path string) (*kindex.Index, error) {
	in, closer, err := ioutil.InStream(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read index %s", path)
	}
	defer closer.Close()

	idx, err := kindex.Read(in)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read index %s", path)
	}
	return idx, nil
}
