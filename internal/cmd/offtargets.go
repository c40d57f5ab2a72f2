package cmd

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/laeblab/crispy/internal/crispyerr"
	"github.com/laeblab/crispy/internal/ioutil"
	"github.com/laeblab/crispy/internal/pipeline"
)

var offtargetsCmd = &cobra.Command{
	Use:     "offtargets <index> <table> [fasta]",
	Aliases: []string{"off_targets"},
	Short:   "list genomic off-targets for candidate gRNAs",
	Args:    cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		checkError(runOffTargets(cmd, args))
	},
}

func init() {
	offtargetsCmd.Flags().StringP("output", "o", "-", "output file, '-' for stdout")
	offtargetsCmd.Flags().Uint64("min-score", 0, "minimum off-target weight to report")
}

func runOffTargets(cmd *cobra.Command, args []string) error {
	idx, err := readIndex(args[0])
	if err != nil {
		return err
	}
	log.Info(idx.Summarize())

	if !idx.HasPositions() {
		return crispyerr.New(crispyerr.MissingCapability, "index was not built with --positions; cannot list off-target positions")
	}

	fastaPath := ""
	if len(args) > 2 {
		fastaPath = args[2]
	} else if ext := filepath.Ext(args[0]); ext != "" {
		fastaPath = strings.TrimSuffix(args[0], ext)
	}

	var fasta *ioutil.RandomAccessFasta
	if fastaPath != "" {
		fasta, err = ioutil.OpenRandomAccessFasta(fastaPath)
		if err == nil {
			defer fasta.Close()
		} else {
			fasta = nil
		}
	}

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

	if _, err := out.WriteString("Query\tOfftarget\tName\tStart\tEnd\tCutsite\tStrand\tScore\n"); err != nil {
		return errors.Wrap(err, "failed to write output header")
	}

	var queries []string
	err = ioutil.ReadTable(in, func(row ioutil.TableRow) error {
		if len(row.Columns) > 0 {
			queries = append(queries, row.Columns[0])
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to read table of target sites")
	}

	minScore := getFlagUint64(cmd, "min-score")
	err = pipeline.OffTargetsForQueries(idx, queries, minScore, fasta, func(row pipeline.OffTargetRow) error {
		_, werr := out.WriteString(strings.Join([]string{
			row.Query,
			row.Offtarget,
			row.Contig,
			strconv.FormatInt(row.Start, 10),
			strconv.FormatInt(row.End, 10),
			row.Cutsite,
			string(row.Strand),
			strconv.FormatUint(row.Score, 10),
		}, "\t") + "\n")
		return werr
	}, func(query string) {
		log.Warningf("could not look up off-targets for %q", query)
	})
	if err != nil {
		return errors.Wrap(err, "failed to resolve off-targets")
	}

	return errors.Wrap(out.Flush(), "failed to flush output")
}
