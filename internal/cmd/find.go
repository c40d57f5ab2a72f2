package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/laeblab/crispy/internal/crispyerr"
	"github.com/laeblab/crispy/internal/ioutil"
	"github.com/laeblab/crispy/internal/kindex"
	"github.com/laeblab/crispy/internal/pipeline"
	"github.com/laeblab/crispy/internal/progress"
)

var findCmd = &cobra.Command{
	Use:   "find <index> <targets.fasta>",
	Short: "find candidate gRNA sites in a target sequence",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		checkError(runFind(cmd, args))
	},
}

func init() {
	findCmd.Flags().StringP("output", "o", "-", "output file, '-' for stdout")
	findCmd.Flags().String("bed", "", "restrict search to regions named in this BED file")
}

func runFind(cmd *cobra.Command, args []string) error {
	idx, err := readIndex(args[0])
	if err != nil {
		return err
	}
	log.Info(idx.Summarize())

	out, outCloser, err := ioutil.OutStream(getFlagString(cmd, "output"), false, 0)
	if err != nil {
		return errors.Wrap(err, "failed to open output")
	}
	defer outCloser.Close()

	bedPath := getFlagString(cmd, "bed")
	header := []string{"Sequence", "Contig", "Start", "End", "Cutsite", "Strand", "Score"}
	if bedPath != "" {
		header = append([]string{"Sequence", "Region", "Contig"}, header[2:]...)
	}
	if _, err := out.WriteString(strings.Join(header, "\t") + "\n"); err != nil {
		return errors.Wrap(err, "failed to write output header")
	}

	emit := func(cols []string) error {
		_, werr := out.WriteString(strings.Join(cols, "\t") + "\n")
		return werr
	}

	obs := observerFor(cmd, "", 0)
	if bedPath == "" {
		if err := pipeline.FindTargetsInFasta(idx, args[1], emit, obs); err != nil {
			return errors.Wrap(err, "failed to find target sites")
		}
		return errors.Wrap(out.Flush(), "failed to flush output")
	}

	if err := runFindBed(idx, args[1], bedPath, emit, obs); err != nil {
		return errors.Wrap(err, "failed to find target sites restricted to BED regions")
	}
	return errors.Wrap(out.Flush(), "failed to flush output")
}

// runFindBed restricts the find pipeline to regions named in a BED file.
// Each region's sequence is fetched with grna_len padding on each side so a
// cut-site near the region boundary is still found. No site count is
// derived from the sequence length, so a region shorter than grna_len
// cannot underflow; the clamp on the region's own length only guards
// malformed BED rows where End < Start.
func runFindBed(idx *kindex.Index, targetsFasta, bedPath string, emit func([]string) error, obs progress.Observer) error {
	fasta, err := ioutil.OpenRandomAccessFasta(targetsFasta)
	if err != nil {
		return err
	}
	defer fasta.Close()

	bedFile, bedCloser, err := ioutil.InStream(bedPath)
	if err != nil {
		return err
	}
	defer bedCloser.Close()

	bed, err := ioutil.ReadBed(func(fn func(ioutil.TableRow) error) error {
		return ioutil.ReadTable(bedFile, fn)
	})
	if err != nil {
		return err
	}

	pad := idx.Enzyme.GrnaLen

	for _, chrom := range bed.Chroms() {
		if !fasta.HasSeq(chrom) {
			return crispyerr.Fmt(crispyerr.ReferenceMissing, "BED chromosome %q not found in %s", chrom, targetsFasta)
		}
		for _, region := range bed.Regions(chrom) {
			windowLen := region.End - region.Start
			if windowLen < 0 {
				windowLen = 0
			}
			fetchStart := region.Start - pad
			fetchEnd := region.End + pad

			sequence := fasta.Fetch(chrom, fetchStart, fetchEnd)
			localStart := pad
			localEnd := pad + windowLen

			sites := pipeline.FindTargets(idx, sequence)
			for _, site := range sites {
				coord := site.Start
				if site.HasCut {
					coord = site.Cutsite
				}
				if coord < localStart || coord >= localEnd {
					continue
				}

				full := pipeline.RenderTargetRow(idx.Enzyme, chrom, site)
				row := append([]string{full[0], region.Name}, full[1:]...)
				if err := emit(row); err != nil {
					return err
				}
				obs.Inc(1)
			}
		}
	}
	obs.Finish()
	return nil
}
