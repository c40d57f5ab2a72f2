package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laeblab/crispy/internal/enzyme"
	"github.com/laeblab/crispy/internal/ioutil"
	"github.com/laeblab/crispy/internal/kindex"
	"github.com/laeblab/crispy/internal/kmer"
	"github.com/laeblab/crispy/internal/kmertable"
	"github.com/laeblab/crispy/internal/position"
)

// buildScoredIndex returns a Cas9 index (in the given table mode) whose only
// recorded k-mer is encode(kmerSeq), with a recorded count of 1.
func buildScoredIndex(t *testing.T, kmerSeq string, withPositions bool) (*kindex.Index, uint32) {
	t.Helper()
	code, err := kmer.Encode([]byte(kmerSeq))
	require.NoError(t, err)

	var table *kmertable.Table
	if withPositions {
		table = kmertable.NewPositions()
		table.Add(position.Forward(0, 12), code)
	} else {
		table = kmertable.NewCounts()
		table.Add(position.Position{}, code)
	}

	return kindex.New(enzyme.Cas9(), []string{"chr1"}, table), code
}

func TestScoreRowsHeaderAndData(t *testing.T) {
	idx, _ := buildScoredIndex(t, "ACTGAGTCAGATA", false)

	rows := []ioutil.TableRow{
		{Index: 0, Columns: []string{"sequence"}},
		{Index: 1, Columns: []string{"ACTGAGTCAGATATGG"}},
		{Index: 2, Columns: []string{"NNNNNNNNNNNNNNNN"}},
	}

	var out [][]string
	err := ScoreRows(idx, func(fn func(ioutil.TableRow) error) error {
		for _, r := range rows {
			if err := fn(r); err != nil {
				return err
			}
		}
		return nil
	}, func(cols []string) error {
		out = append(out, cols)
		return nil
	}, 2, nil)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "Score", out[0][len(out[0])-1], "header row score column")
	assert.Equal(t, "500", out[1][len(out[1])-1], "data row score column")
	assert.Equal(t, "NA", out[2][len(out[2])-1], "unencodable row score column")
}

func TestFindTargetsSingleForwardHit(t *testing.T) {
	idx, _ := buildScoredIndex(t, "TTTTTTTTTTTTT", false)

	sequence := strings.Repeat("T", 21) + "GG"
	sites := FindTargets(idx, []byte(sequence))
	require.Len(t, sites, 1)

	s := sites[0]
	assert.True(t, s.Forward)
	assert.Equal(t, 0, s.Start)
	assert.Equal(t, 23, s.End)
	assert.True(t, s.HasCut)
	assert.Equal(t, 17, s.Cutsite)
	assert.Equal(t, uint64(500), s.Score)

	row := RenderTargetRow(idx.Enzyme, "chr1", s)
	assert.Equal(t, []string{row[0], "chr1", "1", "23", "18", "+", "500"}, row)
	assert.True(t, strings.HasSuffix(row[0], "tgg"), "sequence column %q should have a lowercased PAM suffix", row[0])
}

func TestOffTargetsForQueryExactMatch(t *testing.T) {
	idx, _ := buildScoredIndex(t, "ACTGAGTCAGATA", true)

	rows, ok, err := OffTargetsForQuery(idx, "ACTGAGTCAGATATGG", 0, nil)
	require.NoError(t, err)
	require.True(t, ok, "expected ok=true for a valid PAM-carrying query")
	require.NotEmpty(t, rows)

	var exact *OffTargetRow
	for i := range rows {
		if rows[i].Score == 500 {
			exact = &rows[i]
		}
	}
	require.NotNil(t, exact, "no exact-match (score 500) row among %+v", rows)
	assert.Equal(t, "chr1", exact.Contig)
	assert.Equal(t, byte('+'), exact.Strand)
	assert.Equal(t, "13", exact.Cutsite)
	assert.Equal(t, "NA", exact.Offtarget, "Offtarget column without a FASTA source")
}

func TestOffTargetsForQueryRejectsMissingPAM(t *testing.T) {
	idx, _ := buildScoredIndex(t, "ACTGAGTCAGATA", true)

	_, ok, err := OffTargetsForQuery(idx, "NNNNNNNNNNNNNNNN", 0, nil)
	require.NoError(t, err)
	assert.False(t, ok, "expected ok=false for a query with no valid PAM/k-mer")
}

func TestOffTargetsForQueriesDedupes(t *testing.T) {
	idx, _ := buildScoredIndex(t, "ACTGAGTCAGATA", true)

	var emitted int
	var warned []string
	err := OffTargetsForQueries(idx, []string{
		"ACTGAGTCAGATATGG",
		"actgagtcagatatgg", // same query, different case
		"NNNNNNNNNNNNNNNN", // unmatched, should warn once
	}, 0, nil, func(OffTargetRow) error {
		emitted++
		return nil
	}, func(q string) {
		warned = append(warned, q)
	})
	require.NoError(t, err)
	assert.NotZero(t, emitted, "expected at least one emitted row")
	assert.Len(t, warned, 1)
}
