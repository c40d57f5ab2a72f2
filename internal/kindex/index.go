// Package kindex implements the top-level index (enzyme + refseq names +
// k-mer table), its binary file format (C6), and the scoring/off-target
// lookup operations (C8) that run against it.
package kindex

import (
	"fmt"

	"github.com/laeblab/crispy/internal/enzyme"
	"github.com/laeblab/crispy/internal/kmer"
	"github.com/laeblab/crispy/internal/kmertable"
	"github.com/laeblab/crispy/internal/position"
)

// Index is the immutable, read-only-after-construction genome index: an
// enzyme record, the ordered list of reference sequence names (populated
// only in Positions mode), and the dense k-mer table.
type Index struct {
	Enzyme  enzyme.Enzyme
	Refseqs []string
	Table   *kmertable.Table
}

// New builds an Index from its parts.
func New(e enzyme.Enzyme, refseqs []string, table *kmertable.Table) *Index {
	return &Index{Enzyme: e, Refseqs: refseqs, Table: table}
}

// HasPositions reports whether off-target position listings are available.
func (idx *Index) HasPositions() bool {
	return idx.Table.HasPositions()
}

// KmerCount returns the number of distinct k-mers with at least one hit.
func (idx *Index) KmerCount() uint64 {
	return idx.Table.UniqueCount()
}

// Summarize renders a short human-readable description of the index,
// mirroring the original CLI's KMerIndex::summarize banner.
func (idx *Index) Summarize() string {
	side := "3'"
	if idx.Enzyme.PAM.IsHead() {
		side = "5'"
	}
	return fmt.Sprintf("Index contains %d unique K-mers for %s with %s PAM sequence %s",
		idx.KmerCount(), idx.Enzyme.Name, side, idx.Enzyme.PAM.String())
}

// Score implements C8's score operation: the sum, over every k-mer k'
// within the mismatch budget of code, of count(k') * weight(k', code).
func (idx *Index) Score(code uint32) uint64 {
	var total uint64
	for _, n := range kmer.Neighbors(code) {
		total += uint64(idx.Table.Count(n.Kmer)) * n.Score()
	}
	return total
}

// OffTarget is one scored genomic hit returned by OffTargets.
type OffTarget struct {
	Score    uint64
	Position position.Position
}

// OffTargets implements C8's off-target listing: for every neighbor k' of
// code whose score is >= minScore, emit one OffTarget per recorded position
// of k'. Requires Positions mode; callers must check HasPositions first.
// Emission order follows the permutation generator's traversal and is not
// sorted.
func (idx *Index) OffTargets(code uint32, minScore uint64) ([]OffTarget, error) {
	var out []OffTarget
	for _, n := range kmer.Neighbors(code) {
		score := n.Score()
		if score < minScore {
			continue
		}
		positions, err := idx.Table.Positions(n.Kmer)
		if err != nil {
			return nil, err
		}
		for _, p := range positions {
			out = append(out, OffTarget{Score: score, Position: p})
		}
	}
	return out, nil
}
