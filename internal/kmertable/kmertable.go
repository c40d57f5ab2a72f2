// Package kmertable implements the dense, k-mer-addressed table (C5)
// backing the index: either a Counts table (one uint32 per k-mer) or a
// Positions table (one variable-length list of genomic cut-sites per
// k-mer). Both variants are allocated at the full 4^K size up front -
// spec.md §9 requires the dense array; a hash-based sparse alternative
// would dominate the cost of neighbor enumeration, where every one of a
// query's 8,194 neighbors must be probed.
//
// Grounded on the teacher's index/serialization.go Header/Reader/Writer
// split (a dense per-k-mer array, indexed directly by integer code) but
// generalized to the two-variant shape spec.md describes.
package kmertable

import (
	"errors"

	"github.com/laeblab/crispy/internal/kmer"
	"github.com/laeblab/crispy/internal/position"
)

// ErrNotPositions is returned by Positions() on a Counts-mode table.
var ErrNotPositions = errors.New("kmertable: table is Counts mode, cannot serve position lookups")

// Table is a tagged container holding either per-k-mer counts or per-k-mer
// position lists, addressable over the full [0, kmer.Count) k-mer space.
type Table struct {
	counts    []uint32
	positions [][]position.Position
}

// NewCounts allocates an all-zero Counts-mode table.
func NewCounts() *Table {
	return &Table{counts: make([]uint32, kmer.Count)}
}

// NewPositions allocates an all-empty Positions-mode table.
func NewPositions() *Table {
	return &Table{positions: make([][]position.Position, kmer.Count)}
}

// HasPositions reports whether this table is in Positions mode.
func (t *Table) HasPositions() bool {
	return t.positions != nil
}

// Add records one occurrence of kmer at position. In Counts mode, pos is
// ignored except for its existence; in Positions mode, it is appended to
// that k-mer's list (duplicates are permitted).
func (t *Table) Add(pos position.Position, code uint32) {
	if t.positions != nil {
		t.positions[code] = append(t.positions[code], pos)
		return
	}
	t.counts[code]++
}

// AddCount increments a Counts-mode table's entry for code by n directly;
// used by the index reader, which aggregates raw (kmer, count) records from
// disk without synthesizing positions.
func (t *Table) AddCount(code uint32, n uint32) {
	t.counts[code] += n
}

// Count returns the number of occurrences recorded for code, 0 if unseen.
// Valid in both modes (in Positions mode, it is len(Positions(code))).
func (t *Table) Count(code uint32) uint32 {
	if t.positions != nil {
		return uint32(len(t.positions[code]))
	}
	return t.counts[code]
}

// Positions returns the recorded cut-sites for code, or ErrNotPositions if
// this table is in Counts mode.
func (t *Table) Positions(code uint32) ([]position.Position, error) {
	if t.positions == nil {
		return nil, ErrNotPositions
	}
	return t.positions[code], nil
}

// UniqueCount returns the number of k-mers with a non-zero count.
func (t *Table) UniqueCount() uint64 {
	var n uint64
	if t.positions != nil {
		for _, p := range t.positions {
			if len(p) > 0 {
				n++
			}
		}
		return n
	}
	for _, c := range t.counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// EachCount invokes fn once for every k-mer with non-zero count, in
// table-index order. Used by the Counts-mode file writer; on-disk ordering
// is documented as implementation-defined so ascending index order is fine.
func (t *Table) EachCount(fn func(code uint32, count uint32)) {
	for code, c := range t.counts {
		if c > 0 {
			fn(uint32(code), c)
		}
	}
}

// EachPositionList invokes fn once for every k-mer with a non-empty
// position list, in table-index order.
func (t *Table) EachPositionList(fn func(code uint32, positions []position.Position)) {
	for code, ps := range t.positions {
		if len(ps) > 0 {
			fn(uint32(code), ps)
		}
	}
}
