package ioutil

import (
	"strconv"

	"github.com/biogo/store/interval"

	"github.com/laeblab/crispy/internal/crispyerr"
)

// BedRegion is one parsed BED record: 0-based half-open [Start, End), with
// an optional Name column.
type BedRegion struct {
	Chrom string
	Start int
	End   int
	Name  string
}

// bedInterval adapts a BedRegion to biogo/store/interval.Interval so regions
// can be indexed in an interval.Tree per chromosome, matching the library's
// IntRange/Overlap/ID/Range contract.
type bedInterval struct {
	start, end int
	uid        uintptr
	region     BedRegion
}

func (b bedInterval) Overlap(r interval.IntRange) bool {
	return b.start < r.End && r.Start < b.end
}
func (b bedInterval) ID() uintptr            { return b.uid }
func (b bedInterval) Range() interval.IntRange { return interval.IntRange{Start: b.start, End: b.end} }
func (b bedInterval) String() string         { return b.region.Chrom }

// BedIndex answers point-containment queries against a BED file, one
// interval.Tree per chromosome. Grounded on the teacher-adjacent
// grailbio-bio interval package's per-chromosome disjoint-interval design,
// realized here with the real biogo/store/interval tree the pack's
// go.mod set already depends on.
type BedIndex struct {
	trees map[string]*interval.Tree
}

// ReadBed parses a BED stream (chrom, start, end, optional name) into a
// BedIndex.
func ReadBed(rows func(func(TableRow) error) error) (*BedIndex, error) {
	idx := &BedIndex{trees: make(map[string]*interval.Tree)}

	var uid uintptr
	err := rows(func(row TableRow) error {
		if len(row.Columns) < 3 {
			return crispyerr.Fmt(crispyerr.FormatInvalid, "BED row %d: expected at least 3 columns, got %d", row.Index, len(row.Columns))
		}
		start, err := strconv.Atoi(row.Columns[1])
		if err != nil {
			return crispyerr.WrapKind(crispyerr.FormatInvalid, err, "BED row: invalid start coordinate")
		}
		end, err := strconv.Atoi(row.Columns[2])
		if err != nil {
			return crispyerr.WrapKind(crispyerr.FormatInvalid, err, "BED row: invalid end coordinate")
		}
		name := ""
		if len(row.Columns) > 3 {
			name = row.Columns[3]
		}
		region := BedRegion{Chrom: row.Columns[0], Start: start, End: end, Name: name}

		t, ok := idx.trees[region.Chrom]
		if !ok {
			t = &interval.Tree{}
			idx.trees[region.Chrom] = t
		}
		uid++
		if err := t.Insert(bedInterval{start: start, end: end, uid: uid, region: region}, false); err != nil {
			return crispyerr.WrapKind(crispyerr.FormatInvalid, err, "BED row: failed to index interval")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, t := range idx.trees {
		t.AdjustRanges()
	}
	return idx, nil
}

// Contains reports whether (chrom, pos) (0-based) falls inside any indexed
// region, and if so returns the first matching region.
func (idx *BedIndex) Contains(chrom string, pos int) (BedRegion, bool) {
	t, ok := idx.trees[chrom]
	if !ok {
		return BedRegion{}, false
	}
	matches := t.Get(bedInterval{start: pos, end: pos + 1})
	if len(matches) == 0 {
		return BedRegion{}, false
	}
	return matches[0].(bedInterval).region, true
}

// Chroms returns every chromosome name with at least one indexed region.
func (idx *BedIndex) Chroms() []string {
	out := make([]string, 0, len(idx.trees))
	for chrom := range idx.trees {
		out = append(out, chrom)
	}
	return out
}

// Regions returns every indexed region for chrom, in insertion order.
func (idx *BedIndex) Regions(chrom string) []BedRegion {
	t, ok := idx.trees[chrom]
	if !ok {
		return nil
	}
	matches := t.Get(bedInterval{start: 0, end: int(^uint(0) >> 1)})
	out := make([]BedRegion, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.(bedInterval).region)
	}
	return out
}
